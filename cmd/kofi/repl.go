package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/urfave/cli/v2"

	kofi "github.com/kofi-lang/go"
)

const historyFile = ".kofi_history"

func replCommand() *cli.Command {
	return &cli.Command{
		Name:  "repl",
		Usage: "evaluate KoFi value literals interactively",
		Action: func(c *cli.Context) error {
			return runRepl(c)
		},
	}
}

func runRepl(c *cli.Context) error {
	fmt.Fprintf(c.App.Writer, "kofi %s\nEnter a value literal or a `key = value` line. Ctrl+D exits.\n", version)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	for {
		line, err := ln.Prompt("kofi> ")
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Fprintln(c.App.Writer)
			return nil
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		ln.AppendHistory(line)
		fmt.Fprintln(c.App.Writer, evaluate(line))
	}
}

// evaluate describes one REPL input: a value literal, or any document line.
func evaluate(line string) string {
	if v, err := kofi.ParseValue(line); err == nil {
		return fmt.Sprintf("%s: %s", v.Kind(), v)
	}
	doc, err := kofi.ParseString(line)
	if err != nil {
		return "error: " + err.Error()
	}
	if doc.Len() == 0 {
		return ""
	}
	switch e := doc.At(0).(type) {
	case kofi.Property:
		return fmt.Sprintf("property %q: %s: %s", e.Key, e.Value.Kind(), e.Value)
	case kofi.Section:
		return fmt.Sprintf("section %q", e.Name)
	case kofi.Comment:
		return fmt.Sprintf("comment %q", e.Text)
	}
	return ""
}
