// kofi - KoFi configuration file tool
//
// Usage:
//
//	kofi fmt [--write|--check] FILE...            Re-render files in canonical form
//	kofi check FILE...                            Report the first parse error of each file
//	kofi get [--section NAME] FILE KEY            Print a property value
//	kofi set [--section NAME] FILE KEY LITERAL    Store a property value
//	kofi merge [--output FILE] BASE OVERLAY...    Layer documents over a base
//	kofi resolve [--output FILE] FILE             Apply a document's includes
//	kofi repl                                     Evaluate value literals interactively
//
// Files ending in .kofi.gz and .kofi.zst are compressed transparently.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/urfave/cli/v2"

	kofi "github.com/kofi-lang/go"
)

const version = "0.3.0"

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "kofi",
		Usage:     "format, query and edit KoFi configuration files",
		Version:   version,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "workers",
				Usage:   "goroutines used to parse large files",
				Value:   runtime.GOMAXPROCS(0),
				EnvVars: []string{"KOFI_WORKERS"},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "log parser diagnostics to stderr",
				EnvVars: []string{"KOFI_VERBOSE"},
			},
		},
		Commands: []*cli.Command{
			fmtCommand(),
			checkCommand(),
			getCommand(),
			setCommand(),
			mergeCommand(),
			resolveCommand(),
			replCommand(),
		},
	}
}

// registry builds the codec registry from the global flags.
func registry(c *cli.Context) *kofi.Registry {
	level := slog.LevelWarn
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: level}))
	p := kofi.NewParser().WithWorkers(c.Int("workers")).WithLogger(logger)
	return kofi.NewRegistry(p)
}
