package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	kofi "github.com/kofi-lang/go"
)

func fmtCommand() *cli.Command {
	return &cli.Command{
		Name:      "fmt",
		Usage:     "re-render files in canonical form",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "write", Aliases: []string{"w"}, Usage: "write the result back to the file"},
			&cli.BoolFlag{Name: "check", Usage: "exit 1 if any plain .kofi file is not canonical"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return cli.Exit("fmt: missing FILE", 2)
			}
			reg := registry(c)
			unformatted := 0
			for _, path := range c.Args().Slice() {
				doc, err := reg.ReadFile(path)
				if err != nil {
					return cli.Exit(err, 1)
				}
				switch {
				case c.Bool("check"):
					raw, err := os.ReadFile(path)
					if err != nil {
						return cli.Exit(err, 1)
					}
					if !bytes.Equal(raw, []byte(doc.String())) {
						fmt.Fprintln(c.App.Writer, path)
						unformatted++
					}
				case c.Bool("write"):
					if err := reg.WriteFile(path, doc); err != nil {
						return cli.Exit(err, 1)
					}
				default:
					if _, err := doc.WriteTo(c.App.Writer); err != nil {
						return err
					}
				}
			}
			if unformatted > 0 {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "report the first parse error of each file",
		ArgsUsage: "FILE...",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return cli.Exit("check: missing FILE", 2)
			}
			reg := registry(c)
			failed := 0
			for _, path := range c.Args().Slice() {
				if _, err := reg.ReadFile(path); err != nil {
					fmt.Fprintln(c.App.ErrWriter, err)
					failed++
					continue
				}
				fmt.Fprintf(c.App.Writer, "%s: ok\n", path)
			}
			if failed > 0 {
				return cli.Exit(fmt.Sprintf("%d of %d files failed", failed, c.NArg()), 1)
			}
			return nil
		},
	}
}

func sectionFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "section",
		Aliases: []string{"s"},
		Usage:   "section holding the property (default: global section)",
	}
}

func getCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "print a property value",
		ArgsUsage: "FILE KEY",
		Flags:     []cli.Flag{sectionFlag()},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return cli.Exit("get: want FILE KEY", 2)
			}
			doc, err := registry(c).ReadFile(c.Args().Get(0))
			if err != nil {
				return cli.Exit(err, 1)
			}
			section, key := c.String("section"), c.Args().Get(1)
			v, ok := doc.Get(section, key)
			if !ok {
				return cli.Exit(fmt.Sprintf("get: %q not found in section %q", key, section), 1)
			}
			fmt.Fprintln(c.App.Writer, v)
			return nil
		},
	}
}

func setCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "store a property value given as a KoFi literal",
		ArgsUsage: "FILE KEY LITERAL",
		Flags:     []cli.Flag{sectionFlag()},
		Action: func(c *cli.Context) error {
			if c.NArg() != 3 {
				return cli.Exit("set: want FILE KEY LITERAL", 2)
			}
			path := c.Args().Get(0)
			v, err := kofi.ParseValue(c.Args().Get(2))
			if err != nil {
				return cli.Exit(fmt.Sprintf("set: %v", err), 1)
			}
			reg := registry(c)
			doc, err := reg.ReadFile(path)
			if err != nil {
				return cli.Exit(err, 1)
			}
			doc.Set(c.String("section"), c.Args().Get(1), v)
			if err := reg.WriteFile(path, doc); err != nil {
				return cli.Exit(err, 1)
			}
			return nil
		},
	}
}

func mergeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write the result to `FILE` instead of stdout"},
		&cli.StringFlag{Name: "strategy", Value: string(kofi.MergeDeep), Usage: "object merge strategy: deep or replace"},
		&cli.StringFlag{Name: "lists", Value: string(kofi.ListAppend), Usage: "array merge strategy: append, unique or replace"},
	}
}

func mergeOptions(c *cli.Context) (kofi.MergeOptions, error) {
	opts := kofi.MergeOptions{
		Strategy: kofi.MergeStrategy(c.String("strategy")),
		Lists:    kofi.ListStrategy(c.String("lists")),
	}
	switch opts.Strategy {
	case kofi.MergeDeep, kofi.MergeReplace:
	default:
		return opts, cli.Exit(fmt.Sprintf("%s: unknown strategy %q", c.Command.Name, opts.Strategy), 2)
	}
	switch opts.Lists {
	case kofi.ListAppend, kofi.ListUnique, kofi.ListReplace:
	default:
		return opts, cli.Exit(fmt.Sprintf("%s: unknown list strategy %q", c.Command.Name, opts.Lists), 2)
	}
	return opts, nil
}

// output writes doc to the --output file, or to stdout when it is unset.
func output(c *cli.Context, reg *kofi.Registry, doc *kofi.Document) error {
	if out := c.String("output"); out != "" {
		if err := reg.WriteFile(out, doc); err != nil {
			return cli.Exit(err, 1)
		}
		return nil
	}
	_, err := doc.WriteTo(c.App.Writer)
	return err
}

func mergeCommand() *cli.Command {
	return &cli.Command{
		Name:      "merge",
		Usage:     "layer overlay documents over a base document",
		ArgsUsage: "BASE OVERLAY...",
		Flags:     mergeFlags(),
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return cli.Exit("merge: want BASE OVERLAY...", 2)
			}
			opts, err := mergeOptions(c)
			if err != nil {
				return err
			}

			reg := registry(c)
			paths := c.Args().Slice()
			result, err := reg.ReadFile(paths[0])
			if err != nil {
				return cli.Exit(err, 1)
			}
			for _, path := range paths[1:] {
				top, err := reg.ReadFile(path)
				if err != nil {
					return cli.Exit(err, 1)
				}
				result = kofi.Overlay(result, top, opts)
			}
			return output(c, reg, result)
		},
	}
}

func resolveCommand() *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "print a document with its includes layered beneath it",
		ArgsUsage: "FILE",
		Flags:     mergeFlags(),
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("resolve: want FILE", 2)
			}
			opts, err := mergeOptions(c)
			if err != nil {
				return err
			}

			reg := registry(c)
			doc, err := kofi.NewLoader(reg).WithOptions(opts).Load(c.Args().First())
			if err != nil {
				return cli.Exit(err, 1)
			}
			return output(c, reg, doc)
		},
	}
}
