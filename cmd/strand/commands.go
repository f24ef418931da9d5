package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dshills/strand/internal/app"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	allocator  string
	noEnv      bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:   "strand",
		Short: "Inspect and stream text through persistent ropes",
		Long: `strand loads files into immutable ropes and runs rope operations on them:
concatenation, slicing, repetition, comparison, structure statistics and
Lua-generated text.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "path to a TOML or YAML configuration file")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&flags.allocator, "allocator", "", "node allocator (heap, pool)")
	pf.BoolVar(&flags.noEnv, "no-env", false, "ignore STRAND_* environment variables")

	// withApp builds the application for one command and checks for leaked
	// rope storage once the command is done.
	withApp := func(cmd *cobra.Command, fn func(a *app.Application) error) error {
		a, err := app.New(cmd.Context(), app.Options{
			ConfigPath: flags.configPath,
			LogLevel:   flags.logLevel,
			Allocator:  flags.allocator,
			IgnoreEnv:  flags.noEnv,
			Stdout:     stdout,
			Stderr:     stderr,
		})
		if err != nil {
			return err
		}
		var errs app.ErrorList
		errs.Add(fn(a))
		errs.Add(a.Close())
		return errs.AsError()
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "cat FILE...",
			Short: "Concatenate files and write them to stdout",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, func(a *app.Application) error {
					return a.Cat(cmd.Context(), args)
				})
			},
		},
		&cobra.Command{
			Use:   "slice FILE POS LEN",
			Short: "Write LEN bytes of FILE starting at byte POS",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				pos, err := parseCount("POS", args[1])
				if err != nil {
					return err
				}
				n, err := parseCount("LEN", args[2])
				if err != nil {
					return err
				}
				return withApp(cmd, func(a *app.Application) error {
					return a.Slice(args[0], pos, n)
				})
			},
		},
		&cobra.Command{
			Use:   "repeat CHAR N",
			Short: "Write N copies of a single byte",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if len(args[0]) != 1 {
					return fmt.Errorf("%w: CHAR must be one byte, got %q", app.ErrInvalidArgument, args[0])
				}
				n, err := parseCount("N", args[1])
				if err != nil {
					return err
				}
				return withApp(cmd, func(a *app.Application) error {
					return a.Repeat(args[0][0], n)
				})
			},
		},
		&cobra.Command{
			Use:   "cmp A B",
			Short: "Compare two files byte-wise and print -1, 0 or 1",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, func(a *app.Application) error {
					_, err := a.Cmp(cmd.Context(), args[0], args[1])
					return err
				})
			},
		},
		newStatsCmd(withApp),
		newTreeCmd(withApp),
		&cobra.Command{
			Use:   "gen SCRIPT LEN",
			Short: "Write LEN bytes produced by generate(pos, n) in a Lua script",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := parseCount("LEN", args[1])
				if err != nil {
					return err
				}
				return withApp(cmd, func(a *app.Application) error {
					return a.Gen(args[0], n)
				})
			},
		},
	)

	return root
}

type appRunner func(cmd *cobra.Command, fn func(a *app.Application) error) error

func newStatsCmd(withApp appRunner) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats FILE...",
		Short: "Print text and tree statistics of files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app.Application) error {
				return a.Stats(cmd.Context(), args, asJSON)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print one JSON document")
	return cmd
}

func newTreeCmd(withApp appRunner) *cobra.Command {
	var maxDepth int
	cmd := &cobra.Command{
		Use:   "tree FILE",
		Short: "Draw the node structure of a file's rope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app.Application) error {
				return a.Tree(args[0], maxDepth)
			})
		},
	}
	cmd.Flags().IntVar(&maxDepth, "max-depth", -1, "fold nodes deeper than this many levels (-1 shows all)")
	return cmd
}

func parseCount(name, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer, got %q", app.ErrInvalidArgument, name, s)
	}
	return n, nil
}
