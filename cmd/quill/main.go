package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"quill/internal/version"
)

// errReported is returned after the command already told the user what went
// wrong; main only sets the exit code.
var errReported = errors.New("reported")

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "quill",
		Short:         "Width-aware formatter for JSON and JSON with comments",
		Long:          `quill lays out JSON documents to fit a line width, keeping comments and blank lines.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := applyColorFlag(cmd); err != nil {
				return err
			}
			if err := setupTracing(cmd); err != nil {
				return err
			}
			return setupProfiling(cmd)
		},
	}

	// Глобальные флаги
	pf := root.PersistentFlags()
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("quiet", false, "suppress non-essential output")
	pf.Bool("timings", false, "show timing information")
	pf.String("config", "", "use this quill.toml instead of discovering one per directory")
	pf.Int("max-diagnostics", 64, "maximum number of diagnostics per file")
	pf.String("diagnostics", "short", "diagnostic style (short|pretty)")
	addTraceFlags(root)
	addProfileFlags(root)

	root.AddCommand(newFmtCmd(), newIRCmd(), newVersionCmd())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	root := newRootCmd()
	err := root.ExecuteContext(ctx)
	stop()
	if perr := activeProfile.Stop(); perr != nil {
		fmt.Fprintf(os.Stderr, "quill: %v\n", perr)
	}
	finishTracing(root, err)
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "quill: %v\n", err)
		}
		os.Exit(1)
	}
}

func applyColorFlag(cmd *cobra.Command) error {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return err
	}
	switch strings.ToLower(mode) {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto", "":
		color.NoColor = !isTerminal(os.Stdout)
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}
	return nil
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
