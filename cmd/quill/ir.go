package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"quill/internal/config"
	"quill/internal/diag"
	"quill/internal/driver"
	"quill/internal/irfmt"
	"quill/internal/jsonfmt"
	"quill/internal/source"
)

func newIRCmd() *cobra.Command {
	var (
		raw       bool
		overrides config.Overrides
	)
	cmd := &cobra.Command{
		Use:   "ir [flags] <file>",
		Short: "Print the document IR built for a JSON file",
		Long: `ir prints the document the formatter would hand to the printer.
With --raw the flat tag stream is printed before nesting is assembled.
Use - to read standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIR(cmd, args[0], raw, overrides)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the flat tag stream")
	cmd.Flags().StringVar(&overrides.TrailingCommas, "trailing-commas", "", "override [json] trailing_commas (none|all)")
	return cmd
}

func runIR(cmd *cobra.Command, path string, raw bool, overrides config.Overrides) error {
	pf := cmd.Root().PersistentFlags()
	maxDiagnostics, err := pf.GetInt("max-diagnostics")
	if err != nil {
		return err
	}
	configPath, err := pf.GetString("config")
	if err != nil {
		return err
	}

	diagStyle, err := readDiagnosticsStyle(cmd)
	if err != nil {
		return err
	}

	fs := source.NewFileSet()
	var id source.FileID
	startDir := "."
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("ir: failed to read stdin: %w", err)
		}
		id = fs.AddVirtual("<stdin>", data)
	} else {
		if id, err = fs.Load(path); err != nil {
			return err
		}
		startDir = filepath.Dir(path)
	}

	var cfg *config.Config
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.Discover(startDir)
	}
	if err != nil {
		return err
	}
	settings, err := driver.ResolveSettings(cfg, overrides)
	if err != nil {
		return err
	}

	bag := diag.NewBag(maxDiagnostics)
	buf, err := jsonfmt.BuildFile(fs.Get(id), settings.JSON, diag.BagReporter{Bag: bag})
	if err != nil {
		if errors.Is(err, jsonfmt.ErrSyntax) && bag.Len() > 0 {
			bag.Sort()
			if err := writeDiagnostics(cmd.ErrOrStderr(), diagStyle, bag.Items(), fs, ""); err != nil {
				return err
			}
			return errReported
		}
		return err
	}

	var text string
	if raw {
		text = irfmt.RenderStream(buf.Stream())
	} else {
		d, err := buf.Finish()
		if err != nil {
			return err
		}
		text = irfmt.Render(d)
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	_, err = io.WriteString(cmd.OutOrStdout(), text)
	return err
}
