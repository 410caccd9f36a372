package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"quill/internal/diag"
	"quill/internal/diagfmt"
	"quill/internal/source"
)

func readDiagnosticsStyle(cmd *cobra.Command) (string, error) {
	style, err := cmd.Root().PersistentFlags().GetString("diagnostics")
	if err != nil {
		return "", err
	}
	switch style = strings.ToLower(strings.TrimSpace(style)); style {
	case "", "short":
		return "short", nil
	case "pretty":
		return style, nil
	}
	return "", fmt.Errorf("invalid --diagnostics value %q (expected short|pretty)", style)
}

// writeDiagnostics prints diags in the chosen style. Pretty output follows
// the --color setting.
func writeDiagnostics(w io.Writer, style string, diags []diag.Diagnostic, fs *source.FileSet, baseDir string) error {
	if style == "pretty" {
		return diagfmt.Pretty(w, diags, fs, diagfmt.PrettyOpts{
			Color:     !color.NoColor,
			BaseDir:   baseDir,
			ShowNotes: true,
		})
	}
	_, err := fmt.Fprintln(w, diag.FormatShortDiagnostics(diags, fs, baseDir, true))
	return err
}
