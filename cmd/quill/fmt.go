package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"

	"quill/internal/config"
	"quill/internal/diagfmt"
	"quill/internal/driver"
	"quill/internal/observ"
	"quill/internal/source"
)

type fmtFlags struct {
	check     bool
	diff      bool
	stdout    bool
	verify    bool
	watch     bool
	noCache   bool
	markers   bool
	format    string
	jobs      int
	ui        string
	overrides config.Overrides
}

func newFmtCmd() *cobra.Command {
	f := &fmtFlags{}
	cmd := &cobra.Command{
		Use:   "fmt [flags] <path> [path...]",
		Short: "Format JSON and JSONC files",
		Long: `Format rewrites .json and .jsonc files in place (directories are walked recursively).
Use - as the only path to read standard input and write standard output.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFmt(cmd, args, f)
		},
	}
	fl := cmd.Flags()
	fl.BoolVar(&f.check, "check", false, "list files that need formatting without changing them")
	fl.BoolVar(&f.diff, "diff", false, "with --check, show a unified diff per file")
	fl.BoolVar(&f.stdout, "stdout", false, "print formatted code to stdout instead of rewriting files")
	fl.BoolVar(&f.verify, "verify", false, "format every result twice and fail when the passes disagree")
	fl.BoolVar(&f.watch, "watch", false, "keep running and reformat files when they change")
	fl.BoolVar(&f.noCache, "no-cache", false, "do not read or write the formatting cache")
	fl.BoolVar(&f.markers, "markers", false, "print source markers (source offset -> output offset)")
	fl.StringVar(&f.format, "format", "text", "output format (text|json)")
	fl.IntVar(&f.jobs, "jobs", 0, "files formatted in parallel (0 = GOMAXPROCS)")
	fl.StringVar(&f.ui, "ui", "auto", "progress view (auto|on|off)")
	addOverrideFlags(cmd, &f.overrides)
	return cmd
}

func addOverrideFlags(cmd *cobra.Command, o *config.Overrides) {
	fl := cmd.Flags()
	fl.StringVar(&o.IndentStyle, "indent-style", "", "override [format] indent_style (space|tab)")
	fl.IntVar(&o.IndentWidth, "indent-width", 0, "override [format] indent_width")
	fl.IntVar(&o.TabWidth, "tab-width", 0, "override [format] tab_width")
	fl.IntVar(&o.LineWidth, "line-width", 0, "override [format] line_width")
	fl.StringVar(&o.LineEnding, "line-ending", "", "override [format] line_ending (lf|crlf|cr)")
	fl.StringVar(&o.TrailingCommas, "trailing-commas", "", "override [json] trailing_commas (none|all)")
}

func (f *fmtFlags) validate(args []string) error {
	switch f.format {
	case "text", "json":
	default:
		return fmt.Errorf("fmt: unsupported output format %q", f.format)
	}
	if _, err := readUIMode(f.ui); err != nil {
		return err
	}
	stdin := false
	for _, a := range args {
		if a == "-" {
			stdin = true
		}
	}
	switch {
	case stdin && len(args) > 1:
		return errors.New("fmt: - must be the only path")
	case f.stdout && f.check:
		return errors.New("fmt: --stdout cannot be used with --check")
	case f.stdout && f.format != "text":
		return errors.New("fmt: --stdout is only supported with text output")
	case f.diff && !f.check:
		return errors.New("fmt: --diff requires --check")
	case f.watch && (f.check || f.stdout || stdin):
		return errors.New("fmt: --watch cannot be combined with --check, --stdout or stdin")
	}
	return nil
}

func runFmt(cmd *cobra.Command, args []string, f *fmtFlags) error {
	if err := f.validate(args); err != nil {
		return err
	}
	pf := cmd.Root().PersistentFlags()
	quiet, err := pf.GetBool("quiet")
	if err != nil {
		return err
	}
	timings, err := pf.GetBool("timings")
	if err != nil {
		return err
	}
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

	opts := driver.FormatOptions{
		Check:          f.check,
		Stdout:         f.stdout,
		Verify:         f.verify,
		Jobs:           f.jobs,
		Overrides:      f.overrides,
		MaxDiagnostics: maxDiagnostics,
	}
	if configPath != "" {
		if opts.Config, err = config.Load(configPath); err != nil {
			return err
		}
	}
	if !f.noCache {
		cache, err := driver.OpenDiskCache("quill")
		if err != nil && !quiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "fmt: cache disabled: %v\n", err)
		}
		opts.Cache = cache
	}
	if timings {
		opts.Timer = observ.NewTimer()
	}

	baseDir, err := os.Getwd()
	if err != nil {
		baseDir = ""
	}
	rep := &fmtReport{
		out:       cmd.OutOrStdout(),
		errOut:    cmd.ErrOrStderr(),
		flags:     f,
		quiet:     quiet,
		baseDir:   baseDir,
		diagStyle: diagStyle,
	}
	ctx := cmd.Context()

	if args[0] == "-" {
		return runFmtStdin(ctx, cmd.InOrStdin(), rep, opts)
	}

	if f.watch {
		if !quiet {
			fmt.Fprintln(rep.errOut, "watching for changes, press Ctrl+C to stop")
		}
		err := driver.Watch(ctx, args, driver.WatchOptions{
			FormatOptions: opts,
			OnResults: func(results []driver.FormatResult) {
				_ = rep.finish(results, 0, nil)
			},
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	start := time.Now()
	mode, _ := readUIMode(f.ui) //nolint:errcheck // validated above
	var results []driver.FormatResult
	if f.format == "text" && !f.stdout && !quiet && mode.useTUI() {
		files, err := driver.CollectFiles(ctx, args)
		if err != nil {
			return err
		}
		results, err = runFormatWithUI(ctx, "quill fmt", files, args, opts)
		if err != nil {
			return err
		}
	} else {
		if results, err = driver.FormatPaths(ctx, args, opts); err != nil {
			return err
		}
	}
	return rep.finish(results, time.Since(start), opts.Timer)
}

func runFmtStdin(ctx context.Context, in io.Reader, rep *fmtReport, opts driver.FormatOptions) error {
	raw, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("fmt: failed to read stdin: %w", err)
	}
	cfg := opts.Config
	if cfg == nil {
		if cfg, err = config.Discover("."); err != nil {
			return err
		}
	}
	settings, err := driver.ResolveSettings(cfg, opts.Overrides)
	if err != nil {
		return err
	}
	if !opts.Check {
		rep.flags.stdout = true
	}
	start := time.Now()
	res := driver.FormatSource(ctx, "<stdin>", raw, settings, opts)
	return rep.finish([]driver.FormatResult{res}, time.Since(start), opts.Timer)
}

// fmtReport renders results of a fmt run.
type fmtReport struct {
	out     io.Writer
	errOut  io.Writer
	flags   *fmtFlags
	quiet     bool
	baseDir   string
	diagStyle string
}

func (r *fmtReport) rel(path string) string {
	if r.baseDir == "" || path == "<stdin>" {
		return path
	}
	if rel, err := source.RelativePath(path, r.baseDir); err == nil {
		return rel
	}
	return path
}

// finish prints results and turns failures (or pending changes in check
// mode) into errReported.
func (r *fmtReport) finish(results []driver.FormatResult, elapsed time.Duration, timer *observ.Timer) error {
	var err error
	if r.flags.format == "json" {
		err = r.renderJSON(results)
	} else {
		err = r.renderText(results)
	}
	if err != nil {
		return err
	}
	r.renderFailures(results)
	if timer != nil {
		fmt.Fprint(r.errOut, timer.Summary())
	}

	changed, failed := driver.Summarize(results)
	if !r.quiet && r.flags.format == "text" && !r.flags.stdout && elapsed > 0 {
		fmt.Fprintln(r.errOut, summaryLine(results, elapsed))
	}
	if failed > 0 || (r.flags.check && changed > 0) {
		return errReported
	}
	return nil
}

func (r *fmtReport) renderText(results []driver.FormatResult) error {
	markersOut := r.out
	if r.flags.stdout {
		markersOut = r.errOut
	}
	for i := range results {
		res := &results[i]
		if res.Err != nil {
			continue
		}
		path := r.rel(res.Path)
		switch {
		case r.flags.stdout:
			if _, err := r.out.Write(res.Formatted); err != nil {
				return err
			}
		case r.flags.check:
			if res.Changed && !r.quiet {
				fmt.Fprintln(r.out, path)
				if r.flags.diff {
					if err := writeDiff(r.out, path, res.Original, res.Formatted); err != nil {
						return err
					}
				}
			}
		default:
			if res.Changed && !r.quiet {
				fmt.Fprintf(r.out, "reformatted %s\n", path)
			}
		}
		if r.flags.markers {
			for _, m := range res.Markers {
				fmt.Fprintf(markersOut, "%s: %d -> %d\n", path, m.Source, m.Dest)
			}
		}
	}
	return nil
}

func (r *fmtReport) renderFailures(results []driver.FormatResult) {
	for i := range results {
		res := &results[i]
		if res.Err == nil {
			continue
		}
		if len(res.Diagnostics) > 0 && res.Files != nil {
			if err := writeDiagnostics(r.errOut, r.diagStyle, res.Diagnostics, res.Files, r.baseDir); err == nil {
				continue
			}
		}
		fmt.Fprintf(r.errOut, "fmt: %s: %v\n", r.rel(res.Path), res.Err)
	}
}

type jsonMarker struct {
	Source uint32 `json:"source"`
	Dest   uint32 `json:"dest"`
}

type jsonResult struct {
	Path        string                   `json:"path"`
	Changed     bool                     `json:"changed"`
	Cached      bool                     `json:"cached,omitempty"`
	CheckRun    bool                     `json:"check"`
	Error       string                   `json:"error,omitempty"`
	Diagnostics []diagfmt.DiagnosticJSON `json:"diagnostics,omitempty"`
	Lines       int                      `json:"lines,omitempty"`
	Markers     []jsonMarker             `json:"markers,omitempty"`
}

func (r *fmtReport) renderJSON(results []driver.FormatResult) error {
	payload := make([]jsonResult, 0, len(results))
	for i := range results {
		res := &results[i]
		jr := jsonResult{
			Path:     r.rel(res.Path),
			Changed:  res.Changed,
			Cached:   res.Cached,
			CheckRun: r.flags.check,
			Lines:    res.Stats.Lines,
		}
		if res.Err != nil {
			jr.Error = res.Err.Error()
			jr.Diagnostics = diagfmt.Build(res.Diagnostics, res.Files, diagfmt.JSONOpts{
				BaseDir:          r.baseDir,
				IncludePositions: true,
				IncludeNotes:     true,
			})
		}
		if r.flags.markers {
			for _, m := range res.Markers {
				jr.Markers = append(jr.Markers, jsonMarker{Source: m.Source, Dest: m.Dest})
			}
		}
		payload = append(payload, jr)
	}
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

var (
	diffAdd  = color.New(color.FgGreen)
	diffDel  = color.New(color.FgRed)
	diffHunk = color.New(color.FgCyan)
)

// writeDiff prints a unified diff between the original and formatted text.
func writeDiff(w io.Writer, path string, original, formatted []byte) error {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(original)),
		B:        difflib.SplitLines(string(formatted)),
		FromFile: path,
		ToFile:   path + " (formatted)",
		Context:  3,
	})
	if err != nil {
		return err
	}
	for _, line := range difflib.SplitLines(text) {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			_, err = io.WriteString(w, line)
		case strings.HasPrefix(line, "+"):
			_, err = diffAdd.Fprint(w, line)
		case strings.HasPrefix(line, "-"):
			_, err = diffDel.Fprint(w, line)
		case strings.HasPrefix(line, "@@"):
			_, err = diffHunk.Fprint(w, line)
		default:
			_, err = io.WriteString(w, line)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// summaryLine: "3 files, 1 changed, 0 failed (2 cached), 1.2 kB in 4ms"
func summaryLine(results []driver.FormatResult, elapsed time.Duration) string {
	changed, failed := driver.Summarize(results)
	var cached int
	var size uint64
	for i := range results {
		if results[i].Cached {
			cached++
		}
		size += uint64(len(results[i].Formatted))
	}
	line := fmt.Sprintf("%s files, %d changed, %d failed", humanize.Comma(int64(len(results))), changed, failed)
	if cached > 0 {
		line += fmt.Sprintf(" (%d cached)", cached)
	}
	return fmt.Sprintf("%s, %s in %s", line, humanize.Bytes(size), elapsed.Round(time.Millisecond))
}
