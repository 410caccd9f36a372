// Package driver runs the formatter over files: it expands paths, resolves
// quill.toml per directory, formats in parallel, consults the disk cache and
// writes results back.
package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"quill/internal/diag"
	"quill/internal/jsonfmt"
	"quill/internal/printer"
	"quill/internal/source"
	"quill/internal/trace"
)

const defaultMaxDiagnostics = 64

// ErrNoFiles is returned when the given paths hold nothing to format.
var ErrNoFiles = errors.New("no files to format")

// FormatResult captures the result of formatting a single file.
type FormatResult struct {
	Path    string
	Changed bool
	Cached  bool
	Err     error
	// Original is the input as read; Formatted is set whenever Err is nil.
	Original  []byte
	Formatted []byte
	Markers   []printer.SourceMarker
	Stats     printer.Stats
	// Files resolves the spans of Diagnostics.
	Files       *source.FileSet
	Diagnostics []diag.Diagnostic
	Elapsed     time.Duration
}

// FormatPaths formats files and directories (collecting .json and .jsonc
// files recursively). Files are formatted concurrently; results come back in
// path order. Per-file failures are reported in FormatResult.Err, the
// returned error is for the run as a whole (no files, cancellation).
func FormatPaths(ctx context.Context, paths []string, opts FormatOptions) ([]FormatResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tracer := trace.FromContext(ctx)
	run := trace.Begin(tracer, trace.ScopeDriver, "fmt", trace.SpanFromContext(ctx))
	ctx = trace.WithSpan(ctx, run)

	collect := -1
	if opts.Timer != nil {
		collect = opts.Timer.Begin("collect")
	}
	files, err := CollectFiles(ctx, paths)
	if opts.Timer != nil {
		opts.Timer.End(collect, strconv.Itoa(len(files))+" files")
	}
	if err != nil {
		run.End(err.Error())
		return nil, err
	}
	if len(files) == 0 {
		run.End("no files")
		return nil, ErrNoFiles
	}

	for _, path := range files {
		emit(opts.Progress, Event{File: path, Status: StatusQueued})
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	formatPhase := -1
	if opts.Timer != nil {
		formatPhase = opts.Timer.Begin("format")
	}

	// каждая горутина пишет только в свой индекс
	results := make([]FormatResult, len(files))
	res := newResolver(opts)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = formatPath(gctx, path, res, opts)
			return nil
		})
	}
	err = g.Wait()

	changed, failed := Summarize(results)
	if opts.Timer != nil {
		opts.Timer.End(formatPhase, fmt.Sprintf("jobs=%d", jobs))
	}
	run.WithExtra("files", strconv.Itoa(len(files))).
		WithExtra("changed", strconv.Itoa(changed)).
		WithExtra("failed", strconv.Itoa(failed)).
		End("")
	emit(opts.Progress, Event{Status: StatusDone})
	return results, err
}

// Summarize counts changed and failed results.
func Summarize(results []FormatResult) (changed, failed int) {
	for i := range results {
		if results[i].Err != nil {
			failed++
		} else if results[i].Changed {
			changed++
		}
	}
	return changed, failed
}

func formatPath(ctx context.Context, path string, res *resolver, opts FormatOptions) FormatResult {
	start := time.Now()
	tracer := trace.FromContext(ctx)
	fileSpan := trace.Begin(tracer, trace.ScopeFile, "file:"+path, trace.SpanFromContext(ctx))
	if fileSpan.ID() != 0 {
		ctx = trace.WithSpan(ctx, fileSpan)
	}

	fail := func(stage Stage, err error) FormatResult {
		emit(opts.Progress, Event{File: path, Stage: stage, Status: StatusError, Err: err, Elapsed: time.Since(start)})
		fileSpan.End("error: " + err.Error())
		return FormatResult{Path: path, Err: err, Elapsed: time.Since(start)}
	}

	emit(opts.Progress, Event{File: path, Stage: StageRead, Status: StatusWorking})
	readStart := time.Now()
	// #nosec G304 -- path is provided by the caller
	raw, err := os.ReadFile(path)
	opts.Timer.Observe("read", time.Since(readStart))
	if err != nil {
		return fail(StageRead, err)
	}
	settings, err := res.settingsFor(path)
	if err != nil {
		return fail(StageRead, err)
	}

	result := FormatSource(ctx, path, raw, settings, opts)
	if result.Err != nil {
		result.Elapsed = time.Since(start)
		emit(opts.Progress, Event{File: path, Stage: StageParse, Status: StatusError, Err: result.Err, Elapsed: result.Elapsed})
		fileSpan.End("error")
		return result
	}

	if result.Changed && !opts.Check && !opts.Stdout {
		emit(opts.Progress, Event{File: path, Stage: StageWrite, Status: StatusWorking})
		span := trace.Begin(tracer, trace.ScopePass, "write", trace.SpanFromContext(ctx))
		writeStart := time.Now()
		err := WriteFile(path, result.Formatted)
		opts.Timer.Observe("write", time.Since(writeStart))
		span.End("")
		if err != nil {
			result.Err = err
			result.Elapsed = time.Since(start)
			emit(opts.Progress, Event{File: path, Stage: StageWrite, Status: StatusError, Err: err, Elapsed: result.Elapsed})
			fileSpan.End("error")
			return result
		}
	}

	result.Elapsed = time.Since(start)
	emit(opts.Progress, Event{File: path, Stage: StageWrite, Status: StatusDone, Changed: result.Changed, Elapsed: result.Elapsed})
	fileSpan.WithExtra("changed", strconv.FormatBool(result.Changed)).
		WithExtra("cached", strconv.FormatBool(result.Cached)).
		End("")
	return result
}

// FormatSource formats raw input named name with s. Nothing is written;
// Changed compares the output with raw.
func FormatSource(ctx context.Context, name string, raw []byte, s Settings, opts FormatOptions) (result FormatResult) {
	tracer := trace.FromContext(ctx)
	parent := trace.SpanFromContext(ctx)
	result = FormatResult{Path: name, Original: raw}

	key := CacheKey(raw, s.fingerprints()...)
	if opts.Cache != nil {
		var payload DiskPayload
		// an unverified entry does not satisfy a verifying run
		if ok, err := opts.Cache.Get(key, &payload); err == nil && ok && (payload.Verified || !opts.Verify) {
			trace.Point(tracer, trace.ScopeFile, "cache", "hit", parent)
			result.Cached = true
			result.Formatted = payload.Output
			result.Markers = unpackMarkers(payload.Markers)
			result.Stats = payload.Stats
			result.Changed = !bytes.Equal(raw, payload.Output)
			return result
		}
	}

	maxDiag := opts.MaxDiagnostics
	if maxDiag <= 0 {
		maxDiag = defaultMaxDiagnostics
	}
	bag := diag.NewBag(maxDiag)
	fs := source.NewFileSet()
	result.Files = fs
	defer func() { result.Diagnostics = bag.Items() }()

	content, flags, err := source.Normalize(raw)
	if err != nil {
		id := fs.Add(name, raw, 0)
		diag.ReportError(diag.BagReporter{Bag: bag}, diag.IOEncodingError, source.At(id, 0), err.Error()).Emit()
		result.Err = fmt.Errorf("%s: %w", name, err)
		return result
	}
	file := fs.Get(fs.Add(name, content, flags))

	emit(opts.Progress, Event{File: name, Stage: StageParse, Status: StatusWorking})
	parseStart := time.Now()
	span := trace.Begin(tracer, trace.ScopePass, "parse", parent)
	d, err := jsonfmt.Document(file, s.JSON, diag.BagReporter{Bag: bag})
	span.End("")
	opts.Timer.Observe("parse", time.Since(parseStart))
	if err != nil {
		result.Err = err
		return result
	}

	emit(opts.Progress, Event{File: name, Stage: StagePrint, Status: StatusWorking})
	printStart := time.Now()
	span = trace.Begin(tracer, trace.ScopePass, "print", parent)
	out := printer.Print(d, s.Printer)
	span.WithExtra("flat_attempts", strconv.Itoa(out.Stats.FlatAttempts)).
		WithExtra("flat_rollbacks", strconv.Itoa(out.Stats.FlatRollbacks)).
		WithExtra("max_queue", strconv.Itoa(out.Stats.MaxQueueDepth)).
		WithExtra("lines", strconv.Itoa(out.Stats.Lines)).
		End("")
	opts.Timer.Observe("print", time.Since(printStart))

	result.Formatted = []byte(out.Code)
	result.Markers = out.Markers
	result.Stats = out.Stats
	result.Changed = !bytes.Equal(raw, result.Formatted)

	if opts.Verify {
		span = trace.Begin(tracer, trace.ScopePass, "verify", parent)
		err := CheckIdempotent(fs, name, result.Formatted, s, diag.BagReporter{Bag: bag})
		span.End("")
		if err != nil {
			result.Err = err
			return result
		}
	}

	if opts.Cache != nil {
		payload := DiskPayload{Output: result.Formatted, Markers: packMarkers(out.Markers), Stats: out.Stats, Verified: opts.Verify}
		if err := opts.Cache.Put(key, &payload); err != nil {
			trace.Point(tracer, trace.ScopeFile, "cache", "put failed: "+err.Error(), parent)
		}
	}
	return result
}

// WriteFile replaces path with data, keeping the file's permissions.
func WriteFile(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode()
	}
	if err := os.WriteFile(path, data, mode.Perm()); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
