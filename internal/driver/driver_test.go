package driver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"quill/internal/config"
	"quill/internal/diag"
	"quill/internal/jsonfmt"
	"quill/internal/observ"
	"quill/internal/printer"
	"quill/internal/source"
	"quill/internal/trace"
)

func writeFile(t *testing.T, path, content string, perm os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func defaults() FormatOptions {
	return FormatOptions{Config: config.Default()}
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"a.json", "b.JSONC", "notes.txt", "sub/c.json",
		".git/d.json", "node_modules/e.json", "sub/.cache/f.json",
	} {
		writeFile(t, filepath.Join(dir, name), "{}", 0o644)
	}
	explicit := filepath.Join(dir, "notes.txt")

	files, err := CollectFiles(context.Background(), []string{dir, explicit, filepath.Join(dir, "a.json")})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(dir, "a.json"),
		filepath.Join(dir, "b.JSONC"),
		filepath.Join(dir, "notes.txt"),
		filepath.Join(dir, "sub", "c.json"),
	}
	if strings.Join(files, "\n") != strings.Join(want, "\n") {
		t.Fatalf("files:\n%s\nwant:\n%s", strings.Join(files, "\n"), strings.Join(want, "\n"))
	}

	if _, err := CollectFiles(context.Background(), []string{filepath.Join(dir, "missing")}); err == nil {
		t.Fatalf("expected error for a missing path")
	}
}

func TestFormatPathsWritesChanges(t *testing.T) {
	dir := t.TempDir()
	messy := filepath.Join(dir, "a.json")
	clean := filepath.Join(dir, "b.json")
	writeFile(t, messy, `{"a":1}`, 0o600)
	writeFile(t, clean, "[1, 2]\n", 0o644)

	results, err := FormatPaths(context.Background(), []string{dir}, defaults())
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	if r := results[0]; r.Path != messy || !r.Changed || r.Err != nil {
		t.Fatalf("messy result = %+v", r)
	}
	if r := results[1]; r.Changed || r.Err != nil {
		t.Fatalf("clean result = %+v", r)
	}
	if got := readFile(t, messy); got != "{ \"a\": 1 }\n" {
		t.Fatalf("file content %q", got)
	}
	info, err := os.Stat(messy)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("mode changed to %v", info.Mode().Perm())
	}
	if changed, failed := Summarize(results); changed != 1 || failed != 0 {
		t.Fatalf("Summarize = %d, %d", changed, failed)
	}
}

func TestFormatPathsCheckLeavesFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.json")
	writeFile(t, path, `[1,2]`, 0o644)

	opts := defaults()
	opts.Check = true
	results, err := FormatPaths(context.Background(), []string{path}, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !results[0].Changed || string(results[0].Formatted) != "[1, 2]\n" {
		t.Fatalf("result = %+v", results[0])
	}
	if got := readFile(t, path); got != `[1,2]` {
		t.Fatalf("check mode modified the file: %q", got)
	}
}

func TestFormatPathsNoFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "readme.md"), "#", 0o644)
	if _, err := FormatPaths(context.Background(), []string{dir}, defaults()); !errors.Is(err, ErrNoFiles) {
		t.Fatalf("expected ErrNoFiles, got %v", err)
	}
}

func TestFormatPathsSyntaxError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	writeFile(t, path, "[1 2]", 0o644)

	results, err := FormatPaths(context.Background(), []string{path}, defaults())
	if err != nil {
		t.Fatal(err)
	}
	r := results[0]
	if !errors.Is(r.Err, jsonfmt.ErrSyntax) {
		t.Fatalf("expected ErrSyntax, got %v", r.Err)
	}
	if len(r.Diagnostics) != 1 || r.Diagnostics[0].Code != diag.SynMissingSeparator {
		t.Fatalf("diagnostics = %+v", r.Diagnostics)
	}
	out := diag.FormatShortDiagnostics(r.Diagnostics, r.Files, dir, false)
	if !strings.HasPrefix(out, "error SYN2009 bad.json:1:4") {
		t.Fatalf("short diagnostics = %q", out)
	}
	if got := readFile(t, path); got != "[1 2]" {
		t.Fatalf("failed file was modified: %q", got)
	}
}

func TestFormatPathsDiscoversConfig(t *testing.T) {
	dir := t.TempDir()
	if _, err := os.Stat(filepath.Join(filepath.Dir(dir), config.FileName)); err == nil {
		t.Skip("quill.toml exists above the temp dir")
	}
	writeFile(t, filepath.Join(dir, "sub", config.FileName), "[format]\nindent_style = \"tab\"\nline_width = 10\n", 0o644)
	writeFile(t, filepath.Join(dir, "root.json"), `{"a":[1,2]}`, 0o644)
	writeFile(t, filepath.Join(dir, "sub", "tabbed.json"), `{"a":[1,2]}`, 0o644)

	if _, err := FormatPaths(context.Background(), []string{dir}, FormatOptions{}); err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, filepath.Join(dir, "root.json")); got != "{ \"a\": [1, 2] }\n" {
		t.Fatalf("root.json = %q", got)
	}
	if got := readFile(t, filepath.Join(dir, "sub", "tabbed.json")); !strings.HasPrefix(got, "{\n\t\"a\"") {
		t.Fatalf("tabbed.json = %q", got)
	}
}

func TestFormatPathsOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.json")
	writeFile(t, path, `{"a":1}`, 0o644)

	opts := defaults()
	opts.Stdout = true
	opts.Overrides = config.Overrides{LineWidth: 5, IndentWidth: 4}
	results, err := FormatPaths(context.Background(), []string{path}, opts)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(results[0].Formatted); got != "{\n    \"a\": 1\n}\n" {
		t.Fatalf("formatted = %q", got)
	}
	if got := readFile(t, path); got != `{"a":1}` {
		t.Fatalf("stdout mode modified the file")
	}
}

func TestDiskCache(t *testing.T) {
	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "a.json")
	writeFile(t, path, `{"a":[1,2]}`, 0o644)

	opts := defaults()
	opts.Check = true
	opts.Cache = cache
	first, err := FormatPaths(context.Background(), []string{path}, opts)
	if err != nil {
		t.Fatal(err)
	}
	second, err := FormatPaths(context.Background(), []string{path}, opts)
	if err != nil {
		t.Fatal(err)
	}
	if first[0].Cached || !second[0].Cached {
		t.Fatalf("cached flags = %v, %v", first[0].Cached, second[0].Cached)
	}
	if string(first[0].Formatted) != string(second[0].Formatted) || !second[0].Changed {
		t.Fatalf("cache returned different output")
	}
	if len(second[0].Markers) != len(first[0].Markers) || second[0].Stats != first[0].Stats {
		t.Fatalf("markers or stats lost in the cache")
	}

	// другие опции дают другой ключ
	opts.Overrides = config.Overrides{LineWidth: 8}
	third, err := FormatPaths(context.Background(), []string{path}, opts)
	if err != nil {
		t.Fatal(err)
	}
	if third[0].Cached {
		t.Fatalf("options change must miss the cache")
	}

	if err := cache.DropAll(); err != nil {
		t.Fatal(err)
	}
	var payload DiskPayload
	if ok, err := cache.Get(CacheKey([]byte(`{"a":[1,2]}`)), &payload); ok || err != nil {
		t.Fatalf("Get after DropAll = %v, %v", ok, err)
	}
}

func TestDiskCacheVerifiesUnverifiedEntries(t *testing.T) {
	cache, err := OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s, err := ResolveSettings(config.Default(), config.Overrides{})
	if err != nil {
		t.Fatal(err)
	}
	raw := []byte(`{"a":[1,2]}`)
	run := func(verify bool) FormatResult {
		t.Helper()
		r := FormatSource(context.Background(), "a.json", raw, s, FormatOptions{Cache: cache, Verify: verify})
		if r.Err != nil {
			t.Fatal(r.Err)
		}
		return r
	}

	if r := run(false); r.Cached {
		t.Fatalf("first run hit the cache")
	}
	if r := run(false); !r.Cached {
		t.Fatalf("plain run missed the cache")
	}
	if r := run(true); r.Cached {
		t.Fatalf("verifying run used an unverified entry")
	}
	var payload DiskPayload
	if ok, err := cache.Get(CacheKey(raw, s.fingerprints()...), &payload); !ok || err != nil || !payload.Verified {
		t.Fatalf("entry after verifying run = %v, %v, verified=%v", ok, err, payload.Verified)
	}
	if r := run(true); !r.Cached {
		t.Fatalf("verified entry missed")
	}
	if r := run(false); !r.Cached {
		t.Fatalf("plain run missed the verified entry")
	}
}

func TestCacheKey(t *testing.T) {
	a := CacheKey([]byte("[]"), "x", "y")
	if a != CacheKey([]byte("[]"), "x", "y") {
		t.Fatalf("key is not deterministic")
	}
	if a == CacheKey([]byte("[]"), "xy") || a == CacheKey([]byte("[ ]"), "x", "y") {
		t.Fatalf("key collision")
	}
}

func TestCheckIdempotent(t *testing.T) {
	s, err := ResolveSettings(config.Default(), config.Overrides{})
	if err != nil {
		t.Fatal(err)
	}
	fs := source.NewFileSet()
	bag := diag.NewBag(4)
	if err := CheckIdempotent(fs, "ok.json", []byte("[1, 2]\n"), s, diag.BagReporter{Bag: bag}); err != nil {
		t.Fatalf("formatted output rejected: %v", err)
	}

	err = CheckIdempotent(fs, "bad.json", []byte("[1,2]\n"), s, diag.BagReporter{Bag: bag})
	if !errors.Is(err, ErrNotIdempotent) {
		t.Fatalf("expected ErrNotIdempotent, got %v", err)
	}
	if bag.Len() != 1 || bag.Items()[0].Code != diag.FmtNotIdempotent || bag.Items()[0].Primary.Start != 2 {
		t.Fatalf("diagnostics = %+v", bag.Items())
	}
}

func TestCheckIdempotentLineEndings(t *testing.T) {
	for _, eol := range []printer.LineEnding{printer.LineEndingCRLF, printer.LineEndingCR} {
		s, err := ResolveSettings(config.Default(), config.Overrides{LineEnding: eol.String(), LineWidth: 4})
		if err != nil {
			t.Fatal(err)
		}
		r := FormatSource(context.Background(), "x.json", []byte("// c\n[1,\n\n2]"), s, FormatOptions{Verify: true})
		if r.Err != nil {
			t.Fatalf("%s: %v", eol, r.Err)
		}
		if !strings.Contains(string(r.Formatted), eol.Sequence()) {
			t.Fatalf("%s: output %q", eol, r.Formatted)
		}
	}
}

func TestFormatSourceEncoding(t *testing.T) {
	s, _ := ResolveSettings(nil, config.Overrides{})
	r := FormatSource(context.Background(), "bad.json", []byte{'[', 0xff, ']'}, s, FormatOptions{})
	if !errors.Is(r.Err, source.ErrEncoding) {
		t.Fatalf("expected ErrEncoding, got %v", r.Err)
	}
	if len(r.Diagnostics) != 1 || r.Diagnostics[0].Code != diag.IOEncodingError {
		t.Fatalf("diagnostics = %+v", r.Diagnostics)
	}

	bom := append([]byte{0xEF, 0xBB, 0xBF}, "[1,2]"...)
	r = FormatSource(context.Background(), "bom.json", bom, s, FormatOptions{})
	if r.Err != nil || string(r.Formatted) != "[1, 2]\n" || !r.Changed {
		t.Fatalf("bom result = %+v", r)
	}
}

func TestProgressTimerAndTrace(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.json", "b.json", "c.json"} {
		writeFile(t, filepath.Join(dir, name), "[1,2]", 0o644)
	}
	events := make(chan Event, 64)
	ring := trace.NewRingTracer(256, trace.LevelDetail)
	ctx := trace.WithTracer(context.Background(), ring)

	opts := defaults()
	opts.Jobs = 2
	opts.Progress = ChannelSink{Ch: events}
	opts.Timer = observ.NewTimer()
	if _, err := FormatPaths(ctx, []string{dir}, opts); err != nil {
		t.Fatal(err)
	}
	close(events)

	queued, done, runDone := 0, 0, 0
	for e := range events {
		switch {
		case e.File == "" && e.Status == StatusDone:
			runDone++
		case e.Status == StatusQueued:
			queued++
		case e.Status == StatusDone:
			if !e.Changed {
				t.Errorf("%s reported unchanged", e.File)
			}
			done++
		}
	}
	if queued != 3 || done != 3 || runDone != 1 {
		t.Fatalf("queued=%d done=%d run=%d", queued, done, runDone)
	}

	names := map[string]bool{}
	for _, p := range opts.Timer.Report().Phases {
		names[p.Name] = true
	}
	for _, want := range []string{"collect", "format", "read", "parse", "print", "write"} {
		if !names[want] {
			t.Errorf("timer has no %q phase", want)
		}
	}

	var files, prints int
	for _, ev := range ring.Snapshot() {
		if ev.Kind != trace.KindSpanEnd {
			continue
		}
		if strings.HasPrefix(ev.Name, "file:") {
			files++
		}
		if ev.Name == "print" {
			prints++
			if ev.Extra["lines"] == "" || ev.ParentID == 0 {
				t.Errorf("print span without stats or parent: %+v", ev)
			}
		}
	}
	if files != 3 || prints != 3 {
		t.Fatalf("file spans=%d print spans=%d", files, prints)
	}
}

func TestFormatPathsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := FormatPaths(ctx, []string{t.TempDir()}, defaults()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.json")
	writeFile(t, path, `{"a":1}`, 0o644)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runs := make(chan []FormatResult, 16)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, []string{dir}, WatchOptions{
			FormatOptions: defaults(),
			Debounce:      20 * time.Millisecond,
			OnResults:     func(r []FormatResult) { runs <- r },
		})
	}()

	next := func() []FormatResult {
		t.Helper()
		select {
		case r := <-runs:
			return r
		case err := <-done:
			t.Skipf("watcher unavailable: %v", err)
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for a run")
		}
		return nil
	}

	first := next()
	if len(first) != 1 || !first[0].Changed {
		t.Fatalf("initial run = %+v", first)
	}

	writeFile(t, path, `[1,2]`, 0o644)
	for {
		r := next()
		if len(r) == 1 && string(r[0].Formatted) == "[1, 2]\n" {
			break
		}
	}
	if got := readFile(t, path); got != "[1, 2]\n" {
		t.Fatalf("file = %q", got)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Watch returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Watch did not stop")
	}
}
