package driver

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	lru "github.com/hashicorp/golang-lru"

	"quill/internal/trace"
)

const (
	watchMemoSize   = 4096
	defaultDebounce = 100 * time.Millisecond
)

// WatchOptions configures Watch.
type WatchOptions struct {
	FormatOptions
	// Debounce is how long Watch waits for a burst of events to settle.
	Debounce time.Duration
	// OnResults receives the results of every run, the initial one included.
	OnResults func([]FormatResult)
}

// Watch formats paths once and then again whenever a watched file changes,
// until ctx is done. Files whose content is exactly what quill last wrote
// (or found already formatted) are skipped, so Watch does not react to its
// own writes.
func Watch(ctx context.Context, paths []string, opts WatchOptions) error {
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	memo, err := lru.New(watchMemoSize)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()

	explicit := make(map[string]bool)
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return err
		}
		if info.IsDir() {
			if err := watchTree(w, p); err != nil {
				return err
			}
			continue
		}
		explicit[filepath.Clean(p)] = true
		if err := w.Add(filepath.Dir(p)); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
	}

	tracer := trace.FromContext(ctx)
	run := func(files []string) error {
		results, err := FormatPaths(ctx, files, opts.FormatOptions)
		for i := range results {
			if results[i].Err == nil {
				memo.Add(results[i].Path, sha256.Sum256(results[i].Formatted))
			}
		}
		if len(results) > 0 && opts.OnResults != nil {
			opts.OnResults(results)
		}
		if errors.Is(err, ErrNoFiles) {
			return nil
		}
		return err
	}
	if err := run(paths); err != nil {
		return err
	}

	pending := make(map[string]struct{})
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			path := filepath.Clean(ev.Name)
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(path); err == nil && info.IsDir() {
					if !skipDir(info.Name()) {
						if err := watchTree(w, path); err != nil {
							trace.Point(tracer, trace.ScopeDriver, "watch", err.Error(), 0)
						}
					}
					continue
				}
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !explicit[path] && !isFormattable(path) {
				continue
			}
			pending[path] = struct{}{}
			fire = time.After(opts.Debounce)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			trace.Point(tracer, trace.ScopeDriver, "watch", err.Error(), 0)

		case <-fire:
			fire = nil
			files := make([]string, 0, len(pending))
			for path := range pending {
				delete(pending, path)
				// #nosec G304 -- path comes from the watched tree
				raw, err := os.ReadFile(path)
				if err != nil {
					continue
				}
				if seen, ok := memo.Get(path); ok && seen.([32]byte) == sha256.Sum256(raw) {
					continue
				}
				files = append(files, path)
			}
			if len(files) == 0 {
				continue
			}
			sort.Strings(files)
			if err := run(files); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				// a file vanished between the event and the run
				trace.Point(tracer, trace.ScopeDriver, "watch", err.Error(), 0)
			}
		}
	}
}

func watchTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}
