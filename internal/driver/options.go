package driver

import (
	"fmt"
	"path/filepath"
	"sync"

	"quill/internal/config"
	"quill/internal/jsonfmt"
	"quill/internal/observ"
	"quill/internal/printer"
)

// FormatOptions configures a formatting run.
type FormatOptions struct {
	// Check leaves files alone; Changed reports what would be rewritten.
	Check bool
	// Stdout returns output in FormatResult.Formatted without writing.
	Stdout bool
	// Verify formats every output a second time and fails the file when
	// the two runs differ.
	Verify bool
	Jobs   int // 0 means GOMAXPROCS
	// Config, when set, is used for every file instead of discovering
	// quill.toml next to each file.
	Config         *config.Config
	Overrides      config.Overrides
	MaxDiagnostics int
	Cache          *DiskCache // nil disables caching
	Progress       ProgressSink
	Timer          *observ.Timer
}

// Settings are the resolved options for one file.
type Settings struct {
	JSON    jsonfmt.Options
	Printer printer.Options
}

func (s Settings) fingerprints() []string {
	return []string{s.JSON.Fingerprint(), s.Printer.Fingerprint()}
}

// resolver discovers configuration once per directory.
type resolver struct {
	fixed     *config.Config
	overrides config.Overrides

	mu    sync.Mutex
	byDir map[string]Settings
}

func newResolver(opts FormatOptions) *resolver {
	return &resolver{fixed: opts.Config, overrides: opts.Overrides, byDir: make(map[string]Settings)}
}

func (r *resolver) settingsFor(path string) (Settings, error) {
	dir := filepath.Dir(path)
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byDir[dir]; ok {
		return s, nil
	}
	cfg := r.fixed
	if cfg == nil {
		var err error
		if cfg, err = config.Discover(dir); err != nil {
			return Settings{}, err
		}
	}
	s, err := ResolveSettings(cfg, r.overrides)
	if err != nil {
		return Settings{}, err
	}
	r.byDir[dir] = s
	return s, nil
}

// ResolveSettings applies overrides to cfg and resolves both option sets.
func ResolveSettings(cfg *config.Config, o config.Overrides) (Settings, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	cfg = cfg.WithOverrides(o)
	popts, err := cfg.PrinterOptions()
	if err != nil {
		return Settings{}, fmt.Errorf("invalid format options: %w", err)
	}
	jopts, err := cfg.JSONOptions()
	if err != nil {
		return Settings{}, fmt.Errorf("invalid json options: %w", err)
	}
	return Settings{JSON: jopts, Printer: popts}, nil
}
