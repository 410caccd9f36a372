// Package config loads quill.toml.
//
//	[format]
//	indent_style = "space"   # space | tab
//	indent_width = 2
//	tab_width = 4
//	line_width = 80
//	line_ending = "lf"       # lf | crlf | cr
//
//	[json]
//	trailing_commas = "none" # none | all
//	max_depth = 512
//
// The file is found by walking up from the formatted path. Unknown keys are
// errors so typos do not silently fall back to defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"

	"quill/internal/jsonfmt"
	"quill/internal/printer"
)

// FileName is the configuration file looked up in each directory.
const FileName = "quill.toml"

// ErrNotFound means no quill.toml exists between the start directory and the
// filesystem root.
var ErrNotFound = errors.New("no " + FileName + " found")

type FormatSection struct {
	IndentStyle string `toml:"indent_style"`
	IndentWidth int    `toml:"indent_width"`
	TabWidth    int    `toml:"tab_width"`
	LineWidth   int    `toml:"line_width"`
	LineEnding  string `toml:"line_ending"`
}

type JSONSection struct {
	TrailingCommas string `toml:"trailing_commas"`
	MaxDepth       int    `toml:"max_depth"`
}

// File mirrors the TOML layout. Zero values mean "use the default".
type File struct {
	Format FormatSection `toml:"format"`
	JSON   JSONSection   `toml:"json"`
}

// Config is a loaded (or default) configuration.
type Config struct {
	Path string // empty for defaults
	Root string
	File File
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{}
}

// Find walks up from startDir looking for quill.toml.
func Find(startDir string) (string, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve start directory: %w", err)
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNotFound
		}
		dir = parent
	}
}

// Load decodes the file at path.
func Load(path string) (*Config, error) {
	var f File
	meta, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg := &Config{Path: path, Root: filepath.Dir(path), File: f}
	if _, err := cfg.PrinterOptions(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if _, err := cfg.JSONOptions(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Discover finds and loads the configuration for startDir. A missing file
// yields Default and no error.
func Discover(startDir string) (*Config, error) {
	path, err := Find(startDir)
	if errors.Is(err, ErrNotFound) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// Overrides are command-line values; zero fields leave the file value alone.
type Overrides struct {
	IndentStyle    string
	IndentWidth    int
	TabWidth       int
	LineWidth      int
	LineEnding     string
	TrailingCommas string
}

// WithOverrides returns a copy of c with o applied.
func (c *Config) WithOverrides(o Overrides) *Config {
	out := *c
	f := &out.File
	if o.IndentStyle != "" {
		f.Format.IndentStyle = o.IndentStyle
	}
	if o.IndentWidth != 0 {
		f.Format.IndentWidth = o.IndentWidth
	}
	if o.TabWidth != 0 {
		f.Format.TabWidth = o.TabWidth
	}
	if o.LineWidth != 0 {
		f.Format.LineWidth = o.LineWidth
	}
	if o.LineEnding != "" {
		f.Format.LineEnding = o.LineEnding
	}
	if o.TrailingCommas != "" {
		f.JSON.TrailingCommas = o.TrailingCommas
	}
	return &out
}

// PrinterOptions resolves the [format] section.
func (c *Config) PrinterOptions() (printer.Options, error) {
	var opts printer.Options
	fs := c.File.Format
	if fs.IndentStyle != "" {
		style, err := printer.ParseIndentStyle(fs.IndentStyle)
		if err != nil {
			return opts, err
		}
		opts.IndentStyle = style
	}
	if fs.LineEnding != "" {
		eol, err := printer.ParseLineEnding(fs.LineEnding)
		if err != nil {
			return opts, err
		}
		opts.LineEnding = eol
	}
	var err error
	if opts.IndentWidth, err = narrow[uint8]("indent_width", fs.IndentWidth); err != nil {
		return opts, err
	}
	if opts.TabWidth, err = narrow[uint8]("tab_width", fs.TabWidth); err != nil {
		return opts, err
	}
	if opts.PrintWidth, err = narrow[uint16]("line_width", fs.LineWidth); err != nil {
		return opts, err
	}
	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts.WithDefaults(), nil
}

// JSONOptions resolves the [json] section.
func (c *Config) JSONOptions() (jsonfmt.Options, error) {
	tc, err := jsonfmt.ParseTrailingCommas(c.File.JSON.TrailingCommas)
	if err != nil {
		return jsonfmt.Options{}, err
	}
	if c.File.JSON.MaxDepth < 0 {
		return jsonfmt.Options{}, fmt.Errorf("max_depth must not be negative, got %d", c.File.JSON.MaxDepth)
	}
	return jsonfmt.Options{TrailingCommas: tc, MaxDepth: c.File.JSON.MaxDepth}, nil
}

func narrow[T uint8 | uint16](key string, v int) (T, error) {
	if v < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %d", key, v)
	}
	out, err := safecast.Conv[T](v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return out, nil
}
