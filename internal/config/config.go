// Package config loads the TOML configuration file, applies defaults
// for everything it does not mention, and watches it for live reload.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Fragment kinds accepted in [[fragment]] tables.
const (
	KindLineNumber    = "line-number"
	KindColumnNumber  = "column-number"
	KindBufferName    = "buffer-name"
	KindFileDirectory = "file-directory"
	KindModifiedStar  = "modified-star"
	KindMajorMode     = "major-mode"
	KindGitBranch     = "git-branch"
	KindGitProject    = "git-project"
	KindClock         = "clock"
	KindStatic        = "static"
	KindLua           = "lua"
)

var knownKinds = map[string]bool{
	KindLineNumber:    true,
	KindColumnNumber:  true,
	KindBufferName:    true,
	KindFileDirectory: true,
	KindModifiedStar:  true,
	KindMajorMode:     true,
	KindGitBranch:     true,
	KindGitProject:    true,
	KindClock:         true,
	KindStatic:        true,
	KindLua:           true,
}

// Config is the full application configuration.
type Config struct {
	// Interval is the render interval in seconds.
	Interval float64 `toml:"interval"`

	// Enabled starts the status line active.
	Enabled bool `toml:"enabled"`

	// LogFile is where diagnostics are written. Empty disables
	// logging.
	LogFile string `toml:"log_file"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`

	// VCS configures branch lookups.
	VCS VCS `toml:"vcs"`

	// Fragments is the ordered status line fragment list.
	Fragments []Fragment `toml:"fragment"`
}

// VCS configures version-control integration.
type VCS struct {
	// Command is the executable with base arguments, shell quoted.
	Command string `toml:"command"`

	// CacheTTL is the lookup cache lifetime in seconds.
	CacheTTL float64 `toml:"cache_ttl"`

	// Watch enables the HEAD watcher for instant branch updates.
	Watch bool `toml:"watch"`
}

// Fragment describes one status line fragment.
type Fragment struct {
	// Kind selects the producer; one of the Kind constants.
	Kind string `toml:"kind"`

	// Pre and Post are literals around the value. A nil Post means
	// the key was absent and the default separator applies, which is
	// distinct from an explicit empty post.
	Pre  string  `toml:"pre"`
	Post *string `toml:"post"`

	// Format is the fmt template for the value. Empty means "%s".
	Format string `toml:"format"`

	// Style is the cosmetic tag for the rendered span.
	Style string `toml:"style"`

	// Align is "left" (default) or "right".
	Align string `toml:"align"`

	// Source is the Lua chunk for lua fragments and the literal text
	// for static ones.
	Source string `toml:"source"`
}

// PostOr returns the configured post, or def when the key was absent.
func (f Fragment) PostOr(def string) string {
	if f.Post == nil {
		return def
	}
	return *f.Post
}

// AlignRight reports whether the fragment goes in the right group.
func (f Fragment) AlignRight() bool {
	return f.Align == "right"
}

// TickInterval returns the render interval as a duration.
func (c Config) TickInterval() time.Duration {
	return time.Duration(c.Interval * float64(time.Second))
}

// TTL returns the lookup cache lifetime as a duration.
func (v VCS) TTL() time.Duration {
	return time.Duration(v.CacheTTL * float64(time.Second))
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Interval: 0.5,
		Enabled:  true,
		LogLevel: "info",
		VCS: VCS{
			Command:  "git",
			CacheTTL: 2.0,
			Watch:    true,
		},
		Fragments: DefaultFragments(),
	}
}

// DefaultFragments is the fragment list used when the file declares
// none: cursor position in brackets, directory, buffer name, modified
// marker, and the branch on the right.
func DefaultFragments() []Fragment {
	return []Fragment{
		{Kind: KindLineNumber, Pre: "[", Post: ptr(""), Format: "%4s", Style: "dim"},
		{Kind: KindColumnNumber, Pre: ":", Post: ptr("] "), Format: "%-2s", Style: "dim"},
		{Kind: KindFileDirectory, Post: ptr("/"), Style: "dim"},
		{Kind: KindBufferName, Post: ptr("")},
		{Kind: KindModifiedStar, Post: ptr(""), Style: "alert"},
		{Kind: KindGitBranch, Post: ptr(""), Style: "dim", Align: "right"},
	}
}

func ptr(s string) *string { return &s }

// DefaultPath returns the standard location of the configuration file,
// or empty when no user configuration directory exists.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "adrenaline", "config.toml")
}

// fileConfig mirrors Config with pointer fields, so apply can tell an
// absent key from a zero value.
type fileConfig struct {
	Interval  *float64   `toml:"interval"`
	Enabled   *bool      `toml:"enabled"`
	LogFile   *string    `toml:"log_file"`
	LogLevel  *string    `toml:"log_level"`
	VCS       *fileVCS   `toml:"vcs"`
	Fragments []Fragment `toml:"fragment"`
}

type fileVCS struct {
	Command  *string  `toml:"command"`
	CacheTTL *float64 `toml:"cache_ttl"`
	Watch    *bool    `toml:"watch"`
}

// Load reads the configuration at path over the defaults. A missing
// file is not an error. A malformed or invalid file returns the
// defaults together with the error, so the caller always has a usable
// configuration.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	var file fileConfig
	if err := toml.Unmarshal(data, &file); err != nil {
		return Default(), &ParseError{Path: path, Err: err}
	}
	cfg.apply(file)

	if err := cfg.validate(); err != nil {
		return Default(), err
	}
	return cfg, nil
}

func (c *Config) apply(f fileConfig) {
	if f.Interval != nil {
		c.Interval = *f.Interval
	}
	if f.Enabled != nil {
		c.Enabled = *f.Enabled
	}
	if f.LogFile != nil {
		c.LogFile = *f.LogFile
	}
	if f.LogLevel != nil {
		c.LogLevel = *f.LogLevel
	}
	if f.VCS != nil {
		if f.VCS.Command != nil {
			c.VCS.Command = *f.VCS.Command
		}
		if f.VCS.CacheTTL != nil {
			c.VCS.CacheTTL = *f.VCS.CacheTTL
		}
		if f.VCS.Watch != nil {
			c.VCS.Watch = *f.VCS.Watch
		}
	}
	if f.Fragments != nil {
		c.Fragments = f.Fragments
	}
}

func (c Config) validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("config: interval must be positive, got %v", c.Interval)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}
	if c.VCS.CacheTTL < 0 {
		return fmt.Errorf("config: vcs cache_ttl must not be negative, got %v", c.VCS.CacheTTL)
	}
	for i, f := range c.Fragments {
		if !knownKinds[f.Kind] {
			return fmt.Errorf("config: fragment %d: unknown kind %q", i, f.Kind)
		}
		switch f.Align {
		case "", "left", "right":
		default:
			return fmt.Errorf("config: fragment %d: align must be left or right, got %q", i, f.Align)
		}
		if f.Kind == KindLua && strings.TrimSpace(f.Source) == "" {
			return fmt.Errorf("config: fragment %d: lua fragment needs source", i)
		}
	}
	return nil
}

// ParseError describes a malformed configuration file.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
