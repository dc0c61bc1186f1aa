// Package config loads fieldmap's configuration.
//
// Configuration is written in CUE and unified with an embedded #Config
// schema that supplies defaults and constraints:
//
//	store: backend: "sqlite"
//	store: sqlite: path: "/var/lib/fieldmap/points.db"
//	log: level: "debug"
//
// Durations are strings in time.ParseDuration syntax.
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var schemaCUE string

// Config is the decoded configuration.
type Config struct {
	Log    Log    `json:"log"`
	Store  Store  `json:"store"`
	HTTP   HTTP   `json:"http"`
	Sensor Sensor `json:"sensor"`
}

// Log configures the process logger.
type Log struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// Store selects and configures the point store backend.
type Store struct {
	Backend string `json:"backend"`
	SQLite  SQLite `json:"sqlite"`
	Redis   Redis  `json:"redis"`
}

// SQLite configures the sqlite backend.
type SQLite struct {
	Path            string `json:"path"`
	PollIntervalRaw string `json:"poll_interval"`

	PollInterval time.Duration `json:"-"`
}

// Redis configures the redis backend.
type Redis struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Prefix   string `json:"prefix"`
}

// HTTP configures the serve command.
type HTTP struct {
	Addr              string `json:"addr"`
	ResultsTimeoutRaw string `json:"results_timeout"`

	ResultsTimeout time.Duration `json:"-"`
}

// Sensor holds fixed sensor readings for headless use.
type Sensor struct {
	Location *Location `json:"location,omitempty"`
	Heading  *float64  `json:"heading,omitempty"`
}

// Location is a fixed position.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Error is a configuration error with its CUE source position, if known.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Default returns the configuration implied by the schema alone.
func Default() (*Config, error) {
	return LoadBytes("", nil)
}

// Load reads and validates the CUE file at path. An empty path yields the
// defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return LoadBytes(path, data)
}

// LoadBytes validates CUE source against the schema. filename is used in
// error positions only.
func LoadBytes(filename string, src []byte) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	v := schema.LookupPath(cue.ParsePath("#Config"))
	if src != nil {
		user := ctx.CompileBytes(src, cue.Filename(filename))
		if err := user.Err(); err != nil {
			return nil, formatCUEError(err)
		}
		v = v.Unify(user)
	}

	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return nil, formatCUEError(err)
	}

	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolve parses the fields CUE keeps as strings.
func (c *Config) resolve() error {
	d, err := time.ParseDuration(c.Store.SQLite.PollIntervalRaw)
	if err != nil || d < 0 {
		return &Error{Field: "store.sqlite.poll_interval", Message: fmt.Sprintf("invalid duration %q", c.Store.SQLite.PollIntervalRaw)}
	}
	c.Store.SQLite.PollInterval = d

	d, err = time.ParseDuration(c.HTTP.ResultsTimeoutRaw)
	if err != nil || d <= 0 {
		return &Error{Field: "http.results_timeout", Message: fmt.Sprintf("invalid duration %q", c.HTTP.ResultsTimeoutRaw)}
	}
	c.HTTP.ResultsTimeout = d
	return nil
}

// SlogLevel maps Log.Level to a slog.Level.
func (l Log) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	e := &Error{Field: "config", Message: first.Error()}
	if path := first.Path(); len(path) > 0 {
		e.Field = joinPath(path)
	}
	if positions := errors.Positions(first); len(positions) > 0 {
		e.Pos = positions[0]
	}
	return e
}

func joinPath(path []string) string {
	out := ""
	for i, p := range path {
		if i > 0 {
			out += "."
		}
		out += p
	}
	return out
}
