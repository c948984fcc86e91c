// Package config loads the settings shared by the server and the editor.
//
// Sources are layered from lowest to highest priority:
//  1. Defaults (in code)
//  2. A configuration file: .yaml/.yml, .toml, or .json/.jsonc
//  3. MINDMAPS_* environment variables
//
// The result is validated before it is returned.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"mindmaps/canvas"
	"mindmaps/editor"
	"mindmaps/layout"
	"mindmaps/logging"
	"mindmaps/proposal"
	"mindmaps/terminal"
)

// Config is the complete configuration.
type Config struct {
	Server   Server                `yaml:"server" toml:"server"`
	Storage  Storage               `yaml:"storage" toml:"storage"`
	Canvas   Canvas                `yaml:"canvas" toml:"canvas"`
	Gestures editor.Config         `yaml:"gestures" toml:"gestures"`
	Layout   layout.Options        `yaml:"layout" toml:"layout"`
	Terminal terminal.Grid         `yaml:"terminal" toml:"terminal"`
	Proposal proposal.ClientConfig `yaml:"proposal" toml:"proposal"`
	Metrics  Metrics               `yaml:"metrics" toml:"metrics"`
	Log      logging.Config        `yaml:"log" toml:"log"`

	// LoadedFrom lists the sources applied, in order.
	LoadedFrom []string `yaml:"-" toml:"-"`
}

// Server configures the HTTP API.
type Server struct {
	Addr            string        `yaml:"addr" toml:"addr" validate:"required"`
	ReadTimeout     time.Duration `yaml:"read_timeout" toml:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" toml:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout" validate:"gt=0"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" toml:"max_body_bytes" validate:"gt=0"`
	AllowedOrigins  []string      `yaml:"allowed_origins" toml:"allowed_origins"`
}

// Storage configures where maps live.
type Storage struct {
	Dir           string        `yaml:"dir" toml:"dir" validate:"required"`
	SaveDelay     time.Duration `yaml:"save_delay" toml:"save_delay" validate:"gte=0"`
	SaveTimeout   time.Duration `yaml:"save_timeout" toml:"save_timeout" validate:"gt=0"`
	Watch         bool          `yaml:"watch" toml:"watch"`
	WatchDebounce time.Duration `yaml:"watch_debounce" toml:"watch_debounce" validate:"gte=0"`
}

// Canvas configures the coordinate system and connection routing.
type Canvas struct {
	Center      float64 `yaml:"center" toml:"center" validate:"gt=0"`
	Padding     float64 `yaml:"padding" toml:"padding" validate:"gte=0"`
	CullMargin  float64 `yaml:"cull_margin" toml:"cull_margin" validate:"gte=0"`
	SizingCache int     `yaml:"sizing_cache" toml:"sizing_cache" validate:"gte=0"`
	HistorySize int     `yaml:"history_size" toml:"history_size" validate:"gte=1"`
}

// Metrics configures the Prometheus endpoint.
type Metrics struct {
	Enabled   bool   `yaml:"enabled" toml:"enabled"`
	Namespace string `yaml:"namespace" toml:"namespace" validate:"required_if=Enabled true"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    10 << 20,
			AllowedOrigins:  []string{"http://localhost:3000", "http://localhost:19006"},
		},
		Storage: Storage{
			Dir:           "maps",
			SaveDelay:     400 * time.Millisecond,
			SaveTimeout:   10 * time.Second,
			Watch:         true,
			WatchDebounce: 100 * time.Millisecond,
		},
		Canvas: Canvas{
			Center:      canvas.DefaultCenter,
			Padding:     4,
			CullMargin:  200,
			SizingCache: 1024,
			HistorySize: 50,
		},
		Gestures: editor.DefaultConfig(),
		Layout:   layout.DefaultOptions(),
		Terminal: terminal.DefaultGrid(),
		Proposal: proposal.DefaultClientConfig(),
		Metrics:  Metrics{Enabled: true, Namespace: "mindmaps"},
		Log:      logging.DefaultConfig(),
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// System returns the coordinate system described by the canvas section.
func (c *Config) System() canvas.System {
	return canvas.New(c.Canvas.Center)
}
