package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvPrefix starts every environment variable the loader reads.
const EnvPrefix = "MINDMAPS_"

// Loader layers configuration sources.
type Loader struct {
	lookup  func(string) (string, bool)
	sources []string
}

// NewLoader returns a loader that reads the process environment.
func NewLoader() *Loader {
	return &Loader{lookup: os.LookupEnv}
}

// WithLookup replaces the environment lookup.
func (l *Loader) WithLookup(fn func(string) (string, bool)) *Loader {
	l.lookup = fn
	return l
}

// Load builds a configuration from the defaults, the file at path (if path
// is not empty) and the environment.
func Load(path string) (*Config, error) {
	return NewLoader().Load(path)
}

// Load builds a validated configuration.
func (l *Loader) Load(path string) (*Config, error) {
	cfg := Default()
	l.sources = append(l.sources[:0], "defaults")

	if path != "" {
		if err := l.loadFile(path, cfg); err != nil {
			return nil, err
		}
		l.sources = append(l.sources, path)
	}

	if err := l.loadEnvironment(cfg); err != nil {
		return nil, err
	}
	l.sources = append(l.sources, "environment")
	cfg.LoadedFrom = append([]string(nil), l.sources...)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = decodeYAML(data, cfg)
	case ".json", ".jsonc":
		// JSON is a subset of YAML, so the same snake_case keys and
		// duration strings apply once comments are stripped.
		err = decodeYAML(jsonc.ToJSON(data), cfg)
	case ".toml":
		_, err = toml.Decode(string(data), cfg)
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func decodeYAML(data []byte, cfg *Config) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(cfg)
}

func (l *Loader) loadEnvironment(cfg *Config) error {
	if val, ok := l.env("ADDR"); ok {
		cfg.Server.Addr = val
	}
	if val, ok := l.env("ALLOWED_ORIGINS"); ok {
		cfg.Server.AllowedOrigins = splitList(val)
	}
	if val, ok := l.env("STORAGE_DIR"); ok {
		cfg.Storage.Dir = val
	}
	if val, ok := l.env("SAVE_DELAY"); ok {
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("%sSAVE_DELAY: %w", EnvPrefix, err)
		}
		cfg.Storage.SaveDelay = d
	}
	if val, ok := l.env("WATCH"); ok {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("%sWATCH: %w", EnvPrefix, err)
		}
		cfg.Storage.Watch = b
	}
	if val, ok := l.env("LOG_LEVEL"); ok {
		cfg.Log.Level = strings.ToLower(val)
	}
	if val, ok := l.env("LOG_FORMAT"); ok {
		cfg.Log.Format = strings.ToLower(val)
	}
	if val, ok := l.env("LOG_OUTPUT"); ok {
		cfg.Log.Output = val
	}
	if val, ok := l.env("PROPOSAL_ENDPOINT"); ok {
		cfg.Proposal.Endpoint = val
	}
	if val, ok := l.env("METRICS"); ok {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("%sMETRICS: %w", EnvPrefix, err)
		}
		cfg.Metrics.Enabled = b
	}
	return nil
}

func (l *Loader) env(name string) (string, bool) {
	val, ok := l.lookup(EnvPrefix + name)
	if !ok || strings.TrimSpace(val) == "" {
		return "", false
	}
	return strings.TrimSpace(val), true
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
