// Package config loads and watches the appcore configuration file. The file
// is YAML, discovered with first-match semantics (explicit path, project
// file, home file), and hot-reloadable through Holder.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/petal-labs/appcore/bus"
	"github.com/petal-labs/appcore/di"
)

const (
	projectConfigName = "appcore.yaml"
	homeConfigDir     = ".appcore"
	homeConfigName    = "config.yaml"
)

// Config is the top-level configuration shape.
type Config struct {
	// Mode selects live or test dependency resolution ("live" default).
	Mode string `yaml:"mode,omitempty"`

	Bus     BusConfig     `yaml:"bus,omitempty"`
	Journal JournalConfig `yaml:"journal,omitempty"`
	Prefs   PrefsConfig   `yaml:"prefs,omitempty"`
}

// BusConfig tunes the event bus registry.
type BusConfig struct {
	// Buffer is the per-subscriber buffer capacity (0 = bus default).
	Buffer int `yaml:"buffer,omitempty"`

	// Overflow is "drop_oldest" (default) or "drop_newest".
	Overflow string `yaml:"overflow,omitempty"`
}

// JournalConfig selects the event journal backend.
type JournalConfig struct {
	// Backend is "memory" (default) or "sqlite".
	Backend string `yaml:"backend,omitempty"`

	// DSN is the SQLite connection string (required for the sqlite backend).
	DSN string `yaml:"dsn,omitempty"`
}

// PrefsConfig selects the preferences backend.
type PrefsConfig struct {
	// Backend is "memory" (default), "badger", or "redis".
	Backend string `yaml:"backend,omitempty"`

	// Path is the on-disk directory for the badger backend. Empty means
	// the prefs default path.
	Path string `yaml:"path,omitempty"`

	Redis RedisConfig `yaml:"redis,omitempty"`
}

// RedisConfig holds redis connection settings for the redis prefs backend.
type RedisConfig struct {
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Mode:    "live",
		Bus:     BusConfig{Overflow: "drop_oldest"},
		Journal: JournalConfig{Backend: "memory"},
		Prefs:   PrefsConfig{Backend: "memory"},
	}
}

// Load reads, parses, and validates a configuration file. Values are
// expanded against the process environment.
func Load(path string) (Config, error) {
	// #nosec G304 -- path resolved from explicit local config discovery.
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %q: %w", path, err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config: %q: %w", path, err)
	}
	return cfg, nil
}

// Validate checks a configuration for unusable values.
func Validate(cfg Config) error {
	switch cfg.Mode {
	case "", "live", "test":
	default:
		return fmt.Errorf("config: unsupported mode %q", cfg.Mode)
	}

	if cfg.Bus.Buffer < 0 {
		return fmt.Errorf("config: bus buffer must not be negative, got %d", cfg.Bus.Buffer)
	}
	switch cfg.Bus.Overflow {
	case "", "drop_oldest", "drop_newest":
	default:
		return fmt.Errorf("config: unsupported bus overflow %q", cfg.Bus.Overflow)
	}

	switch cfg.Journal.Backend {
	case "", "memory":
	case "sqlite":
		if strings.TrimSpace(cfg.Journal.DSN) == "" {
			return errors.New("config: sqlite journal requires a dsn")
		}
	default:
		return fmt.Errorf("config: unsupported journal backend %q", cfg.Journal.Backend)
	}

	switch cfg.Prefs.Backend {
	case "", "memory", "badger":
	case "redis":
		if strings.TrimSpace(cfg.Prefs.Redis.Addr) == "" {
			return errors.New("config: redis prefs require an addr")
		}
	default:
		return fmt.Errorf("config: unsupported prefs backend %q", cfg.Prefs.Backend)
	}

	return nil
}

// DIMode maps the configured mode onto a di.Mode.
func (c Config) DIMode() di.Mode {
	if c.Mode == "test" {
		return di.ModeTest
	}
	return di.ModeLive
}

// RegistryConfig maps the bus section onto a bus.RegistryConfig.
func (b BusConfig) RegistryConfig() bus.RegistryConfig {
	cfg := bus.RegistryConfig{Buffer: b.Buffer}
	if b.Overflow == "drop_newest" {
		cfg.Overflow = bus.DropNewest
	}
	return cfg
}

// Discover resolves the config file location with first-match semantics.
func Discover(explicitPath string) (string, bool, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", false, fmt.Errorf("config: resolve working directory: %w", err)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", false, fmt.Errorf("config: resolve user home: %w", err)
	}
	return DiscoverFrom(explicitPath, cwd, homeDir)
}

// DiscoverFrom is a testable variant of Discover.
func DiscoverFrom(explicitPath, cwd, homeDir string) (string, bool, error) {
	candidates := make([]string, 0, 2)
	if clean := strings.TrimSpace(explicitPath); clean != "" {
		candidates = append(candidates, filepath.Clean(clean))
	} else {
		candidates = append(candidates, filepath.Join(cwd, projectConfigName))
		candidates = append(candidates, filepath.Join(homeDir, homeConfigDir, homeConfigName))
	}

	for i, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, true, nil
		}
		if errors.Is(err, os.ErrNotExist) {
			// If explicit path is set, not found is an error.
			if i == 0 && strings.TrimSpace(explicitPath) != "" {
				return "", false, fmt.Errorf("config: file %q not found", candidate)
			}
			continue
		}
		if err != nil {
			return "", false, fmt.Errorf("config: checking path %q: %w", candidate, err)
		}
	}
	return "", false, nil
}
