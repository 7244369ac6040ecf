package platform

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/mimir/pkg/state"
)

// ConfigFile is the name of the configuration file under the mimir config
// directory.
const ConfigFile = "config.yaml"

// Config is the on-disk configuration. Zero fields keep the defaults.
type Config struct {
	NotesDir      string `yaml:"notes_dir"`
	LoadMode      string `yaml:"load_mode,omitempty"`
	PageSize      int    `yaml:"page_size,omitempty"`
	PrefetchPages int    `yaml:"prefetch_pages,omitempty"`
	CachePages    int    `yaml:"cache_pages,omitempty"`
	LazyThreshold int    `yaml:"lazy_threshold,omitempty"`
	ReadOnly      bool   `yaml:"read_only,omitempty"`
	LogLevel      string `yaml:"log_level,omitempty"`
}

// ConfigDir returns the mimir directory under the user configuration dir.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(base, "mimir"), nil
}

// DefaultConfigPath returns the location of the configuration file.
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFile), nil
}

// DefaultConfig returns the configuration used when no file exists: notes
// live in a "notes" directory next to the configuration file.
func DefaultConfig() (Config, error) {
	dir, err := ConfigDir()
	if err != nil {
		return Config{}, err
	}
	return Config{NotesDir: filepath.Join(dir, "notes")}, nil
}

// LoadConfig reads the configuration at path. An empty path selects the
// default location. A missing file yields DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}
	if path == "" {
		if path, err = DefaultConfigPath(); err != nil {
			return Config{}, err
		}
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if _, err := state.ParseLoadMode(cfg.LoadMode); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	if _, err := cfg.Level(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to path, creating its directory.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Level parses LogLevel ("debug", "info", "warn", "error"). Empty is info.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return level, nil
}

// Options converts the configuration into functional options. Explicit
// options passed after these override them.
func (c Config) Options() ([]Option, error) {
	mode, err := state.ParseLoadMode(c.LoadMode)
	if err != nil {
		return nil, err
	}

	opts := []Option{WithLoadMode(mode), WithReadOnly(c.ReadOnly)}
	if c.PageSize > 0 {
		opts = append(opts, WithPageSize(c.PageSize))
	}
	if c.PrefetchPages != 0 {
		opts = append(opts, WithPrefetchPages(c.PrefetchPages))
	}
	if c.CachePages > 0 {
		opts = append(opts, WithCachePages(c.CachePages))
	}
	if c.LazyThreshold > 0 {
		opts = append(opts, WithLazyThreshold(c.LazyThreshold))
	}
	return opts, nil
}
