// Package config loads persisted nestor defaults from a TOML file under the
// user's config directory.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds settings that Load and Save persist as TOML. The nestor
// command does not call Load, so these values do not change its defaults.
type Config struct {
	LastROM    string   `toml:"last_rom"`
	LogModules []string `toml:"log_modules"`
	TraceJSON  bool     `toml:"trace_json"`
}

// Path returns the on-disk location config is read from and written to:
// $XDG_CONFIG_HOME/nestor/config.toml (or the platform equivalent via
// os.UserConfigDir).
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "nestor", "config.toml"), nil
}

// Load reads config from its default path. A missing file is not an error;
// it returns the zero Config.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes cfg to its default path, creating the parent directory if
// needed.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
