package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
)

const appDir = "daylog"

// Load reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults (via env-default tags).
// The YAML path comes from DAYLOG_CONFIG, falling back to
// <user config dir>/daylog/config.yaml when that file exists.
func Load() (*Config, error) {
	var cfg Config

	path := os.Getenv("DAYLOG_CONFIG")
	explicitPath := path != ""
	if !explicitPath {
		if dir, err := os.UserConfigDir(); err == nil {
			path = filepath.Join(dir, appDir, "config.yaml")
		}
	}

	if _, err := os.Stat(path); path != "" && err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	if err := cfg.resolvePaths(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return &cfg, nil
}

func (c *Config) resolvePaths() error {
	if c.Store.Path != "" && c.Sync.SignalFile != "" {
		return nil
	}
	dir, err := dataDir()
	if err != nil {
		return err
	}
	if c.Store.Path == "" {
		c.Store.Path = filepath.Join(dir, "daylog.db")
	}
	if c.Sync.SignalFile == "" {
		c.Sync.SignalFile = filepath.Join(dir, "changed.signal")
	}
	return nil
}

func dataDir() (string, error) {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return filepath.Join(v, appDir), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".local", "share", appDir), nil
}
