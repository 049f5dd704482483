package config

import (
	"fmt"
	"strings"
)

// Validate performs rule validation on the loaded configuration.
func (c *Config) Validate() error {
	if c.Remote.Timeout < 0 {
		return fmt.Errorf("remote.timeout must be >= 0 (got %s)", c.Remote.Timeout)
	}
	if c.Remote.BatchSize <= 0 {
		return fmt.Errorf("remote.batch_size must be > 0 (got %d)", c.Remote.BatchSize)
	}
	if c.Sync.Interval <= 0 {
		return fmt.Errorf("sync.interval must be > 0 (got %s)", c.Sync.Interval)
	}
	if c.Sync.InitialDelay < 0 {
		return fmt.Errorf("sync.initial_delay must be >= 0 (got %s)", c.Sync.InitialDelay)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q is not one of text, json", c.Log.Format)
	}
	return nil
}
