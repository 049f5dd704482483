package config

import "time"

// Config is the root application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store"`
	Remote RemoteConfig `yaml:"remote"`
	Sync   SyncConfig   `yaml:"sync"`
	Log    LogConfig    `yaml:"log"`
	UI     UIConfig     `yaml:"ui"`
}

// StoreConfig holds local database settings. An empty path resolves to the
// user data directory.
type StoreConfig struct {
	Path string `yaml:"path" env:"DAYLOG_DB_PATH"`
}

// RemoteConfig holds the remote PostgreSQL endpoint. An empty DSN disables
// synchronization.
type RemoteConfig struct {
	DSN             string        `yaml:"dsn"                env:"DAYLOG_REMOTE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DAYLOG_REMOTE_MAX_CONNS"          env-default:"4"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DAYLOG_REMOTE_MAX_CONN_IDLE_TIME" env-default:"5m"`
	Timeout         time.Duration `yaml:"timeout"            env:"DAYLOG_REMOTE_TIMEOUT"            env-default:"15s"`
	BatchSize       int           `yaml:"batch_size"         env:"DAYLOG_REMOTE_BATCH_SIZE"         env-default:"500"`
}

// SyncConfig holds trigger timing.
type SyncConfig struct {
	InitialDelay time.Duration `yaml:"initial_delay" env:"DAYLOG_SYNC_INITIAL_DELAY" env-default:"1200ms"`
	Interval     time.Duration `yaml:"interval"      env:"DAYLOG_SYNC_INTERVAL"      env-default:"5m"`
	SignalFile   string        `yaml:"signal_file"   env:"DAYLOG_SIGNAL_FILE"`
	Debounce     time.Duration `yaml:"debounce"      env:"DAYLOG_SYNC_DEBOUNCE"      env-default:"300ms"`
}

// LogConfig holds logging settings. An empty file logs to stderr.
type LogConfig struct {
	Level      string `yaml:"level"       env:"DAYLOG_LOG_LEVEL"       env-default:"info"`
	Format     string `yaml:"format"      env:"DAYLOG_LOG_FORMAT"      env-default:"text"`
	File       string `yaml:"file"        env:"DAYLOG_LOG_FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb" env:"DAYLOG_LOG_MAX_SIZE_MB" env-default:"10"`
	MaxBackups int    `yaml:"max_backups" env:"DAYLOG_LOG_MAX_BACKUPS" env-default:"3"`
	MaxAgeDays int    `yaml:"max_age_days" env:"DAYLOG_LOG_MAX_AGE_DAYS" env-default:"28"`
}

// UIConfig holds terminal UI settings.
type UIConfig struct {
	AltScreen bool `yaml:"alt_screen" env:"DAYLOG_ALT_SCREEN" env-default:"true"`
	Mouse     bool `yaml:"mouse"      env:"DAYLOG_MOUSE"      env-default:"false"`
}

// RemoteEnabled reports whether a remote endpoint is configured.
func (c *Config) RemoteEnabled() bool {
	return c.Remote.DSN != ""
}
