// Package config loads mywords settings from YAML, environment and defaults.
package config

import "time"

// Config is the root application configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Lookup   LookupConfig   `yaml:"lookup"`
	Import   ImportConfig   `yaml:"import"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig locates the SQLite file.
type DatabaseConfig struct {
	Path string `yaml:"path" env:"MYWORDS_DB_PATH" env-default:"mywords.db"`
}

// LookupConfig holds upstream dictionary settings. An empty user agent means
// the built-in browser-like one.
type LookupConfig struct {
	BaseURL      string        `yaml:"base_url"       env:"MYWORDS_LOOKUP_BASE_URL"       env-default:"https://tureng.com/en/turkish-english/"`
	UserAgent    string        `yaml:"user_agent"     env:"MYWORDS_LOOKUP_USER_AGENT"`
	Timeout      time.Duration `yaml:"timeout"        env:"MYWORDS_LOOKUP_TIMEOUT"        env-default:"30s"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" env:"MYWORDS_LOOKUP_MAX_BODY_BYTES" env-default:"10485760"`
}

// ImportConfig tunes bulk operations. FlushInterval commits a partly filled
// import batch once it has waited that long.
type ImportConfig struct {
	Workers       int           `yaml:"workers"        env:"MYWORDS_IMPORT_WORKERS"        env-default:"4"`
	BatchSize     int           `yaml:"batch_size"     env:"MYWORDS_IMPORT_BATCH_SIZE"     env-default:"50"`
	FlushInterval time.Duration `yaml:"flush_interval" env:"MYWORDS_IMPORT_FLUSH_INTERVAL" env-default:"1s"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"MYWORDS_LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"MYWORDS_LOG_FORMAT" env-default:"console"`
}
