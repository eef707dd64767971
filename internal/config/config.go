package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

// CurrentVersion is the config schema version written by Save
const CurrentVersion = 1

// DirName is the per-root data directory holding config, logs and the database
const DirName = ".recordbook"

// Config represents the complete recordbook configuration
type Config struct {
	Version  int            `json:"version" mapstructure:"version"`
	Database DatabaseConfig `json:"database" mapstructure:"database"`
	Display  DisplayConfig  `json:"display" mapstructure:"display"`
	Export   ExportConfig   `json:"export" mapstructure:"export"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging"`
}

// DatabaseConfig contains settings for the embedded engine session
type DatabaseConfig struct {
	// Filename is the backing store. Relative names live in the data dir,
	// ":memory:" keeps everything in process.
	Filename string `json:"filename" mapstructure:"filename"`
	// Table is the single record table
	Table string `json:"table" mapstructure:"table"`

	BusyTimeoutMs  int `json:"busyTimeoutMs" mapstructure:"busyTimeoutMs"`
	QueueSize      int `json:"queueSize" mapstructure:"queueSize"`
	StopTimeoutMs  int `json:"stopTimeoutMs" mapstructure:"stopTimeoutMs"`
	ReadyTimeoutMs int `json:"readyTimeoutMs" mapstructure:"readyTimeoutMs"`
}

// DisplayConfig controls how records are ordered and rendered
type DisplayConfig struct {
	// Locale is a BCP 47 tag used for name collation
	Locale     string `json:"locale" mapstructure:"locale"`
	DateLayout string `json:"dateLayout" mapstructure:"dateLayout"`
	Timezone   string `json:"timezone" mapstructure:"timezone"`
}

// ExportConfig contains defaults for record export
type ExportConfig struct {
	Format      string `json:"format" mapstructure:"format"`
	Compression string `json:"compression" mapstructure:"compression"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format     string `json:"format" mapstructure:"format"`
	Level      string `json:"level" mapstructure:"level"`
	File       string `json:"file" mapstructure:"file"`
	MaxSize    string `json:"maxSize" mapstructure:"maxSize"`
	MaxBackups int    `json:"maxBackups" mapstructure:"maxBackups"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Database: DatabaseConfig{
			Filename:       "recordbook.sqlite3",
			Table:          "test_table",
			BusyTimeoutMs:  5000,
			QueueSize:      64,
			StopTimeoutMs:  5000,
			ReadyTimeoutMs: 10000,
		},
		Display: DisplayConfig{
			Locale:     "en",
			DateLayout: "2006-01-02 15:04:05",
			Timezone:   "Local",
		},
		Export: ExportConfig{
			Format:      "json",
			Compression: "none",
		},
		Logging: LoggingConfig{
			Format:     "human",
			Level:      "warn",
			File:       "recordbook.log",
			MaxSize:    "10MB",
			MaxBackups: 3,
		},
	}
}

// setDefaults registers every default so env overrides apply even without a
// config file.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("version", d.Version)

	v.SetDefault("database.filename", d.Database.Filename)
	v.SetDefault("database.table", d.Database.Table)
	v.SetDefault("database.busyTimeoutMs", d.Database.BusyTimeoutMs)
	v.SetDefault("database.queueSize", d.Database.QueueSize)
	v.SetDefault("database.stopTimeoutMs", d.Database.StopTimeoutMs)
	v.SetDefault("database.readyTimeoutMs", d.Database.ReadyTimeoutMs)

	v.SetDefault("display.locale", d.Display.Locale)
	v.SetDefault("display.dateLayout", d.Display.DateLayout)
	v.SetDefault("display.timezone", d.Display.Timezone)

	v.SetDefault("export.format", d.Export.Format)
	v.SetDefault("export.compression", d.Export.Compression)

	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.maxSize", d.Logging.MaxSize)
	v.SetDefault("logging.maxBackups", d.Logging.MaxBackups)
}

// LoadConfig loads configuration from <root>/.recordbook/config.json.
// Environment variables prefixed RECORDBOOK_ override file values, e.g.
// RECORDBOOK_DATABASE_FILENAME=:memory:.
func LoadConfig(root string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(root, DirName))

	v.SetEnvPrefix("RECORDBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to <root>/.recordbook/config.json
func (c *Config) Save(root string) error {
	dir := filepath.Join(root, DirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if strings.TrimSpace(c.Database.Filename) == "" {
		return &ConfigError{Field: "database.filename", Message: "must not be empty"}
	}
	// The table name is interpolated into fixed statements, never bound.
	if !identifierPattern.MatchString(c.Database.Table) {
		return &ConfigError{Field: "database.table", Message: "must be a plain SQL identifier"}
	}
	if c.Database.QueueSize < 0 {
		return &ConfigError{Field: "database.queueSize", Message: "must not be negative"}
	}
	if _, err := language.Parse(c.Display.Locale); err != nil {
		return &ConfigError{Field: "display.locale", Message: "not a valid BCP 47 tag"}
	}
	switch c.Export.Format {
	case "json", "yaml", "toml", "csv":
	default:
		return &ConfigError{Field: "export.format", Message: "must be one of json, yaml, toml, csv"}
	}
	switch c.Export.Compression {
	case "", "none", "gzip", "zstd":
	default:
		return &ConfigError{Field: "export.compression", Message: "must be one of none, gzip, zstd"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
