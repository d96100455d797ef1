package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the teamseek configuration.
type Config struct {
	Search  SearchConfig  `yaml:"search"`
	Header  HeaderConfig  `yaml:"header"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// SearchConfig holds search session settings.
type SearchConfig struct {
	DefaultTeam            string `yaml:"default_team"`             // Team searched at startup (empty = first team in the index)
	ResultLimit            int    `yaml:"result_limit"`             // Max posts and files per fetch
	RecentLimit            int    `yaml:"recent_limit"`             // Recent searches shown in the initial view
	IncludeDeletedChannels bool   `yaml:"include_deleted_channels"` // Match posts in archived channels
}

// HeaderConfig holds the results header dimensions, in terminal rows.
type HeaderConfig struct {
	NaturalHeight float64 `yaml:"natural_height"` // Fully expanded height
	CompactHeight float64 `yaml:"compact_height"` // Height while results are shown
}

// StorageConfig holds local index settings.
type StorageConfig struct {
	DBPath string `yaml:"db_path"` // SQLite index path (overrides default)
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // TUI log file path (overrides default)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			ResultLimit: 100,
			RecentLimit: 5,
		},
		Header: HeaderConfig{
			NaturalHeight: 4,
			CompactHeight: 1,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the default path.
func Load() (*Config, error) {
	paths := DefaultPaths()
	return LoadFromFile(paths.ConfigFile())
}

// LoadFromFile loads configuration from the specified file.
// If the file doesn't exist, returns default configuration.
// Environment variable overrides are applied after file loading.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves the configuration to the specified file.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("config: create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}

	return nil
}

// DatabasePath returns the configured index path, or the default one.
func (c *Config) DatabasePath() string {
	if c.Storage.DBPath != "" {
		return c.Storage.DBPath
	}
	return DefaultPaths().DatabaseFile()
}

// LogFilePath returns the configured TUI log path, or the default one.
func (c *Config) LogFilePath() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return DefaultPaths().LogFile()
}

// Get retrieves a configuration value by dot-separated key,
// for example "search.default_team".
func (c *Config) Get(key string) (string, error) {
	section, field, err := splitKey(key)
	if err != nil {
		return "", err
	}

	switch section {
	case "search":
		return c.getSearchField(field)
	case "header":
		return c.getHeaderField(field)
	case "storage":
		return c.getStorageField(field)
	case "log":
		return c.getLogField(field)
	default:
		return "", fmt.Errorf("unknown section: %s", section)
	}
}

// Set sets a configuration value by dot-separated key.
func (c *Config) Set(key, value string) error {
	section, field, err := splitKey(key)
	if err != nil {
		return err
	}

	switch section {
	case "search":
		return c.setSearchField(field, value)
	case "header":
		return c.setHeaderField(field, value)
	case "storage":
		return c.setStorageField(field, value)
	case "log":
		return c.setLogField(field, value)
	default:
		return fmt.Errorf("unknown section: %s", section)
	}
}

func splitKey(key string) (string, string, error) {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return "", "", errors.New("key must be in format 'section.key'")
	}
	return parts[0], parts[1], nil
}

func (c *Config) getSearchField(field string) (string, error) {
	switch field {
	case "default_team":
		return c.Search.DefaultTeam, nil
	case "result_limit":
		return strconv.Itoa(c.Search.ResultLimit), nil
	case "recent_limit":
		return strconv.Itoa(c.Search.RecentLimit), nil
	case "include_deleted_channels":
		return strconv.FormatBool(c.Search.IncludeDeletedChannels), nil
	default:
		return "", fmt.Errorf("unknown field: search.%s", field)
	}
}

func (c *Config) setSearchField(field, value string) error {
	switch field {
	case "default_team":
		c.Search.DefaultTeam = value
	case "result_limit":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for result_limit: %w", err)
		}
		if v < 1 {
			return errors.New("result_limit must be >= 1")
		}
		c.Search.ResultLimit = v
	case "recent_limit":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for recent_limit: %w", err)
		}
		if v < 0 {
			return errors.New("recent_limit must be >= 0")
		}
		c.Search.RecentLimit = v
	case "include_deleted_channels":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for include_deleted_channels: %w", err)
		}
		c.Search.IncludeDeletedChannels = v
	default:
		return fmt.Errorf("unknown field: search.%s", field)
	}
	return nil
}

func (c *Config) getHeaderField(field string) (string, error) {
	switch field {
	case "natural_height":
		return strconv.FormatFloat(c.Header.NaturalHeight, 'g', -1, 64), nil
	case "compact_height":
		return strconv.FormatFloat(c.Header.CompactHeight, 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("unknown field: header.%s", field)
	}
}

func (c *Config) setHeaderField(field, value string) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", field, err)
	}
	switch field {
	case "natural_height":
		c.Header.NaturalHeight = v
	case "compact_height":
		c.Header.CompactHeight = v
	default:
		return fmt.Errorf("unknown field: header.%s", field)
	}
	return c.validateHeader()
}

func (c *Config) getStorageField(field string) (string, error) {
	switch field {
	case "db_path":
		return c.Storage.DBPath, nil
	default:
		return "", fmt.Errorf("unknown field: storage.%s", field)
	}
}

func (c *Config) setStorageField(field, value string) error {
	switch field {
	case "db_path":
		c.Storage.DBPath = value
	default:
		return fmt.Errorf("unknown field: storage.%s", field)
	}
	return nil
}

func (c *Config) getLogField(field string) (string, error) {
	switch field {
	case "level":
		return c.Log.Level, nil
	case "file":
		return c.Log.File, nil
	default:
		return "", fmt.Errorf("unknown field: log.%s", field)
	}
}

func (c *Config) setLogField(field, value string) error {
	switch field {
	case "level":
		if !isValidLogLevel(value) {
			return fmt.Errorf("invalid level: %s (must be debug, info, warn, or error)", value)
		}
		c.Log.Level = value
	case "file":
		c.Log.File = value
	default:
		return fmt.Errorf("unknown field: log.%s", field)
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Search.ResultLimit < 1 {
		return errors.New("search.result_limit must be >= 1")
	}

	if c.Search.RecentLimit < 0 {
		return errors.New("search.recent_limit must be >= 0")
	}

	if err := c.validateHeader(); err != nil {
		return err
	}

	if !isValidLogLevel(c.Log.Level) {
		return fmt.Errorf("log.level must be debug, info, warn, or error (got: %s)", c.Log.Level)
	}

	return nil
}

func (c *Config) validateHeader() error {
	if c.Header.NaturalHeight <= 0 {
		return errors.New("header.natural_height must be > 0")
	}
	if c.Header.CompactHeight < 0 {
		return errors.New("header.compact_height must be >= 0")
	}
	if c.Header.CompactHeight > c.Header.NaturalHeight {
		return errors.New("header.compact_height must not exceed header.natural_height")
	}
	return nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// ApplyEnvOverrides applies environment variable overrides to the config.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("TEAMSEEK_TEAM"); v != "" {
		c.Search.DefaultTeam = v
	}
	if v := os.Getenv("TEAMSEEK_DB_PATH"); v != "" {
		c.Storage.DBPath = v
	}
	if v := os.Getenv("TEAMSEEK_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil && b {
			c.Log.Level = "debug"
		}
	}
	if v := os.Getenv("TEAMSEEK_LOG_LEVEL"); v != "" {
		if isValidLogLevel(v) {
			c.Log.Level = v
		}
	}
}

// ListKeys returns user-facing configuration keys.
func ListKeys() []string {
	return []string{
		"search.default_team",
		"search.result_limit",
		"search.recent_limit",
		"search.include_deleted_channels",
		"header.natural_height",
		"header.compact_height",
		"storage.db_path",
		"log.level",
		"log.file",
	}
}
