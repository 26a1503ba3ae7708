package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default config file path.
const DefaultConfigPath = "~/.config/nooze/config.yaml"

// EnvConfigPath names the environment variable that overrides DefaultConfigPath.
const EnvConfigPath = "NOOZE_CONFIG"

// MemoryDB is the storage path that selects a private in-memory database.
const MemoryDB = ":memory:"

// Config holds all nooze configuration.
type Config struct {
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
	Server    ServerConfig    `yaml:"server"`
	Query     QueryConfig     `yaml:"query"`
	Feeds     FeedsConfig     `yaml:"feeds"`
	Topics    TopicsConfig    `yaml:"topics"`
	Authors   AuthorsConfig   `yaml:"authors"`
	Retention RetentionConfig `yaml:"retention"`
}

type StorageConfig struct {
	Driver            string `yaml:"driver"`
	Path              string `yaml:"path"`
	SQLiteFile        string `yaml:"sqlite_file"`
	SQLiteJournalMode string `yaml:"sqlite_journal_mode"`
}

type LoggingConfig struct {
	Env   string `yaml:"env"`
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Name           string `yaml:"name"`
	MaxRequestSize int64  `yaml:"max_request_size"`
}

type QueryConfig struct {
	DefaultWindowHours int `yaml:"default_window_hours"`
	RecentHours        int `yaml:"recent_hours"`
	Limit              int `yaml:"limit"`
}

type FeedsConfig struct {
	Sources        []FeedSource `yaml:"sources"`
	SleepSeconds   int          `yaml:"sleep_seconds"`
	RatePerMinute  int          `yaml:"rate_per_minute"`
	TimeoutSeconds int          `yaml:"timeout_seconds"`
}

// FeedSource is one RSS or Atom feed. Name doubles as the author recorded
// on every status read from the feed.
type FeedSource struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type TopicsConfig struct {
	File string `yaml:"file"`
}

type AuthorsConfig struct {
	File string `yaml:"file"`
}

type RetentionConfig struct {
	Days int `yaml:"days"`
}

// Load reads a YAML config file at path and merges it with defaults.
// Returns an error if the file cannot be read, contains invalid YAML or
// fails validation.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite", "sqlite3":
	default:
		return fmt.Errorf("storage.driver %q: want sqlite or sqlite3", c.Storage.Driver)
	}
	if c.Storage.SQLiteFile == "" {
		return errors.New("storage.sqlite_file is required")
	}
	switch c.Logging.Env {
	case "development", "production":
	default:
		return fmt.Errorf("logging.env %q: want development or production", c.Logging.Env)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q: want debug, info, warn or error", c.Logging.Level)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Query.DefaultWindowHours <= 0 {
		return errors.New("query.default_window_hours must be positive")
	}
	if c.Query.RecentHours <= 0 {
		return errors.New("query.recent_hours must be positive")
	}
	if c.Feeds.SleepSeconds <= 0 {
		return errors.New("feeds.sleep_seconds must be positive")
	}
	if c.Feeds.RatePerMinute <= 0 {
		return errors.New("feeds.rate_per_minute must be positive")
	}
	for i, src := range c.Feeds.Sources {
		if src.Name == "" || src.URL == "" {
			return fmt.Errorf("feeds.sources[%d]: name and url are required", i)
		}
	}
	if c.Retention.Days < 0 {
		return errors.New("retention.days must not be negative")
	}
	return nil
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// DBPath returns the database file location, or MemoryDB.
func (s StorageConfig) DBPath() (string, error) {
	if s.Path == MemoryDB || s.SQLiteFile == MemoryDB {
		return MemoryDB, nil
	}
	dir, err := ExpandPath(s.Path)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, s.SQLiteFile), nil
}

// ResolvePath picks the config file: explicit flag, then $NOOZE_CONFIG,
// then DefaultConfigPath.
func ResolvePath(flagPath string) (string, error) {
	if flagPath != "" {
		return ExpandPath(flagPath)
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return ExpandPath(env)
	}
	return ExpandPath(DefaultConfigPath)
}

// LoadOrCreate loads the config from the resolved path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreate(flagPath string) (*Config, error) {
	path, err := ResolvePath(flagPath)
	if err != nil {
		return nil, err
	}
	return LoadOrCreateAt(path)
}

// LoadOrCreateAt loads the config from the given path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreateAt(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()

		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating config directory: %w", err)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("marshaling default config: %w", err)
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}

		return cfg, nil
	}

	return Load(path)
}
