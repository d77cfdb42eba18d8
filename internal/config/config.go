// Package config loads linkloom configuration from YAML with environment
// variable overrides. .env and .env.local files are read first.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	defaultDirName      = ".linkloom"
	defaultDBName       = "linkloom.db"
	defaultStateKey     = "linkloom:v2"
	defaultShareBaseURL = "https://linkloom.app/"
	defaultAddr         = "127.0.0.1:8080"
	defaultLoggingLevel = "info"
	defaultLoggingFmt   = "console"
)

// Config holds the application configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Share   ShareConfig   `yaml:"share"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// StorageConfig says where the state blob lives.
type StorageConfig struct {
	Path string `yaml:"path"`
	Key  string `yaml:"key"`
}

// ShareConfig holds share link settings.
type ShareConfig struct {
	BaseURL string `yaml:"base_url"`
}

// ServerConfig holds the REST server settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultPath returns ~/.linkloom/config.yml
func DefaultPath() string {
	return filepath.Join(homeDir(), defaultDirName, "config.yml")
}

// Load reads the YAML file at path, then applies environment overrides and
// defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, err
	}

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)
	return &cfg, nil
}

// loadEnvFiles loads ENV_FILE when set, otherwise .env.local then .env.
// Variables already in the environment win.
func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	override(&cfg.Storage.Path, "LINKLOOM_DB")
	override(&cfg.Storage.Key, "LINKLOOM_STATE_KEY")
	override(&cfg.Share.BaseURL, "LINKLOOM_SHARE_BASE_URL")
	override(&cfg.Server.Addr, "LINKLOOM_ADDR")
	override(&cfg.Logging.Level, "LOG_LEVEL")
	override(&cfg.Logging.Format, "LOG_FORMAT")
}

func override(field *string, env string) {
	if v, ok := os.LookupEnv(env); ok && v != "" {
		*field = v
	}
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = filepath.Join(homeDir(), defaultDirName, defaultDBName)
	}
	if cfg.Storage.Key == "" {
		cfg.Storage.Key = defaultStateKey
	}
	if cfg.Share.BaseURL == "" {
		cfg.Share.BaseURL = defaultShareBaseURL
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultAddr
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaultLoggingLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = defaultLoggingFmt
	}
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
