package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName            string `mapstructure:"app_name"`
	Env                string `mapstructure:"app_env"`
	LogLevel           string `mapstructure:"log_level"`
	BaseURL            string `mapstructure:"base_url"`
	UserAgent          string `mapstructure:"user_agent"`
	DefaultHeadersFile string `mapstructure:"default_headers_file"`

	TimeoutSeconds int64         `mapstructure:"timeout_seconds"`
	Timeout        time.Duration `mapstructure:"-"`

	JournalType            string        `mapstructure:"journal_type"`
	JournalPath            string        `mapstructure:"journal_path"`
	JournalTTLSeconds      int64         `mapstructure:"journal_ttl_seconds"`
	JournalCleanupSeconds  int64         `mapstructure:"journal_cleanup_interval_seconds"`
	JournalTTL             time.Duration `mapstructure:"-"`
	JournalCleanupInterval time.Duration `mapstructure:"-"`

	// DefaultHeaders is read from DefaultHeadersFile when one is configured.
	DefaultHeaders map[string]string `mapstructure:"-"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "samvad-fetch")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "warn")
	v.SetDefault("base_url", "")
	v.SetDefault("user_agent", "samvad-fetch")
	v.SetDefault("default_headers_file", "")
	v.SetDefault("timeout_seconds", 30)
	v.SetDefault("journal_type", "bbolt")
	v.SetDefault("journal_path", "./data/journal.db")
	v.SetDefault("journal_ttl_seconds", int64((7*24*time.Hour)/time.Second))
	v.SetDefault("journal_cleanup_interval_seconds", int64((6*time.Hour)/time.Second))

	v.SetEnvPrefix("fetch")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// finalize validates raw values and derives durations and headers.
func (cfg *Config) finalize() error {
	if cfg.TimeoutSeconds <= 0 {
		return fmt.Errorf("invalid timeout_seconds (must be positive seconds)")
	}
	cfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second

	if cfg.JournalTTLSeconds <= 0 {
		return fmt.Errorf("invalid journal_ttl_seconds (must be positive seconds)")
	}
	if cfg.JournalCleanupSeconds <= 0 {
		return fmt.Errorf("invalid journal_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.JournalTTL = time.Duration(cfg.JournalTTLSeconds) * time.Second
	cfg.JournalCleanupInterval = time.Duration(cfg.JournalCleanupSeconds) * time.Second

	if path := strings.TrimSpace(cfg.DefaultHeadersFile); path != "" {
		headers, err := LoadHeaders(path)
		if err != nil {
			return err
		}
		cfg.DefaultHeaders = headers
	}
	return nil
}

// LoadHeaders reads a flat name/value mapping from a YAML or JSON file.
func LoadHeaders(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read headers file: %w", err)
	}

	var headers map[string]string
	if err := yaml.Unmarshal(raw, &headers); err != nil {
		return nil, fmt.Errorf("decode headers file %s: %w", filepath.Base(path), err)
	}

	out := make(map[string]string, len(headers))
	for k, v := range headers {
		key := strings.TrimSpace(k)
		if key == "" {
			return nil, errors.New("headers file contains an empty header name")
		}
		out[key] = strings.TrimSpace(v)
	}
	return out, nil
}
