// Package config assembles the effective CLI configuration from layered
// sources: built-in defaults, an optional kontor.yaml, an optional .env
// file, and KONTOR_* environment variables. Later layers win.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Store backends the CLI can persist credentials in.
const (
	StoreSQLite = "sqlite"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Config is the resolved configuration the CLI runs with.
type Config struct {
	// APIURL is the base URL of the Kontor platform API.
	APIURL string
	// StoreBackend selects where the credential pair lives: sqlite, file,
	// or redis.
	StoreBackend string
	// DatabasePath is the sqlite database file (sqlite backend).
	DatabasePath string
	// CredentialsFile is the JSON credential file (file backend).
	CredentialsFile string
	// RedisAddr and RedisPrefix configure the redis backend.
	RedisAddr   string
	RedisPrefix string
	// RefreshTimeout bounds a single credential refresh round trip.
	RefreshTimeout time.Duration
	// RequestTimeout bounds a single API request, refresh included.
	RequestTimeout time.Duration
	// RateLimit caps file transfers in bytes per second; zero means no cap.
	RateLimit int64
}

// fileConfig mirrors the kontor.yaml layout. Durations are strings so the
// file can say "15s" rather than nanosecond counts.
type fileConfig struct {
	APIURL          string `yaml:"api_url"`
	Store           string `yaml:"store"`
	DatabasePath    string `yaml:"database_path"`
	CredentialsFile string `yaml:"credentials_file"`
	RedisAddr       string `yaml:"redis_addr"`
	RedisPrefix     string `yaml:"redis_prefix"`
	RefreshTimeout  string `yaml:"refresh_timeout"`
	RequestTimeout  string `yaml:"request_timeout"`
	RateLimit       *int64 `yaml:"rate_limit"`
}

// Default returns the built-in configuration: sqlite store under ~/.kontor,
// no transfer cap.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		APIURL:          "https://api.kontor.app",
		StoreBackend:    StoreSQLite,
		DatabasePath:    filepath.Join(home, ".kontor", "kontor.db"),
		CredentialsFile: filepath.Join(home, ".kontor", "credentials.json"),
		RedisAddr:       "localhost:6379",
		RedisPrefix:     "kontor",
		RefreshTimeout:  15 * time.Second,
		RequestTimeout:  30 * time.Second,
	}
}

// Load resolves the effective configuration. The config file is taken from
// KONTOR_CONFIG when set, otherwise the first of ./kontor.yaml and
// ~/.kontor/kontor.yaml that exists; a missing file is not an error. A .env
// file in the working directory is loaded before the environment is read.
func Load() (*Config, error) {
	cfg := Default()

	path := os.Getenv("KONTOR_CONFIG")
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	// Best-effort; most installs have no .env file.
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("Loaded environment overrides from .env")
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	candidates := []string{"kontor.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".kontor", "kontor.yaml"))
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file %s does not exist", path)
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if fc.APIURL != "" {
		c.APIURL = fc.APIURL
	}
	if fc.Store != "" {
		c.StoreBackend = fc.Store
	}
	if fc.DatabasePath != "" {
		c.DatabasePath = fc.DatabasePath
	}
	if fc.CredentialsFile != "" {
		c.CredentialsFile = fc.CredentialsFile
	}
	if fc.RedisAddr != "" {
		c.RedisAddr = fc.RedisAddr
	}
	if fc.RedisPrefix != "" {
		c.RedisPrefix = fc.RedisPrefix
	}
	if fc.RefreshTimeout != "" {
		d, err := time.ParseDuration(fc.RefreshTimeout)
		if err != nil {
			return fmt.Errorf("invalid refresh_timeout in %s: %w", path, err)
		}
		c.RefreshTimeout = d
	}
	if fc.RequestTimeout != "" {
		d, err := time.ParseDuration(fc.RequestTimeout)
		if err != nil {
			return fmt.Errorf("invalid request_timeout in %s: %w", path, err)
		}
		c.RequestTimeout = d
	}
	if fc.RateLimit != nil {
		c.RateLimit = *fc.RateLimit
	}

	log.Debug().Str("path", path).Msg("Loaded config file")
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("KONTOR_API_URL"); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv("KONTOR_STORE"); v != "" {
		c.StoreBackend = v
	}
	if v := os.Getenv("KONTOR_DATABASE_PATH"); v != "" {
		c.DatabasePath = v
	}
	if v := os.Getenv("KONTOR_CREDENTIALS_FILE"); v != "" {
		c.CredentialsFile = v
	}
	if v := os.Getenv("KONTOR_REDIS_ADDR"); v != "" {
		c.RedisAddr = v
	}
	if v := os.Getenv("KONTOR_REDIS_PREFIX"); v != "" {
		c.RedisPrefix = v
	}
	if v := os.Getenv("KONTOR_REFRESH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid KONTOR_REFRESH_TIMEOUT: %w", err)
		}
		c.RefreshTimeout = d
	}
	if v := os.Getenv("KONTOR_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid KONTOR_REQUEST_TIMEOUT: %w", err)
		}
		c.RequestTimeout = d
	}
	if v := os.Getenv("KONTOR_RATE_LIMIT"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid KONTOR_RATE_LIMIT: %w", err)
		}
		c.RateLimit = n
	}
	return nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case StoreSQLite, StoreFile, StoreRedis:
	default:
		return fmt.Errorf("unknown store backend %q (expected %s, %s, or %s)",
			c.StoreBackend, StoreSQLite, StoreFile, StoreRedis)
	}
	if c.APIURL == "" {
		return fmt.Errorf("api_url cannot be empty")
	}
	if c.RefreshTimeout <= 0 {
		return fmt.Errorf("refresh_timeout must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	return nil
}
