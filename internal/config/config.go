package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default config file path.
const DefaultConfigPath = "~/.config/shiftboard/config.yaml"

// Environment variables that override the listen address.
const (
	EnvHost = "SHIFTBOARD_HOST"
	EnvPort = "SHIFTBOARD_PORT"
)

// Config holds all shiftboard configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type ServerConfig struct {
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
	MaxRequestSize         int64  `yaml:"max_request_size"`
	// AllowedOrigins enables CORS on /api for the listed origins. Empty
	// leaves CORS off.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type StorageConfig struct {
	// SQLiteFile is the database holding the sources table. Relative paths
	// resolve against the working directory.
	SQLiteFile string `yaml:"sqlite_file"`
}

type LoggingConfig struct {
	Level   string `yaml:"level"`
	NoColor bool   `yaml:"no_color"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	// Addr, when set, serves /metrics on a separate listener instead of the
	// dashboard's.
	Addr string `yaml:"addr"`
}

// Addr returns the host:port the dashboard listens on.
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Load reads a YAML config file at path and merges it with defaults.
// Returns an error if the file cannot be read or contains invalid YAML.
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
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Storage.SQLiteFile == "" {
		return fmt.Errorf("storage.sqlite_file is required")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}

// ApplyEnv loads a .env file from the working directory, if any, and
// overrides the listen address from SHIFTBOARD_HOST / SHIFTBOARD_PORT.
// Variables already set in the environment win over .env entries.
func (c *Config) ApplyEnv() error {
	_ = godotenv.Load()

	if host := os.Getenv(EnvHost); host != "" {
		c.Server.Host = host
	}
	if raw := os.Getenv(EnvPort); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port < 0 || port > 65535 {
			return fmt.Errorf("invalid %s: %q", EnvPort, raw)
		}
		c.Server.Port = port
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

// Resolve loads the config from path, or from DefaultConfigPath when path is
// empty. A missing default file yields the defaults; a missing explicit file
// is an error.
func Resolve(path string) (*Config, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return nil, err
		}
		return Load(expanded)
	}

	expanded, err := ExpandPath(DefaultConfigPath)
	if err != nil {
		return DefaultConfig(), nil
	}
	if _, err := os.Stat(expanded); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return Load(expanded)
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
