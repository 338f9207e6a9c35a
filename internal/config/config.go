package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Transport TransportConfig `yaml:"transport" toml:"transport"`
	Auth      AuthConfig      `yaml:"auth" toml:"auth"`
	Store     StoreConfig     `yaml:"store" toml:"store"`
	Log       LogConfig       `yaml:"log" toml:"log"`
	Share     ShareConfig     `yaml:"share" toml:"share"`
}

type ServerConfig struct {
	Host string `yaml:"host" toml:"host"`
	Port int    `yaml:"port" toml:"port"`
}

type TransportConfig struct {
	// Mode is "stdio" or "http".
	Mode string `yaml:"mode" toml:"mode"`
}

// AuthConfig guards the HTTP transport with a shared bearer token.
type AuthConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Token   string `yaml:"token" toml:"token"`
}

type StoreConfig struct {
	// Driver is "sqlite" or "yaml".
	Driver string `yaml:"driver" toml:"driver"`
	// Path is the SQLite database file.
	Path string `yaml:"path" toml:"path"`
	// Dir is the data directory of the yaml driver.
	Dir string `yaml:"dir" toml:"dir"`
}

type LogConfig struct {
	Level string `yaml:"level" toml:"level"`
	Path  string `yaml:"path" toml:"path"`
}

type ShareConfig struct {
	// InvitationTimeout is in whole seconds.
	InvitationTimeout int `yaml:"invitation_timeout" toml:"invitation_timeout"`
	// Debounce is a Go duration string such as "1s" or "750ms".
	Debounce string `yaml:"debounce" toml:"debounce"`
}

// InvitationTimeoutDuration returns the invitation lifetime.
func (s ShareConfig) InvitationTimeoutDuration() time.Duration {
	return time.Duration(s.InvitationTimeout) * time.Second
}

// DebounceDuration returns the parsed quiet period.
func (s ShareConfig) DebounceDuration() (time.Duration, error) {
	d, err := time.ParseDuration(s.Debounce)
	if err != nil {
		return 0, fmt.Errorf("invalid share.debounce: %w", err)
	}
	return d, nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: "stdio",
		},
		Store: StoreConfig{
			Driver: "sqlite",
			Path:   "endershare.db",
			Dir:    "data",
		},
		Log: LogConfig{
			Level: "info",
		},
		Share: ShareConfig{
			InvitationTimeout: 60,
			Debounce:          "1s",
		},
	}
}

// Load reads configuration from an optional file and environment
// variables. An empty path falls back to ENDERSHARE_CONFIG_PATH. Files
// ending in .toml are parsed as TOML, anything else as YAML.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("ENDERSHARE_CONFIG_PATH")
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if host := os.Getenv("ENDERSHARE_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("ENDERSHARE_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid ENDERSHARE_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if mode := os.Getenv("ENDERSHARE_TRANSPORT_MODE"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if token := os.Getenv("ENDERSHARE_AUTH_TOKEN"); token != "" {
		cfg.Auth.Enabled = true
		cfg.Auth.Token = token
	}
	if driver := os.Getenv("ENDERSHARE_STORE_DRIVER"); driver != "" {
		cfg.Store.Driver = driver
	}
	if dbPath := os.Getenv("ENDERSHARE_DB_PATH"); dbPath != "" {
		cfg.Store.Path = dbPath
	}
	if dir := os.Getenv("ENDERSHARE_DATA_DIR"); dir != "" {
		cfg.Store.Dir = dir
	}
	if level := os.Getenv("ENDERSHARE_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if logPath := os.Getenv("ENDERSHARE_LOG_PATH"); logPath != "" {
		cfg.Log.Path = logPath
	}
	if timeoutStr := os.Getenv("ENDERSHARE_INVITATION_TIMEOUT"); timeoutStr != "" {
		timeout, err := strconv.Atoi(timeoutStr)
		if err != nil {
			return fmt.Errorf("invalid ENDERSHARE_INVITATION_TIMEOUT: %w", err)
		}
		cfg.Share.InvitationTimeout = timeout
	}
	if debounce := os.Getenv("ENDERSHARE_DEBOUNCE"); debounce != "" {
		cfg.Share.Debounce = debounce
	}
	return nil
}

// Validate checks enumerations and ranges.
func (c Config) Validate() error {
	switch c.Transport.Mode {
	case "stdio", "http":
	default:
		return fmt.Errorf("invalid transport.mode %q", c.Transport.Mode)
	}
	switch c.Store.Driver {
	case "sqlite", "yaml":
	default:
		return fmt.Errorf("invalid store.driver %q", c.Store.Driver)
	}
	if c.Auth.Enabled && c.Auth.Token == "" {
		return fmt.Errorf("auth.enabled requires auth.token")
	}
	if c.Share.InvitationTimeout <= 0 {
		return fmt.Errorf("share.invitation_timeout must be positive")
	}
	d, err := c.Share.DebounceDuration()
	if err != nil {
		return err
	}
	if d <= 0 {
		return fmt.Errorf("share.debounce must be positive")
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse config file: %w", err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
