// Package config loads dehook configuration.
//
// Configuration comes from a YAML file named by the --config flag or the
// DEHOOK_CONFIG environment variable. Without a file the defaults apply.
// A few environment variables override individual fields afterwards:
//
//	DEHOOK_ADDR          listen
//	DEHOOK_LOG_LEVEL     log_level
//	DEHOOK_STORAGE_PATH  storage.path
//	DEHOOK_DSN           storage.dsn (also selects the postgres driver)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/illarion/dehook/internal/storage"
	"gopkg.in/yaml.v3"
)

const (
	EnvConfig      = "DEHOOK_CONFIG"
	EnvAddr        = "DEHOOK_ADDR"
	EnvLogLevel    = "DEHOOK_LOG_LEVEL"
	EnvStoragePath = "DEHOOK_STORAGE_PATH"
	EnvDSN         = "DEHOOK_DSN"
)

// DefaultListen is the loopback address the daemon serves on
const DefaultListen = "127.0.0.1:7878"

// Config is the complete dehook configuration
type Config struct {
	// Listen is the daemon's HTTP address, also used by consumers to
	// reach it.
	Listen string `yaml:"listen"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	Storage StorageConfig `yaml:"storage"`
}

// StorageConfig selects the settings backend
type StorageConfig struct {
	// Driver is bolt, postgres or memory.
	Driver string `yaml:"driver"`

	// Path is the bolt database file. A leading ~ expands to the home
	// directory.
	Path string `yaml:"path"`

	// DSN is the postgres connection string.
	DSN string `yaml:"dsn"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Listen:   DefaultListen,
		LogLevel: "info",
		Storage: StorageConfig{
			Driver: storage.DriverBolt,
			Path:   filepath.Join(homeDir, ".dehook", "settings.db"),
		},
	}
}

// Load resolves the config file (path, else DEHOOK_CONFIG, else none),
// then applies environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfig)
	}

	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAddr); v != "" {
		c.Listen = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvStoragePath); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv(EnvDSN); v != "" {
		c.Storage.DSN = v
		c.Storage.Driver = storage.DriverPostgres
	}
}

func (c *Config) expandPaths() {
	if c.Storage.Path == "~" || strings.HasPrefix(c.Storage.Path, "~/") {
		if homeDir, err := os.UserHomeDir(); err == nil {
			c.Storage.Path = filepath.Join(homeDir, strings.TrimPrefix(c.Storage.Path, "~"))
		}
	}
	c.Storage.Path = os.ExpandEnv(c.Storage.Path)
}

// Validate checks that the selected driver has what it needs
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	switch c.Storage.Driver {
	case storage.DriverBolt:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the bolt driver")
		}
	case storage.DriverPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for the postgres driver")
		}
	case storage.DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}
