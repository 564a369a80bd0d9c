package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "GOPHDRIVE_"

// Config holds runtime settings for the gophdrive CLI.
type Config struct {
	ServerURL           string        `koanf:"server_url"`
	RequestTimeout      time.Duration `koanf:"request_timeout"`
	DataDir             string        `koanf:"data_dir"`
	UploadConcurrency   int           `koanf:"upload_concurrency"`
	CatalogTTL          time.Duration `koanf:"catalog_ttl"`
	OnlineCheckInterval time.Duration `koanf:"online_check_interval"`
	LogLevel            string        `koanf:"log_level"`
	LogFormat           string        `koanf:"log_format"`
	MetricsAddr         string        `koanf:"metrics_addr"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:8080/api"
	c.RequestTimeout = 30 * time.Second
	c.DataDir = defaultDataDir()
	c.UploadConcurrency = 1
	c.CatalogTTL = time.Minute
	c.OnlineCheckInterval = 3 * time.Second
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.MetricsAddr = ""
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "gophdrive")
	}
	return ".gophdrive"
}

// DBPath is the SQLite file holding the session.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "gophdrive.db")
}

// DownloadDir is where downloads go unless a directory is given.
func (c *Config) DownloadDir() string {
	return filepath.Join(c.DataDir, "downloads")
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server_url %q: must be an absolute http(s) URL", c.ServerURL)
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request_timeout must be positive")
	}
	if c.DataDir == "" {
		return errors.New("data_dir must not be empty")
	}
	if c.UploadConcurrency < 1 {
		return errors.New("upload_concurrency must be at least 1")
	}
	if c.CatalogTTL < 0 {
		return errors.New("catalog_ttl must not be negative")
	}
	if c.OnlineCheckInterval <= 0 {
		return errors.New("online_check_interval must be positive")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format %q: want text or json", c.LogFormat)
	}
	return nil
}

// FlagSource is the read side of a flag set; *pflag.FlagSet satisfies it.
type FlagSource interface {
	Changed(name string) bool
	GetString(name string) (string, error)
	GetInt(name string) (int, error)
	GetDuration(name string) (time.Duration, error)
}

// Options selects the sources LoadConfig reads.
type Options struct {
	// ConfigFile is an optional YAML file. A missing file is an error.
	ConfigFile string
	// EnvFile is an optional dotenv file. When empty, ./.env is read if it
	// exists.
	EnvFile string
	// Flags, when set, override the other sources for flags the user set.
	Flags FlagSource
}

// LoadConfig constructs a Config, applies defaults, then overlays the YAML
// file, the environment and the flags. Later sources take precedence.
func LoadConfig(opts Options) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := loadDotenv(opts.EnvFile); err != nil {
		return nil, err
	}

	k := koanf.New(".")
	if opts.ConfigFile != "" {
		if err := k.Load(file.Provider(opts.ConfigFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", opts.ConfigFile, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if opts.Flags != nil {
		if err := applyFlags(cfg, opts.Flags); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotenv(path string) error {
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}
