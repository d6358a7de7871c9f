package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the admin console.
//
// Units: intervals and timeouts are time.Duration.
type Config struct {
	APIBaseURL         string
	APIToken           string
	RequestTimeout     time.Duration
	CountsPollInterval time.Duration
	PageSize           int
	CachePath          string
	CacheKey           string
	LogFormat          string
	Debug              bool

	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8080/api"
	c.RequestTimeout = 10 * time.Second
	c.CountsPollInterval = 60 * time.Second
	c.PageSize = 6
	c.CachePath = "console.db"
	c.LogFormat = "text"
	c.S3Region = "us-east-1"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the config file (if one is given) and command-line flags. Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg, os.Args[1:])
	parseFlags(cfg, os.Args[1:])
	return cfg
}
