package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/adminconsole/internal/flagx"
	"github.com/dmitrijs2005/adminconsole/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the DTO decoded from a JSON or YAML config file. Zero values
// mean "not set" and leave the corresponding Config field untouched.
type FileConfig struct {
	APIBaseURL         string         `json:"api_base_url" yaml:"api_base_url"`
	APIToken           string         `json:"api_token" yaml:"api_token"`
	RequestTimeout     timex.Duration `json:"request_timeout" yaml:"request_timeout"`
	CountsPollInterval timex.Duration `json:"counts_poll_interval" yaml:"counts_poll_interval"`
	PageSize           int            `json:"page_size" yaml:"page_size"`
	CachePath          string         `json:"cache_path" yaml:"cache_path"`
	CacheKey           string         `json:"cache_key" yaml:"cache_key"`
	LogFormat          string         `json:"log_format" yaml:"log_format"`
	Debug              bool           `json:"debug" yaml:"debug"`
	S3                 struct {
		Region    string `json:"region" yaml:"region"`
		Endpoint  string `json:"endpoint" yaml:"endpoint"`
		AccessKey string `json:"access_key" yaml:"access_key"`
		SecretKey string `json:"secret_key" yaml:"secret_key"`
	} `json:"s3" yaml:"s3"`
}

// parseFile overlays cfg with the file named by -c/-config in args.
// Panics on read or decode errors, like the flag parser.
func parseFile(cfg *Config, args []string) {
	path := flagx.ConfigFile(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		panic(err)
	}

	fc.apply(cfg)
}

func (fc *FileConfig) apply(cfg *Config) {
	setString(&cfg.APIBaseURL, fc.APIBaseURL)
	setString(&cfg.APIToken, fc.APIToken)
	setString(&cfg.CachePath, fc.CachePath)
	setString(&cfg.CacheKey, fc.CacheKey)
	setString(&cfg.LogFormat, fc.LogFormat)
	setString(&cfg.S3Region, fc.S3.Region)
	setString(&cfg.S3Endpoint, fc.S3.Endpoint)
	setString(&cfg.S3AccessKey, fc.S3.AccessKey)
	setString(&cfg.S3SecretKey, fc.S3.SecretKey)

	if fc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = fc.RequestTimeout.Duration
	}
	if fc.CountsPollInterval.Duration > 0 {
		cfg.CountsPollInterval = fc.CountsPollInterval.Duration
	}
	if fc.PageSize > 0 {
		cfg.PageSize = fc.PageSize
	}
	if fc.Debug {
		cfg.Debug = true
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
