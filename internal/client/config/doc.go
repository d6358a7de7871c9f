// Package config loads runtime configuration for the admin console.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected with -c or -config. Files ending in
//     .yaml or .yml are decoded as YAML, everything else as JSON.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the admin API
//	-i int      counts poll interval (seconds)
//	-p int      page size for list views
//	-l string   log format: text, json or zap
//	-d          debug logging
//
// # File schema
//
// Durations accept strings like "60s" or integer nanoseconds:
//
//	{
//	  "api_base_url": "https://admin.example.com/api",
//	  "api_token": "…",
//	  "request_timeout": "10s",
//	  "counts_poll_interval": "60s",
//	  "page_size": 6,
//	  "cache_path": "console.db",
//	  "cache_key": "…",
//	  "log_format": "json",
//	  "s3": {"region": "eu-north-1", "endpoint": "http://minio:9000",
//	         "access_key": "…", "secret_key": "…"}
//	}
//
// A non-empty cache_key encrypts the cached collections.
//
// Environment variables are not read; AWS credentials fall back to the
// default SDK chain when the s3 keys are empty.
package config
