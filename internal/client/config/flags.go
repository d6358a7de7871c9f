package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/adminconsole/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the admin API
//	-i int      counts poll interval in seconds
//	-p int      page size
//	-l string   log format
//	-d          debug logging
//
// args are filtered with flagx.FilterArgs so that -c/-config and any flags
// owned by other components do not break parsing.
func parseFlags(cfg *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-i", "-p", "-l", "-d"})

	fs := flag.NewFlagSet("console", flag.ContinueOnError)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "base URL of the admin API")
	interval := fs.Int("i", int(cfg.CountsPollInterval.Seconds()), "counts poll interval (in seconds)")
	fs.IntVar(&cfg.PageSize, "p", cfg.PageSize, "page size for list views")
	fs.StringVar(&cfg.LogFormat, "l", cfg.LogFormat, "log format: text, json or zap")
	fs.BoolVar(&cfg.Debug, "d", cfg.Debug, "debug logging")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.CountsPollInterval = time.Duration(*interval) * time.Second
}
