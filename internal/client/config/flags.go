package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/qryptovault/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   backend base URL
//	-t int      request timeout in seconds
//	-d string   local database path
//	-s string   session backend
//	-l string   log level
//
// args is filtered with flagx.FilterArgs first, so flags owned by other
// loaders (-c, -config) do not interfere.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-t", "-d", "-s", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "backend base URL")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "local database path")
	fs.StringVar(&cfg.SessionBackend, "s", cfg.SessionBackend, "session backend: sqlite, redis or memory")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	timeoutSet := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			timeoutSet = true
		}
	})
	if timeoutSet {
		cfg.RequestTimeout = time.Duration(*timeout) * time.Second
	}
	return nil
}
