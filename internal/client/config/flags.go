package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/vidtube/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Note: The function filters args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-t", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the vidtube API")
	fs.StringVar(&cfg.SessionDB, "d", cfg.SessionDB, "local session database")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "request timeout")
	fs.DurationVar(&cfg.OnlineCheckInterval, "i", cfg.OnlineCheckInterval, "online check interval")

	return fs.Parse(args)
}
