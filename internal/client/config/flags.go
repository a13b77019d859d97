package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/gophwalk/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
//	-a string     identity service address
//	-d string     SQLite database path
//	-t duration   data call timeout, e.g. 60s
//	-T duration   payload call timeout, e.g. 2m
//	-l string     log level
//
// Only these flags are looked at, so the JSON -c flag does not trip the parser.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-t", "-T", "-l"})

	fs := flag.NewFlagSet("gophwalk", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "identity service address")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "SQLite database path")
	fs.DurationVar(&cfg.DataCallTimeout, "t", cfg.DataCallTimeout, "data call timeout")
	fs.DurationVar(&cfg.PayloadCallTimeout, "T", cfg.PayloadCallTimeout, "payload call timeout")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	return fs.Parse(args)
}
