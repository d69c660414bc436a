package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/stockkeeper/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   bind address (e.g., ":8000")
//	-t int      access token validity, seconds
//	-l string   log level
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-t", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.Address, "a", cfg.Address, "address and port to run server")
	accessTokenTTL := fs.Int("t", int(cfg.AccessTokenTTL.Seconds()), "access token validity (in seconds)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.AccessTokenTTL = time.Duration(*accessTokenTTL) * time.Second
}
