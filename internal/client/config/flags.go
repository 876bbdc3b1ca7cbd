package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/hydrotrack/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   address and port of the backend server
//	-i int      online check interval in seconds
//	-d string   path of the local SQLite database
//	-r string   remote backend: grpc, s3 or none
//	-k string   access token signing secret
//	-l string   log file path
//	-v string   log level
//	-z string   IANA time zone, or Local
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], "a", "i", "d", "r", "k", "l", "v", "z")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "local database path")
	fs.StringVar(&cfg.RemoteBackend, "r", cfg.RemoteBackend, "remote backend (grpc, s3, none)")
	fs.StringVar(&cfg.TokenSecret, "k", cfg.TokenSecret, "access token signing secret")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "log file path")
	fs.StringVar(&cfg.LogLevel, "v", cfg.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.TimeZone, "z", cfg.TimeZone, "time zone for calendar days")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
}
