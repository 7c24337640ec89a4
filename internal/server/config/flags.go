package config

import (
	"flag"
	"os"

	"github.com/maildepot/maildepot/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8480")
//	-d string   PostgreSQL DSN
//	-r string   message storage root directory
//	-n string   local storage-server name
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-r", "-n"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.StorageRoot, "r", config.StorageRoot, "message storage root")
	fs.StringVar(&config.ServerName, "n", config.ServerName, "local storage server name")

	_ = fs.Parse(args)
}
