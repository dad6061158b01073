package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/mediavault/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the backend server
//	-k string   directory holding the encrypted private key files
//
// os.Args is filtered to only the flags handled here via flagx.FilterArgs.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-k"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "base URL to access server")
	fs.StringVar(&cfg.KeyDir, "k", cfg.KeyDir, "key directory")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
