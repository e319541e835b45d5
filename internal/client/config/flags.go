package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/eventplanner/internal/flagx"
)

var ownFlags = []string{"-s", "-server", "-t", "-timeout"}

// parseFlags applies -s/-server and -t/-timeout. The timeout takes a Go
// duration ("5s", "1m"). Bad values panic.
func parseFlags(cfg *Config) {
	fs := flag.NewFlagSet("cli", flag.ContinueOnError)

	for _, name := range []string{"s", "server"} {
		fs.StringVar(&cfg.ServerURL, name, cfg.ServerURL, "auth API origin")
	}
	for _, name := range []string{"t", "timeout"} {
		fs.DurationVar(&cfg.RequestTimeout, name, cfg.RequestTimeout, "per-request timeout")
	}

	if err := fs.Parse(flagx.FilterArgs(os.Args[1:], ownFlags)); err != nil {
		panic(err)
	}
}
