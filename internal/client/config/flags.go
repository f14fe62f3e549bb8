package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/sevr/internal/flagx"
	"github.com/dmitrijs2005/sevr/internal/timex"
)

// parseFlags overlays -a, -f and -t from args onto cfg.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-f", "-t"})

	fs := flag.NewFlagSet("sevr-cli", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the sevr API")
	fs.StringVar(&cfg.DBPath, "f", cfg.DBPath, "local cache file")
	fs.Func("t", "request timeout", func(v string) error {
		d, err := timex.ParseDuration(v)
		if err != nil {
			return err
		}
		cfg.RequestTimeout = d
		return nil
	})

	return fs.Parse(args)
}
