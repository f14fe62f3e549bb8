package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/sevr/internal/flagx"
	"github.com/dmitrijs2005/sevr/internal/timex"
)

// parseFlags overlays command-line flags onto config.
//
//	-a string   HTTP listen address (":3001")
//	-d string   database DSN, "memory://" for the in-memory store
//	-s string   JWT HMAC secret
//	-t string   access token lifetime ("15m")
//	-r string   refresh token lifetime ("30d")
//	-admins     comma separated admin emails
//	-origins    comma separated CORS origins
//	-l string   log level
//	-vault      vault blob backend: postgres | s3
//	-b string   S3 bucket
//	-g string   S3 region
//	-e string   S3 endpoint
//
// Only these flags are looked at; everything else in args is ignored.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{
		"-a", "-d", "-s", "-t", "-r", "-admins", "-origins", "-l", "-vault", "-b", "-g", "-e",
	})

	fs := flag.NewFlagSet("sevr", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.Func("t", "access token lifetime", func(v string) error {
		d, err := timex.ParseDuration(v)
		if err != nil {
			return err
		}
		config.AccessTokenValidityDuration = d
		return nil
	})
	fs.Func("r", "refresh token lifetime", func(v string) error {
		d, err := timex.ParseDuration(v)
		if err != nil {
			return err
		}
		config.RefreshTokenValidityDuration = d
		return nil
	})
	fs.Func("admins", "comma separated admin emails", func(v string) error {
		config.AdminEmails = splitList(v)
		return nil
	})
	fs.Func("origins", "comma separated CORS origins", func(v string) error {
		config.AllowedOrigins = splitList(v)
		return nil
	})
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.VaultBackend, "vault", config.VaultBackend, "vault blob backend")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	return fs.Parse(args)
}
