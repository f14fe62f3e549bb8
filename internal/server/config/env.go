package config

import (
	"errors"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/sevr/internal/timex"
)

// envConfig mirrors Config for environment parsing. Unset variables leave
// zero values, which parseEnv skips.
type envConfig struct {
	HTTPAddr        string         `env:"LISTEN_ADDR"`
	DatabaseDSN     string         `env:"DATABASE_URL"`
	SecretKey       string         `env:"JWT_SECRET"`
	AccessTokenTTL  timex.Duration `env:"JWT_EXPIRES_IN"`
	RefreshTokenTTL timex.Duration `env:"REFRESH_EXPIRES_IN"`
	AdminEmails     []string       `env:"ADMIN_EMAILS" envSeparator:","`
	AllowedOrigins  []string       `env:"ALLOWED_ORIGINS" envSeparator:","`
	LogLevel        string         `env:"LOG_LEVEL"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM"`
	AppName      string `env:"APP_NAME"`

	VaultBackend   string `env:"VAULT_BACKEND"`
	S3RootUser     string `env:"S3_ACCESS_KEY"`
	S3RootPassword string `env:"S3_SECRET_KEY"`
	S3Bucket       string `env:"S3_BUCKET"`
	S3Region       string `env:"S3_REGION"`
	S3BaseEndpoint string `env:"S3_ENDPOINT"`
}

// parseEnv loads dotenvPath when it exists (existing variables win) and then
// overlays every set environment variable onto config.
func parseEnv(config *Config, dotenvPath string) error {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	var e envConfig
	if err := env.Parse(&e); err != nil {
		return err
	}

	setString(&config.HTTPAddr, e.HTTPAddr)
	setString(&config.DatabaseDSN, e.DatabaseDSN)
	setString(&config.SecretKey, e.SecretKey)
	if e.AccessTokenTTL.Duration > 0 {
		config.AccessTokenValidityDuration = e.AccessTokenTTL.Duration
	}
	if e.RefreshTokenTTL.Duration > 0 {
		config.RefreshTokenValidityDuration = e.RefreshTokenTTL.Duration
	}
	if len(e.AdminEmails) > 0 {
		config.AdminEmails = trimAll(e.AdminEmails)
	}
	if len(e.AllowedOrigins) > 0 {
		config.AllowedOrigins = trimAll(e.AllowedOrigins)
	}
	setString(&config.LogLevel, e.LogLevel)

	setString(&config.SMTPHost, e.SMTPHost)
	if e.SMTPPort != 0 {
		config.SMTPPort = e.SMTPPort
	}
	setString(&config.SMTPUser, e.SMTPUser)
	setString(&config.SMTPPassword, e.SMTPPassword)
	setString(&config.SMTPFrom, e.SMTPFrom)
	setString(&config.AppName, e.AppName)

	setString(&config.VaultBackend, e.VaultBackend)
	setString(&config.S3RootUser, e.S3RootUser)
	setString(&config.S3RootPassword, e.S3RootPassword)
	setString(&config.S3Bucket, e.S3Bucket)
	setString(&config.S3Region, e.S3Region)
	setString(&config.S3BaseEndpoint, e.S3BaseEndpoint)

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func trimAll(in []string) []string {
	var out []string
	for _, s := range in {
		out = append(out, splitList(s)...)
	}
	return out
}
