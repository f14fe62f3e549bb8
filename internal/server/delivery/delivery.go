// Package delivery sends one-time login codes out of band.
package delivery

import (
	"context"

	"github.com/dmitrijs2005/sevr/internal/logging"
	"github.com/dmitrijs2005/sevr/internal/server/config"
)

// Sender delivers a login code to an email address.
type Sender interface {
	SendCode(ctx context.Context, email, code string) error
}

// New returns an SMTP sender backed by the log sender when SMTP is
// configured, and the log sender alone otherwise.
func New(cfg *config.Config, logger logging.Logger) Sender {
	logSender := NewLogSender(logger)
	if !cfg.SMTPEnabled() {
		return logSender
	}
	return NewFallbackSender(NewSMTPSender(SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		AppName:  cfg.AppName,
	}), logSender, logger)
}

// LogSender writes codes to the operator log. Development fallback.
type LogSender struct {
	logger logging.Logger
}

func NewLogSender(logger logging.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendCode(ctx context.Context, email, code string) error {
	s.logger.Info(ctx, "one-time code issued", "email", email, "code", code)
	return nil
}

// FallbackSender tries primary and, if it fails, hands the code to
// fallback. Only a fallback failure is returned.
type FallbackSender struct {
	primary  Sender
	fallback Sender
	logger   logging.Logger
}

func NewFallbackSender(primary, fallback Sender, logger logging.Logger) *FallbackSender {
	return &FallbackSender{primary: primary, fallback: fallback, logger: logger}
}

func (s *FallbackSender) SendCode(ctx context.Context, email, code string) error {
	err := s.primary.SendCode(ctx, email, code)
	if err == nil {
		return nil
	}
	s.logger.Warn(ctx, "code delivery failed, using fallback", "email", email, "error", err)
	return s.fallback.SendCode(ctx, email, code)
}
