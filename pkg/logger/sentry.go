package logger

import (
	"context"
	"log/slog"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

// SentryConfig holds Sentry integration configuration.
type SentryConfig struct {
	DSN         string `env:"SENTRY_DSN"`
	Environment string `env:"SENTRY_ENVIRONMENT" envDefault:"production"`
	// MinLevel selects what reaches Sentry: slog.LevelError sends errors only,
	// anything lower sends warnings and errors.
	MinLevel slog.Level
}

// NewWithSentry creates a logger writing to stdout and, when a DSN is set, to Sentry.
// Sentry initialization failures are logged and fall back to stdout only.
func NewWithSentry(cfg Config, sentryCfg SentryConfig, extractors ...ContextExtractor) *slog.Logger {
	base := newBaseHandler(cfg)

	if sentryCfg.DSN == "" {
		return slog.New(NewHandler(base, nil, extractors...))
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         sentryCfg.DSN,
		Environment: sentryCfg.Environment,
		EnableLogs:  true,
	}); err != nil {
		slog.New(base).Error("failed to initialize Sentry", slog.String("error", err.Error()))
		return slog.New(NewHandler(base, nil, extractors...))
	}

	logLevel := []slog.Level{slog.LevelWarn, slog.LevelError}
	if sentryCfg.MinLevel == slog.LevelError {
		logLevel = []slog.Level{slog.LevelError}
	}

	sentryHandler := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError}, // errors become Issues
		LogLevel:   logLevel,
	}.NewSentryHandler(context.Background())

	return slog.New(NewHandler(base, sentryHandler, extractors...))
}
