// Package logger provides structured logging for mail rendering and delivery.
//
// It builds on log/slog with two additions: context extractors that attach
// request-scoped values (template id, recipient) to every record, and optional
// Sentry reporting.
//
//	log := logger.New(logger.Config{Level: "debug"}, logger.TemplateIDExtractor())
//
//	ctx = logger.WithTemplateID(ctx, "welcome")
//	log.InfoContext(ctx, "mail sent")
//	// {"level":"INFO","msg":"mail sent","template_id":"welcome"}
//
// NewWithSentry additionally forwards warnings and errors to Sentry, falling
// back to stdout-only logging when no DSN is configured.
//
// NewNope returns a logger that discards everything and is the default for
// every component of this module.
package logger
