package mailer

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrymomot/mailkit/pkg/mailtmpl"
)

// Option configures a Mailer.
type Option func(*Mailer)

// WithContentIDs sets the content id allocator.
// Default: mailtmpl.NewContext(Config.ContentIDDomain).
func WithContentIDs(cids mailtmpl.Context) Option {
	return func(m *Mailer) {
		m.cids = cids
	}
}

// WithTracer sets the tracer for send spans. Default: the global provider's tracer.
func WithTracer(t trace.Tracer) Option {
	return func(m *Mailer) {
		if t != nil {
			m.tracer = t
		}
	}
}

// WithLogger sets the logger. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(m *Mailer) {
		if l != nil {
			m.logger = l
		}
	}
}
