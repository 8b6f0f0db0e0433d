package gotmpl

import (
	"log/slog"
	"maps"
)

// Option configures a Backend.
type Option func(*Backend)

// WithFuncs adds template functions. Built-in helpers win on name clashes.
func WithFuncs(funcs map[string]any) Option {
	return func(b *Backend) {
		maps.Copy(b.funcs, funcs)
	}
}

// WithMissingKeyError makes a missing map key a render error instead of "<no value>".
func WithMissingKeyError() Option {
	return func(b *Backend) {
		b.missingKey = "missingkey=error"
	}
}

// WithDelims sets the action delimiters, e.g. "[[" and "]]".
func WithDelims(left, right string) Option {
	return func(b *Backend) {
		b.leftDelim, b.rightDelim = left, right
	}
}

// WithLogger sets the logger. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) {
		if l != nil {
			b.logger = l
		}
	}
}
