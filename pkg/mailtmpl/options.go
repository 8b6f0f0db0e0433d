package mailtmpl

import "log/slog"

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithFixNewlines overrides the newline normalization default, which is the
// negation of Backend.ProducesValidNewlines.
func WithFixNewlines(fix bool) Option {
	return func(r *Registry) {
		r.fixNewlines = fix
	}
}
