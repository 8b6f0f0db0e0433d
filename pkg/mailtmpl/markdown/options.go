package markdown

import (
	"html/template"
	"log/slog"
	"maps"

	"github.com/yuin/goldmark"
)

// Option configures a Backend.
type Option func(*Backend)

// WithLayout wraps every converted HTML body. The layout receives
// .Content (the body HTML), .Metadata (spec metadata) and .Data (render data).
func WithLayout(layout *template.Template) Option {
	return func(b *Backend) {
		b.layout = layout
	}
}

// WithFuncs adds functions available to body templates.
func WithFuncs(funcs map[string]any) Option {
	return func(b *Backend) {
		maps.Copy(b.funcs, funcs)
	}
}

// WithGoldmarkOptions passes extra options to the Markdown converter.
// The button and embed extension is always installed.
func WithGoldmarkOptions(opts ...goldmark.Option) Option {
	return func(b *Backend) {
		b.mdOpts = append(b.mdOpts, opts...)
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

// ParseLayout parses an HTML layout for WithLayout.
func ParseLayout(src string) (*template.Template, error) {
	return template.New("layout").Parse(src)
}
