package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"maps"
	"sync"
	texttemplate "text/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"

	"github.com/dmitrymomot/mailkit/pkg/logger"
	"github.com/dmitrymomot/mailkit/pkg/mailtmpl"
	"github.com/dmitrymomot/mailkit/pkg/resource"
)

var errUnbound = errors.New("markdown: helper used outside of a render")

type entry struct {
	tmpl *texttemplate.Template
	spec *mailtmpl.Spec
}

// Backend renders Markdown bodies.
type Backend struct {
	md     goldmark.Markdown
	layout *template.Template
	funcs  map[string]any
	bodies map[*mailtmpl.BodyVariant]entry
	specs  map[*mailtmpl.Spec]struct{}
	logger *slog.Logger
	mdOpts []goldmark.Option
	mu     sync.RWMutex
}

// New creates a Markdown backend.
func New(opts ...Option) *Backend {
	b := &Backend{
		funcs:  map[string]any{},
		bodies: make(map[*mailtmpl.BodyVariant]entry),
		specs:  make(map[*mailtmpl.Spec]struct{}),
		logger: logger.NewNope(),
	}
	for _, opt := range opts {
		opt(b)
	}

	maps.Copy(b.funcs, map[string]any{
		"cid":      func(string) (string, error) { return "", errUnbound },
		"hasEmbed": func(string) bool { return false },
		"meta":     func(string) any { return nil },
	})
	b.md = goldmark.New(append([]goldmark.Option{goldmark.WithExtensions(NewExtension())}, b.mdOpts...)...)
	return b
}

// Load parses the template part of every body. Nothing is kept on failure.
func (b *Backend) Load(spec *mailtmpl.Spec) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.specs[spec]; ok {
		return mailtmpl.ErrAlreadyLoaded
	}

	staged := make(map[*mailtmpl.BodyVariant]entry, len(spec.Bodies))
	for i := range spec.Bodies {
		body := &spec.Bodies[i]
		tmpl, err := texttemplate.New(body.Source.Name()).
			Funcs(b.funcs).
			Parse(body.Source.String())
		if err != nil {
			return fmt.Errorf("%w: body %d (%s): %v", mailtmpl.ErrLoadFailed, i, body.Source.Name(), err)
		}
		staged[body] = entry{tmpl: tmpl, spec: spec}
	}

	maps.Copy(b.bodies, staged)
	b.specs[spec] = struct{}{}
	return nil
}

// Unload drops the parsed bodies of spec.
func (b *Backend) Unload(spec *mailtmpl.Spec) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range spec.Bodies {
		delete(b.bodies, &spec.Bodies[i])
	}
	delete(b.specs, spec)
}

// Render executes the body template and, for HTML bodies, converts the
// result and applies the layout.
func (b *Backend) Render(body *mailtmpl.BodyVariant, data any, scopes mailtmpl.Scopes) ([]byte, error) {
	b.mu.RLock()
	e, ok := b.bodies[body]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %w", mailtmpl.ErrRenderFailed, mailtmpl.ErrNotLoaded)
	}

	name := body.Source.Name()

	tmpl, err := e.tmpl.Clone()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", mailtmpl.ErrRenderFailed, name, err)
	}
	var processed bytes.Buffer
	if err := tmpl.Funcs(renderFuncs(e.spec, scopes)).Execute(&processed, data); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", mailtmpl.ErrRenderFailed, name, err)
	}

	if resource.BaseMediaType(body.MediaType) != resource.MediaTypeHTML {
		return processed.Bytes(), nil
	}

	pc := newParseContext(scopes)
	var converted bytes.Buffer
	if err := b.md.Convert(processed.Bytes(), &converted, parser.WithContext(pc)); err != nil {
		return nil, fmt.Errorf("%w: %s: converting markdown: %v", mailtmpl.ErrRenderFailed, name, err)
	}
	if err := embedError(pc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", mailtmpl.ErrRenderFailed, name, err)
	}

	if b.layout == nil {
		return converted.Bytes(), nil
	}

	var out bytes.Buffer
	if err := b.layout.Execute(&out, map[string]any{
		"Content":  template.HTML(converted.String()), //nolint:gosec // goldmark output, raw HTML disabled
		"Metadata": e.spec.Metadata,
		"Data":     data,
	}); err != nil {
		return nil, fmt.Errorf("%w: %s: executing layout: %w", mailtmpl.ErrRenderFailed, name, err)
	}

	b.logger.Debug("markdown body rendered", slog.String("body", name), slog.Int("size", out.Len()))
	return out.Bytes(), nil
}

// ProducesValidNewlines reports false.
func (b *Backend) ProducesValidNewlines() bool {
	return false
}

// UnknownTemplateID implements mailtmpl.Backend.
func (b *Backend) UnknownTemplateID(id string) error {
	return mailtmpl.UnknownTemplateError(id)
}

func renderFuncs(spec *mailtmpl.Spec, scopes mailtmpl.Scopes) texttemplate.FuncMap {
	return texttemplate.FuncMap{
		"cid": scopes.URL,
		"hasEmbed": func(name string) bool {
			_, ok := scopes.Lookup(name)
			return ok
		},
		"meta": func(key string) any {
			return spec.Metadata[key]
		},
	}
}

var _ mailtmpl.Backend = (*Backend)(nil)
