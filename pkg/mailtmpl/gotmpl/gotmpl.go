package gotmpl

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"io"
	"log/slog"
	"maps"
	"sync"
	texttemplate "text/template"

	"github.com/dmitrymomot/mailkit/pkg/logger"
	"github.com/dmitrymomot/mailkit/pkg/mailtmpl"
	"github.com/dmitrymomot/mailkit/pkg/resource"
)

// compiled is a parsed body template that is never executed directly.
type compiled interface {
	execute(w io.Writer, data any, funcs map[string]any) error
}

type htmlCompiled struct{ t *htmltemplate.Template }

func (c htmlCompiled) execute(w io.Writer, data any, funcs map[string]any) error {
	t, err := c.t.Clone()
	if err != nil {
		return err
	}
	return t.Funcs(htmltemplate.FuncMap(funcs)).Execute(w, data)
}

type textCompiled struct{ t *texttemplate.Template }

func (c textCompiled) execute(w io.Writer, data any, funcs map[string]any) error {
	t, err := c.t.Clone()
	if err != nil {
		return err
	}
	return t.Funcs(texttemplate.FuncMap(funcs)).Execute(w, data)
}

type entry struct {
	tmpl compiled
	spec *mailtmpl.Spec
}

// Backend compiles bodies with html/template or text/template.
type Backend struct {
	funcs      map[string]any
	bodies     map[*mailtmpl.BodyVariant]entry
	specs      map[*mailtmpl.Spec]struct{}
	logger     *slog.Logger
	missingKey string
	leftDelim  string
	rightDelim string
	mu         sync.RWMutex
}

// New creates a Go template backend.
func New(opts ...Option) *Backend {
	b := &Backend{
		funcs:      map[string]any{},
		bodies:     make(map[*mailtmpl.BodyVariant]entry),
		specs:      make(map[*mailtmpl.Spec]struct{}),
		logger:     logger.NewNope(),
		missingKey: "missingkey=default",
	}
	for _, opt := range opts {
		opt(b)
	}
	maps.Copy(b.funcs, parseFuncs())
	return b
}

// Load compiles every body of spec. Nothing is kept if one body fails.
func (b *Backend) Load(spec *mailtmpl.Spec) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.specs[spec]; ok {
		return mailtmpl.ErrAlreadyLoaded
	}

	staged := make(map[*mailtmpl.BodyVariant]entry, len(spec.Bodies))
	for i := range spec.Bodies {
		body := &spec.Bodies[i]
		tmpl, err := b.compile(body)
		if err != nil {
			return fmt.Errorf("%w: body %d (%s): %v", mailtmpl.ErrLoadFailed, i, body.Source.Name(), err)
		}
		staged[body] = entry{tmpl: tmpl, spec: spec}
	}

	maps.Copy(b.bodies, staged)
	b.specs[spec] = struct{}{}
	b.logger.Debug("templates compiled", slog.Int("bodies", len(staged)))
	return nil
}

func (b *Backend) compile(body *mailtmpl.BodyVariant) (compiled, error) {
	name := body.Source.Name()
	src := body.Source.String()

	if resource.BaseMediaType(body.MediaType) == resource.MediaTypeHTML {
		t, err := htmltemplate.New(name).
			Delims(b.leftDelim, b.rightDelim).
			Option(b.missingKey).
			Funcs(htmltemplate.FuncMap(b.funcs)).
			Parse(src)
		if err != nil {
			return nil, err
		}
		return htmlCompiled{t: t}, nil
	}

	t, err := texttemplate.New(name).
		Delims(b.leftDelim, b.rightDelim).
		Option(b.missingKey).
		Funcs(texttemplate.FuncMap(b.funcs)).
		Parse(src)
	if err != nil {
		return nil, err
	}
	return textCompiled{t: t}, nil
}

// Unload drops the compiled bodies of spec.
func (b *Backend) Unload(spec *mailtmpl.Spec) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range spec.Bodies {
		delete(b.bodies, &spec.Bodies[i])
	}
	delete(b.specs, spec)
}

// Render executes the compiled body with data.
func (b *Backend) Render(body *mailtmpl.BodyVariant, data any, scopes mailtmpl.Scopes) ([]byte, error) {
	b.mu.RLock()
	e, ok := b.bodies[body]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %w", mailtmpl.ErrRenderFailed, mailtmpl.ErrNotLoaded)
	}

	var buf bytes.Buffer
	if err := e.tmpl.execute(&buf, data, renderFuncs(e.spec, scopes)); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", mailtmpl.ErrRenderFailed, body.Source.Name(), err)
	}
	return buf.Bytes(), nil
}

// ProducesValidNewlines reports false: template output keeps the source's line endings.
func (b *Backend) ProducesValidNewlines() bool {
	return false
}

// UnknownTemplateID implements mailtmpl.Backend.
func (b *Backend) UnknownTemplateID(id string) error {
	return mailtmpl.UnknownTemplateError(id)
}

var _ mailtmpl.Backend = (*Backend)(nil)
