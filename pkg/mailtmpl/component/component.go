// Package component is a mailtmpl.Backend that renders a-h/templ components.
//
// A body's source holds the name of a registered factory instead of template
// text. Factories receive the render data and the embedding scopes:
//
//	backend := component.New()
//	backend.Register("welcome.html", func(data any, scopes mailtmpl.Scopes) templ.Component {
//	    return views.Welcome(data.(views.WelcomeData), component.CID(scopes, "logo"))
//	})
//
// Output is newline-normalized while it is written, so the registry does not
// need to post-process it.
package component

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"sync"

	"github.com/a-h/templ"
	"golang.org/x/text/transform"

	"github.com/dmitrymomot/mailkit/pkg/logger"
	"github.com/dmitrymomot/mailkit/pkg/mailtmpl"
)

// ErrUnknownComponent is returned by Load when a body names an unregistered factory.
var ErrUnknownComponent = errors.New("component: unknown component")

// Factory builds the component for one render.
type Factory func(data any, scopes mailtmpl.Scopes) templ.Component

// Option configures a Backend.
type Option func(*Backend)

// WithComponents registers several factories at once.
func WithComponents(factories map[string]Factory) Option {
	return func(b *Backend) {
		maps.Copy(b.factories, factories)
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

// Backend renders registered templ components.
type Backend struct {
	factories map[string]Factory
	bodies    map[*mailtmpl.BodyVariant]Factory
	specs     map[*mailtmpl.Spec]struct{}
	logger    *slog.Logger
	mu        sync.RWMutex
}

// New creates a component backend.
func New(opts ...Option) *Backend {
	b := &Backend{
		factories: make(map[string]Factory),
		bodies:    make(map[*mailtmpl.BodyVariant]Factory),
		specs:     make(map[*mailtmpl.Spec]struct{}),
		logger:    logger.NewNope(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Register adds or replaces a factory. Specs already loaded keep the factory
// they were loaded with.
func (b *Backend) Register(name string, f Factory) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.factories[name] = f
}

// Load resolves the factory named by every body.
func (b *Backend) Load(spec *mailtmpl.Spec) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.specs[spec]; ok {
		return mailtmpl.ErrAlreadyLoaded
	}

	staged := make(map[*mailtmpl.BodyVariant]Factory, len(spec.Bodies))
	for i := range spec.Bodies {
		body := &spec.Bodies[i]
		name := strings.TrimSpace(body.Source.String())
		f, ok := b.factories[name]
		if !ok {
			return fmt.Errorf("%w: body %d: %w %q", mailtmpl.ErrLoadFailed, i, ErrUnknownComponent, name)
		}
		staged[body] = f
	}

	maps.Copy(b.bodies, staged)
	b.specs[spec] = struct{}{}
	return nil
}

// Unload forgets the bodies of spec.
func (b *Backend) Unload(spec *mailtmpl.Spec) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range spec.Bodies {
		delete(b.bodies, &spec.Bodies[i])
	}
	delete(b.specs, spec)
}

// Render builds and renders the body's component.
func (b *Backend) Render(body *mailtmpl.BodyVariant, data any, scopes mailtmpl.Scopes) ([]byte, error) {
	b.mu.RLock()
	f, ok := b.bodies[body]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %w", mailtmpl.ErrRenderFailed, mailtmpl.ErrNotLoaded)
	}

	var buf bytes.Buffer
	w := transform.NewWriter(&buf, mailtmpl.NewlineNormalizer())
	if err := f(data, scopes).Render(context.Background(), w); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", mailtmpl.ErrRenderFailed, body.Source.String(), err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", mailtmpl.ErrRenderFailed, err)
	}
	return buf.Bytes(), nil
}

// ProducesValidNewlines reports true: output is normalized while rendering.
func (b *Backend) ProducesValidNewlines() bool {
	return true
}

// UnknownTemplateID implements mailtmpl.Backend.
func (b *Backend) UnknownTemplateID(id string) error {
	return mailtmpl.UnknownTemplateError(id)
}

// CID returns the cid: URL of the embedding bound to name, or an empty URL.
func CID(scopes mailtmpl.Scopes, name string) templ.SafeURL {
	url, err := scopes.URL(name)
	if err != nil {
		return ""
	}
	return templ.SafeURL(url)
}

var _ mailtmpl.Backend = (*Backend)(nil)
