// Package fasttmpl is a mailtmpl.Backend for logic-less placeholder
// templates built on valyala/fasttemplate.
//
// A tag is replaced by a value looked up in the render data:
//
//	Hello {{ user.name }}, your code is {{code}}.
//	<img src="{{cid:logo}}">  {{meta:subject}}
//
// Dotted names walk nested maps. "cid:" tags resolve embedding content ids and
// "meta:" tags read spec metadata. Values are HTML-escaped in text/html bodies.
package fasttmpl

import (
	"fmt"
	"html"
	"io"
	"log/slog"
	"maps"
	"strings"
	"sync"

	"github.com/valyala/fasttemplate"

	"github.com/dmitrymomot/mailkit/pkg/logger"
	"github.com/dmitrymomot/mailkit/pkg/mailtmpl"
	"github.com/dmitrymomot/mailkit/pkg/resource"
)

// Option configures a Backend.
type Option func(*Backend)

// WithTags sets the tag delimiters. Default: "{{" and "}}".
func WithTags(start, end string) Option {
	return func(b *Backend) {
		b.startTag, b.endTag = start, end
	}
}

// WithLenient renders unknown tags as empty strings instead of failing.
func WithLenient() Option {
	return func(b *Backend) {
		b.lenient = true
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

type entry struct {
	tmpl *fasttemplate.Template
	spec *mailtmpl.Spec
	html bool
}

// Backend substitutes placeholders in body sources.
type Backend struct {
	bodies   map[*mailtmpl.BodyVariant]entry
	specs    map[*mailtmpl.Spec]struct{}
	logger   *slog.Logger
	startTag string
	endTag   string
	mu       sync.RWMutex
	lenient  bool
}

// New creates a placeholder backend.
func New(opts ...Option) *Backend {
	b := &Backend{
		bodies:   make(map[*mailtmpl.BodyVariant]entry),
		specs:    make(map[*mailtmpl.Spec]struct{}),
		logger:   logger.NewNope(),
		startTag: "{{",
		endTag:   "}}",
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Load parses every body. Nothing is kept on failure.
func (b *Backend) Load(spec *mailtmpl.Spec) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.specs[spec]; ok {
		return mailtmpl.ErrAlreadyLoaded
	}

	staged := make(map[*mailtmpl.BodyVariant]entry, len(spec.Bodies))
	for i := range spec.Bodies {
		body := &spec.Bodies[i]
		tmpl, err := fasttemplate.NewTemplate(body.Source.String(), b.startTag, b.endTag)
		if err != nil {
			return fmt.Errorf("%w: body %d (%s): %v", mailtmpl.ErrLoadFailed, i, body.Source.Name(), err)
		}
		staged[body] = entry{
			tmpl: tmpl,
			spec: spec,
			html: resource.BaseMediaType(body.MediaType) == resource.MediaTypeHTML,
		}
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

// Render substitutes every tag of body.
func (b *Backend) Render(body *mailtmpl.BodyVariant, data any, scopes mailtmpl.Scopes) ([]byte, error) {
	b.mu.RLock()
	e, ok := b.bodies[body]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %w", mailtmpl.ErrRenderFailed, mailtmpl.ErrNotLoaded)
	}

	out, err := e.tmpl.ExecuteFuncStringWithErr(func(w io.Writer, tag string) (int, error) {
		value, err := b.resolve(strings.TrimSpace(tag), e.spec, data, scopes)
		if err != nil {
			return 0, err
		}
		if e.html {
			value = html.EscapeString(value)
		}
		return io.WriteString(w, value)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", mailtmpl.ErrRenderFailed, body.Source.Name(), err)
	}
	return []byte(out), nil
}

func (b *Backend) resolve(tag string, spec *mailtmpl.Spec, data any, scopes mailtmpl.Scopes) (string, error) {
	if name, ok := strings.CutPrefix(tag, "cid:"); ok {
		return scopes.URL(strings.TrimSpace(name))
	}

	var (
		value any
		found bool
	)
	if key, ok := strings.CutPrefix(tag, "meta:"); ok {
		value, found = spec.Metadata[strings.TrimSpace(key)]
	} else {
		value, found = lookupPath(data, tag)
	}

	if !found {
		if b.lenient {
			return "", nil
		}
		return "", fmt.Errorf("%w: %q", ErrUnknownTag, tag)
	}
	if value == nil {
		return "", nil
	}
	return fmt.Sprint(value), nil
}

// lookupPath resolves a dotted path through nested string-keyed maps.
func lookupPath(data any, path string) (any, bool) {
	cur := data
	for part := range strings.SplitSeq(path, ".") {
		switch m := cur.(type) {
		case map[string]any:
			v, ok := m[part]
			if !ok {
				return nil, false
			}
			cur = v
		case map[string]string:
			v, ok := m[part]
			if !ok {
				return nil, false
			}
			cur = v
		default:
			return nil, false
		}
	}
	return cur, true
}

// ProducesValidNewlines reports false.
func (b *Backend) ProducesValidNewlines() bool {
	return false
}

// UnknownTemplateID implements mailtmpl.Backend.
func (b *Backend) UnknownTemplateID(id string) error {
	return mailtmpl.UnknownTemplateError(id)
}

var _ mailtmpl.Backend = (*Backend)(nil)
