// Package mailtmpltest provides a recording mailtmpl.Backend for tests.
package mailtmpltest

import (
	"fmt"
	"regexp"
	"slices"
	"sync"

	"github.com/dmitrymomot/mailkit/pkg/mailtmpl"
)

// Operations recorded by Backend.
const (
	OpLoad   = "load"
	OpUnload = "unload"
	OpRender = "render"
)

// Call is one recorded backend invocation.
type Call struct {
	Spec *mailtmpl.Spec
	Body *mailtmpl.BodyVariant
	Data any
	Op   string
}

// embedRef matches {{embed:name}} markers in body sources.
var embedRef = regexp.MustCompile(`\{\{embed:([A-Za-z0-9_.-]+)\}\}`)

// Backend records every call and renders body sources verbatim, replacing
// {{embed:name}} markers with the "cid:" URL bound to name.
type Backend struct {
	// FailLoad, when set, decides whether Load fails for a spec.
	FailLoad func(spec *mailtmpl.Spec) error

	// RenderFunc, when set, replaces the default rendering.
	RenderFunc func(body *mailtmpl.BodyVariant, data any, scopes mailtmpl.Scopes) ([]byte, error)

	loaded        map[*mailtmpl.Spec]struct{}
	calls         []Call
	mu            sync.Mutex
	validNewlines bool
}

// New creates a recording backend. validNewlines is what ProducesValidNewlines reports.
func New(validNewlines bool) *Backend {
	return &Backend{
		loaded:        make(map[*mailtmpl.Spec]struct{}),
		validNewlines: validNewlines,
	}
}

// FailLoadFor makes Load fail for exactly the given specs.
func (b *Backend) FailLoadFor(specs ...*mailtmpl.Spec) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.FailLoad = func(spec *mailtmpl.Spec) error {
		if slices.Contains(specs, spec) {
			return fmt.Errorf("%w: forced failure", mailtmpl.ErrLoadFailed)
		}
		return nil
	}
}

// Load implements mailtmpl.Backend.
func (b *Backend) Load(spec *mailtmpl.Spec) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls = append(b.calls, Call{Op: OpLoad, Spec: spec})
	if b.FailLoad != nil {
		if err := b.FailLoad(spec); err != nil {
			return err
		}
	}
	if _, ok := b.loaded[spec]; ok {
		return mailtmpl.ErrAlreadyLoaded
	}
	b.loaded[spec] = struct{}{}
	return nil
}

// Unload implements mailtmpl.Backend.
func (b *Backend) Unload(spec *mailtmpl.Spec) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls = append(b.calls, Call{Op: OpUnload, Spec: spec})
	delete(b.loaded, spec)
}

// Render implements mailtmpl.Backend.
func (b *Backend) Render(body *mailtmpl.BodyVariant, data any, scopes mailtmpl.Scopes) ([]byte, error) {
	b.mu.Lock()
	b.calls = append(b.calls, Call{Op: OpRender, Body: body, Data: data})
	renderFn := b.RenderFunc
	b.mu.Unlock()

	if renderFn != nil {
		return renderFn(body, data, scopes)
	}

	var missing string
	out := embedRef.ReplaceAllFunc(body.Source.Bytes(), func(m []byte) []byte {
		name := string(embedRef.FindSubmatch(m)[1])
		cid, ok := scopes.ContentID(name)
		if !ok {
			missing = name
			return m
		}
		return []byte(cid.URL())
	})
	if missing != "" {
		return nil, fmt.Errorf("%w: %w", mailtmpl.ErrRenderFailed, mailtmpl.UnknownEmbeddingError(missing))
	}
	return out, nil
}

// ProducesValidNewlines implements mailtmpl.Backend.
func (b *Backend) ProducesValidNewlines() bool {
	return b.validNewlines
}

// UnknownTemplateID implements mailtmpl.Backend.
func (b *Backend) UnknownTemplateID(id string) error {
	return mailtmpl.UnknownTemplateError(id)
}

// Calls returns a copy of the recorded calls.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.calls)
}

// CallsOf returns the recorded calls of one operation.
func (b *Backend) CallsOf(op string) []Call {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []Call
	for _, c := range b.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// IsLoaded reports whether spec is currently loaded.
func (b *Backend) IsLoaded(spec *mailtmpl.Spec) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.loaded[spec]
	return ok
}

// LoadedCount returns the number of loaded specs.
func (b *Backend) LoadedCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.loaded)
}

// ResetCalls clears the recorded calls but keeps the loaded state.
func (b *Backend) ResetCalls() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = nil
}

var _ mailtmpl.Backend = (*Backend)(nil)
