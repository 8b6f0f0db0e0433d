package mailtmpl

import "github.com/dmitrymomot/mailkit/pkg/resource"

// Disposition tells downstream MIME assembly how a part is delivered.
type Disposition int

const (
	// DispositionInline marks a part referenced from the body through its content id.
	DispositionInline Disposition = iota
	// DispositionAttachment marks a part delivered as a regular attachment.
	DispositionAttachment
)

func (d Disposition) String() string {
	if d == DispositionAttachment {
		return "attachment"
	}
	return "inline"
}

// Embedded is a resource bound to a content id for one render.
type Embedded struct {
	Resource    resource.Resource
	Name        string // embedding name; empty for attachments
	ContentID   ContentID
	Disposition Disposition
}

// Scope maps embedding names to their bound values.
type Scope map[string]Embedded

// Scopes is an ordered list of scopes; earlier scopes shadow later ones.
type Scopes []Scope

// Lookup returns the first binding for name.
func (s Scopes) Lookup(name string) (Embedded, bool) {
	for _, scope := range s {
		if e, ok := scope[name]; ok {
			return e, true
		}
	}
	return Embedded{}, false
}

// ContentID returns the content id bound to name.
func (s Scopes) ContentID(name string) (ContentID, bool) {
	e, ok := s.Lookup(name)
	return e.ContentID, ok
}

// URL returns the "cid:" URL bound to name, or an error wrapping
// ErrUnknownEmbedding. Backends use it to implement their embed helpers.
func (s Scopes) URL(name string) (string, error) {
	cid, ok := s.ContentID(name)
	if !ok {
		return "", UnknownEmbeddingError(name)
	}
	return cid.URL(), nil
}

// Backend is the capability set a rendering engine provides.
//
// Load and Unload are only called by the Registry and never concurrently with
// each other. Render may be called concurrently for already loaded specs; whether
// that is safe is up to the backend.
type Backend interface {
	// Load compiles every body of spec. It is called once per spec version.
	Load(spec *Spec) error

	// Unload releases whatever Load created for spec. It must not fail.
	Unload(spec *Spec)

	// Render renders one loaded body variant against data, resolving embedding
	// references through scopes.
	Render(body *BodyVariant, data any, scopes Scopes) ([]byte, error)

	// ProducesValidNewlines reports whether rendered output already uses CRLF line endings.
	ProducesValidNewlines() bool

	// UnknownTemplateID builds the error returned for an unregistered id.
	UnknownTemplateID(id string) error
}
