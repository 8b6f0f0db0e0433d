package mailtmpl

import (
	"maps"
	"slices"

	"github.com/dmitrymomot/mailkit/pkg/resource"
)

// Embeddings maps embedding names to resources.
type Embeddings map[string]resource.Resource

// Names returns the embedding names in sorted order.
func (e Embeddings) Names() []string {
	return slices.Sorted(maps.Keys(e))
}

// BodyVariant is one renderable alternative of a spec, e.g. plain text or HTML.
type BodyVariant struct {
	// Embeddings are visible to this variant only and shadow the spec's shared embeddings.
	Embeddings Embeddings

	// MediaType is the media type of the rendered output.
	MediaType string

	// Source is the backend-specific template content.
	Source resource.Resource
}

// Spec describes one named template group. The id it is registered under is
// not part of the spec.
//
// Backends key their loaded state on the *Spec and on the addresses of the
// elements of Bodies, so a registered spec must be replaced through
// Registry.Insert rather than edited in place.
type Spec struct {
	// Metadata holds per-template values such as the subject line.
	Metadata map[string]any

	// Embeddings are shared by all body variants.
	Embeddings Embeddings

	// Bodies are rendered in order; conventionally plain text before HTML.
	Bodies []BodyVariant

	// Attachments are delivered alongside the body and never referenced inline.
	Attachments []resource.Resource
}

// BodyAt returns a pointer to the i-th body variant.
func (s *Spec) BodyAt(i int) *BodyVariant {
	return &s.Bodies[i]
}
