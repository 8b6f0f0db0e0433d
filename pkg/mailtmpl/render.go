package mailtmpl

import (
	"maps"
	"slices"

	"github.com/dmitrymomot/mailkit/pkg/resource"
)

// BodyPart is one rendered body variant together with the local embeddings it
// may reference.
type BodyPart struct {
	Resource   resource.Resource
	Embeddings []Embedded
}

// MediaType returns the media type of the rendered body.
func (p BodyPart) MediaType() string {
	return p.Resource.MediaType()
}

// MailParts is the result of rendering a template: the alternative bodies in
// spec order, the embeddings shared by all bodies, and the attachments.
type MailParts struct {
	Metadata         map[string]any
	Bodies           []BodyPart
	SharedEmbeddings []Embedded
	Attachments      []Embedded
}

// Body returns the first body whose base media type matches mediaType.
func (m *MailParts) Body(mediaType string) (BodyPart, bool) {
	want := resource.BaseMediaType(mediaType)
	for _, b := range m.Bodies {
		if resource.BaseMediaType(b.MediaType()) == want {
			return b, true
		}
	}
	return BodyPart{}, false
}

// UseTemplate renders the spec registered under id.
//
// Content ids are allocated through cids. Each body is rendered with its local
// embeddings ahead of the shared ones. The first render error aborts the whole
// call; no partial result is returned.
func (r *Registry) UseTemplate(id string, data any, cids Context) (*MailParts, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	spec, ok := r.specs[id]
	if !ok {
		return nil, r.backend.UnknownTemplateID(id)
	}

	shared := bindEmbeddings(spec.Embeddings, cids)

	bodies := make([]BodyPart, 0, len(spec.Bodies))
	for i := range spec.Bodies {
		body := &spec.Bodies[i]
		local := bindEmbeddings(body.Embeddings, cids)

		rendered, err := r.backend.Render(body, data, Scopes{local, shared})
		if err != nil {
			return nil, err
		}

		if r.fixNewlines {
			rendered = FixNewlines(rendered)
		}

		bodies = append(bodies, BodyPart{
			Resource:   resource.New(body.Source.Name(), body.MediaType, rendered),
			Embeddings: scopeValues(local),
		})
	}

	attachments := make([]Embedded, 0, len(spec.Attachments))
	for _, res := range spec.Attachments {
		attachments = append(attachments, Embedded{
			Resource:    res,
			ContentID:   cids.NewContentID(),
			Disposition: DispositionAttachment,
		})
	}

	return &MailParts{
		Metadata:         spec.Metadata,
		Bodies:           bodies,
		SharedEmbeddings: scopeValues(shared),
		Attachments:      attachments,
	}, nil
}

// bindEmbeddings allocates a content id for each embedding, in name order so
// that id allocation is deterministic for a given Context.
func bindEmbeddings(embeddings Embeddings, cids Context) Scope {
	scope := make(Scope, len(embeddings))
	for _, name := range embeddings.Names() {
		scope[name] = Embedded{
			Resource:    embeddings[name],
			Name:        name,
			ContentID:   cids.NewContentID(),
			Disposition: DispositionInline,
		}
	}
	return scope
}

// scopeValues returns the bound embeddings sorted by name.
func scopeValues(scope Scope) []Embedded {
	out := make([]Embedded, 0, len(scope))
	for _, name := range slices.Sorted(maps.Keys(scope)) {
		out = append(out, scope[name])
	}
	return out
}
