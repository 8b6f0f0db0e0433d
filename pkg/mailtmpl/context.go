package mailtmpl

import (
	"strings"

	"github.com/google/uuid"
)

// ContentID identifies an inline or attached part of a mail, without angle brackets.
type ContentID string

// String returns the bare content id.
func (c ContentID) String() string {
	return string(c)
}

// URL returns the "cid:" URL used to reference the part from HTML.
func (c ContentID) URL() string {
	return "cid:" + string(c)
}

// Header returns the value for a Content-ID header.
func (c ContentID) Header() string {
	return "<" + string(c) + ">"
}

// Context allocates content ids for embeddings and attachments.
// Implementations are expected to be cheap to copy and reused across renders.
type Context interface {
	NewContentID() ContentID
}

// ContextFunc adapts a function to the Context interface.
type ContextFunc func() ContentID

// NewContentID implements Context.
func (f ContextFunc) NewContentID() ContentID {
	return f()
}

// SimpleContext allocates random UUID-based content ids under a fixed domain.
type SimpleContext struct {
	domain string
}

// NewContext creates a SimpleContext. An empty domain defaults to "localhost".
func NewContext(domain string) SimpleContext {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		domain = "localhost"
	}
	return SimpleContext{domain: domain}
}

// Domain returns the right-hand side used for generated ids.
func (c SimpleContext) Domain() string {
	return c.domain
}

// NewContentID implements Context.
func (c SimpleContext) NewContentID() ContentID {
	domain := c.domain
	if domain == "" {
		domain = "localhost"
	}
	return ContentID(uuid.NewString() + "@" + domain)
}
