package mailer

import (
	"context"

	"github.com/dmitrymomot/mailkit/pkg/mailtmpl"
)

// Sender delivers a fully prepared email.
type Sender interface {
	Send(ctx context.Context, email *Email) error
}

// Renderer renders a registered template into mail parts.
// *mailtmpl.Registry implements it.
type Renderer interface {
	UseTemplate(id string, data any, cids mailtmpl.Context) (*mailtmpl.MailParts, error)
}

var _ Renderer = (*mailtmpl.Registry)(nil)
