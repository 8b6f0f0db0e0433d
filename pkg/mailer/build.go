package mailer

import (
	"github.com/dmitrymomot/mailkit/pkg/mailtmpl"
	"github.com/dmitrymomot/mailkit/pkg/resource"
)

// BuildEmail maps rendered parts onto an Email: the first text/plain body
// becomes Text, the first text/html body becomes HTML, every bound embedding
// becomes an inline attachment, and spec attachments become regular ones.
// Addressing and subject are left to the caller.
func BuildEmail(parts *mailtmpl.MailParts) *Email {
	email := &Email{}

	if body, ok := parts.Body(resource.MediaTypeText); ok {
		email.Text = body.Resource.String()
	}
	if body, ok := parts.Body(resource.MediaTypeHTML); ok {
		email.HTML = body.Resource.String()
	}

	seen := make(map[mailtmpl.ContentID]struct{})
	addInline := func(embedded []mailtmpl.Embedded) {
		for _, e := range embedded {
			if _, dup := seen[e.ContentID]; dup {
				continue
			}
			seen[e.ContentID] = struct{}{}
			email.Attachments = append(email.Attachments, Attachment{
				Filename:    e.Resource.Name(),
				ContentType: e.Resource.MediaType(),
				ContentID:   e.ContentID.String(),
				Content:     e.Resource.Bytes(),
				Inline:      true,
			})
		}
	}

	addInline(parts.SharedEmbeddings)
	for _, body := range parts.Bodies {
		addInline(body.Embeddings)
	}

	for _, a := range parts.Attachments {
		email.Attachments = append(email.Attachments, Attachment{
			Filename:    a.Resource.Name(),
			ContentType: a.Resource.MediaType(),
			Content:     a.Resource.Bytes(),
		})
	}

	return email
}
