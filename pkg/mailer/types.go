package mailer

import (
	"fmt"
	"net/mail"
)

// Tags are provider tags or categories. Presence-only tags use struct{}{}.
type Tags map[string]any

// SimpleTags creates presence-only tags.
func SimpleTags(names ...string) Tags {
	t := make(Tags, len(names))
	for _, n := range names {
		t[n] = struct{}{}
	}
	return t
}

// Recipient formats a name and address as "Name <email>", quoting the name
// when needed. An empty name yields the bare address.
func Recipient(name, email string) string {
	if name == "" {
		return email
	}
	return (&mail.Address{Name: name, Address: email}).String()
}

// Email is a message ready for a Sender.
type Email struct {
	Headers     map[string]string
	Tags        Tags
	Subject     string
	HTML        string
	Text        string
	From        string // overrides the sender's default
	ReplyTo     string
	To          []string
	CC          []string
	BCC         []string
	Attachments []Attachment
}

// Attachment is a file delivered with the email. Inline attachments are
// referenced from the HTML body through their ContentID.
type Attachment struct {
	Filename    string
	ContentType string
	ContentID   string
	Content     []byte
	Inline      bool
}

// InlineAttachments returns the attachments referenced from the body.
func (e *Email) InlineAttachments() []Attachment {
	var out []Attachment
	for _, a := range e.Attachments {
		if a.Inline {
			out = append(out, a)
		}
	}
	return out
}

func (a Attachment) String() string {
	if a.Inline {
		return fmt.Sprintf("%s (%s, inline <%s>)", a.Filename, a.ContentType, a.ContentID)
	}
	return fmt.Sprintf("%s (%s)", a.Filename, a.ContentType)
}
