package resend

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/resend/resend-go/v3"

	"github.com/dmitrymomot/mailkit/pkg/logger"
	"github.com/dmitrymomot/mailkit/pkg/mailer"
)

var _ mailer.Sender = (*Sender)(nil)

// Sender implements mailer.Sender on top of the Resend API.
type Sender struct {
	client *resend.Client
	config Config
	logger *slog.Logger
}

// Option configures a Sender.
type Option func(*Sender)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sender) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClient replaces the API client, e.g. one pointed at a test server.
func WithClient(c *resend.Client) Option {
	return func(s *Sender) {
		if c != nil {
			s.client = c
		}
	}
}

// New creates a Resend sender.
func New(cfg Config, opts ...Option) *Sender {
	s := &Sender{
		client: resend.NewClient(cfg.APIKey),
		config: cfg,
		logger: logger.NewNope(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send implements mailer.Sender.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) error {
	req := buildRequest(s.config, email)

	resp, err := s.client.Emails.SendWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("resend: failed to send email: %w", err)
	}

	s.logger.DebugContext(ctx, "resend accepted email", slog.String("id", resp.Id))
	return nil
}

func buildRequest(cfg Config, email *mailer.Email) *resend.SendEmailRequest {
	from := email.From
	if from == "" {
		from = cfg.From()
	}

	req := &resend.SendEmailRequest{
		From:    from,
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
		ReplyTo: email.ReplyTo,
		Cc:      email.CC,
		Bcc:     email.BCC,
		Headers: email.Headers,
	}

	if len(email.Attachments) > 0 {
		req.Attachments = convertAttachments(email.Attachments)
	}
	if len(email.Tags) > 0 {
		req.Tags = convertTags(email.Tags)
	}

	return req
}

func convertAttachments(attachments []mailer.Attachment) []*resend.Attachment {
	result := make([]*resend.Attachment, len(attachments))
	for i, a := range attachments {
		result[i] = &resend.Attachment{
			Filename:    a.Filename,
			Content:     a.Content,
			ContentType: a.ContentType,
		}
		// A content id makes Resend deliver the part inline.
		if a.Inline {
			result[i].ContentId = a.ContentID
		}
	}
	return result
}

// convertTags sorts by name so requests are stable.
func convertTags(tags mailer.Tags) []resend.Tag {
	result := make([]resend.Tag, 0, len(tags))
	for name, value := range tags {
		result = append(result, resend.Tag{
			Name:  name,
			Value: tagValue(value),
		})
	}
	slices.SortFunc(result, func(a, b resend.Tag) int {
		if a.Name < b.Name {
			return -1
		}
		if a.Name > b.Name {
			return 1
		}
		return 0
	})
	return result
}

// tagValue converts a tag value to a string. Presence-only tags become "true".
func tagValue(v any) string {
	switch val := v.(type) {
	case nil, struct{}:
		return "true"
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
