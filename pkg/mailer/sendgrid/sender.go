// Package sendgrid implements mailer.Sender on top of the SendGrid v3 API.
package sendgrid

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	netmail "net/mail"
	"slices"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/dmitrymomot/mailkit/pkg/logger"
	"github.com/dmitrymomot/mailkit/pkg/mailer"
)

// ErrRejected is returned when SendGrid answers with an error status.
var ErrRejected = errors.New("sendgrid: request rejected")

var _ mailer.Sender = (*Sender)(nil)

// Sender delivers emails through SendGrid.
type Sender struct {
	client *sendgrid.Client
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

// WithClient replaces the API client.
func WithClient(c *sendgrid.Client) Option {
	return func(s *Sender) {
		if c != nil {
			s.client = c
		}
	}
}

// New creates a SendGrid sender.
func New(cfg Config, opts ...Option) *Sender {
	s := &Sender{
		client: sendgrid.NewSendClient(cfg.APIKey),
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
	message, err := buildMessage(s.config, email)
	if err != nil {
		return err
	}

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid: send failed: %w", err)
	}
	if response.StatusCode >= 400 {
		s.logger.ErrorContext(ctx, "sendgrid returned error status",
			slog.Int("status", response.StatusCode),
			slog.String("body", response.Body),
		)
		return fmt.Errorf("%w: status %d", ErrRejected, response.StatusCode)
	}

	s.logger.DebugContext(ctx, "email sent via sendgrid", slog.Int("status", response.StatusCode))
	return nil
}

func buildMessage(cfg Config, email *mailer.Email) (*mail.SGMailV3, error) {
	m := mail.NewV3Mail()
	m.Subject = email.Subject

	from := mail.NewEmail(cfg.SenderName, cfg.SenderEmail)
	if email.From != "" {
		addr, err := parseAddress(email.From)
		if err != nil {
			return nil, err
		}
		from = addr
	}
	m.SetFrom(from)

	if email.ReplyTo != "" {
		addr, err := parseAddress(email.ReplyTo)
		if err != nil {
			return nil, err
		}
		m.SetReplyTo(addr)
	}

	p := mail.NewPersonalization()
	for _, group := range []struct {
		list []string
		add  func(...*mail.Email)
	}{
		{email.To, p.AddTos},
		{email.CC, p.AddCCs},
		{email.BCC, p.AddBCCs},
	} {
		for _, raw := range group.list {
			addr, err := parseAddress(raw)
			if err != nil {
				return nil, err
			}
			group.add(addr)
		}
	}
	m.AddPersonalizations(p)

	// SendGrid requires text/plain ahead of text/html.
	if email.Text != "" {
		m.AddContent(mail.NewContent("text/plain", email.Text))
	}
	if email.HTML != "" {
		m.AddContent(mail.NewContent("text/html", email.HTML))
	}

	for _, a := range email.Attachments {
		att := mail.NewAttachment()
		att.SetContent(base64.StdEncoding.EncodeToString(a.Content))
		att.SetType(a.ContentType)
		att.SetFilename(a.Filename)
		if a.Inline {
			att.SetDisposition("inline")
			att.SetContentID(a.ContentID)
		} else {
			att.SetDisposition("attachment")
		}
		m.AddAttachment(att)
	}

	for key, value := range email.Headers {
		m.SetHeader(key, value)
	}

	if len(email.Tags) > 0 {
		categories := make([]string, 0, len(email.Tags))
		for name := range email.Tags {
			categories = append(categories, name)
		}
		slices.Sort(categories)
		m.AddCategories(categories...)
	}

	return m, nil
}

func parseAddress(raw string) (*mail.Email, error) {
	addr, err := netmail.ParseAddress(raw)
	if err != nil {
		return nil, fmt.Errorf("sendgrid: invalid address %q: %w", raw, err)
	}
	return mail.NewEmail(addr.Name, addr.Address), nil
}
