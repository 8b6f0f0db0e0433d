package mailer

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	texttemplate "text/template"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrymomot/mailkit/pkg/logger"
	"github.com/dmitrymomot/mailkit/pkg/mailtmpl"
)

const tracerName = "github.com/dmitrymomot/mailkit/pkg/mailer"

// Mailer renders templates and sends the result.
type Mailer struct {
	sender   Sender
	renderer Renderer
	cids     mailtmpl.Context
	tracer   trace.Tracer
	logger   *slog.Logger
	config   Config
}

// New creates a Mailer.
func New(sender Sender, renderer Renderer, cfg Config, opts ...Option) *Mailer {
	m := &Mailer{
		sender:   sender,
		renderer: renderer,
		config:   cfg,
		tracer:   otel.Tracer(tracerName),
		logger:   logger.NewNope(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.cids == nil {
		m.cids = mailtmpl.NewContext(cfg.ContentIDDomain)
	}
	return m
}

// SendParams describes one templated email.
type SendParams struct {
	Data     any
	Tags     Tags
	Headers  map[string]string
	To       string
	Template string // registry id

	// Optional overrides.
	Subject     string
	From        string
	ReplyTo     string
	CC          []string
	BCC         []string
	Attachments []Attachment // sent in addition to the template's attachments
}

// Send renders params.Template and sends it to params.To.
func (m *Mailer) Send(ctx context.Context, params SendParams) (err error) {
	ctx, span := m.tracer.Start(ctx, "mailer.Send",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("mail.template_id", params.Template)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}()

	if params.To == "" {
		return ErrNoRecipient
	}
	ctx = logger.WithRecipient(logger.WithTemplateID(ctx, params.Template), params.To)

	parts, err := m.renderer.UseTemplate(params.Template, params.Data, m.cids)
	if err != nil {
		return errors.Join(ErrRenderFailed, err)
	}

	subject, err := m.resolveSubject(params, parts.Metadata)
	if err != nil {
		return errors.Join(ErrRenderFailed, err)
	}

	email := BuildEmail(parts)
	email.To = []string{params.To}
	email.Subject = subject
	email.From = params.From
	email.ReplyTo = params.ReplyTo
	email.CC = params.CC
	email.BCC = params.BCC
	email.Tags = params.Tags
	email.Headers = params.Headers
	email.Attachments = append(email.Attachments, params.Attachments...)

	span.SetAttributes(
		attribute.Int("mail.attachments", len(email.Attachments)),
		attribute.Bool("mail.html", email.HTML != ""),
	)

	if err := m.sender.Send(ctx, email); err != nil {
		m.logger.ErrorContext(ctx, "email delivery failed", slog.String("error", err.Error()))
		return errors.Join(ErrSendFailed, err)
	}

	m.logger.InfoContext(ctx, "email sent", slog.Int("attachments", len(email.Attachments)))
	return nil
}

// SendRaw sends a prepared email without rendering.
func (m *Mailer) SendRaw(ctx context.Context, email *Email) (err error) {
	ctx, span := m.tracer.Start(ctx, "mailer.SendRaw", trace.WithSpanKind(trace.SpanKindClient))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	switch {
	case len(email.To) == 0:
		return ErrNoRecipient
	case email.Subject == "":
		return ErrNoSubject
	case email.HTML == "" && email.Text == "":
		return ErrNoContent
	}

	if err := m.sender.Send(ctx, email); err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	return nil
}

func (m *Mailer) resolveSubject(params SendParams, metadata map[string]any) (string, error) {
	subject := params.Subject
	if subject == "" {
		subject = metadataString(metadata, "subject", "Subject")
	}
	if subject == "" {
		subject = m.config.FallbackSubject
	}
	if subject == "" {
		return "", ErrNoSubject
	}

	tmpl, err := texttemplate.New("subject").Parse(subject)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, params.Data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func metadataString(metadata map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := metadata[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
