package logger

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	templateIDKey ctxKey = iota
	recipientKey
)

// WithTemplateID stores the template id being rendered or sent in ctx.
func WithTemplateID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, templateIDKey, id)
}

// WithRecipient stores the primary recipient address in ctx.
func WithRecipient(ctx context.Context, to string) context.Context {
	return context.WithValue(ctx, recipientKey, to)
}

// TemplateIDExtractor adds "template_id" when WithTemplateID was used.
func TemplateIDExtractor() ContextExtractor {
	return stringExtractor(templateIDKey, "template_id")
}

// RecipientExtractor adds "recipient" when WithRecipient was used.
func RecipientExtractor() ContextExtractor {
	return stringExtractor(recipientKey, "recipient")
}

func stringExtractor(key ctxKey, attr string) ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			return slog.String(attr, v), true
		}
		return slog.Attr{}, false
	}
}
