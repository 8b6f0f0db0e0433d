package logger

import (
	"context"
	"errors"
	"log/slog"
)

// ContextExtractor pulls one attribute out of a record's context.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

// Handler writes records to a primary handler and, when a reporting handler
// is set, mirrors the records it accepts there too. Extracted context
// attributes are added before either handler sees the record.
type Handler struct {
	primary    slog.Handler
	report     slog.Handler
	extractors []ContextExtractor
}

// NewHandler builds a Handler. report may be nil; nil extractors are dropped.
func NewHandler(primary, report slog.Handler, extractors ...ContextExtractor) *Handler {
	h := &Handler{primary: primary, report: report}
	for _, ex := range extractors {
		if ex != nil {
			h.extractors = append(h.extractors, ex)
		}
	}
	return h
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	if h.primary.Enabled(ctx, level) {
		return true
	}
	return h.report != nil && h.report.Enabled(ctx, level)
}

// Handle writes rec to every handler enabled for its level. A failing
// reporter never prevents the primary write; both errors are joined.
func (h *Handler) Handle(ctx context.Context, rec slog.Record) error {
	for _, ex := range h.extractors {
		if attr, ok := ex(ctx); ok {
			rec.AddAttrs(attr)
		}
	}

	var errs []error
	if h.report != nil && h.report.Enabled(ctx, rec.Level) {
		errs = append(errs, h.report.Handle(ctx, rec.Clone()))
	}
	if h.primary.Enabled(ctx, rec.Level) {
		errs = append(errs, h.primary.Handle(ctx, rec))
	}
	return errors.Join(errs...)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.derive(func(next slog.Handler) slog.Handler { return next.WithAttrs(attrs) })
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return h.derive(func(next slog.Handler) slog.Handler { return next.WithGroup(name) })
}

func (h *Handler) derive(fn func(slog.Handler) slog.Handler) *Handler {
	out := &Handler{primary: fn(h.primary), extractors: h.extractors}
	if h.report != nil {
		out.report = fn(h.report)
	}
	return out
}
