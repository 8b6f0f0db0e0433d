package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailkit/pkg/logger"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	return rec
}

func TestNew_ExtractsContextValues(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.Config{Output: &buf},
		logger.TemplateIDExtractor(),
		logger.RecipientExtractor(),
		nil,
	)

	ctx := logger.WithTemplateID(context.Background(), "welcome")
	ctx = logger.WithRecipient(ctx, "alice@example.com")
	log.InfoContext(ctx, "mail sent")

	rec := decodeLine(t, &buf)
	require.Equal(t, "mail sent", rec["msg"])
	require.Equal(t, "welcome", rec["template_id"])
	require.Equal(t, "alice@example.com", rec["recipient"])
}

func TestNew_SkipsMissingValues(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.Config{Output: &buf}, logger.TemplateIDExtractor())
	log.InfoContext(context.Background(), "no template")

	rec := decodeLine(t, &buf)
	require.NotContains(t, rec, "template_id")
}

func TestNew_RespectsLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.Config{Output: &buf, Level: "warn"})
	log.Info("dropped")
	require.Zero(t, buf.Len())

	log.Warn("kept")
	require.Contains(t, buf.String(), "kept")
}

func TestHandler_WithAttrsKeepsExtractors(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.Config{Output: &buf}, logger.TemplateIDExtractor()).
		With(slog.String("component", "registry"))

	log.InfoContext(logger.WithTemplateID(context.Background(), "reset"), "inserted")

	rec := decodeLine(t, &buf)
	require.Equal(t, "registry", rec["component"])
	require.Equal(t, "reset", rec["template_id"])
}

type failingHandler struct {
	slog.Handler
	err error
}

func (h failingHandler) Handle(context.Context, slog.Record) error { return h.err }

func TestHandler_MirrorsToReporter(t *testing.T) {
	t.Parallel()

	var primary, report bytes.Buffer
	h := logger.NewHandler(
		slog.NewJSONHandler(&primary, nil),
		slog.NewJSONHandler(&report, &slog.HandlerOptions{Level: slog.LevelError}),
		logger.TemplateIDExtractor(),
	)
	log := slog.New(h).WithGroup("mail").With(slog.String("backend", "gotmpl"))
	ctx := logger.WithTemplateID(context.Background(), "invoice")

	log.InfoContext(ctx, "rendered")
	require.Contains(t, primary.String(), "rendered")
	require.Zero(t, report.Len())

	primary.Reset()
	log.ErrorContext(ctx, "render failed")

	for _, buf := range []*bytes.Buffer{&primary, &report} {
		rec := decodeLine(t, buf)
		require.Equal(t, "render failed", rec["msg"])
		mail, ok := rec["mail"].(map[string]any)
		require.True(t, ok)
		require.Equal(t, "gotmpl", mail["backend"])
		require.Equal(t, "invoice", mail["template_id"])
	}
}

func TestHandler_ReporterFailureStillWritesPrimary(t *testing.T) {
	t.Parallel()

	boom := errors.New("sentry unavailable")
	var primary bytes.Buffer
	h := logger.NewHandler(
		slog.NewJSONHandler(&primary, nil),
		failingHandler{Handler: slog.NewJSONHandler(&bytes.Buffer{}, nil), err: boom},
	)

	rec := slog.NewRecord(time.Now(), slog.LevelError, "delivery failed", 0)
	err := h.Handle(context.Background(), rec)
	require.ErrorIs(t, err, boom)
	require.Contains(t, primary.String(), "delivery failed")
}

func TestHandler_EnabledByEitherHandler(t *testing.T) {
	t.Parallel()

	h := logger.NewHandler(
		slog.NewJSONHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}),
		slog.NewJSONHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)
	require.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	require.True(t, h.Enabled(context.Background(), slog.LevelWarn))

	noReport := logger.NewHandler(slog.NewJSONHandler(&bytes.Buffer{}, nil), nil)
	require.False(t, noReport.Enabled(context.Background(), slog.LevelDebug))
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	require.Equal(t, slog.LevelDebug, logger.ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, logger.ParseLevel("warning"))
	require.Equal(t, slog.LevelError, logger.ParseLevel("error"))
	require.Equal(t, slog.LevelInfo, logger.ParseLevel("bogus"))
}

func TestNewWithSentry_FallsBackWithoutDSN(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.NewWithSentry(logger.Config{Output: &buf}, logger.SentryConfig{})
	log.Error("boom")
	require.Contains(t, buf.String(), "boom")
}

func TestNewNope(t *testing.T) {
	t.Parallel()

	log := logger.NewNope()
	require.NotNil(t, log)
	log.Error("discarded")
}
