package sendgrid

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailkit/pkg/mailer"
)

func TestBuildMessage(t *testing.T) {
	t.Parallel()

	cfg := Config{APIKey: "SG.test", SenderEmail: "noreply@example.com", SenderName: "Example"}
	email := &mailer.Email{
		To:      []string{`"Alice" <alice@example.com>`},
		CC:      []string{"bob@example.com"},
		ReplyTo: "support@example.com",
		Subject: "Welcome",
		Text:    "Hi",
		HTML:    "<p>Hi</p>",
		Headers: map[string]string{"X-Campaign": "onboarding"},
		Tags:    mailer.SimpleTags("welcome", "beta"),
		Attachments: []mailer.Attachment{
			{Filename: "logo.png", ContentType: "image/png", ContentID: "logo@test", Content: []byte("png"), Inline: true},
			{Filename: "terms.pdf", ContentType: "application/pdf", Content: []byte("%PDF")},
		},
	}

	m, err := buildMessage(cfg, email)
	require.NoError(t, err)

	require.Equal(t, "noreply@example.com", m.From.Address)
	require.Equal(t, "Example", m.From.Name)
	require.Equal(t, "support@example.com", m.ReplyTo.Address)
	require.Equal(t, "Welcome", m.Subject)

	require.Len(t, m.Personalizations, 1)
	require.Equal(t, "Alice", m.Personalizations[0].To[0].Name)
	require.Equal(t, "alice@example.com", m.Personalizations[0].To[0].Address)
	require.Equal(t, "bob@example.com", m.Personalizations[0].CC[0].Address)

	require.Len(t, m.Content, 2)
	require.Equal(t, "text/plain", m.Content[0].Type)
	require.Equal(t, "text/html", m.Content[1].Type)

	require.Len(t, m.Attachments, 2)
	require.Equal(t, "inline", m.Attachments[0].Disposition)
	require.Equal(t, "logo@test", m.Attachments[0].ContentID)
	require.Equal(t, base64.StdEncoding.EncodeToString([]byte("png")), m.Attachments[0].Content)
	require.Equal(t, "attachment", m.Attachments[1].Disposition)
	require.Empty(t, m.Attachments[1].ContentID)

	require.Equal(t, []string{"beta", "welcome"}, m.Categories)
	require.Equal(t, "onboarding", m.Headers["X-Campaign"])
}

func TestBuildMessage_InvalidAddress(t *testing.T) {
	t.Parallel()

	_, err := buildMessage(Config{SenderEmail: "noreply@example.com"}, &mailer.Email{To: []string{"not an address"}})
	require.Error(t, err)
}

func TestBuildMessage_FromOverride(t *testing.T) {
	t.Parallel()

	m, err := buildMessage(Config{SenderEmail: "noreply@example.com"}, &mailer.Email{
		From: "Ops <ops@example.com>",
		To:   []string{"a@example.com"},
		Text: "x",
	})
	require.NoError(t, err)
	require.Equal(t, "ops@example.com", m.From.Address)
	require.Equal(t, "Ops", m.From.Name)
	require.Len(t, m.Content, 1)
}
