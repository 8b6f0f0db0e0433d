// Package mailer renders registered templates and hands the result to an
// email provider.
//
// A Mailer combines a Renderer (usually a *mailtmpl.Registry) with a Sender:
//
//	registry := mailtmpl.NewRegistry(markdown.New())
//	if err := registry.LoadTemplates(ctx, os.DirFS("templates"), nil); err != nil {
//	    return err
//	}
//
//	m := mailer.New(resend.New(resendCfg), registry, mailer.Config{})
//	err := m.Send(ctx, mailer.SendParams{
//	    To:       mailer.Recipient("Alice", "alice@example.com"),
//	    Template: "welcome",
//	    Data:     map[string]any{"Name": "Alice"},
//	})
//
// The first text/plain body becomes the plain text part and the first
// text/html body the HTML part. Embeddings are delivered as inline
// attachments carrying their content ids, so "cid:" references in the HTML
// resolve in the recipient's client.
//
// The subject is taken from SendParams.Subject, then the template's "subject"
// metadata, then Config.FallbackSubject, and is itself executed as a
// text/template against the send data.
package mailer
