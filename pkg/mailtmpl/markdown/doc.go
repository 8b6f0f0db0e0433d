// Package markdown is a mailtmpl.Backend for Markdown bodies.
//
// A body source is first executed as a text/template, then converted to HTML
// with goldmark when the body's media type is text/html. Plain text bodies get
// the executed Markdown as is, which reads well in text-only clients.
//
// Two inline extensions are available on top of CommonMark:
//
//	[!button|Verify email](https://example.com/verify)
//	[!embed|logo]
//
// The first renders a call-to-action link with class "btn", the second an
// <img> pointing at the content id bound to "logo". Templates can also use
// {{cid "logo"}} directly.
//
// An optional HTML layout wraps converted bodies:
//
//	layout, err := markdown.ParseLayout(`<html><body>{{.Content}}</body></html>`)
//	backend := markdown.New(markdown.WithLayout(layout))
package markdown
