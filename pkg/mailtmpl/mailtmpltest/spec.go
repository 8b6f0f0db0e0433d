package mailtmpltest

import (
	"github.com/dmitrymomot/mailkit/pkg/mailtmpl"
	"github.com/dmitrymomot/mailkit/pkg/resource"
)

// TextHTMLSpec returns a spec with a plain text body followed by an HTML body.
func TextHTMLSpec(text, html string) *mailtmpl.Spec {
	return &mailtmpl.Spec{
		Bodies: []mailtmpl.BodyVariant{
			{
				MediaType: "text/plain; charset=utf-8",
				Source:    resource.FromString("mail.txt", "", text),
			},
			{
				MediaType: "text/html; charset=utf-8",
				Source:    resource.FromString("mail.html", "", html),
			},
		},
	}
}
