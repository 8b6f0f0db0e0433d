package gotmpl

import (
	"errors"
	"html/template"

	"github.com/dmitrymomot/mailkit/pkg/mailtmpl"
	"github.com/dmitrymomot/mailkit/pkg/sanitizer"
)

var errUnbound = errors.New("gotmpl: helper used outside of a render")

// parseFuncs registers helper names at compile time. Renders replace the
// scope-dependent ones on a clone.
func parseFuncs() map[string]any {
	return map[string]any{
		"cid":       func(string) (template.URL, error) { return "", errUnbound },
		"hasEmbed":  func(string) bool { return false },
		"meta":      func(string) any { return nil },
		"sanitize":  sanitizeHTML,
		"stripTags": sanitizer.StripTags,
	}
}

func renderFuncs(spec *mailtmpl.Spec, scopes mailtmpl.Scopes) map[string]any {
	return map[string]any{
		// cid: is not on html/template's URL scheme allowlist
		"cid": func(name string) (template.URL, error) {
			url, err := scopes.URL(name)
			return template.URL(url), err //nolint:gosec // content ids are generated
		},
		"hasEmbed": func(name string) bool {
			_, ok := scopes.Lookup(name)
			return ok
		},
		"meta": func(key string) any {
			if spec == nil {
				return nil
			}
			return spec.Metadata[key]
		},
	}
}

func sanitizeHTML(s string) template.HTML {
	return template.HTML(sanitizer.SanitizeHTML(s)) //nolint:gosec // sanitized above
}
