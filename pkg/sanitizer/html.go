// Package sanitizer cleans untrusted values before they are placed into
// rendered mail bodies.
package sanitizer

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy *bluemonday.Policy
	mailPolicy   *bluemonday.Policy
	initOnce     sync.Once
)

func initPolicies() {
	initOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()

		// Formatting that survives common mail clients. Images may point at
		// inline parts through the cid: scheme.
		mailPolicy = bluemonday.NewPolicy()
		mailPolicy.AllowStandardURLs()
		mailPolicy.AllowURLSchemes("http", "https", "mailto", "cid")
		mailPolicy.AllowElements(
			"p", "br", "hr",
			"strong", "b", "em", "i", "u",
			"ul", "ol", "li",
			"code", "pre", "blockquote",
			"h1", "h2", "h3", "h4",
		)
		mailPolicy.AllowAttrs("href").OnElements("a")
		mailPolicy.AllowAttrs("src", "alt", "width", "height").OnElements("img")
		mailPolicy.RequireNoFollowOnLinks(true)
	})
}

// SanitizeHTML keeps basic formatting, links, and images and removes scripts,
// event handlers, and unsafe URLs.
func SanitizeHTML(s string) string {
	initPolicies()
	return mailPolicy.Sanitize(s)
}

// StripTags removes all markup and returns the text content with entities decoded.
func StripTags(s string) string {
	initPolicies()
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// SanitizeHTMLCustom applies policy, returning s unchanged when policy is nil.
func SanitizeHTMLCustom(s string, policy *bluemonday.Policy) string {
	if policy == nil {
		return s
	}
	return policy.Sanitize(s)
}
