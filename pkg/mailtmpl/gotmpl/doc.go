// Package gotmpl is a mailtmpl.Backend built on the standard Go template
// packages.
//
// Bodies whose media type is text/html are compiled with html/template and
// get contextual escaping; every other body uses text/template. Both see the
// same helper functions:
//
//	{{cid "logo"}}          cid: URL of the embedding bound to "logo"
//	{{if hasEmbed "logo"}}  whether an embedding is in scope
//	{{meta "subject"}}      spec metadata value
//	{{sanitize .Bio}}       user HTML reduced to safe formatting
//	{{stripTags .Bio}}      user HTML reduced to text
//
// Example:
//
//	backend := gotmpl.New(gotmpl.WithMissingKeyError())
//	registry := mailtmpl.NewRegistry(backend)
package gotmpl
