// Package mailtmpl binds named template specs to a pluggable rendering backend
// and turns a render request into the parts of a mail: ordered alternative
// bodies, inline embeddings, and attachments.
//
// # Specs and the Registry
//
// A Spec groups one or more body variants (plain text, HTML, ...) with
// embeddings shared by all variants and a list of attachments. Each variant
// can add embeddings of its own; during its render they shadow the shared ones.
//
// The Registry owns the id to spec mapping and keeps it in lockstep with the
// backend: a spec is registered exactly when the backend has it loaded.
//
//	reg := mailtmpl.NewRegistry(gotmpl.New())
//	if _, err := reg.Insert("welcome", spec); err != nil {
//		var insErr *mailtmpl.InsertionError
//		if errors.As(err, &insErr) {
//			// insErr.Failed is the spec that did not load; "welcome" is now unregistered.
//		}
//	}
//
// Specs are usually read from a directory tree with LoadTemplates:
//
//	err := reg.LoadTemplates(ctx, os.DirFS("templates"), nil)
//
// Loading stops at the first failing spec. Specs inserted before it stay
// registered; the batch is not rolled back.
//
// # Rendering
//
//	parts, err := reg.UseTemplate("welcome", data, mailtmpl.NewContext("example.com"))
//
// Every embedding and attachment gets a fresh content id from the Context.
// Bodies come back in spec order. Unless the backend declares that it emits
// CRLF line endings, rendered bodies are passed through FixNewlines.
//
// # Backends
//
// A Backend compiles the templates of a spec on Load, releases them on Unload,
// and renders single body variants. The gotmpl, markdown, fasttmpl, and
// component sub-packages provide implementations; mailtmpltest provides a
// recording stub for tests.
package mailtmpl
