// Package resource provides shared, immutable content handles used for
// template sources, inline embeddings, and attachments.
//
// A Resource is a small value: copying it duplicates the handle, not the
// underlying bytes. The same logo can therefore be referenced from several
// body variants and rendered many times without copying its content.
//
//	logo, err := resource.FromFile(os.DirFS("assets"), "logo.png")
//	if err != nil {
//		return err
//	}
//	logo.MediaType() // "image/png"
//
// Resources can also be fetched by key through a Source. FSSource reads from
// an fs.FS; pkg/storage provides an S3-backed Source.
package resource
