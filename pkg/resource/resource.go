package resource

import (
	"bytes"
	"io"
)

// content is the single shared payload behind every copy of a Resource.
type content struct {
	name      string
	mediaType string
	data      []byte
}

// Resource is an immutable content handle with shared ownership.
// The zero value is an empty resource; use IsZero to detect it.
type Resource struct {
	c *content
}

// New creates a resource from raw bytes.
// If mediaType is empty it is detected from the name and the content.
// The slice is owned by the resource afterwards and must not be modified.
func New(name, mediaType string, data []byte) Resource {
	if mediaType == "" {
		mediaType = DetectMediaType(name, data)
	}
	return Resource{c: &content{name: name, mediaType: mediaType, data: data}}
}

// FromString creates a resource from a string body.
func FromString(name, mediaType, s string) Resource {
	return New(name, mediaType, []byte(s))
}

// Name returns the resource name (usually a file name).
func (r Resource) Name() string {
	if r.c == nil {
		return ""
	}
	return r.c.name
}

// MediaType returns the media type, e.g. "text/html; charset=utf-8".
func (r Resource) MediaType() string {
	if r.c == nil {
		return ""
	}
	return r.c.mediaType
}

// Bytes returns the shared content. Callers must not modify it.
func (r Resource) Bytes() []byte {
	if r.c == nil {
		return nil
	}
	return r.c.data
}

// String returns the content as a string.
func (r Resource) String() string {
	return string(r.Bytes())
}

// Size returns the content length in bytes.
func (r Resource) Size() int {
	return len(r.Bytes())
}

// Reader returns a fresh reader over the content.
func (r Resource) Reader() io.Reader {
	return bytes.NewReader(r.Bytes())
}

// IsZero reports whether the resource has no backing content.
func (r Resource) IsZero() bool {
	return r.c == nil
}

// Same reports whether both handles point at the same content.
func (r Resource) Same(other Resource) bool {
	return r.c != nil && r.c == other.c
}

// WithMediaType returns a new handle sharing the same bytes but carrying a different media type.
func (r Resource) WithMediaType(mediaType string) Resource {
	return Resource{c: &content{name: r.Name(), mediaType: mediaType, data: r.Bytes()}}
}
