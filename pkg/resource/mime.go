package resource

import (
	"mime"
	"net/http"
	"path"
	"strings"
)

// Media type constants used across the module.
const (
	MediaTypeOctetStream = "application/octet-stream"
	MediaTypeText        = "text/plain"
	MediaTypeHTML        = "text/html"
	MediaTypeMarkdown    = "text/markdown"

	sniffLen = 512 // http.DetectContentType looks at no more than 512 bytes
)

// extMediaTypes covers extensions common in mail templates that the
// platform mime table may not know about.
var extMediaTypes = map[string]string{
	".txt":      "text/plain; charset=utf-8",
	".text":     "text/plain; charset=utf-8",
	".html":     "text/html; charset=utf-8",
	".htm":      "text/html; charset=utf-8",
	".md":       "text/markdown; charset=utf-8",
	".markdown": "text/markdown; charset=utf-8",
	".tmpl":     "text/plain; charset=utf-8",
	".css":      "text/css; charset=utf-8",
	".png":      "image/png",
	".jpg":      "image/jpeg",
	".jpeg":     "image/jpeg",
	".gif":      "image/gif",
	".webp":     "image/webp",
	".svg":      "image/svg+xml",
	".ico":      "image/x-icon",
	".pdf":      "application/pdf",
	".csv":      "text/csv",
	".ics":      "text/calendar",
	".json":     "application/json",
	".zip":      "application/zip",
}

// DetectMediaType picks a media type from the file extension, falling back to
// content sniffing and finally to application/octet-stream.
func DetectMediaType(name string, data []byte) string {
	if ext := strings.ToLower(path.Ext(name)); ext != "" {
		if mt, ok := extMediaTypes[ext]; ok {
			return mt
		}
		if mt := mime.TypeByExtension(ext); mt != "" {
			return mt
		}
	}

	if len(data) == 0 {
		return MediaTypeOctetStream
	}
	if len(data) > sniffLen {
		data = data[:sniffLen]
	}
	return http.DetectContentType(data)
}

// BaseMediaType strips parameters such as charset and lowercases the result.
func BaseMediaType(mediaType string) string {
	mediaType, _, _ = strings.Cut(mediaType, ";")
	return strings.TrimSpace(strings.ToLower(mediaType))
}

// IsText reports whether the media type is a text/* type.
func IsText(mediaType string) bool {
	return strings.HasPrefix(BaseMediaType(mediaType), "text/")
}

// IsImage reports whether the media type is an image/* type.
func IsImage(mediaType string) bool {
	return strings.HasPrefix(BaseMediaType(mediaType), "image/")
}
