package mailtmpl

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

var frontmatterDelimiter = []byte("---")

// splitFrontmatter separates optional YAML frontmatter from a template body.
// Frontmatter opens and closes with lines consisting of exactly "---".
// Anything else, such as a leading "-----" divider, is returned unchanged
// with empty metadata.
func splitFrontmatter(content []byte) (map[string]any, []byte, error) {
	rest, ok := cutDelimiterLine(content)
	if !ok {
		return map[string]any{}, content, nil
	}

	header, body, ok := cutAtClosingLine(rest)
	if !ok {
		return nil, nil, fmt.Errorf("%w: closing delimiter not found", ErrInvalidFrontmatter)
	}

	metadata := map[string]any{}
	if len(bytes.TrimSpace(header)) > 0 {
		if err := yaml.Unmarshal(header, &metadata); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidFrontmatter, err)
		}
	}

	return metadata, body, nil
}

// cutDelimiterLine reports whether b starts with a line that is exactly "---"
// and returns what follows that line.
func cutDelimiterLine(b []byte) ([]byte, bool) {
	after, ok := bytes.CutPrefix(b, frontmatterDelimiter)
	if !ok {
		return nil, false
	}
	switch {
	case len(after) == 0:
		return after, true
	case after[0] == '\n':
		return after[1:], true
	case bytes.HasPrefix(after, []byte("\r\n")):
		return after[2:], true
	}
	return nil, false
}

// cutAtClosingLine splits b at the first line that is exactly "---".
func cutAtClosingLine(b []byte) (header, body []byte, found bool) {
	for pos := 0; pos <= len(b); {
		if body, ok := cutDelimiterLine(b[pos:]); ok {
			return b[:pos], body, true
		}
		next := bytes.IndexByte(b[pos:], '\n')
		if next == -1 {
			break
		}
		pos += next + 1
	}
	return nil, nil, false
}
