package mailtmpl

import (
	"bytes"

	"golang.org/x/text/transform"
)

// FixNewlines rewrites every lone "\n" and lone "\r" to "\r\n".
// Existing "\r\n" pairs are left untouched.
func FixNewlines(b []byte) []byte {
	if !needsNewlineFix(b) {
		return b
	}
	out, _, err := transform.Bytes(NewlineNormalizer(), b)
	if err != nil {
		return b
	}
	return out
}

// NewlineNormalizer returns a streaming transformer with FixNewlines semantics.
func NewlineNormalizer() transform.Transformer {
	return &crlfNormalizer{}
}

func needsNewlineFix(b []byte) bool {
	for i := 0; i < len(b); i++ {
		switch b[i] {
		case '\r':
			if i+1 >= len(b) || b[i+1] != '\n' {
				return true
			}
			i++
		case '\n':
			return true
		}
	}
	return false
}

// crlfNormalizer remembers whether the last consumed byte was '\r' so a "\r\n"
// pair split across two Transform calls is not doubled.
type crlfNormalizer struct {
	afterCR bool
}

func (n *crlfNormalizer) Reset() {
	n.afterCR = false
}

func (n *crlfNormalizer) Transform(dst, src []byte, _ bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		c := src[nSrc]
		switch c {
		case '\r':
			if nDst+2 > len(dst) {
				return nDst, nSrc, transform.ErrShortDst
			}
			dst[nDst], dst[nDst+1] = '\r', '\n'
			nDst += 2
			nSrc++
			n.afterCR = true
			continue
		case '\n':
			if n.afterCR {
				// already emitted as part of the preceding '\r'
				nSrc++
				n.afterCR = false
				continue
			}
			if nDst+2 > len(dst) {
				return nDst, nSrc, transform.ErrShortDst
			}
			dst[nDst], dst[nDst+1] = '\r', '\n'
			nDst += 2
		default:
			if nDst >= len(dst) {
				return nDst, nSrc, transform.ErrShortDst
			}
			// copy the run of plain bytes in one go
			end := nSrc + bytes.IndexAny(src[nSrc:], "\r\n")
			if end < nSrc {
				end = len(src)
			}
			k := copy(dst[nDst:], src[nSrc:end])
			nDst += k
			nSrc += k
			n.afterCR = false
			continue
		}
		nSrc++
		n.afterCR = false
	}
	return nDst, nSrc, nil
}
