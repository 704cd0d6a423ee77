package search

import (
	"strings"
	"unicode/utf8"
)

// DecodeText decodes body as UTF-8. Each byte that is not part of a valid
// UTF-8 sequence is replaced with U+FFFD, so decoding never fails.
func DecodeText(body []byte) string {
	if utf8.Valid(body) {
		return string(body)
	}

	var b strings.Builder
	b.Grow(len(body) + 2*utf8.UTFMax)
	for len(body) > 0 {
		r, size := utf8.DecodeRune(body)
		b.WriteRune(r)
		body = body[size:]
	}
	return b.String()
}

// Contains reports whether the decoded body contains term. The comparison is
// case-sensitive and applies no normalization.
func Contains(body []byte, term string) bool {
	return strings.Contains(DecodeText(body), term)
}
