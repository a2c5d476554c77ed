package chunker

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// decode returns content as text, falling back to ISO-8859-1 for input that
// is not valid UTF-8. Every byte maps to one rune, so decoding never fails.
func decode(content []byte) string {
	if utf8.Valid(content) {
		return string(content)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(content)
	if err != nil {
		return string(content)
	}
	return string(decoded)
}
