package glyph

import "strings"

// DataURIPrefix precedes the encoded markup of every cached glyph.
const DataURIPrefix = "data:image/svg+xml;utf8,"

const upperhex = "0123456789ABCDEF"

// EncodeURIComponent percent-encodes s, leaving only the characters
// A-Z a-z 0-9 - _ . ! ~ * ' ( ) unescaped.
func EncodeURIComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}

// InjectColor sets the fill color of the root element of an encoded glyph.
// Only the first "<svg " is rewritten; markup without one is returned as is.
func InjectColor(uri, color string) string {
	return strings.Replace(uri,
		EncodeURIComponent("<svg "),
		EncodeURIComponent(`<svg fill="`+color+`" `),
		1)
}
