package badge

import (
	"encoding/json"
	"strings"
)

var xmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// EscapeXML escapes s for use in XML text and attribute values. Invalid
// UTF-8 and runes outside the XML 1.0 character range become U+FFFD.
func EscapeXML(s string) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	s = strings.Map(func(r rune) rune {
		if isXMLChar(r) {
			return r
		}
		return '\uFFFD'
	}, s)
	return xmlReplacer.Replace(s)
}

// isXMLChar reports whether r matches the XML 1.0 Char production.
func isXMLChar(r rune) bool {
	switch {
	case r == '\t', r == '\n', r == '\r':
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	}
	return false
}

// EscapeJSON escapes s for use inside a JSON string literal.
// HTML-sensitive characters are escaped as \u sequences.
func EscapeJSON(s string) string {
	// Marshaling a string cannot fail.
	b, _ := json.Marshal(s)
	return string(b[1 : len(b)-1])
}

func escaperFor(format string) func(string) string {
	if format == FormatJSON {
		return EscapeJSON
	}
	return EscapeXML
}
