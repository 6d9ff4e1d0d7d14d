package domain

import (
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf16"
)

// fieldFlags is the /Ff value written for both fields (bit 1, ReadOnly).
const fieldFlags = 1

// BuildFieldDefinition renders the FDF document consumed by `pdftk fill_form`.
// The output is byte-for-byte reproducible for equal requests.
func BuildFieldDefinition(req SignatureRequest) string {
	sig := req.Placement.SignatureRect()
	name := req.Placement.NameRect()

	var b strings.Builder
	b.WriteString("%FDF-1.2\n1 0 obj\n<<\n/FDF\n<<\n/Fields\n[\n")
	writeField(&b, SignatureFieldName, sig, "", "/Sig")
	writeField(&b, CustomerNameFieldName, name, req.Name(), "/Tx")
	b.WriteString("]\n>>\n>>\nendobj\ntrailer\n<<\n/Root 1 0 R\n>>\n%%EOF")
	return b.String()
}

func writeField(b *strings.Builder, title string, r Rect, value, fieldType string) {
	b.WriteString("<<\n")
	fmt.Fprintf(b, "/T %s\n", EncodeFDFString(title))
	fmt.Fprintf(b, "/Rect [%d %d %d %d]\n", r.LLX, r.LLY, r.URX, r.URY)
	if value != "" {
		fmt.Fprintf(b, "/V %s\n", EncodeFDFString(value))
	}
	fmt.Fprintf(b, "/FT %s\n", fieldType)
	fmt.Fprintf(b, "/Ff %d\n", fieldFlags)
	b.WriteString(">>\n")
}

// EncodeFDFString returns s as a PDF string object. ASCII input becomes a
// literal string with \, ( and ) escaped; anything else becomes a UTF-16BE
// hex string with a byte order mark, which pdftk decodes as Unicode.
func EncodeFDFString(s string) string {
	if isASCII(s) {
		var b strings.Builder
		b.Grow(len(s) + 2)
		b.WriteByte('(')
		for i := 0; i < len(s); i++ {
			switch c := s[i]; c {
			case '\\', '(', ')':
				b.WriteByte('\\')
				b.WriteByte(c)
			case '\n':
				b.WriteString(`\n`)
			case '\r':
				b.WriteString(`\r`)
			case '\t':
				b.WriteString(`\t`)
			default:
				b.WriteByte(c)
			}
		}
		b.WriteByte(')')
		return b.String()
	}

	units := utf16.Encode([]rune(s))
	raw := make([]byte, 0, 2+2*len(units))
	raw = append(raw, 0xFE, 0xFF)
	for _, u := range units {
		raw = append(raw, byte(u>>8), byte(u))
	}
	return "<" + strings.ToUpper(hex.EncodeToString(raw)) + ">"
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
