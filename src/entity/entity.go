// Package entity decodes the small set of markup entities the translation
// provider embeds in translated text.
package entity

import "strings"

// Decoder holds an immutable entity table. It is safe for concurrent use.
type Decoder struct {
	table map[string]string
}

var defaultTable = map[string]string{
	"amp":  "&",
	"lt":   "<",
	"gt":   ">",
	"quot": "\"",
	"#39":  "'",
}

// NewDecoder copies table so later changes to the caller's map are not observed.
func NewDecoder(table map[string]string) *Decoder {
	t := make(map[string]string, len(table))
	for name, text := range table {
		t[name] = text
	}
	return &Decoder{table: t}
}

// DefaultDecoder returns a decoder for amp, lt, gt, quot and #39.
func DefaultDecoder() *Decoder {
	return NewDecoder(defaultTable)
}

// Lookup reports the literal text for an entity name (without & and ;).
func (d *Decoder) Lookup(name string) (string, bool) {
	text, ok := d.table[name]
	return text, ok
}

// Decode replaces known &name; sequences in a single left-to-right pass.
// Unknown entities are kept verbatim, and an entity still open at the end of
// input is emitted as the partial "&name" text.
func (d *Decoder) Decode(input string) string {
	var out strings.Builder
	out.Grow(len(input))

	var name strings.Builder
	inside := false

	for i := 0; i < len(input); i++ {
		ch := input[i]
		if !inside {
			if ch == '&' {
				inside = true
				name.Reset()
				continue
			}
			out.WriteByte(ch)
			continue
		}

		if ch != ';' {
			name.WriteByte(ch)
			continue
		}

		inside = false
		if text, ok := d.table[name.String()]; ok {
			out.WriteString(text)
		} else {
			out.WriteByte('&')
			out.WriteString(name.String())
			out.WriteByte(';')
		}
	}

	if inside {
		out.WriteByte('&')
		out.WriteString(name.String())
	}

	return out.String()
}
