// Package markup writes the few tags the element builder has no helper
// for, escaping every attribute value.
package markup

import (
	"html"
	"strings"
)

// Open returns an opening tag with the given name/value attribute pairs.
// A trailing name without a value is dropped.
func Open(tag string, pairs ...string) string {
	var sb strings.Builder
	sb.WriteByte('<')
	sb.WriteString(tag)
	writeAttrs(&sb, pairs)
	sb.WriteByte('>')
	return sb.String()
}

// Element returns a complete element with no children.
func Element(tag string, pairs ...string) string {
	return Open(tag, pairs...) + "</" + tag + ">"
}

// Void returns a void element such as img.
func Void(tag string, pairs ...string) string {
	return Open(tag, pairs...)
}

// Text escapes s for use as element content.
func Text(s string) string {
	return html.EscapeString(s)
}

func writeAttrs(sb *strings.Builder, pairs []string) {
	for i := 0; i+1 < len(pairs); i += 2 {
		sb.WriteByte(' ')
		sb.WriteString(pairs[i])
		sb.WriteString(`="`)
		sb.WriteString(html.EscapeString(pairs[i+1]))
		sb.WriteByte('"')
	}
}
