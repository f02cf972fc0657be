// Package xmlutil escapes sheet text embedded in XML-delimited context blocks.
package xmlutil

import (
	"encoding/xml"
	"strings"
)

// Escape makes s safe as element text or a double-quoted attribute value.
// Sheet cells are free text, so a title such as "</production>" must not
// close the surrounding block. Invalid UTF-8 is replaced with U+FFFD before
// escaping.
func Escape(s string) string {
	var b strings.Builder
	// EscapeText only fails on writer errors; strings.Builder has none.
	_ = xml.EscapeText(&b, []byte(strings.ToValidUTF8(s, "\uFFFD")))
	return b.String()
}
