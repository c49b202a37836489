package msgctl

import (
	"strings"
)

const (
	// Marker introduces a node- or file-local disable list inside an XML comment.
	Marker = "oca-hooks:disable="
	// DeprecatedMarker is still honoured, with a warning.
	DeprecatedMarker = "pylint:disable="
)

// ParseDisableComment extracts the codes of a disable comment body, e.g.
// " oca-hooks:disable=xml-record-missing-id,xml-duplicate-fields ".
// ok is false when the text carries no marker.
func ParseDisableComment(text string) (codes Set, deprecated bool, ok bool) {
	body := strings.TrimSpace(text)
	var rest string
	switch {
	case strings.HasPrefix(body, Marker):
		rest = body[len(Marker):]
	case strings.HasPrefix(body, DeprecatedMarker):
		rest = body[len(DeprecatedMarker):]
		deprecated = true
	default:
		return nil, false, false
	}
	// the list ends at the first whitespace
	if i := strings.IndexAny(rest, " \t\r\n"); i >= 0 {
		rest = rest[:i]
	}
	return ParseSet(rest), deprecated, true
}
