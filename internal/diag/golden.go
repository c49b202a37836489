package diag

import (
	"strings"
)

// FormatGolden renders findings into a stable, single-line-per-entry
// representation suitable for golden comparisons in tests and for
// --no-verbose style dumps. Findings are copied and sorted; the input is
// not modified. Returns an empty string when there is nothing to render.
func FormatGolden(findings []Finding) string {
	if len(findings) == 0 {
		return ""
	}
	items := append([]Finding(nil), findings...)
	Sort(items)

	var sb strings.Builder
	for i, f := range items {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(string(f.Code))
		sb.WriteByte(' ')
		sb.WriteString(f.Location())
		sb.WriteByte(' ')
		// многострочные сообщения схлопываем в одну строку
		sb.WriteString(strings.ReplaceAll(f.Message, "\n", "\\n"))
		if len(f.Extra) > 0 {
			sb.WriteString(" [")
			sb.WriteString(FormatPositions(f.Extra))
			sb.WriteByte(']')
		}
	}
	return sb.String()
}
