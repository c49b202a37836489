package diag

import (
	"fmt"
	"strings"
)

// Position is one (path, line) location; Line is 1-based, -1 when unknown.
type Position struct {
	Path string
	Line int
}

func (p Position) String() string {
	if p.Line < 0 {
		return p.Path
	}
	return fmt.Sprintf("%s:%d", p.Path, p.Line)
}

// Finding описывает одно нарушение правила. После создания не изменяется:
// With* методы возвращают копию.
type Finding struct {
	Code    Code
	Message string
	Path    string // относительно корня репозитория
	Line    int    // -1 если неизвестно
	Column  int    // -1 если неизвестно
	Info    string
	Extra   []Position // остальные вхождения для duplicate-правил
}

// New creates a finding with unknown column.
func New(code Code, path string, line int, msg string) Finding {
	return Finding{
		Code:    code,
		Message: msg,
		Path:    path,
		Line:    line,
		Column:  -1,
	}
}

func (f Finding) WithInfo(info string) Finding {
	f.Info = info
	return f
}

func (f Finding) WithColumn(col int) Finding {
	f.Column = col
	return f
}

func (f Finding) WithExtra(pos ...Position) Finding {
	extra := make([]Position, 0, len(f.Extra)+len(pos))
	extra = append(extra, f.Extra...)
	f.Extra = append(extra, pos...)
	return f
}

// Location renders path[:line[:col]].
func (f Finding) Location() string {
	var sb strings.Builder
	sb.WriteString(f.Path)
	if f.Line >= 0 {
		fmt.Fprintf(&sb, ":%d", f.Line)
		if f.Column >= 0 {
			fmt.Fprintf(&sb, ":%d", f.Column)
		}
	}
	return sb.String()
}

// String renders "path:line message".
func (f Finding) String() string {
	return f.Location() + " " + f.Message
}

// FormatPositions joins positions as "a.xml:3, b.xml:7".
func FormatPositions(pos []Position) string {
	parts := make([]string, len(pos))
	for i, p := range pos {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}
