package report

import (
	"encoding/json"
	"io"

	"ocahooks/internal/diag"
)

// PositionJSON is one extra occurrence of a duplicate.
type PositionJSON struct {
	Path string `json:"path"`
	Line int    `json:"line"`
}

// FindingJSON представляет находку в JSON формате
type FindingJSON struct {
	Code           string         `json:"code"`
	Message        string         `json:"message"`
	Path           string         `json:"path"`
	Line           int            `json:"line"`
	Column         int            `json:"column"`
	Info           string         `json:"info,omitempty"`
	ExtraPositions []PositionJSON `json:"extra_positions,omitempty"`
}

// Output is the root of the JSON report.
type Output struct {
	Findings []FindingJSON `json:"findings"`
	Count    int           `json:"count"`
}

// BuildOutput формирует структуру JSON-вывода без сериализации.
func BuildOutput(findings []diag.Finding) Output {
	out := Output{Findings: make([]FindingJSON, 0, len(findings)), Count: len(findings)}
	for _, f := range findings {
		fj := FindingJSON{
			Code:    f.Code.ID(),
			Message: f.Message,
			Path:    f.Path,
			Line:    f.Line,
			Column:  f.Column,
			Info:    f.Info,
		}
		for _, p := range f.Extra {
			fj.ExtraPositions = append(fj.ExtraPositions, PositionJSON{Path: p.Path, Line: p.Line})
		}
		out.Findings = append(out.Findings, fj)
	}
	return out
}

// JSON writes the indented report.
func JSON(w io.Writer, findings []diag.Finding) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(BuildOutput(findings))
}
