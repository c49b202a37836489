// Package csvcheck looks for duplicate ids across the csv data files of a
// module.
package csvcheck

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"ocahooks/internal/checker"
	"ocahooks/internal/diag"
	"ocahooks/internal/dupes"
	"ocahooks/internal/manifest"
	"ocahooks/internal/msgctl"
)

type idKey struct {
	section string
	id      string
}

// Checker runs the csv rules of one module.
type Checker struct {
	ctx  *checker.Context
	refs []manifest.ReferencedFile
}

func New(ctx *checker.Context, refs []manifest.ReferencedFile) *Checker {
	return &Checker{ctx: ctx, refs: refs}
}

func Descriptors() []msgctl.Descriptor[*Checker] {
	return []msgctl.Descriptor[*Checker]{
		{
			Name:             "check_csv",
			Codes:            []diag.Code{diag.CSVSyntaxError, diag.CSVDuplicateRecordID},
			NeedsInstallable: true,
			Run:              (*Checker).checkCSV,
		},
	}
}

func (c *Checker) Run(installable bool, guard checker.Guard) []msgctl.Skip {
	return checker.RunActive(c.ctx, Descriptors(), c, installable, guard)
}

func (c *Checker) checkCSV() {
	ids := dupes.New[idKey, struct{}]()
	for _, ref := range c.refs {
		err := readIDs(ref.Filename, func(id string, line int) {
			ids.Add(idKey{section: ref.Section, id: id}, dupes.Occurrence[struct{}]{Path: ref.Short, Line: line})
		})
		if err == nil {
			continue
		}
		line := 1
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			line = pe.StartLine
		}
		c.ctx.Report(diag.CSVSyntaxError, ref.Short, line, err.Error()).Emit()
	}
	for _, g := range ids.Groups() {
		others := make([]diag.Position, len(g.Others))
		for i, o := range g.Others {
			others[i] = diag.Position{Path: o.Path, Line: o.Line}
		}
		c.ctx.Report(diag.CSVDuplicateRecordID, g.First.Path, g.First.Line,
			fmt.Sprintf("Duplicate csv record id %q in %s", g.Key.id, diag.FormatPositions(others))).
			WithExtra(others...).
			Emit()
	}
}

// readIDs calls fn with the id column of every row and the row's first line.
// Files without an id column are skipped; rows with an empty id create new
// records and are ignored.
func readIDs(path string, fn func(id string, line int)) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))))
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return err
	}
	col := -1
	for i, name := range header {
		if name == "id" {
			col = i
			break
		}
	}
	if col < 0 {
		return nil
	}
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if col >= len(row) || row[col] == "" {
			continue
		}
		line, _ := r.FieldPos(0)
		fn(row[col], line)
	}
}
