// Package table captures rendered HTML table rows as immutable snapshots and
// locates the row belonging to a named entity.
package table

import (
	"context"
	"fmt"
	"strings"

	"github.com/gotrs-io/configurator-e2e/internal/browser"
)

// DefaultNameColumn is the cell index holding the entity name in the
// Applications listing (the first cell is the row number).
const DefaultNameColumn = 1

// RowSnapshot is the text of one table row at the moment it was captured.
type RowSnapshot struct {
	Index int
	cells []string
}

// NewRowSnapshot copies cells so later changes to the slice do not leak in.
func NewRowSnapshot(index int, cells []string) RowSnapshot {
	c := make([]string, len(cells))
	copy(c, cells)
	return RowSnapshot{Index: index, cells: c}
}

// Cells returns a copy of the captured cell texts.
func (r RowSnapshot) Cells() []string {
	c := make([]string, len(r.cells))
	copy(c, r.cells)
	return c
}

// Cell returns the text of cell i, or "" and false when the row is shorter.
func (r RowSnapshot) Cell(i int) (string, bool) {
	if i < 0 || i >= len(r.cells) {
		return "", false
	}
	return r.cells[i], true
}

// Len is the number of cells in the row.
func (r RowSnapshot) Len() int { return len(r.cells) }

// Row pairs a snapshot with the live cell elements so row-scoped controls
// can be clicked after the row was matched.
type Row struct {
	RowSnapshot
	Elements []browser.Element
}

// Criterion decides whether a row belongs to the entity being looked for.
type Criterion func(RowSnapshot) bool

// NameEquals matches rows whose name cell equals name once both sides are
// trimmed. The whole target is trimmed, never just a suffix of it.
func NameEquals(column int, name string) Criterion {
	want := strings.TrimSpace(name)
	return func(r RowSnapshot) bool {
		got, ok := r.Cell(column)
		return ok && strings.TrimSpace(got) == want
	}
}

// NameContains matches rows whose name cell contains fragment.
func NameContains(column int, fragment string) Criterion {
	return func(r RowSnapshot) bool {
		got, ok := r.Cell(column)
		return ok && strings.Contains(got, fragment)
	}
}

// Find scans rows in document order and returns the first match.
func Find(rows []Row, match Criterion) (Row, bool) {
	for _, r := range rows {
		if match(r.RowSnapshot) {
			return r, true
		}
	}
	return Row{}, false
}

// FindSnapshot is Find over bare snapshots.
func FindSnapshot(rows []RowSnapshot, match Criterion) (RowSnapshot, bool) {
	for _, r := range rows {
		if match(r) {
			return r, true
		}
	}
	return RowSnapshot{}, false
}

// Names returns the trimmed text of column for every row, in order.
// Rows too short to have the column contribute nothing.
func Names(rows []RowSnapshot, column int) []string {
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		if v, ok := r.Cell(column); ok {
			names = append(names, strings.TrimSpace(v))
		}
	}
	return names
}

// Contains reports whether any row's name cell equals name.
func Contains(rows []RowSnapshot, column int, name string) bool {
	_, ok := FindSnapshot(rows, NameEquals(column, name))
	return ok
}

// Snapshots strips the live handles from rows.
func Snapshots(rows []Row) []RowSnapshot {
	out := make([]RowSnapshot, len(rows))
	for i, r := range rows {
		out[i] = r.RowSnapshot
	}
	return out
}

// Capture reads every row matching rowSelector and the text of its td cells.
// It does not wait: an empty table yields an empty slice.
func Capture(ctx context.Context, page browser.Page, rowSelector string) ([]Row, error) {
	trs, err := page.Query(ctx, rowSelector)
	if err != nil {
		return nil, fmt.Errorf("query rows %q: %w", rowSelector, err)
	}
	rows := make([]Row, 0, len(trs))
	for i, tr := range trs {
		tds, err := tr.Query(ctx, "td")
		if err != nil {
			return nil, fmt.Errorf("query cells of row %d: %w", i, err)
		}
		texts := make([]string, len(tds))
		for j, td := range tds {
			txt, err := td.Text(ctx)
			if err != nil {
				return nil, fmt.Errorf("read cell %d of row %d: %w", j, i, err)
			}
			texts[j] = txt
		}
		rows = append(rows, Row{RowSnapshot: NewRowSnapshot(i, texts), Elements: tds})
	}
	return rows, nil
}
