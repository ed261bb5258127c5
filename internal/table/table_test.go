package table

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/gotrs-io/configurator-e2e/internal/browser/browsertest"
)

func snapshots(names ...string) []RowSnapshot {
	rows := make([]RowSnapshot, len(names))
	for i, n := range names {
		rows[i] = NewRowSnapshot(i, []string{string(rune('1' + i)), n, "desc", "WEB", ""})
	}
	return rows
}

func TestNameEquals(t *testing.T) {
	rows := snapshots("alpha", "  beta\n", "gamma")

	t.Run("trims both sides", func(t *testing.T) {
		r, ok := FindSnapshot(rows, NameEquals(DefaultNameColumn, " beta "))
		require.True(t, ok)
		assert.Equal(t, 1, r.Index)
	})

	t.Run("whole value must match", func(t *testing.T) {
		_, ok := FindSnapshot(rows, NameEquals(DefaultNameColumn, "alph"))
		assert.False(t, ok)
	})

	t.Run("target with leading space", func(t *testing.T) {
		assert.True(t, Contains(rows, DefaultNameColumn, "   gamma"))
	})

	t.Run("short rows never match", func(t *testing.T) {
		short := []RowSnapshot{NewRowSnapshot(0, []string{"only"})}
		assert.False(t, Contains(short, DefaultNameColumn, "only"))
		assert.Empty(t, Names(short, DefaultNameColumn))
	})
}

func TestNameContains(t *testing.T) {
	rows := snapshots("app-e2e-123", "other")
	r, ok := FindSnapshot(rows, NameContains(DefaultNameColumn, "e2e"))
	require.True(t, ok)
	assert.Equal(t, 0, r.Index)
}

func TestRowSnapshotIsImmutable(t *testing.T) {
	cells := []string{"1", "alpha"}
	r := NewRowSnapshot(0, cells)
	cells[1] = "changed"
	got := r.Cells()
	assert.Equal(t, "alpha", got[1])
	got[1] = "changed again"
	v, _ := r.Cell(1)
	assert.Equal(t, "alpha", v)
	assert.Equal(t, 2, r.Len())
	_, ok := r.Cell(-1)
	assert.False(t, ok)
}

func TestCapture(t *testing.T) {
	ctx := context.Background()
	page := browsertest.NewPage()
	page.Set("tbody > tr", browsertest.Cells("1", "alpha", "a"), browsertest.Cells("2", "beta", "b"))

	rows, err := Capture(ctx, page, "tbody > tr")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"2", "beta", "b"}, rows[1].Cells())
	assert.Len(t, rows[1].Elements, 3)

	row, ok := Find(rows, NameEquals(DefaultNameColumn, "beta"))
	require.True(t, ok)
	assert.Equal(t, 1, row.Index)
	assert.Equal(t, []string{"alpha", "beta"}, Names(Snapshots(rows), DefaultNameColumn))

	empty, err := Capture(ctx, page, "tfoot > tr")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestFindProperties(t *testing.T) {
	name := rapid.StringMatching(`[a-z][a-z0-9-]{0,12}`)

	t.Run("first match wins", func(t *testing.T) {
		rapid.Check(t, func(rt *rapid.T) {
			names := rapid.SliceOfN(name, 1, 20).Draw(rt, "names")
			target := rapid.SampledFrom(names).Draw(rt, "target")
			rows := snapshots(names...)

			r, ok := FindSnapshot(rows, NameEquals(DefaultNameColumn, target))
			if !ok {
				rt.Fatalf("row %q not found", target)
			}
			for _, earlier := range rows[:r.Index] {
				if v, _ := earlier.Cell(DefaultNameColumn); v == target {
					rt.Fatalf("row %d matches before %d", earlier.Index, r.Index)
				}
			}
		})
	})

	t.Run("padding never changes the outcome", func(t *testing.T) {
		rapid.Check(t, func(rt *rapid.T) {
			names := rapid.SliceOfN(name, 0, 20).Draw(rt, "names")
			target := name.Draw(rt, "target")
			pad := rapid.StringMatching(`[ \t\n]{0,3}`)
			padded := make([]string, len(names))
			for i, n := range names {
				padded[i] = pad.Draw(rt, "left") + n + pad.Draw(rt, "right")
			}
			want := Contains(snapshots(names...), DefaultNameColumn, target)
			got := Contains(snapshots(padded...), DefaultNameColumn, pad.Draw(rt, "tleft")+target+pad.Draw(rt, "tright"))
			if want != got {
				rt.Fatalf("padding changed match of %q: %v vs %v", target, want, got)
			}
		})
	})

	t.Run("names are trimmed and ordered", func(t *testing.T) {
		rapid.Check(t, func(rt *rapid.T) {
			names := rapid.SliceOfN(name, 0, 20).Draw(rt, "names")
			padded := make([]string, len(names))
			for i, n := range names {
				padded[i] = " " + n + "\n"
			}
			if got := strings.Join(Names(snapshots(padded...), DefaultNameColumn), ","); got != strings.Join(names, ",") {
				rt.Fatalf("got %q want %q", got, strings.Join(names, ","))
			}
		})
	})
}
