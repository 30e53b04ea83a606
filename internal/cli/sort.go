package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pfrederiksen/espn-tables/internal/table"
)

// sortTables orders the rows of every table that has column. It fails only
// when no table has the column.
func sortTables(tables []*table.Table, column string, desc bool) ([]*table.Table, error) {
	out := make([]*table.Table, len(tables))
	found := false
	for i, t := range tables {
		if !t.HasColumn(column) {
			out[i] = t
			continue
		}
		found = true
		sorted, err := sortTable(t, column, desc)
		if err != nil {
			return nil, err
		}
		out[i] = sorted
	}
	if !found && len(tables) > 0 {
		return nil, fmt.Errorf("unknown sort column %q (have %s)", column, strings.Join(tables[0].Columns(), ", "))
	}
	return out, nil
}

// sortTable returns a copy of t with rows ordered by column. Ties keep page order.
func sortTable(t *table.Table, column string, desc bool) (*table.Table, error) {
	rows := t.Rows()
	idx := -1
	for i, c := range t.Columns() {
		if c == column {
			idx = i
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("unknown sort column %q", column)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return lessCell(rows[i][idx], rows[j][idx], desc)
	})
	return table.New(t.Name(), t.Columns(), rows)
}

// lessCell compares two cells. Numbers (including "$45" and ".288") compare
// numerically and come before text; empty cells always sort last.
func lessCell(a, b string, desc bool) bool {
	if a == "" || b == "" {
		return a != "" && b == ""
	}

	na, okA := cellNumber(a)
	nb, okB := cellNumber(b)
	switch {
	case okA && okB:
		if na == nb {
			return false
		}
		return (na < nb) != desc
	case okA:
		return true
	case okB:
		return false
	}

	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la == lb {
		return false
	}
	return (la < lb) != desc
}

func cellNumber(s string) (float64, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}
