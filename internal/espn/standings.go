package espn

import (
	"context"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/espn-tables/internal/table"
)

const standingsSelector = "table.tableBody"

// Standings returns the official standings tables, typically the roto points
// table followed by the season stats table. Each table is named after its
// caption row.
func (l *League) Standings(ctx context.Context) ([]*table.Table, error) {
	doc, err := l.document(ctx, "standings", url.Values{"view": {"official"}})
	if err != nil {
		return nil, fmt.Errorf("fetching standings: %w", err)
	}
	return l.standingsFromDocument(doc)
}

func (l *League) standingsFromDocument(doc *goquery.Document) ([]*table.Table, error) {
	matches := doc.Find(standingsSelector)
	if matches.Length() == 0 {
		return nil, &table.TableNotFoundError{Selector: standingsSelector}
	}

	tables := make([]*table.Table, 0, matches.Length())
	for i := 0; i < matches.Length(); i++ {
		first, count := subHeadRows(matches.Eq(i))
		t, err := table.ExtractFromDocument(doc, table.Spec{
			Selector:         standingsSelector,
			Index:            i,
			HeaderRow:        first,
			HeaderRows:       count,
			DropBlankColumns: true,
		})
		if err != nil {
			return nil, fmt.Errorf("standings table %d: %w", i, err)
		}

		firstCol := t.Columns()[0]
		t = t.Filter(func(row map[string]string) bool { return row[firstCol] != "" })
		l.extracted("standings", t)
		tables = append(tables, t)
	}
	return tables, nil
}

// subHeadRows returns the index of the first tr.tableSubHead row owned by tbl
// and how many subhead rows follow it, counting the first. Stats tables carry
// two: group captions with rowspan cells for RK and TEAM, then the category
// names. A table without subheads reads row 1 as its header.
func subHeadRows(tbl *goquery.Selection) (first, count int) {
	first = -1
	tbl.Find("tr").FilterFunction(func(_ int, tr *goquery.Selection) bool {
		return tr.Closest("table").IsSelection(tbl)
	}).EachWithBreak(func(i int, tr *goquery.Selection) bool {
		if !tr.HasClass("tableSubHead") {
			return first < 0
		}
		if first < 0 {
			first = i
		}
		count++
		return true
	})
	if first < 0 {
		return 1, 1
	}
	return first, count
}
