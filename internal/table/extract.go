package table

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// TextMode controls how a cell's text content is read.
type TextMode int

const (
	// TextConcat concatenates all text in the cell as-is and trims the ends.
	TextConcat TextMode = iota
	// TextJoined joins the cell's text fragments with single spaces and
	// collapses runs of whitespace, non-breaking spaces included.
	TextJoined
)

// DefaultSelector is used when a Spec leaves Selector empty.
const DefaultSelector = "table"

// maxColspan bounds how many columns or rows a single cell may claim.
const maxColspan = 100

// Spec identifies which table to extract and how to read it.
type Spec struct {
	// Selector is a CSS selector for candidate table elements.
	Selector string
	// Index picks one match, counted in document order.
	Index int
	// HeaderRow is the row holding column names. Rows above it are captions;
	// the text of the first caption row becomes the table name.
	HeaderRow int
	// HeaderRows is how many rows, starting at HeaderRow, make up the header.
	// Zero means one. With several rows, a column is named by the bottom row,
	// where rowspan cells from upper rows count as bottom-row cells and group
	// captions spanning columns above the bottom row are ignored.
	HeaderRows int
	// Columns, when set, names the columns explicitly. No header row is read
	// and data starts at HeaderRow.
	Columns []string
	// SkipFooter drops this many trailing rows, e.g. a totals row.
	SkipFooter int
	// DropBlankColumns drops columns whose header cell is blank instead of
	// failing with MalformedTableError.
	DropBlankColumns bool
	// Text selects how data cells are read. Header cells are always joined.
	Text TextMode
}

func (s Spec) selector() string {
	if s.Selector == "" {
		return DefaultSelector
	}
	return s.Selector
}

// Extract parses page and returns the table described by spec.
func Extract(page string, spec Spec) (*Table, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return ExtractFromDocument(doc, spec)
}

// ExtractFromDocument is Extract for an already parsed document.
func ExtractFromDocument(doc *goquery.Document, spec Spec) (*Table, error) {
	matches := doc.Find(spec.selector())
	if spec.Index < 0 || spec.Index >= matches.Length() {
		return nil, &TableNotFoundError{Selector: spec.selector(), Index: spec.Index, Found: matches.Length()}
	}
	return readTable(matches.Eq(spec.Index), spec)
}

// ExtractAll parses page and returns every table matching spec.Selector,
// ignoring spec.Index.
func ExtractAll(page string, spec Spec) ([]*Table, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return ExtractAllFromDocument(doc, spec)
}

// ExtractAllFromDocument is ExtractAll for an already parsed document.
func ExtractAllFromDocument(doc *goquery.Document, spec Spec) ([]*Table, error) {
	matches := doc.Find(spec.selector())
	if matches.Length() == 0 {
		return nil, &TableNotFoundError{Selector: spec.selector()}
	}

	tables := make([]*Table, 0, matches.Length())
	var err error
	matches.EachWithBreak(func(i int, sel *goquery.Selection) bool {
		var t *Table
		t, err = readTable(sel, spec)
		if err != nil {
			err = fmt.Errorf("table %d: %w", i, err)
			return false
		}
		tables = append(tables, t)
		return true
	})
	if err != nil {
		return nil, err
	}
	return tables, nil
}

// readTable converts one table element into a Table.
func readTable(tbl *goquery.Selection, spec Spec) (*Table, error) {
	// Only rows owned by this table; rows of nested tables belong to those.
	rows := tbl.Find("tr").FilterFunction(func(_ int, tr *goquery.Selection) bool {
		return tr.Closest("table").IsSelection(tbl)
	})

	var trs []*goquery.Selection
	rows.Each(func(_ int, tr *goquery.Selection) {
		trs = append(trs, tr)
	})

	headerRows := max(spec.HeaderRows, 1)
	if spec.HeaderRow < 0 || (len(spec.Columns) == 0 && spec.HeaderRow+headerRows > len(trs)) {
		return nil, &MalformedTableError{
			Selector: spec.selector(),
			Row:      spec.HeaderRow,
			Reason:   fmt.Sprintf("header row missing (table has %d rows)", len(trs)),
		}
	}

	name := ""
	if spec.HeaderRow > 0 && len(trs) > 0 {
		name = joinedText(trs[0])
	}

	var (
		columns []string
		keep    []int
		start   int
	)
	if len(spec.Columns) > 0 {
		if err := checkColumns(spec); err != nil {
			return nil, err
		}
		columns = append([]string(nil), spec.Columns...)
		start = spec.HeaderRow
	} else {
		var err error
		columns, keep, err = readHeader(trs[spec.HeaderRow:spec.HeaderRow+headerRows], spec)
		if err != nil {
			return nil, err
		}
		start = spec.HeaderRow + headerRows
	}

	end := len(trs) - spec.SkipFooter
	data := make([][]string, 0)
	for i := start; i < end; i++ {
		cells := readCells(trs[i], spec.Text)
		if len(cells) == 0 {
			continue
		}
		if keep != nil {
			cells = pick(cells, keep)
		}
		data = append(data, cells)
	}

	return New(name, columns, data)
}

// checkColumns rejects explicit column lists that no header could produce.
func checkColumns(spec Spec) error {
	seen := make(map[string]bool, len(spec.Columns))
	for i, name := range spec.Columns {
		reason := ""
		switch {
		case strings.TrimSpace(name) == "":
			reason = fmt.Sprintf("column %d has an empty name", i)
		case seen[name]:
			reason = fmt.Sprintf("duplicate column name %q", name)
		}
		if reason != "" {
			return &MalformedTableError{Selector: spec.selector(), Row: spec.HeaderRow, Reason: reason}
		}
		seen[name] = true
	}
	return nil
}

// readHeader returns the de-duplicated column names of the header rows and,
// when blank columns were dropped, the indexes of the cells that were kept.
func readHeader(trs []*goquery.Selection, spec Spec) ([]string, []int, error) {
	cells := headerGrid(trs)
	if len(cells) == 0 {
		return nil, nil, &MalformedTableError{Selector: spec.selector(), Row: spec.HeaderRow, Reason: "header row has no cells"}
	}

	var (
		names []string
		keep  []int
	)
	for i, name := range cells {
		if name == "" {
			if spec.DropBlankColumns {
				continue
			}
			return nil, nil, &MalformedTableError{
				Selector: spec.selector(),
				Row:      spec.HeaderRow,
				Reason:   fmt.Sprintf("header cell %d is empty", i),
			}
		}
		names = append(names, name)
		keep = append(keep, i)
	}
	if len(names) == 0 {
		return nil, nil, &MalformedTableError{Selector: spec.selector(), Row: spec.HeaderRow, Reason: "all header cells are empty"}
	}
	if len(keep) == len(cells) {
		keep = nil
	}
	return dedupe(names), keep, nil
}

// dedupe suffixes repeated names: "AB", "AB_2", "AB_3". A suffix that would
// collide with another column's literal name is skipped.
func dedupe(names []string) []string {
	taken := make(map[string]bool, len(names))
	for _, n := range names {
		taken[n] = true
	}

	seen := make(map[string]int, len(names))
	out := make([]string, len(names))
	for i, n := range names {
		seen[n]++
		if seen[n] == 1 {
			out[i] = n
			continue
		}
		for k := seen[n]; ; k++ {
			candidate := n + "_" + strconv.Itoa(k)
			if !taken[candidate] {
				taken[candidate] = true
				seen[n] = k
				out[i] = candidate
				break
			}
		}
	}
	return out
}

// headerGrid lays the header rows out on a grid, honoring colspan and
// rowspan, and returns the bottom row. A spanning cell's text fills every
// slot it covers.
func headerGrid(trs []*goquery.Selection) []string {
	grid := make([][]string, len(trs))
	filled := make([][]bool, len(trs))
	for r, tr := range trs {
		col := 0
		tr.ChildrenFiltered("th, td").Each(func(_ int, td *goquery.Selection) {
			for col < len(filled[r]) && filled[r][col] {
				col++
			}
			text := joinedText(td)
			rows := min(span(td, "rowspan"), len(trs)-r)
			cols := span(td, "colspan")
			for dr := 0; dr < rows; dr++ {
				for dc := 0; dc < cols; dc++ {
					place(&grid[r+dr], &filled[r+dr], col+dc, text)
				}
			}
			col += cols
		})
	}
	return grid[len(grid)-1]
}

func place(row *[]string, filled *[]bool, col int, text string) {
	for len(*row) <= col {
		*row = append(*row, "")
		*filled = append(*filled, false)
	}
	(*row)[col] = text
	(*filled)[col] = true
}

// readCells reads a data row's th/td cells. A colspan cell's text goes in its
// first slot and the extra slots are left empty.
func readCells(tr *goquery.Selection, mode TextMode) []string {
	var cells []string
	tr.ChildrenFiltered("th, td").Each(func(_ int, td *goquery.Selection) {
		var text string
		if mode == TextJoined {
			text = joinedText(td)
		} else {
			text = strings.TrimSpace(td.Text())
		}
		cells = append(cells, text)
		for n := span(td, "colspan"); n > 1; n-- {
			cells = append(cells, "")
		}
	})
	return cells
}

// span reads a colspan or rowspan attribute, defaulting to 1.
func span(td *goquery.Selection, attr string) int {
	n, err := strconv.Atoi(strings.TrimSpace(td.AttrOr(attr, "1")))
	if err != nil || n < 1 {
		return 1
	}
	if n > maxColspan {
		return maxColspan
	}
	return n
}

func pick(cells []string, keep []int) []string {
	out := make([]string, 0, len(keep))
	for _, i := range keep {
		if i < len(cells) {
			out = append(out, cells[i])
		}
	}
	return out
}

// joinedText joins the text fragments under sel with single spaces.
func joinedText(sel *goquery.Selection) string {
	var fragments []string
	for _, n := range sel.Nodes {
		collectText(n, &fragments)
	}
	return strings.Join(strings.Fields(strings.Join(fragments, " ")), " ")
}

func collectText(n *html.Node, out *[]string) {
	if n.Type == html.TextNode {
		*out = append(*out, n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, out)
	}
}

// JoinedText returns the text of sel with fragments joined by single spaces
// and whitespace collapsed.
func JoinedText(sel *goquery.Selection) string {
	return joinedText(sel)
}
