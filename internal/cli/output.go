package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	pretty "github.com/jedib0t/go-pretty/v6/table"
	"github.com/xuri/excelize/v2"

	"github.com/pfrederiksen/espn-tables/internal/table"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText     OutputFormat = "text"
	FormatJSON     OutputFormat = "json"
	FormatCSV      OutputFormat = "csv"
	FormatMarkdown OutputFormat = "markdown"
	FormatXLSX     OutputFormat = "xlsx"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatCSV, FormatMarkdown, FormatXLSX:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("invalid format: %s (must be text, json, csv, markdown or xlsx)", s)
	}
}

// WriteOutput writes tables in the specified format
func WriteOutput(w io.Writer, tables []*table.Table, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, tables)
	case FormatText, FormatCSV, FormatMarkdown:
		return writePretty(w, tables, format)
	case FormatXLSX:
		return writeXLSX(w, tables)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON emits a single table as an object and several as an array.
func writeJSON(w io.Writer, tables []*table.Table) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if len(tables) == 1 {
		return encoder.Encode(tables[0])
	}
	return encoder.Encode(tables)
}

func newPrettyTable(w io.Writer, t *table.Table) pretty.Writer {
	tw := pretty.NewWriter()
	tw.SetStyle(pretty.StyleRounded)
	tw.SetOutputMirror(w)

	header := make(pretty.Row, 0, len(t.Columns()))
	for _, c := range t.Columns() {
		header = append(header, c)
	}
	tw.AppendHeader(header)

	for _, r := range t.Rows() {
		row := make(pretty.Row, len(r))
		for i, v := range r {
			row[i] = v
		}
		tw.AppendRow(row)
	}
	return tw
}

// writePretty renders each table with go-pretty, separated by a blank line.
func writePretty(w io.Writer, tables []*table.Table, format OutputFormat) error {
	for i, t := range tables {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}

		tw := newPrettyTable(w, t)
		switch format {
		case FormatCSV:
			tw.RenderCSV()
		case FormatMarkdown:
			if t.Name() != "" {
				if _, err := fmt.Fprintf(w, "### %s\n\n", t.Name()); err != nil {
					return err
				}
			}
			tw.RenderMarkdown()
		default:
			if t.Name() != "" {
				tw.SetTitle("%s", t.Name())
			}
			tw.Render()
		}
	}
	return nil
}

// writeXLSX writes one worksheet per table.
func writeXLSX(w io.Writer, tables []*table.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	first := f.GetSheetName(0)
	used := make(map[string]bool)
	for i, t := range tables {
		sheet := sheetName(t.Name(), i, used)
		if i == 0 {
			if err := f.SetSheetName(first, sheet); err != nil {
				return fmt.Errorf("naming sheet %q: %w", sheet, err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("creating sheet %q: %w", sheet, err)
		}

		if err := setSheetRow(f, sheet, 1, t.Columns()); err != nil {
			return err
		}
		for r, row := range t.Rows() {
			if err := setSheetRow(f, sheet, r+2, row); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func setSheetRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("writing %s!%s: %w", sheet, cell, err)
	}
	return nil
}

const maxSheetName = 31

// sheetName makes a valid, unique worksheet name from a table name.
func sheetName(name string, index int, used map[string]bool) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	name = strings.Trim(name, "'")
	if name == "" {
		name = fmt.Sprintf("Table %d", index+1)
	}

	base := truncateRunes(name, maxSheetName)
	candidate := base
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		candidate = truncateRunes(base, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
