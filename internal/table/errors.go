package table

import "fmt"

// TableNotFoundError is returned when no table in the page matches a Spec.
type TableNotFoundError struct {
	Selector string
	Index    int
	Found    int // number of tables matching Selector
}

func (e *TableNotFoundError) Error() string {
	if e.Found == 0 {
		return fmt.Sprintf("table not found: no element matches %q", e.Selector)
	}
	return fmt.Sprintf("table not found: %q matched %d tables, wanted index %d", e.Selector, e.Found, e.Index)
}

// MalformedTableError is returned when the header row cannot be read as a
// set of non-empty column names.
type MalformedTableError struct {
	Selector string
	Row      int
	Reason   string
}

func (e *MalformedTableError) Error() string {
	return fmt.Sprintf("malformed table %q (row %d): %s", e.Selector, e.Row, e.Reason)
}
