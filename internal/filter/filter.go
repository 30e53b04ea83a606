// Package filter narrows extracted tables down to the rows a user asked for.
//
// A Filter is a list of conditions, all of which must hold for a row to be
// kept. Conditions are written as COLUMN OP VALUE:
//
//	TEAM~bombers     case-insensitive substring
//	POS=OF           exact match (case-insensitive)
//	KEEPER!=true     not equal
//	HR>=20           numeric comparison (>, >=, <, <=)
//
// The package also parses the short date ranges accepted by the transactions
// command ("Apr 1-15", "April 1 - May 15", "June").
//
// Example usage:
//
//	f, err := filter.Parse([]string{"POS=OF", "HR>=20"})
//	if err != nil {
//	    return err
//	}
//	sluggers, err := f.Apply(stats)
package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pfrederiksen/espn-tables/internal/table"
)

// Op is a comparison operator.
type Op string

const (
	OpEqual     Op = "="
	OpNotEqual  Op = "!="
	OpContains  Op = "~"
	OpGreater   Op = ">"
	OpGreaterEq Op = ">="
	OpLess      Op = "<"
	OpLessEq    Op = "<="
)

// Condition is one COLUMN OP VALUE test.
type Condition struct {
	Column string `json:"column"`
	Op     Op     `json:"op"`
	Value  string `json:"value"`
}

// Filter keeps the rows that satisfy every condition.
type Filter struct {
	Conditions []Condition `json:"conditions,omitempty"`
}

var conditionPattern = regexp.MustCompile(`^\s*([^=!~<>]+?)\s*(>=|<=|!=|=|~|>|<)\s*(.*?)\s*$`)

// ParseCondition parses a single COLUMN OP VALUE expression.
func ParseCondition(expr string) (Condition, error) {
	m := conditionPattern.FindStringSubmatch(expr)
	if m == nil {
		return Condition{}, fmt.Errorf("invalid condition %q (want COLUMN OP VALUE, e.g. POS=OF)", expr)
	}
	c := Condition{Column: m[1], Op: Op(m[2]), Value: m[3]}
	if c.numeric() {
		if _, ok := number(c.Value); !ok {
			return Condition{}, fmt.Errorf("condition %q: %s needs a number", expr, c.Op)
		}
	}
	return c, nil
}

// Parse parses every expression into one Filter.
func Parse(exprs []string) (*Filter, error) {
	f := &Filter{}
	for _, expr := range exprs {
		if strings.TrimSpace(expr) == "" {
			continue
		}
		c, err := ParseCondition(expr)
		if err != nil {
			return nil, err
		}
		f.Conditions = append(f.Conditions, c)
	}
	return f, nil
}

// IsEmpty reports whether the filter keeps every row.
func (f *Filter) IsEmpty() bool {
	return f == nil || len(f.Conditions) == 0
}

// Matches reports whether row passes every condition. A missing column fails
// the condition.
func (f *Filter) Matches(row map[string]string) bool {
	if f.IsEmpty() {
		return true
	}
	for _, c := range f.Conditions {
		v, ok := row[c.Column]
		if !ok || !c.matches(v) {
			return false
		}
	}
	return true
}

// Apply returns the rows of t that match. It fails when a condition names a
// column t does not have.
func (f *Filter) Apply(t *table.Table) (*table.Table, error) {
	if f.IsEmpty() {
		return t, nil
	}
	for _, c := range f.Conditions {
		if !t.HasColumn(c.Column) {
			return nil, fmt.Errorf("filter column %q not in table (have %s)", c.Column, strings.Join(t.Columns(), ", "))
		}
	}
	return t.Filter(f.Matches), nil
}

func (c Condition) numeric() bool {
	switch c.Op {
	case OpGreater, OpGreaterEq, OpLess, OpLessEq:
		return true
	}
	return false
}

func (c Condition) matches(v string) bool {
	switch c.Op {
	case OpEqual:
		return strings.EqualFold(v, c.Value)
	case OpNotEqual:
		return !strings.EqualFold(v, c.Value)
	case OpContains:
		return strings.Contains(strings.ToLower(v), strings.ToLower(c.Value))
	}

	got, ok := number(v)
	if !ok {
		return false
	}
	want, _ := number(c.Value)
	switch c.Op {
	case OpGreater:
		return got > want
	case OpGreaterEq:
		return got >= want
	case OpLess:
		return got < want
	case OpLessEq:
		return got <= want
	}
	return false
}

// number parses cells such as "45", "$45", ".288" and "3.72".
func number(s string) (float64, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}
