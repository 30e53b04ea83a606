package filter

import (
	"testing"

	"github.com/pfrederiksen/espn-tables/internal/table"
)

func TestParseCondition(t *testing.T) {
	tests := []struct {
		expr    string
		want    Condition
		wantErr bool
	}{
		{expr: "POS=OF", want: Condition{Column: "POS", Op: OpEqual, Value: "OF"}},
		{expr: " TEAM ~ bombers ", want: Condition{Column: "TEAM", Op: OpContains, Value: "bombers"}},
		{expr: "KEEPER!=true", want: Condition{Column: "KEEPER", Op: OpNotEqual, Value: "true"}},
		{expr: "HR>=20", want: Condition{Column: "HR", Op: OpGreaterEq, Value: "20"}},
		{expr: "ERA<3.5", want: Condition{Column: "ERA", Op: OpLess, Value: "3.5"}},
		{expr: "PRICE>$30", want: Condition{Column: "PRICE", Op: OpGreater, Value: "$30"}},
		{expr: "DTD=", want: Condition{Column: "DTD", Op: OpEqual, Value: ""}},
		{expr: "HR>=many", wantErr: true},
		{expr: "POS", wantErr: true},
		{expr: "=OF", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := ParseCondition(tt.expr)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCondition(%q) error = %v, wantErr %v", tt.expr, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseCondition(%q) = %+v, want %+v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestFilter_IsEmpty(t *testing.T) {
	var nilFilter *Filter
	if !nilFilter.IsEmpty() {
		t.Error("nil filter should be empty")
	}

	f, err := Parse([]string{"", "  "})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !f.IsEmpty() {
		t.Error("blank expressions should give an empty filter")
	}

	f, err = Parse([]string{"POS=OF"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if f.IsEmpty() {
		t.Error("filter with a condition should not be empty")
	}
}

func TestFilter_Matches(t *testing.T) {
	row := map[string]string{"PLAYER": "Mike Trout", "POS": "OF", "HR": "29", "AVG": ".315", "PRICE": "$45", "AB": ""}

	tests := []struct {
		name  string
		exprs []string
		want  bool
	}{
		{"empty filter", nil, true},
		{"equal ignores case", []string{"pos=of"}, false},
		{"equal value ignores case", []string{"POS=of"}, true},
		{"contains", []string{"PLAYER~trout"}, true},
		{"not equal", []string{"POS!=OF"}, false},
		{"numeric", []string{"HR>=29", "HR<30"}, true},
		{"decimal", []string{"AVG>.300"}, true},
		{"dollar", []string{"PRICE<=$45"}, true},
		{"empty cell is not a number", []string{"AB<1"}, false},
		{"all conditions must hold", []string{"POS=OF", "HR>40"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse(tt.exprs)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got := f.Matches(row); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilter_Apply(t *testing.T) {
	stats, err := table.New("batters", []string{"PLAYER", "POS", "HR"}, [][]string{
		{"Mike Trout", "OF", "29"},
		{"Buster Posey", "C, 1B", "14"},
		{"Bryce Harper", "OF", "24"},
	})
	if err != nil {
		t.Fatalf("table.New() error = %v", err)
	}

	f, err := Parse([]string{"POS=OF", "HR>25"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	got, err := f.Apply(stats)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got.Len() != 1 || got.Value(0, "PLAYER") != "Mike Trout" {
		t.Errorf("Apply() rows = %v, want only Mike Trout", got.Rows())
	}
	if got.Name() != "batters" {
		t.Errorf("Apply() name = %q, want batters", got.Name())
	}

	f, _ = Parse([]string{"SB>10"})
	if _, err := f.Apply(stats); err == nil {
		t.Error("Apply() with unknown column should fail")
	}

	var empty *Filter
	same, err := empty.Apply(stats)
	if err != nil || same != stats {
		t.Errorf("empty Apply() = %v, %v; want the same table", same, err)
	}
}
