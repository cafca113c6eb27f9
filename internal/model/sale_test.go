package model

import (
	"testing"
)

func TestParseAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "250", "250"},
		{"currency symbol", "$250.00", "250"},
		{"thousands separator", "$1,250.50", "1250.5"},
		{"negative", "-$12.25", "-12.25"},
		{"trailing minus ignored", "12-", "12"},
		{"words around", "USD 99.99 total", "99.99"},
		{"empty", "", "0"},
		{"no digits", "n/a", "0"},
		{"two dots", "1.2.3", "0"},
		{"only minus", "-", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ParseAmount(tt.input)
			if got.String() != tt.want {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.input, got.String(), tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	sales := []*Sale{
		{ID: "a", Amount: "$316.00"},
		{ID: "b", Amount: "$242.00"},
		{ID: "c", Amount: "not a number"},
		{ID: "d", Amount: "$837.10"},
	}

	got := Summarize(sales, []string{"a", "c", "d", "missing"})
	if got.Count != 3 {
		t.Errorf("Count = %d, want 3", got.Count)
	}
	if got.Total != "1153.10" {
		t.Errorf("Total = %s, want 1153.10", got.Total)
	}

	empty := Summarize(sales, nil)
	if empty.Count != 0 || empty.Total != "0.00" {
		t.Errorf("empty selection = %+v, want zero", empty)
	}
}

func TestSaleInput_MissingFields(t *testing.T) {
	t.Parallel()

	in := SaleInput{Product: "Keyboard", Status: "  ", Amount: "$10"}
	missing := in.MissingFields()

	if len(missing) != 2 || missing[0] != "status" || missing[1] != "method" {
		t.Errorf("MissingFields() = %v, want [status method]", missing)
	}

	full := SaleInput{Product: "a", Status: "b", Method: "c", Amount: "d"}
	if m := full.MissingFields(); len(m) != 0 {
		t.Errorf("MissingFields() = %v, want none", m)
	}
}
