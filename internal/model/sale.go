package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Sale is a row of the external "sales" table.
// Amount is kept as the user typed it (e.g. "$1,250.00").
type Sale struct {
	ID        string    `json:"id"`
	Product   string    `json:"product"`
	Status    string    `json:"status"`
	Method    string    `json:"method"`
	Amount    string    `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// SaleInput holds the editable fields of a sale.
type SaleInput struct {
	Product string `json:"product"`
	Status  string `json:"status"`
	Method  string `json:"method"`
	Amount  string `json:"amount"`
}

// Normalize trims surrounding whitespace from every field.
func (in SaleInput) Normalize() SaleInput {
	return SaleInput{
		Product: strings.TrimSpace(in.Product),
		Status:  strings.TrimSpace(in.Status),
		Method:  strings.TrimSpace(in.Method),
		Amount:  strings.TrimSpace(in.Amount),
	}
}

// MissingFields lists the required fields that are empty.
func (in SaleInput) MissingFields() []string {
	n := in.Normalize()
	var missing []string
	if n.Product == "" {
		missing = append(missing, "product")
	}
	if n.Status == "" {
		missing = append(missing, "status")
	}
	if n.Method == "" {
		missing = append(missing, "method")
	}
	if n.Amount == "" {
		missing = append(missing, "amount")
	}
	return missing
}

// SaleSummary is the aggregate over a selection of rows.
type SaleSummary struct {
	Count int    `json:"count"`
	Total string `json:"total"`
}

// ParseAmount extracts a decimal from a currency-like string.
// Everything except digits, '.' and a leading '-' is stripped; anything
// that still fails to parse counts as zero.
func ParseAmount(s string) decimal.Decimal {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == '-' && b.Len() == 0:
			b.WriteRune(r)
		}
	}

	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

// SumAmounts adds up ParseAmount over all rows.
func SumAmounts(sales []*Sale) decimal.Decimal {
	total := decimal.Zero
	for _, s := range sales {
		total = total.Add(ParseAmount(s.Amount))
	}
	return total
}

// Summarize aggregates the rows whose ID is in ids. Unknown IDs are ignored.
func Summarize(sales []*Sale, ids []string) SaleSummary {
	selected := SelectByID(sales, ids)
	return SaleSummary{
		Count: len(selected),
		Total: SumAmounts(selected).StringFixed(2),
	}
}

// SelectByID keeps the rows whose ID is in ids, preserving order.
// An empty ids slice selects nothing.
func SelectByID(sales []*Sale, ids []string) []*Sale {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	out := make([]*Sale, 0, len(ids))
	for _, s := range sales {
		if _, ok := want[s.ID]; ok {
			out = append(out, s)
		}
	}
	return out
}
