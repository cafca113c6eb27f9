package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/reacts/reacts/internal/model"
)

var (
	// ErrInvalidCSV covers unreadable files and missing headers.
	ErrInvalidCSV = errors.New("invalid csv")

	requiredColumns = []string{"product", "status", "method", "amount"}
)

// WriteCSV writes a header row and one row per sale.
func WriteCSV(w io.Writer, sales []*model.Sale) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, s := range sales {
		if err := cw.Write(row(s)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses an import file. Columns are matched by header name,
// case-insensitively; product, status, method and amount must be present.
// Blank lines are skipped. Rows are returned as-is, so rows with empty
// fields are left for the caller to reject.
func ReadCSV(r io.Reader) ([]model.SaleInput, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrInvalidCSV)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s", ErrInvalidCSV, strings.Join(missing, ", "))
	}

	field := func(rec []string, col string) string {
		i := index[col]
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var rows []model.SaleInput
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
		}
		if blank(rec) {
			continue
		}

		rows = append(rows, model.SaleInput{
			Product: field(rec, "product"),
			Status:  field(rec, "status"),
			Method:  field(rec, "method"),
			Amount:  field(rec, "amount"),
		})
	}

	return rows, nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
