// Package export renders sales as CSV, XLSX or PDF documents and reads
// CSV imports.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/reacts/reacts/internal/model"
)

// Format is a download format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ErrUnknownFormat is returned by ParseFormat.
var ErrUnknownFormat = errors.New("unknown export format")

// Columns is the column order shared by every format and by CSV import.
var Columns = []string{"id", "product", "status", "method", "amount", "created_at"}

const timeLayout = "2006-01-02 15:04:05"

// ParseFormat accepts csv, xlsx or pdf, case-insensitively. Empty means csv.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatXLSX, FormatPDF:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType is the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Filename names a download made at now: sales-YYYYMMDD-HHMMSS.<ext>.
func Filename(f Format, now time.Time) string {
	return "sales-" + now.Format("20060102-150405") + "." + string(f)
}

// Write renders sales in the given format.
func Write(w io.Writer, f Format, sales []*model.Sale, now time.Time) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, sales)
	case FormatXLSX:
		return WriteXLSX(w, sales)
	case FormatPDF:
		return WritePDF(w, sales, now)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
}

func row(s *model.Sale) []string {
	created := ""
	if !s.CreatedAt.IsZero() {
		created = s.CreatedAt.UTC().Format(timeLayout)
	}
	return []string{s.ID, s.Product, s.Status, s.Method, s.Amount, created}
}
