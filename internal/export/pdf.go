package export

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/reacts/reacts/internal/model"
)

// Column widths in mm; they add up to the printable width of landscape A4.
var pdfWidths = []float64{58, 70, 35, 35, 35, 44}

const (
	pdfFont      = "Helvetica"
	pdfRowHeight = 7.0
)

// WritePDF writes a landscape A4 report with a title, generation time,
// the sales table and a total row.
func WritePDF(w io.Writer, sales []*model.Sale, now time.Time) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Sales Report", true)
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	header := func() {
		pdf.SetFont(pdfFont, "B", 10)
		pdf.SetFillColor(235, 235, 235)
		for i, c := range Columns {
			pdf.CellFormat(pdfWidths[i], pdfRowHeight+1, c, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont(pdfFont, "", 9)
	}

	pdf.AddPage()
	pdf.SetFont(pdfFont, "B", 18)
	pdf.CellFormat(0, 10, "Sales Report", "", 1, "L", false, 0, "")
	pdf.SetFont(pdfFont, "", 10)
	pdf.CellFormat(0, 6, "Generated at "+now.UTC().Format(timeLayout)+" UTC", "", 1, "L", false, 0, "")
	pdf.Ln(4)
	header()

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for _, s := range sales {
		if pdf.GetY()+pdfRowHeight > pageHeight-bottom {
			pdf.AddPage()
			header()
		}
		for i, v := range row(s) {
			align := "L"
			if i == 4 {
				align = "R"
			}
			pdf.CellFormat(pdfWidths[i], pdfRowHeight, tr(fit(pdf, v, pdfWidths[i]-2)), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	labelWidth := pdfWidths[0] + pdfWidths[1] + pdfWidths[2] + pdfWidths[3]
	pdf.SetFont(pdfFont, "B", 10)
	pdf.CellFormat(labelWidth, pdfRowHeight+1, fmt.Sprintf("Total (%d sales)", len(sales)), "1", 0, "R", false, 0, "")
	pdf.CellFormat(pdfWidths[4], pdfRowHeight+1, model.SumAmounts(sales).StringFixed(2), "1", 0, "R", false, 0, "")
	pdf.CellFormat(pdfWidths[5], pdfRowHeight+1, "", "1", 1, "L", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// fit truncates s with an ellipsis so it renders within width mm.
func fit(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > width {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
