package render

import (
	"bytes"

	"github.com/go-pdf/fpdf"

	"docgen/internal/model"
)

const (
	pdfFont       = "Helvetica"
	pdfLineHeight = 7.0
	pdfCellHeight = 8.0
)

var invoiceColumns = []struct {
	title  string
	weight float64
}{
	{"Item", 3},
	{"Quantity", 1},
	{"Price", 2},
	{"Subtotal", 2},
}

// pdfWriter wraps fpdf with the paragraph helpers the templates share.
type pdfWriter struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (e *Engine) newPDF(title string) *pdfWriter {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(e.now())
	pdf.SetModificationDate(e.now())
	pdf.SetCatalogSort(true)
	pdf.SetTitle(title, true)
	pdf.SetCreator("docgen", true)
	pdf.AddPage()
	return &pdfWriter{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (w *pdfWriter) paragraph(text, style string, size float64, align string) {
	w.pdf.SetFont(pdfFont, style, size)
	w.pdf.MultiCell(0, size*0.5+1, w.tr(text), "", align, false)
}

func (w *pdfWriter) line(text string) {
	w.paragraph(text, "", 11, "L")
}

func (w *pdfWriter) blank(lines int) {
	w.pdf.Ln(pdfLineHeight * float64(lines))
}

// table lays cells out in a fixed grid; a row holding more cells than there
// are columns continues on the next grid line.
func (w *pdfWriter) table(rows [][]string) {
	pageW, _ := w.pdf.GetPageSize()
	left, _, right, _ := w.pdf.GetMargins()
	usable := pageW - left - right

	var total float64
	for _, c := range invoiceColumns {
		total += c.weight
	}
	widths := make([]float64, len(invoiceColumns))
	for i, c := range invoiceColumns {
		widths[i] = usable * c.weight / total
	}

	w.pdf.SetFont(pdfFont, "B", 11)
	w.pdf.SetFillColor(230, 230, 230)
	for i, c := range invoiceColumns {
		w.pdf.CellFormat(widths[i], pdfCellHeight, c.title, "1", 0, "L", true, 0, "")
	}
	w.pdf.Ln(pdfCellHeight)

	w.pdf.SetFont(pdfFont, "", 11)
	col := 0
	for _, row := range rows {
		for _, cell := range row {
			w.pdf.CellFormat(widths[col], pdfCellHeight, w.tr(cell), "1", 0, "L", false, 0, "")
			col++
			if col == len(widths) {
				w.pdf.Ln(pdfCellHeight)
				col = 0
			}
		}
	}
	if col != 0 {
		w.pdf.Ln(pdfCellHeight)
	}
}

func (w *pdfWriter) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := w.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *Engine) invoicePDF(f model.Fields) ([]byte, error) {
	w := e.newPDF("Invoice")

	w.paragraph("INVOICE", "B", 24, "C")
	w.blank(1)

	w.paragraph("Invoice Number: "+f.String("invoiceNumber", "INV-001"), "B", 11, "L")
	w.line("Date: " + e.timestamp())
	w.blank(1)

	w.paragraph("Customer Information", "B", 14, "L")
	w.line("Name: " + f.String("customerName", "N/A"))
	w.line("Email: " + f.String("customerEmail", "N/A"))
	w.line("Address: " + f.String("customerAddress", "N/A"))
	w.blank(1)

	w.paragraph("Items", "B", 14, "L")
	w.table(f.Table("items", "Product A|2|100.00|200.00"))
	w.blank(1)

	w.paragraph("Total Amount: $"+f.String("totalAmount", "0.00"), "B", 16, "R")
	w.blank(2)
	w.paragraph("Thank you for your business!", "I", 11, "C")

	return w.bytes()
}

func (e *Engine) reportPDF(f model.Fields) ([]byte, error) {
	w := e.newPDF("Business Report")

	w.paragraph("BUSINESS REPORT", "B", 24, "C")
	w.blank(1)

	w.paragraph("Report: "+f.String("reportTitle", "Monthly Report"), "B", 16, "L")
	w.line("Generated: " + e.timestamp())
	w.blank(1)

	w.paragraph("Summary", "B", 14, "L")
	w.line(f.String("summary", "This is a sample report summary."))
	w.blank(1)

	w.paragraph("Statistics", "B", 14, "L")
	w.line("Total Orders: " + f.String("totalOrders", "0"))
	w.line("Total Revenue: $" + f.String("totalRevenue", "0.00"))
	w.line("Active Users: " + f.String("activeUsers", "0"))

	return w.bytes()
}
