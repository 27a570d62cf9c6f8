package render

import (
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"docgen/internal/model"
)

const defaultSheet = "Sheet1"

type summaryLine struct {
	label  string
	key    string
	def    string
	prefix string
}

type workbookLayout struct {
	sheet       string
	title       string
	headers     []string
	fill        string
	rowsKey     string
	rowsDefault string
	summary     []summaryLine
}

var orderReportLayout = workbookLayout{
	sheet:       "Order Report",
	title:       "ORDER REPORT",
	headers:     []string{"Order Number", "Customer", "Items", "Total Amount", "Status", "Date"},
	fill:        "D9D9D9",
	rowsKey:     "orders",
	rowsDefault: "ORD-001|John Doe|3|500.00|CONFIRMED|2024-01-20",
	summary: []summaryLine{
		{label: "Total Orders:", key: "totalOrders", def: "0"},
		{label: "Total Revenue:", key: "totalRevenue", def: "0.00", prefix: "$"},
	},
}

var userReportLayout = workbookLayout{
	sheet:       "User Report",
	title:       "USER REPORT",
	headers:     []string{"Username", "Email", "First Name", "Last Name", "Status", "Created Date"},
	fill:        "BDD7EE",
	rowsKey:     "users",
	rowsDefault: "john.doe|john@example.com|John|Doe|Active|2024-01-15",
	summary: []summaryLine{
		{label: "Total Users:", key: "totalUsers", def: "0"},
		{label: "Active Users:", key: "activeUsers", def: "0"},
	},
}

func (e *Engine) orderReportExcel(f model.Fields) ([]byte, error) {
	return e.workbook(orderReportLayout, f)
}

func (e *Engine) userReportExcel(f model.Fields) ([]byte, error) {
	return e.workbook(userReportLayout, f)
}

// sheetWriter keeps the first error so cell population reads linearly.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

func (s *sheetWriter) set(col, row int, v any) {
	if s.err != nil {
		return
	}
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		s.err = err
		return
	}
	s.err = s.f.SetCellValue(s.sheet, name, v)
}

func (s *sheetWriter) style(col, row, styleID int) {
	if s.err != nil {
		return
	}
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		s.err = err
		return
	}
	s.err = s.f.SetCellStyle(s.sheet, name, name, styleID)
}

func (e *Engine) workbook(layout workbookLayout, fields model.Fields) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(defaultSheet, layout.sheet); err != nil {
		return nil, err
	}
	stamp := e.clock.Now().UTC().Format(time.RFC3339)
	if err := f.SetDocProps(&excelize.DocProperties{
		Creator:  "docgen",
		Title:    layout.title,
		Created:  stamp,
		Modified: stamp,
	}); err != nil {
		return nil, err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12},
		Fill: excelize.Fill{Type: "pattern", Color: []string{layout.fill}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}

	w := &sheetWriter{f: f, sheet: layout.sheet}
	widths := make([]int, len(layout.headers))
	track := func(col int, text string) {
		if col <= len(widths) {
			if n := utf8.RuneCountInString(text); n > widths[col-1] {
				widths[col-1] = n
			}
		}
	}

	w.set(1, 1, layout.title)
	w.style(1, 1, headerStyle)

	w.set(1, 2, "Generated:")
	w.set(2, 2, e.timestamp())

	for i, h := range layout.headers {
		w.set(i+1, 4, h)
		w.style(i+1, 4, headerStyle)
		track(i+1, h)
	}

	row := 5
	for _, cells := range fields.Table(layout.rowsKey, layout.rowsDefault) {
		for i, v := range cells {
			w.set(i+1, row, v)
			track(i+1, v)
		}
		row++
	}

	row++
	w.set(1, row, "SUMMARY")
	w.style(1, row, headerStyle)
	row++
	for _, s := range layout.summary {
		w.set(1, row, s.label)
		w.set(2, row, s.prefix+fields.String(s.key, s.def))
		row++
	}
	if w.err != nil {
		return nil, w.err
	}

	for i, n := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(layout.sheet, col, col, columnWidth(n)); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func columnWidth(chars int) float64 {
	w := float64(chars) + 2
	if w < 10 {
		return 10
	}
	if w > 60 {
		return 60
	}
	return w
}
