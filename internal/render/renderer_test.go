package render

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"docgen/internal/model"
)

var (
	pdfMagic  = []byte("%PDF-")
	xlsxMagic = []byte("PK\x03\x04")
)

var fixedTime = time.Date(2024, 3, 5, 14, 30, 15, 0, time.UTC)

func newTestEngine() *Engine {
	return NewEngine(FixedClock(fixedTime), time.UTC)
}

func readRows(t *testing.T, data []byte, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestEngine_Supports(t *testing.T) {
	e := newTestEngine()

	assert.True(t, e.Supports(model.TemplateInvoice, model.DocumentTypePDF))
	assert.True(t, e.Supports(model.TemplateReport, model.DocumentTypePDF))
	assert.True(t, e.Supports(model.TemplateOrderReport, model.DocumentTypeExcel))
	assert.True(t, e.Supports(model.TemplateUserReport, model.DocumentTypeExcel))

	assert.False(t, e.Supports(model.TemplateInvoice, model.DocumentTypeExcel))
	assert.False(t, e.Supports(model.TemplateUserReport, model.DocumentTypePDF))
	assert.False(t, e.Supports("RECEIPT", model.DocumentTypePDF))
}

func TestEngine_RenderProducesFormatSignature(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	tests := []struct {
		tmpl   model.TemplateType
		format model.DocumentType
		magic  []byte
	}{
		{model.TemplateInvoice, model.DocumentTypePDF, pdfMagic},
		{model.TemplateReport, model.DocumentTypePDF, pdfMagic},
		{model.TemplateOrderReport, model.DocumentTypeExcel, xlsxMagic},
		{model.TemplateUserReport, model.DocumentTypeExcel, xlsxMagic},
	}
	for _, tt := range tests {
		t.Run(string(tt.tmpl), func(t *testing.T) {
			out, err := e.Render(ctx, tt.tmpl, tt.format, model.Fields{})
			require.NoError(t, err)
			require.NotEmpty(t, out)
			assert.True(t, bytes.HasPrefix(out, tt.magic))
		})
	}
}

func TestEngine_RenderUnsupportedPair(t *testing.T) {
	e := newTestEngine()

	out, err := e.Render(context.Background(), model.TemplateInvoice, model.DocumentTypeExcel, nil)
	assert.ErrorIs(t, err, ErrRenderFailure)
	assert.Nil(t, out)
}

func TestEngine_RenderCancelled(t *testing.T) {
	e := newTestEngine()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := e.Render(ctx, model.TemplateReport, model.DocumentTypePDF, model.Fields{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, out)
}

func TestEngine_PDFIsReproducible(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()

	for _, tmpl := range []model.TemplateType{model.TemplateInvoice, model.TemplateReport} {
		t.Run(string(tmpl), func(t *testing.T) {
			first, err := e.Render(ctx, tmpl, model.DocumentTypePDF, model.Fields{})
			require.NoError(t, err)
			second, err := e.Render(ctx, tmpl, model.DocumentTypePDF, model.Fields{})
			require.NoError(t, err)
			assert.True(t, bytes.Equal(first, second))
		})
	}
}

func TestEngine_WorkbookContentIsReproducible(t *testing.T) {
	ctx := context.Background()
	early := NewEngine(FixedClock(fixedTime), time.UTC)
	late := NewEngine(FixedClock(fixedTime.Add(26*time.Hour)), time.UTC)

	a, err := early.Render(ctx, model.TemplateOrderReport, model.DocumentTypeExcel, model.Fields{})
	require.NoError(t, err)
	b, err := early.Render(ctx, model.TemplateOrderReport, model.DocumentTypeExcel, model.Fields{})
	require.NoError(t, err)
	c, err := late.Render(ctx, model.TemplateOrderReport, model.DocumentTypeExcel, model.Fields{})
	require.NoError(t, err)

	rowsA := readRows(t, a, "Order Report")
	rowsB := readRows(t, b, "Order Report")
	rowsC := readRows(t, c, "Order Report")
	assert.Equal(t, rowsA, rowsB)

	// Only the generation timestamp differs between clocks.
	assert.Equal(t, "2024-03-05 14:30:15", rowsA[1][1])
	assert.Equal(t, "2024-03-06 16:30:15", rowsC[1][1])
	rowsC[1][1] = rowsA[1][1]
	assert.Equal(t, rowsA, rowsC)
}

func TestEngine_OrderReportRows(t *testing.T) {
	e := newTestEngine()

	out, err := e.Render(context.Background(), model.TemplateOrderReport, model.DocumentTypeExcel, model.Fields{
		"orders":       "A|1|10.00|10.00;B|2|5.00|10.00",
		"totalOrders":  2,
		"totalRevenue": "20.00",
	})
	require.NoError(t, err)

	rows := readRows(t, out, "Order Report")
	require.GreaterOrEqual(t, len(rows), 10)

	assert.Equal(t, []string{"ORDER REPORT"}, rows[0])
	assert.Equal(t, []string{"Generated:", "2024-03-05 14:30:15"}, rows[1])
	assert.Equal(t, []string{"Order Number", "Customer", "Items", "Total Amount", "Status", "Date"}, rows[3])
	assert.Equal(t, []string{"A", "1", "10.00", "10.00"}, rows[4])
	assert.Equal(t, []string{"B", "2", "5.00", "10.00"}, rows[5])
	assert.Empty(t, rows[6])
	assert.Equal(t, []string{"SUMMARY"}, rows[7])
	assert.Equal(t, []string{"Total Orders:", "2"}, rows[8])
	assert.Equal(t, []string{"Total Revenue:", "$20.00"}, rows[9])
}

func TestEngine_UserReportDefaults(t *testing.T) {
	e := newTestEngine()

	out, err := e.Render(context.Background(), model.TemplateUserReport, model.DocumentTypeExcel, model.Fields{
		"users": map[string]any{"malformed": true},
	})
	require.NoError(t, err)

	rows := readRows(t, out, "User Report")
	require.GreaterOrEqual(t, len(rows), 9)

	assert.Equal(t, []string{"USER REPORT"}, rows[0])
	assert.Equal(t, []string{"john.doe", "john@example.com", "John", "Doe", "Active", "2024-01-15"}, rows[4])
	assert.Equal(t, []string{"SUMMARY"}, rows[6])
	assert.Equal(t, []string{"Total Users:", "0"}, rows[7])
	assert.Equal(t, []string{"Active Users:", "0"}, rows[8])
}

func TestEngine_TimestampUsesLocation(t *testing.T) {
	e := NewEngine(FixedClock(fixedTime), time.FixedZone("WIB", 7*3600))
	assert.Equal(t, "2024-03-05 21:30:15", e.timestamp())
}

func TestNewEngineDefaults(t *testing.T) {
	e := NewEngine(nil, nil)
	assert.IsType(t, SystemClock{}, e.clock)
	assert.Equal(t, time.UTC, e.loc)
}

func TestColumnWidth(t *testing.T) {
	assert.Equal(t, 10.0, columnWidth(3))
	assert.Equal(t, 14.0, columnWidth(12))
	assert.Equal(t, 60.0, columnWidth(200))
}
