package render

import (
	"bytes"
	"encoding/csv"
	"encoding/xml"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/order-reports/internal/grouper"
	"github.com/ginjaninja78/order-reports/internal/reports"
)

func sampleReport() *reports.Report {
	def := &reports.Definition{
		Name:   "supplier_totals",
		Title:  "Supplier Totals",
		Header: []string{"Producer", "Product", "Quantity", "Total"},
	}
	return &reports.Report{
		Definition: def,
		Header:     def.Header,
		Table: &grouper.Table{Rows: []grouper.Row{
			{Cells: []grouper.Cell{"Green, Farm", "Apples", decimal.NewFromInt(2), decimal.RequireFromString("7.00")}, Level: 1},
			{Cells: []grouper.Cell{`Say "cheese"`, "<Brie>", decimal.NewFromInt(1), "$4.50"}, Level: 1},
			{Cells: []grouper.Cell{"TOTAL", nil, decimal.NewFromInt(3), decimal.RequireFromString("11.50")}, Summary: true, Level: 0},
		}},
	}
}

func TestParseFormat(t *testing.T) {
	for name, want := range map[string]Format{
		"csv": FormatCSV, "HTML": FormatHTML, "htm": FormatHTML,
		"xlsx": FormatXLSX, " xml ": FormatXML, "txt": FormatText, "text": FormatText,
	} {
		got, err := ParseFormat(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseFormat("pdf")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestExtensionAndContentType(t *testing.T) {
	assert.Equal(t, ".csv", Extension(FormatCSV))
	assert.Equal(t, ".txt", Extension(FormatText))
	assert.Equal(t, ".xlsx", Extension(FormatXLSX))
	assert.Equal(t, "text/csv; charset=utf-8", ContentType(FormatCSV))
	assert.Contains(t, ContentType(FormatXLSX), "spreadsheetml")
}

func TestFormatCell(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{decimal.RequireFromString("7.00"), "7.00"},
		{decimal.RequireFromString("7.5").Round(2), "7.50"},
		{decimal.NewFromInt(12), "12"},
		{decimal.New(12, 2), "1200"},
		{42, "42"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCell(tt.in), "%#v", tt.in)
	}
}

func TestRenderCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatCSV, sampleReport()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)

	want := [][]string{
		{"Producer", "Product", "Quantity", "Total"},
		{"Green, Farm", "Apples", "2", "7.00"},
		{`Say "cheese"`, "<Brie>", "1", "$4.50"},
		{"TOTAL", "", "3", "11.50"},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("csv mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderCSV_Quoting(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatCSV, sampleReport()))

	lines := strings.Split(buf.String(), "\n")
	assert.Equal(t, `"Green, Farm",Apples,2,7.00`, lines[1])
	assert.Equal(t, `"Say ""cheese""",<Brie>,1,$4.50`, lines[2])
}

func TestRenderHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatHTML, sampleReport()))
	out := buf.String()

	assert.Contains(t, out, "<title>Supplier Totals</title>")
	assert.Contains(t, out, "<th>Producer</th>")
	assert.Contains(t, out, "&lt;Brie&gt;")
	assert.NotContains(t, out, "<Brie>")
	assert.Contains(t, out, `<tr class="summary level-0"><td>TOTAL</td>`)
	assert.Equal(t, 1, strings.Count(out, `class="summary`))
}

func TestRenderXML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatXML, sampleReport()))
	assert.True(t, strings.HasPrefix(buf.String(), "<?xml"))

	var doc xmlReport
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "supplier_totals", doc.Name)
	require.Len(t, doc.Columns, 4)
	assert.Equal(t, "Quantity", doc.Columns[2].Name)
	require.Len(t, doc.Rows, 3)
	assert.Equal(t, "<Brie>", doc.Rows[1].Cells[1].Value)
	assert.False(t, doc.Rows[1].Summary)
	assert.True(t, doc.Rows[2].Summary)
	assert.Equal(t, "0", doc.Rows[2].Level)
}

func TestRenderXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatXLSX, sampleReport()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, "supplier_totals", f.GetSheetName(0))

	header, err := f.GetCellValue("supplier_totals", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Producer", header)

	cellType, err := f.GetCellType("supplier_totals", "C2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, cellType, "quantities are numeric")

	total, err := f.GetCellValue("supplier_totals", "D4")
	require.NoError(t, err)
	assert.Equal(t, "11.5", total)

	styleID, err := f.GetCellStyle("supplier_totals", "A4")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold, "summary rows are bold")
}

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatText, sampleReport()))
	out := buf.String()

	assert.Contains(t, out, "Supplier Totals")
	assert.Contains(t, out, "Producer")
	assert.Contains(t, out, "Green, Farm")
	assert.Contains(t, out, "TOTAL")
	assert.Contains(t, out, "11.50")
}

func TestRender_Errors(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, Render(&buf, Format("pdf"), sampleReport()), ErrUnknownFormat)
	assert.Error(t, Render(&buf, FormatCSV, nil))
}

func TestRender_EmptyTable(t *testing.T) {
	report := sampleReport()
	report.Table = &grouper.Table{}

	for _, f := range Formats {
		var buf bytes.Buffer
		require.NoError(t, Render(&buf, f, report), f)
		assert.NotZero(t, buf.Len(), f)
	}
}
