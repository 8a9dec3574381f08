package render

import (
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/order-reports/internal/reports"
)

// sheetNameReplacer strips characters Excel forbids in sheet names.
var sheetNameReplacer = strings.NewReplacer(":", "", "\\", "", "/", "", "?", "", "*", "", "[", "", "]", "")

func writeXLSX(w io.Writer, report *reports.Report) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	sheet := sheetName(report)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := setRow(f, sheet, 1, toCells(report.Header)); err != nil {
		return err
	}
	if err := styleRow(f, sheet, 1, len(report.Header), bold); err != nil {
		return err
	}

	for i, row := range report.Table.Rows {
		excelRow := i + 2
		cells := make([]any, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = xlsxValue(cell)
		}
		if err := setRow(f, sheet, excelRow, cells); err != nil {
			return err
		}
		if row.Summary {
			if err := styleRow(f, sheet, excelRow, len(cells), bold); err != nil {
				return err
			}
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}

func sheetName(report *reports.Report) string {
	s := sheetNameReplacer.Replace(name(report))
	if len(s) > 31 {
		s = s[:31]
	}
	if s == "" {
		s = "Report"
	}
	return s
}

func setRow(f *excelize.File, sheet string, row int, cells []any) error {
	if len(cells) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &cells)
}

func styleRow(f *excelize.File, sheet string, row, width, style int) error {
	if width == 0 {
		return nil
	}
	first, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(width, row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, first, last, style)
}

func toCells(values []string) []any {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

// xlsxValue keeps numbers numeric so spreadsheets can sum them.
func xlsxValue(cell any) any {
	switch v := cell.(type) {
	case nil:
		return nil
	case decimal.Decimal:
		return v.InexactFloat64()
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, bool:
		return v
	}
	return FormatCell(cell)
}
