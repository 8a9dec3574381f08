package source

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/order-reports/internal/config"
)

// ReadXLSX reads every data row of a workbook sheet. An empty sheet name
// selects the first sheet. Header and data start rows follow the profile's
// CSV settings.
func ReadXLSX(filePath, sheet string, settings config.CSVSettings) ([]string, []Row, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
		if sheet == "" {
			return nil, nil, fmt.Errorf("workbook has no sheets")
		}
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, nil, fmt.Errorf("sheet %q not found", sheet)
	}

	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rows: %w", err)
	}

	if len(records) < settings.HeaderRows {
		return nil, nil, fmt.Errorf("sheet %q has fewer rows than header_rows", sheet)
	}

	headers := mergeHeaders(records[:settings.HeaderRows])

	start := settings.DataStartRow - 1
	if start < settings.HeaderRows {
		start = settings.HeaderRows
	}

	var rows []Row
	for i := start; i < len(records); i++ {
		if isRowEmpty(records[i]) {
			continue
		}
		rows = append(rows, Row{Number: i + 1, Values: zipRow(headers, records[i])})
	}

	return headers, rows, nil
}
