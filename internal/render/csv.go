package render

import (
	"encoding/csv"
	"io"

	"github.com/ginjaninja78/order-reports/internal/reports"
)

func writeCSV(w io.Writer, report *reports.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(report.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows(report)); err != nil {
		return err
	}
	return cw.Error()
}
