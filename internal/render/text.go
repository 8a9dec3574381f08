package render

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/ginjaninja78/order-reports/internal/reports"
)

var (
	textHeaderStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	textCellStyle    = lipgloss.NewStyle().Padding(0, 1)
	textSummaryStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
)

func writeText(w io.Writer, report *reports.Report) error {
	summary := make([]bool, report.Table.Len())
	for i, row := range report.Table.Rows {
		summary[i] = row.Summary
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(report.Header...).
		Rows(rows(report)...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return textHeaderStyle
			case row >= 0 && row < len(summary) && summary[row]:
				return textSummaryStyle
			default:
				return textCellStyle
			}
		})

	if _, err := io.WriteString(w, textHeaderStyle.Render(title(report))+"\n"); err != nil {
		return err
	}
	_, err := io.WriteString(w, t.String()+"\n")
	return err
}
