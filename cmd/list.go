package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/order-reports/internal/grouper"
	"github.com/ginjaninja78/order-reports/internal/render"
	"github.com/ginjaninja78/order-reports/internal/reports"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the available report types",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		defs := reports.Default().Definitions()

		// The catalogue is itself rendered as a report.
		table := &grouper.Table{}
		for _, def := range defs {
			table.Rows = append(table.Rows, grouper.Row{
				Cells: []grouper.Cell{def.Category, def.Name, def.Title, strings.Join(def.Header, ", ")},
			})
		}
		catalogue := &reports.Report{
			Definition: &reports.Definition{Name: "catalogue", Title: "Report Types"},
			Header:     []string{"Category", "Name", "Title", "Columns"},
			Table:      table,
		}
		return render.Render(cmd.OutOrStdout(), render.FormatText, catalogue)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
