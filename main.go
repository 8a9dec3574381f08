// Order Reports builds grouped, subtotalled reports from marketplace order
// exports.
//
// Layout:
//   - cmd/       : CLI commands (Cobra)
//   - internal/  : grouping engine, report catalogue, sources, store, output
//   - pkg/       : logging and file housekeeping
package main

import (
	"github.com/ginjaninja78/order-reports/cmd"
)

func main() {
	cmd.Execute()
}
