// =============================================================================
// Order Reports - Output Formats
// =============================================================================
//
// Renders a built report (header plus grouped table) to one of the output
// formats. Rendering is stateless: every call writes a complete document
// and nothing is shared between calls.
//
// =============================================================================

package render

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/order-reports/internal/reports"
)

// Format identifies an output format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatHTML Format = "html"
	FormatXLSX Format = "xlsx"
	FormatXML  Format = "xml"
	FormatText Format = "text"
)

// Formats lists every supported format.
var Formats = []Format{FormatCSV, FormatHTML, FormatXLSX, FormatXML, FormatText}

// ErrUnknownFormat is returned for unsupported format names.
var ErrUnknownFormat = errors.New("render: unknown format")

// ParseFormat resolves a format name, case-insensitively. "txt" and "xls"
// are accepted as aliases.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "csv":
		return FormatCSV, nil
	case "html", "htm":
		return FormatHTML, nil
	case "xlsx", "xls":
		return FormatXLSX, nil
	case "xml":
		return FormatXML, nil
	case "text", "txt":
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// ContentType returns the MIME type for a format.
func ContentType(f Format) string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatXML:
		return "application/xml; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Extension returns the file extension for a format, with the dot.
func Extension(f Format) string {
	if f == FormatText {
		return ".txt"
	}
	return "." + string(f)
}

// MachineReadable reports whether a format is meant for further processing,
// in which case amounts should be raw decimals rather than currency text.
func MachineReadable(f Format) bool {
	switch f {
	case FormatCSV, FormatXLSX, FormatXML:
		return true
	}
	return false
}

// Render writes report to w in format.
func Render(w io.Writer, f Format, report *reports.Report) error {
	if report == nil {
		return errors.New("render: nil report")
	}

	var err error
	switch f {
	case FormatCSV:
		err = writeCSV(w, report)
	case FormatHTML:
		err = writeHTML(w, report)
	case FormatXLSX:
		err = writeXLSX(w, report)
	case FormatXML:
		err = writeXML(w, report, DefaultXMLOptions())
	case FormatText:
		err = writeText(w, report)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
	if err != nil {
		return fmt.Errorf("render %s: %w", f, err)
	}
	return nil
}

// FormatCell converts a cell to display text. Decimals keep their own
// number of places, so amounts rounded upstream print with trailing zeros.
func FormatCell(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case decimal.Decimal:
		return formatDecimal(v)
	case *decimal.Decimal:
		if v == nil {
			return ""
		}
		return formatDecimal(*v)
	case *big.Int:
		if v == nil {
			return ""
		}
		return v.String()
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.Format("2006-01-02 15:04")
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(cell)
}

func formatDecimal(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}

// rows converts a report table to display text.
func rows(report *reports.Report) [][]string {
	out := make([][]string, 0, report.Table.Len())
	for _, row := range report.Table.Rows {
		cells := make([]string, len(row.Cells))
		for i, cell := range row.Cells {
			cells[i] = FormatCell(cell)
		}
		out = append(out, cells)
	}
	return out
}

func title(report *reports.Report) string {
	if report.Definition != nil && report.Definition.Title != "" {
		return report.Definition.Title
	}
	if report.Definition != nil {
		return report.Definition.Name
	}
	return "Report"
}

func name(report *reports.Report) string {
	if report.Definition != nil && report.Definition.Name != "" {
		return report.Definition.Name
	}
	return "report"
}
