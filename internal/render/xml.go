package render

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/ginjaninja78/order-reports/internal/reports"
)

// XMLOptions controls XML output.
type XMLOptions struct {
	// Indent is the indentation string. Default: two spaces
	Indent string

	// IncludeXMLDeclaration adds <?xml ...?> at the top.
	// Default: true
	IncludeXMLDeclaration bool
}

// DefaultXMLOptions returns the default XML options.
func DefaultXMLOptions() XMLOptions {
	return XMLOptions{
		Indent:                "  ",
		IncludeXMLDeclaration: true,
	}
}

// xmlReport is the document root:
//
//	<report name="supplier_totals" title="...">
//	  <columns><column n="1">Producer</column>...</columns>
//	  <row n="1"><cell n="1">Green Farm</cell>...</row>
//	  <row n="4" summary="true" level="0">...</row>
//	</report>
type xmlReport struct {
	XMLName xml.Name    `xml:"report"`
	Name    string      `xml:"name,attr"`
	Title   string      `xml:"title,attr"`
	Columns []xmlColumn `xml:"columns>column"`
	Rows    []xmlRow    `xml:"row"`
}

type xmlColumn struct {
	N    int    `xml:"n,attr"`
	Name string `xml:",chardata"`
}

type xmlRow struct {
	N       int       `xml:"n,attr"`
	Summary bool      `xml:"summary,attr,omitempty"`
	Level   string    `xml:"level,attr,omitempty"`
	Cells   []xmlCell `xml:"cell"`
}

type xmlCell struct {
	N     int    `xml:"n,attr"`
	Value string `xml:",chardata"`
}

func writeXML(w io.Writer, report *reports.Report, options XMLOptions) error {
	doc := xmlReport{
		Name:    name(report),
		Title:   title(report),
		Columns: make([]xmlColumn, len(report.Header)),
		Rows:    make([]xmlRow, 0, report.Table.Len()),
	}
	for i, h := range report.Header {
		doc.Columns[i] = xmlColumn{N: i + 1, Name: h}
	}

	text := rows(report)
	for i, row := range report.Table.Rows {
		r := xmlRow{N: i + 1, Summary: row.Summary, Cells: make([]xmlCell, len(text[i]))}
		if row.Summary {
			r.Level = strconv.Itoa(row.Level)
		}
		for j, value := range text[i] {
			r.Cells[j] = xmlCell{N: j + 1, Value: value}
		}
		doc.Rows = append(doc.Rows, r)
	}

	if options.IncludeXMLDeclaration {
		if _, err := io.WriteString(w, xml.Header); err != nil {
			return err
		}
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", options.Indent)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to marshal XML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
