package render

import (
	"html/template"
	"io"

	"github.com/ginjaninja78/order-reports/internal/reports"
)

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<table class="report" data-report="{{.Name}}">
<thead>
<tr>{{range .Header}}<th>{{.}}</th>{{end}}</tr>
</thead>
<tbody>
{{- range .Rows}}
<tr{{if .Summary}} class="summary level-{{.Level}}"{{end}}>{{range .Cells}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
</tbody>
</table>
</body>
</html>
`))

type htmlRow struct {
	Cells   []string
	Summary bool
	Level   int
}

func writeHTML(w io.Writer, report *reports.Report) error {
	text := rows(report)
	data := struct {
		Title  string
		Name   string
		Header []string
		Rows   []htmlRow
	}{
		Title:  title(report),
		Name:   name(report),
		Header: report.Header,
		Rows:   make([]htmlRow, len(text)),
	}
	for i, row := range report.Table.Rows {
		data.Rows[i] = htmlRow{Cells: text[i], Summary: row.Summary, Level: row.Level}
	}
	return htmlTemplate.Execute(w, data)
}
