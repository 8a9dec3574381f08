// =============================================================================
// Order Reports - CSV Reader
// =============================================================================
//
// Reads order exports row by row. Handles:
//   - Different delimiters (comma, pipe, tab, semicolon)
//   - Multi-row headers, joined per column
//   - Metadata rows between the header and the data
//   - Ragged rows and lazy quotes
//
// =============================================================================

package source

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ginjaninja78/order-reports/internal/config"
)

// Row is one raw data row keyed by header.
type Row struct {
	// Number is the 1-based line number in the source.
	Number int
	Values map[string]string
}

// StreamingParser reads a CSV source one row at a time.
type StreamingParser struct {
	closer    io.Closer
	reader    *csv.Reader
	headers   []string
	current   Row
	rowNumber int
	err       error
	settings  config.CSVSettings
}

// OpenCSV opens a CSV file for streaming.
func OpenCSV(filePath string, settings config.CSVSettings) (*StreamingParser, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	parser, err := NewStreamingParser(file, settings)
	if err != nil {
		file.Close()
		return nil, err
	}
	parser.closer = file
	return parser, nil
}

// NewStreamingParser reads the header rows from r and positions the parser
// at the first data row.
func NewStreamingParser(r io.Reader, settings config.CSVSettings) (*StreamingParser, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	configureReader(reader, settings)

	parser := &StreamingParser{
		reader:   reader,
		settings: settings,
	}

	if err := parser.readHeaders(); err != nil {
		return nil, err
	}

	if err := parser.skipToDataStart(); err != nil {
		return nil, err
	}

	return parser, nil
}

func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	reader.Comma = delimiter(settings.Delimiter)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

// delimiter resolves a configured delimiter name or character.
func delimiter(name string) rune {
	switch strings.ToLower(name) {
	case "", ",", "comma":
		return ','
	case "\\t", "\t", "tab":
		return '\t'
	case "|", "pipe":
		return '|'
	case ";", "semicolon":
		return ';'
	}
	r, _ := utf8.DecodeRuneInString(name)
	return r
}

func (p *StreamingParser) readHeaders() error {
	headerRows := make([][]string, 0, p.settings.HeaderRows)

	for i := 0; i < p.settings.HeaderRows; i++ {
		row, err := p.reader.Read()
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("CSV file is empty or has fewer rows than header_rows")
		}
		if err != nil {
			return fmt.Errorf("error reading header row %d: %w", i+1, err)
		}
		headerRows = append(headerRows, row)
		p.rowNumber++
	}

	p.headers = mergeHeaders(headerRows)
	return nil
}

func (p *StreamingParser) skipToDataStart() error {
	target := p.settings.DataStartRow
	if target <= 0 {
		target = p.settings.HeaderRows + 1
	}

	for p.rowNumber < target-1 {
		_, err := p.reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error skipping to data start: %w", err)
		}
		p.rowNumber++
	}

	return nil
}

// Next advances to the next non-empty row.
func (p *StreamingParser) Next() bool {
	for p.err == nil {
		record, err := p.reader.Read()
		if errors.Is(err, io.EOF) {
			return false
		}
		if err != nil {
			p.err = fmt.Errorf("error reading row %d: %w", p.rowNumber+1, err)
			return false
		}
		p.rowNumber++

		if isRowEmpty(record) {
			continue
		}

		p.current = Row{Number: p.rowNumber, Values: zipRow(p.headers, record)}
		return true
	}
	return false
}

// Row returns the current row.
func (p *StreamingParser) Row() Row { return p.current }

// Headers returns the merged header names.
func (p *StreamingParser) Headers() []string { return p.headers }

// Err returns the first read error.
func (p *StreamingParser) Err() error { return p.err }

// Close closes the underlying file, if the parser opened one.
func (p *StreamingParser) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

// =============================================================================
// HELPERS
// =============================================================================

// mergeHeaders joins multi-row headers per column and names blank columns.
func mergeHeaders(rows [][]string) []string {
	maxCols := 0
	for _, row := range rows {
		if len(row) > maxCols {
			maxCols = len(row)
		}
	}

	headers := make([]string, maxCols)
	for col := 0; col < maxCols; col++ {
		var parts []string
		for _, row := range rows {
			if col < len(row) {
				if value := strings.TrimSpace(strings.TrimPrefix(row[col], "\ufeff")); value != "" {
					parts = append(parts, value)
				}
			}
		}
		header := strings.Join(parts, " ")
		if header == "" {
			header = fmt.Sprintf("Column_%d", col+1)
		}
		headers[col] = header
	}
	return headers
}

func zipRow(headers, record []string) map[string]string {
	values := make(map[string]string, len(headers))
	for i, header := range headers {
		if i < len(record) {
			values[header] = strings.TrimSpace(record[i])
		} else {
			values[header] = ""
		}
	}
	return values
}

func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
