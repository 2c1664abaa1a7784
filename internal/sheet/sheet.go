package sheet

import (
	"errors"
	"strings"
)

// ErrEmptySheet is returned when the sheet text is blank after trimming
var ErrEmptySheet = errors.New("sheet is empty")

// Row is one data line of the sheet keyed by normalized header name.
// A key is absent when the line had fewer fields than the header.
type Row map[string]string

// Get returns the value for name, or "" when the field is missing
func (r Row) Get(name string) string {
	return r[name]
}

// Lookup returns the value for name and whether the line carried it
func (r Row) Lookup(name string) (string, bool) {
	v, ok := r[name]
	return v, ok
}

// NormalizeHeader lowercases a header cell and replaces spaces with underscores
func NormalizeHeader(h string) string {
	return strings.ReplaceAll(strings.ToLower(h), " ", "_")
}

// ParseLine splits a single CSV line into trimmed fields.
//
// Quotes toggle a quoted section in which commas do not split. Doubled
// quotes inside a quoted field are not unescaped: `"a""b"` yields `ab`.
// Published spreadsheet exports rarely emit them, so the parser stays lenient.
func ParseLine(line string) []string {
	var result []string
	var current strings.Builder
	inQuotes := false

	for _, c := range line {
		switch {
		case c == '"':
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			result = append(result, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(c)
		}
	}
	result = append(result, strings.TrimSpace(current.String()))

	return result
}

// Header returns the normalized header tokens of the sheet text
func Header(text string) ([]string, error) {
	lines := splitLines(text)
	if lines == nil {
		return nil, ErrEmptySheet
	}
	return parseHeader(lines[0]), nil
}

// Parse turns sheet text into rows. The first line is the header; every
// following line is zipped against it by position.
func Parse(text string) ([]Row, error) {
	lines := splitLines(text)
	if lines == nil {
		return nil, ErrEmptySheet
	}

	headers := parseHeader(lines[0])
	rows := make([]Row, 0, len(lines)-1)

	for _, line := range lines[1:] {
		values := ParseLine(line)
		row := make(Row, len(headers))
		for i, h := range headers {
			if i < len(values) {
				row[h] = values[i]
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func parseHeader(line string) []string {
	headers := ParseLine(line)
	for i, h := range headers {
		headers[i] = NormalizeHeader(h)
	}
	return headers
}

func splitLines(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
