package validator

import (
	"fmt"
	"strings"

	"github.com/arcanaland/cardwall/internal/card"
	"github.com/arcanaland/cardwall/internal/sheet"
)

// RecognizedColumns are the header names the card builder reads
var RecognizedColumns = []string{"name", "country", "age", "interest", "photo", "net_worth"}

type ValidationResults struct {
	Errors   []string
	Warnings []string
}

type Validator struct {
	Source  string
	Text    string
	Results ValidationResults

	header []string
	lines  []string
}

func NewValidator(source, text string) *Validator {
	return &Validator{
		Source:  source,
		Text:    text,
		Results: ValidationResults{},
	}
}

// Validate checks the sheet text. The returned error is set only when the
// sheet cannot be read at all; everything else lands in the results.
func (v *Validator) Validate() (ValidationResults, error) {
	header, err := sheet.Header(v.Text)
	if err != nil {
		return v.Results, fmt.Errorf("sheet %s: %w", v.Source, err)
	}
	v.header = header
	v.lines = strings.Split(strings.TrimSpace(v.Text), "\n")

	v.validateHeader()
	v.validateRows()
	v.validateNetWorth()
	v.validatePhotos()

	return v.Results, nil
}

func (v *Validator) errorf(format string, args ...any) {
	v.Results.Errors = append(v.Results.Errors, fmt.Sprintf(format, args...))
}

func (v *Validator) warnf(format string, args ...any) {
	v.Results.Warnings = append(v.Results.Warnings, fmt.Sprintf(format, args...))
}

// validateHeader checks for blank, duplicate and missing columns
func (v *Validator) validateHeader() {
	seen := make(map[string]int)
	for i, h := range v.header {
		if h == "" {
			v.errorf("column %d has an empty header", i+1)
			continue
		}
		if first, ok := seen[h]; ok {
			v.errorf("column %d duplicates header %q from column %d; the later value wins", i+1, h, first+1)
			continue
		}
		seen[h] = i
	}

	for _, col := range RecognizedColumns {
		if _, ok := seen[col]; !ok {
			v.warnf("column %q not found; cards will show it empty", col)
		}
	}

	if len(v.lines) == 1 {
		v.warnf("sheet has a header but no rows")
	}
}

// validateRows checks the shape of every data line
func (v *Validator) validateRows() {
	for i, line := range v.lines[1:] {
		lineNo := i + 2

		if strings.TrimSpace(line) == "" {
			v.warnf("line %d is blank and produces an empty card", lineNo)
			continue
		}

		fields := sheet.ParseLine(line)
		switch {
		case len(fields) < len(v.header):
			v.warnf("line %d has %d fields, header has %d; trailing fields are empty", lineNo, len(fields), len(v.header))
		case len(fields) > len(v.header):
			v.warnf("line %d has %d fields, header has %d; extra fields are dropped", lineNo, len(fields), len(v.header))
		}

		if strings.Count(line, `"`)%2 != 0 {
			v.errorf("line %d has an unbalanced quote; fields after it are merged", lineNo)
		} else if hasDoubledQuote(line) {
			v.warnf("line %d contains doubled quotes, which are read as plain text", lineNo)
		}
	}
}

// validateNetWorth flags values that silently count as zero
func (v *Validator) validateNetWorth() {
	rows, err := sheet.Parse(v.Text)
	if err != nil {
		return
	}
	for i, row := range rows {
		raw, ok := row.Lookup("net_worth")
		if !ok || raw == "" {
			continue
		}
		if _, ok := card.LookupNetWorth(raw); !ok {
			v.warnf("line %d: net worth %q is not a number and counts as 0", i+2, raw)
		}
	}
}

// validatePhotos checks photo fields look like URLs
func (v *Validator) validatePhotos() {
	rows, err := sheet.Parse(v.Text)
	if err != nil {
		return
	}
	for i, row := range rows {
		photo := row.Get("photo")
		if photo != "" && !sheet.IsRemote(photo) {
			v.warnf("line %d: photo %q is not an http(s) URL", i+2, photo)
		}
	}
}

// hasDoubledQuote reports a "" pair that is not an empty quoted field.
// It walks quotes the same way the sheet parser toggles them.
func hasDoubledQuote(line string) bool {
	inQuotes := false
	fieldStart := true
	for i := 0; i < len(line); i++ {
		switch c := line[i]; {
		case c == '"' && i+1 < len(line) && line[i+1] == '"':
			rest := strings.TrimLeft(line[i+2:], " \t")
			if inQuotes || !fieldStart || (rest != "" && rest[0] != ',') {
				return true
			}
			// empty quoted field
			i++
			fieldStart = false
		case c == '"':
			inQuotes = !inQuotes
			fieldStart = false
		case c == ',' && !inQuotes:
			fieldStart = true
		case c == ' ' || c == '\t':
		default:
			fieldStart = false
		}
	}
	return false
}
