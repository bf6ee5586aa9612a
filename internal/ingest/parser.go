// Package ingest implements the result upload pipeline: parsing tabular
// uploads, validating rows, extracting subject marks and scoring them.
package ingest

import (
	"fmt"
	"strings"

	appErrors "github.com/noah-isme/result-portal-api/pkg/errors"
)

// Row is one parsed data line of an upload. Column names are matched
// case-insensitively; Columns preserves the header's original casing and
// order. Line is the 1-based position of the line in the uploaded file.
type Row struct {
	Line    int
	columns []string
	values  map[string]string
}

// Columns returns the header names in file order with their original casing.
func (r Row) Columns() []string {
	return r.columns
}

// Get returns the trimmed value for a column, matched case-insensitively.
func (r Row) Get(column string) string {
	return r.values[strings.ToLower(strings.TrimSpace(column))]
}

// Has reports whether the row carries the given column.
func (r Row) Has(column string) bool {
	_, ok := r.values[strings.ToLower(strings.TrimSpace(column))]
	return ok
}

// LineError reports a data line the scanner could not parse. The surrounding
// batch keeps processing; the failed line becomes a report entry.
type LineError struct {
	Line int
	Err  error
}

// Parse turns raw upload text into ordered rows. The first non-blank line is
// the header; every following non-blank line is mapped onto it by position.
// Values and header names are trimmed. Lines whose every value is empty are
// skipped without disturbing line numbering, so report entries always match
// the uploaded file.
func Parse(text string) ([]Row, []LineError, error) {
	type numberedLine struct {
		number int
		text   string
	}

	raw := strings.Split(text, "\n")
	kept := make([]numberedLine, 0, len(raw))
	for i, line := range raw {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		kept = append(kept, numberedLine{number: i + 1, text: line})
	}

	if len(kept) < 2 {
		return nil, nil, appErrors.ErrEmptyUpload
	}

	headerFields, err := scanLine(kept[0].text)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrRowParse.Code, appErrors.ErrRowParse.Status,
			fmt.Sprintf("malformed header on line %d", kept[0].number))
	}
	if len(headerFields) == 0 {
		return nil, nil, appErrors.ErrMissingHeader
	}
	columns := make([]string, len(headerFields))
	for i, name := range headerFields {
		columns[i] = strings.TrimSpace(name)
	}

	rows := make([]Row, 0, len(kept)-1)
	var lineErrors []LineError
	for _, line := range kept[1:] {
		fields, err := scanLine(line.text)
		if err != nil {
			lineErrors = append(lineErrors, LineError{Line: line.number, Err: err})
			continue
		}

		values := make(map[string]string, len(columns))
		empty := true
		for i, column := range columns {
			value := ""
			if i < len(fields) {
				value = strings.TrimSpace(fields[i])
			}
			if value != "" {
				empty = false
			}
			values[strings.ToLower(column)] = value
		}
		if empty {
			continue
		}

		rows = append(rows, Row{Line: line.number, columns: columns, values: values})
	}

	return rows, lineErrors, nil
}

// scanLine splits one CSV line into fields. A double quote toggles quoted
// state, a doubled quote inside a quoted field emits one literal quote, and a
// comma separates fields only outside quotes. The grammar cannot currently
// fail; the error return is reserved for stricter dialects.
func scanLine(line string) ([]string, error) {
	var fields []string
	var current strings.Builder

	insideQuotes := false
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"':
			if insideQuotes && i+1 < len(line) && line[i+1] == '"' {
				current.WriteByte('"')
				i++
			} else {
				insideQuotes = !insideQuotes
			}
		case ch == ',' && !insideQuotes:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteByte(ch)
		}
	}
	fields = append(fields, current.String())

	return fields, nil
}
