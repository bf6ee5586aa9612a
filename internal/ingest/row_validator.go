package ingest

import (
	"fmt"
	"regexp"
	"strings"
)

// requiredColumns must be present and non-empty on every data row, matched
// case-insensitively.
var requiredColumns = []string{"StudentID", "Name", "Email", "Course", "Semester"}

// identityColumns are the meta columns excluded from subject mark handling.
var identityColumns = map[string]struct{}{
	"studentid": {},
	"name":      {},
	"email":     {},
	"course":    {},
	"semester":  {},
}

// emailPattern is a pragmatic shape check, not full RFC validation.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateRow checks a single row for required fields, email shape and
// numeric mark sanity. All problems accumulate; the row is valid when the
// returned slice is empty. Range capping happens later in ValidateRecord.
func ValidateRow(row Row) []string {
	var errs []string

	for _, field := range requiredColumns {
		if row.Get(field) == "" {
			errs = append(errs, "Missing or empty field: "+field)
		}
	}

	if email := row.Get("Email"); email != "" && !emailPattern.MatchString(email) {
		errs = append(errs, "Invalid email format")
	}

	subjects := subjectColumns(row)
	if len(subjects) == 0 {
		errs = append(errs, "No subject marks found")
	}

	for _, column := range subjects {
		value := row.Get(column)
		if value == "" {
			continue
		}
		if mark, ok := parseMark(value); !ok || mark < 0 {
			errs = append(errs, fmt.Sprintf("Invalid mark for %s: must be a non-negative number", column))
		}
	}

	return errs
}

// subjectColumns returns every row column outside the identity set, keeping
// the header's original casing and order.
func subjectColumns(row Row) []string {
	var subjects []string
	for _, column := range row.Columns() {
		if _, excluded := identityColumns[strings.ToLower(column)]; excluded {
			continue
		}
		subjects = append(subjects, column)
	}
	return subjects
}
