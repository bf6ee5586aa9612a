package ingest

import (
	"math"
	"strconv"

	"github.com/noah-isme/result-portal-api/internal/models"
)

// DefaultPassingPercentage is the share of the maximum achievable total a
// student must reach to pass, assuming each subject is scored out of 100.
const DefaultPassingPercentage = 40.0

// parseMark is the single numeric-mark predicate shared by row validation
// and extraction, so the two stages cannot drift apart.
func parseMark(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ExtractMarks pulls subject marks out of a row. Identity columns are
// excluded, keys keep the header's original casing, and values that do not
// parse are dropped silently; ValidateRow has already flagged them. Callers
// must validate the row first: extraction assumes validation preceded it.
func ExtractMarks(row Row) models.SubjectMarks {
	marks := make(models.SubjectMarks)
	for _, column := range subjectColumns(row) {
		value := row.Get(column)
		if value == "" {
			continue
		}
		if mark, ok := parseMark(value); ok {
			marks[column] = mark
		}
	}
	return marks
}

// PassingThreshold computes the minimum passing total for the given subject
// count, with each subject assumed out of 100.
func PassingThreshold(subjectCount int, passingPercentage float64) float64 {
	return float64(subjectCount) * 100 * passingPercentage / 100
}

// Score sums the marks and determines pass/fail against the percentage
// threshold. Zero subjects is a Fail; an empty threshold is not a free pass.
func Score(marks models.SubjectMarks, passingPercentage float64) (float64, models.ResultStatus) {
	total := 0.0
	for _, mark := range marks {
		total += mark
	}

	if len(marks) == 0 {
		return total, models.ResultStatusFail
	}

	if total >= PassingThreshold(len(marks), passingPercentage) {
		return total, models.ResultStatusPass
	}
	return total, models.ResultStatusFail
}
