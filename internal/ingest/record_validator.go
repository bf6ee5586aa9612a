package ingest

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/noah-isme/result-portal-api/internal/models"
)

// ValidateRecord is the final structural gate before persistence. It rejects
// records the upstream stages are not expected to produce, guarding against
// drift between extraction and storage. The record is valid when the
// returned slice is empty.
func ValidateRecord(rec *models.ResultRecord) []string {
	var errs []string

	required := []struct {
		name  string
		value string
	}{
		{"studentUID", rec.StudentUID},
		{"studentId", rec.StudentID},
		{"studentName", rec.StudentName},
		{"course", rec.Course},
		{"semester", rec.Semester},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			errs = append(errs, "Missing required field: "+field.name)
		}
	}

	if rec.SubjectMarks == nil {
		errs = append(errs, "Missing required field: subjectMarks")
	} else if len(rec.SubjectMarks) == 0 {
		errs = append(errs, "subjectMarks must contain at least one subject")
	} else {
		for _, subject := range sortedSubjects(rec.SubjectMarks) {
			mark := rec.SubjectMarks[subject]
			switch {
			case math.IsNaN(mark):
				errs = append(errs, fmt.Sprintf("Invalid mark for %s: must be a number", subject))
			case mark < 0:
				errs = append(errs, fmt.Sprintf("Invalid mark for %s: must be non-negative", subject))
			case mark > 100:
				errs = append(errs, fmt.Sprintf("Invalid mark for %s: must not exceed 100", subject))
			}
		}
	}

	if math.IsNaN(rec.TotalMarks) || rec.TotalMarks < 0 {
		errs = append(errs, "totalMarks must be a non-negative number")
	}

	if rec.ResultStatus != "" && rec.ResultStatus != models.ResultStatusPass && rec.ResultStatus != models.ResultStatusFail {
		errs = append(errs, `resultStatus must be either "Pass" or "Fail"`)
	}

	return errs
}

// sortedSubjects keeps mark error ordering deterministic.
func sortedSubjects(marks models.SubjectMarks) []string {
	subjects := make([]string, 0, len(marks))
	for subject := range marks {
		subjects = append(subjects, subject)
	}
	sort.Strings(subjects)
	return subjects
}
