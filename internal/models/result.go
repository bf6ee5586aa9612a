package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ResultStatus is the pass/fail outcome of a result record.
type ResultStatus string

const (
	ResultStatusPass ResultStatus = "Pass"
	ResultStatusFail ResultStatus = "Fail"
)

// SubjectMarks maps a subject name, as written in the upload header, to the
// mark obtained. Persisted as a JSONB column.
type SubjectMarks map[string]float64

// Value implements driver.Valuer for JSONB storage.
func (m SubjectMarks) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB retrieval.
func (m *SubjectMarks) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported subject marks source type %T", src)
	}
}

// ResultRecord is the persisted academic result for one student, course and
// semester. At most one record exists per (student_uid, course, semester).
type ResultRecord struct {
	ID           string       `db:"id" json:"id"`
	StudentUID   string       `db:"student_uid" json:"student_uid"`
	StudentID    string       `db:"student_id" json:"student_id"`
	StudentName  string       `db:"student_name" json:"student_name"`
	Course       string       `db:"course" json:"course"`
	Semester     string       `db:"semester" json:"semester"`
	SubjectMarks SubjectMarks `db:"subject_marks" json:"subject_marks"`
	TotalMarks   float64      `db:"total_marks" json:"total_marks"`
	ResultStatus ResultStatus `db:"result_status" json:"result_status"`
	UploadedAt   time.Time    `db:"uploaded_at" json:"uploaded_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// ResultFilter encapsulates search parameters for listing result records.
type ResultFilter struct {
	StudentUID string
	Course     string
	Semester   string
	Page       int
	PageSize   int
}

// BatchReport summarises one upload: how many rows persisted, how many
// failed, and an ordered list of row-scoped error messages.
type BatchReport struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// RecordSuccess tallies a persisted row.
func (r *BatchReport) RecordSuccess() {
	r.Success++
}

// RecordFailure tallies a failed row keyed by its original line number.
func (r *BatchReport) RecordFailure(line int, message string) {
	r.Failed++
	r.Errors = append(r.Errors, fmt.Sprintf("Row %d: %s", line, message))
}
