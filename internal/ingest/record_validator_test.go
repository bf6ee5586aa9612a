package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/result-portal-api/internal/models"
)

func validRecord() *models.ResultRecord {
	return &models.ResultRecord{
		StudentUID:   "uid-1",
		StudentID:    "S001",
		StudentName:  "John Doe",
		Course:       "CS",
		Semester:     "Fall 2024",
		SubjectMarks: models.SubjectMarks{"Math": 85, "Physics": 90},
		TotalMarks:   175,
		ResultStatus: models.ResultStatusPass,
	}
}

func TestValidateRecordAccepts(t *testing.T) {
	assert.Empty(t, ValidateRecord(validRecord()))
}

func TestValidateRecordRequiredFields(t *testing.T) {
	rec := validRecord()
	rec.StudentUID = ""
	rec.Course = "  "

	errs := ValidateRecord(rec)
	require.Len(t, errs, 2)
	assert.Contains(t, errs, "Missing required field: studentUID")
	assert.Contains(t, errs, "Missing required field: course")
}

func TestValidateRecordRequiresMarks(t *testing.T) {
	rec := validRecord()
	rec.SubjectMarks = nil
	assert.Contains(t, ValidateRecord(rec), "Missing required field: subjectMarks")

	rec.SubjectMarks = models.SubjectMarks{}
	assert.Contains(t, ValidateRecord(rec), "subjectMarks must contain at least one subject")
}

func TestValidateRecordMarkBoundaries(t *testing.T) {
	rec := validRecord()
	rec.SubjectMarks = models.SubjectMarks{"Math": 0, "Physics": 100}
	rec.TotalMarks = 100
	assert.Empty(t, ValidateRecord(rec))

	rec.SubjectMarks = models.SubjectMarks{"Math": 100.0001}
	rec.TotalMarks = 100.0001
	errs := ValidateRecord(rec)
	require.Len(t, errs, 1)
	assert.Equal(t, "Invalid mark for Math: must not exceed 100", errs[0])

	rec.SubjectMarks = models.SubjectMarks{"Math": -0.0001}
	rec.TotalMarks = 0
	errs = ValidateRecord(rec)
	require.Len(t, errs, 1)
	assert.Equal(t, "Invalid mark for Math: must be non-negative", errs[0])
}

func TestValidateRecordNamesEachBadSubject(t *testing.T) {
	rec := validRecord()
	rec.SubjectMarks = models.SubjectMarks{"Chemistry": 120, "Biology": -3}
	rec.TotalMarks = 117

	errs := ValidateRecord(rec)
	require.Len(t, errs, 2)
	assert.Equal(t, "Invalid mark for Biology: must be non-negative", errs[0])
	assert.Equal(t, "Invalid mark for Chemistry: must not exceed 100", errs[1])
}

func TestValidateRecordTotalMarks(t *testing.T) {
	rec := validRecord()
	rec.TotalMarks = -1
	assert.Contains(t, ValidateRecord(rec), "totalMarks must be a non-negative number")
}

func TestValidateRecordStatus(t *testing.T) {
	rec := validRecord()
	rec.ResultStatus = "Passed"
	assert.Contains(t, ValidateRecord(rec), `resultStatus must be either "Pass" or "Fail"`)

	rec.ResultStatus = models.ResultStatusFail
	assert.Empty(t, ValidateRecord(rec))

	// absent status is tolerated; the coordinator always sets one
	rec.ResultStatus = ""
	assert.Empty(t, ValidateRecord(rec))
}
