package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/result-portal-api/internal/models"
	appErrors "github.com/noah-isme/result-portal-api/pkg/errors"
)

type stubResultReader struct {
	records    []models.ResultRecord
	total      int
	err        error
	lastFilter models.ResultFilter
}

func (s *stubResultReader) List(_ context.Context, filter models.ResultFilter) ([]models.ResultRecord, int, error) {
	s.lastFilter = filter
	return s.records, s.total, s.err
}

func (s *stubResultReader) ListByStudent(_ context.Context, _ string) ([]models.ResultRecord, error) {
	return s.records, s.err
}

func sampleRecords() []models.ResultRecord {
	uploaded := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	return []models.ResultRecord{
		{
			StudentUID:   "uid-1",
			StudentID:    "S001",
			StudentName:  "John Doe",
			Course:       "BSc Computer Science",
			Semester:     "Semester 2",
			SubjectMarks: models.SubjectMarks{"Math": 85, "Physics": 90},
			TotalMarks:   175,
			ResultStatus: models.ResultStatusPass,
			UploadedAt:   uploaded,
		},
		{
			StudentUID:   "uid-1",
			StudentID:    "S001",
			StudentName:  "John Doe",
			Course:       "BSc Computer Science",
			Semester:     "Semester 1",
			SubjectMarks: models.SubjectMarks{"Math": 12, "Physics": 13},
			TotalMarks:   25,
			ResultStatus: models.ResultStatusFail,
			UploadedAt:   uploaded,
		},
	}
}

func TestResultServiceListNormalisesPagination(t *testing.T) {
	reader := &stubResultReader{records: sampleRecords(), total: 2}
	svc := NewResultService(reader, nil, zap.NewNop())

	records, pagination, err := svc.List(context.Background(), models.ResultFilter{Page: -1, PageSize: 5000})
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 2, pagination.TotalCount)
	assert.Equal(t, 1, reader.lastFilter.Page)
	assert.Equal(t, 20, reader.lastFilter.PageSize)
}

func TestResultServiceListStoreError(t *testing.T) {
	reader := &stubResultReader{err: errors.New("connection reset")}
	svc := NewResultService(reader, nil, zap.NewNop())

	_, _, err := svc.List(context.Background(), models.ResultFilter{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStore.Code, appErrors.FromError(err).Code)
}

func TestResultServiceTemplateCSV(t *testing.T) {
	svc := NewResultService(&stubResultReader{}, nil, zap.NewNop())

	payload, err := svc.TemplateCSV()
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "StudentID,Name,Email,Course,Semester,Math,Physics,Chemistry,English,Biology", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "S001,John Doe,john@example.com"))
	assert.True(t, strings.HasPrefix(lines[2], "S002,Jane Smith,jane@example.com"))
}

func TestResultServiceExportMarksheetCSV(t *testing.T) {
	svc := NewResultService(&stubResultReader{records: sampleRecords()}, nil, zap.NewNop())

	file, err := svc.ExportMarksheet(context.Background(), "uid-1", "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.True(t, strings.HasPrefix(file.Filename, "marksheet_S001_"))
	assert.True(t, strings.HasSuffix(file.Filename, ".csv"))

	content := string(file.Payload)
	assert.Contains(t, content, "Course,Semester,Subjects,Total Marks,Status,Uploaded At")
	assert.Contains(t, content, "Math: 85; Physics: 90")
	assert.Contains(t, content, "175.00")
	assert.Contains(t, content, "Pass")
}

func TestResultServiceExportMarksheetPDF(t *testing.T) {
	svc := NewResultService(&stubResultReader{records: sampleRecords()}, nil, zap.NewNop())

	file, err := svc.ExportMarksheet(context.Background(), "uid-1", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasSuffix(file.Filename, ".pdf"))
	assert.NotEmpty(t, file.Payload)
}

func TestResultServiceExportMarksheetNoResults(t *testing.T) {
	svc := NewResultService(&stubResultReader{}, nil, zap.NewNop())

	_, err := svc.ExportMarksheet(context.Background(), "uid-404", "csv")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestResultServiceExportMarksheetUnsupportedFormat(t *testing.T) {
	svc := NewResultService(&stubResultReader{records: sampleRecords()}, nil, zap.NewNop())

	_, err := svc.ExportMarksheet(context.Background(), "uid-1", "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
