package service

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/result-portal-api/internal/models"
)

type stubResultStore struct {
	records  []*models.ResultRecord
	existing map[string]bool
	err      error
}

func (s *stubResultStore) Upsert(_ context.Context, record *models.ResultRecord) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	s.records = append(s.records, record)
	key := record.StudentUID + "|" + record.Course + "|" + record.Semester
	if s.existing == nil {
		s.existing = map[string]bool{}
	}
	inserted := !s.existing[key]
	s.existing[key] = true
	return inserted, nil
}

type stubResolver struct {
	uids map[string]string
	err  error
}

func (s *stubResolver) Resolve(_ context.Context, email, studentID string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if uid, ok := s.uids[email]; ok {
		return uid, nil
	}
	if uid, ok := s.uids[studentID]; ok {
		return uid, nil
	}
	return "", nil
}

func newIngestService(store *stubResultStore, resolver *stubResolver) *IngestService {
	return NewIngestService(store, resolver, validator.New(), nil, nil, zap.NewNop(), 40)
}

const uploadFixture = "StudentID,Name,Email,Course,Semester,Math,Physics\n" +
	"S001,John Doe,john@example.com,BSc,1,85,90\n" +
	"S002,Jane Smith,jane@example.com,BSc,1,10,15\n"

func TestProcessUploadStoresValidRows(t *testing.T) {
	store := &stubResultStore{}
	resolver := &stubResolver{uids: map[string]string{
		"john@example.com": "uid-1",
		"jane@example.com": "uid-2",
	}}
	svc := newIngestService(store, resolver)

	report, err := svc.ProcessUpload(context.Background(), uploadFixture, UploadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Success)
	assert.Zero(t, report.Failed)
	assert.Empty(t, report.Errors)

	require.Len(t, store.records, 2)
	first := store.records[0]
	assert.Equal(t, "uid-1", first.StudentUID)
	assert.Equal(t, "John Doe", first.StudentName)
	assert.Equal(t, models.SubjectMarks{"Math": 85, "Physics": 90}, first.SubjectMarks)
	assert.Equal(t, 175.0, first.TotalMarks)
	assert.Equal(t, models.ResultStatusPass, first.ResultStatus)

	second := store.records[1]
	assert.Equal(t, 25.0, second.TotalMarks)
	assert.Equal(t, models.ResultStatusFail, second.ResultStatus)
}

func TestProcessUploadCollectsRowValidationErrors(t *testing.T) {
	text := "StudentID,Name,Email,Course,Semester,Math\n" +
		"S001,,not-an-email,BSc,1,85\n"
	svc := newIngestService(&stubResultStore{}, &stubResolver{})

	report, err := svc.ProcessUpload(context.Background(), text, UploadOptions{})
	require.NoError(t, err)
	assert.Zero(t, report.Success)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "Row 2: Missing or empty field: Name, Invalid email format", report.Errors[0])
}

func TestProcessUploadUnresolvedIdentity(t *testing.T) {
	text := "StudentID,Name,Email,Course,Semester,Math\n" +
		"S404,Ghost,ghost@example.com,BSc,1,85\n"
	store := &stubResultStore{}
	svc := newIngestService(store, &stubResolver{})

	report, err := svc.ProcessUpload(context.Background(), text, UploadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "Row 2: Student not found: ghost@example.com", report.Errors[0])
	assert.Empty(t, store.records)
}

func TestProcessUploadStoreFailure(t *testing.T) {
	store := &stubResultStore{err: errors.New("connection reset")}
	resolver := &stubResolver{uids: map[string]string{"john@example.com": "uid-1"}}
	text := "StudentID,Name,Email,Course,Semester,Math\n" +
		"S001,John Doe,john@example.com,BSc,1,85\n"
	svc := newIngestService(store, resolver)

	report, err := svc.ProcessUpload(context.Background(), text, UploadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "Row 2: failed to save result", report.Errors[0])
}

func TestProcessUploadMixedRowsAreIndependent(t *testing.T) {
	text := "StudentID,Name,Email,Course,Semester,Math\n" +
		"S001,John Doe,john@example.com,BSc,1,85\n" +
		"S002,,jane@example.com,BSc,1,60\n" +
		"S003,Sam Lee,sam@example.com,BSc,1,70\n"
	store := &stubResultStore{}
	resolver := &stubResolver{uids: map[string]string{
		"john@example.com": "uid-1",
		"sam@example.com":  "uid-3",
	}}
	svc := newIngestService(store, resolver)

	report, err := svc.ProcessUpload(context.Background(), text, UploadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Success)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "Row 3: Missing or empty field: Name", report.Errors[0])
	require.Len(t, store.records, 2)
}

func TestProcessUploadEmptyPayload(t *testing.T) {
	svc := newIngestService(&stubResultStore{}, &stubResolver{})

	_, err := svc.ProcessUpload(context.Background(), "", UploadOptions{})
	require.Error(t, err)
}

func TestProcessUploadReprocessingIsIdempotent(t *testing.T) {
	store := &stubResultStore{}
	resolver := &stubResolver{uids: map[string]string{
		"john@example.com": "uid-1",
		"jane@example.com": "uid-2",
	}}
	svc := newIngestService(store, resolver)

	first, err := svc.ProcessUpload(context.Background(), uploadFixture, UploadOptions{})
	require.NoError(t, err)
	second, err := svc.ProcessUpload(context.Background(), uploadFixture, UploadOptions{})
	require.NoError(t, err)

	assert.Equal(t, first.Success, second.Success)
	assert.Equal(t, first.Failed, second.Failed)
	require.Len(t, store.records, 4)
}

func TestProcessUploadCustomPassingPercentage(t *testing.T) {
	store := &stubResultStore{}
	resolver := &stubResolver{uids: map[string]string{"jane@example.com": "uid-2"}}
	text := "StudentID,Name,Email,Course,Semester,Math\n" +
		"S002,Jane Smith,jane@example.com,BSc,1,15\n"
	svc := newIngestService(store, resolver)

	report, err := svc.ProcessUpload(context.Background(), text, UploadOptions{PassingPercentage: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Success)
	require.Len(t, store.records, 1)
	assert.Equal(t, models.ResultStatusPass, store.records[0].ResultStatus)
}

func TestProcessUploadRejectsBadPassingPercentage(t *testing.T) {
	svc := newIngestService(&stubResultStore{}, &stubResolver{})

	_, err := svc.ProcessUpload(context.Background(), uploadFixture, UploadOptions{PassingPercentage: 150})
	require.Error(t, err)
}

func TestProcessUploadHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := newIngestService(&stubResultStore{}, &stubResolver{})

	_, err := svc.ProcessUpload(ctx, uploadFixture, UploadOptions{})
	require.ErrorIs(t, err, context.Canceled)
}
