package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/result-portal-api/internal/models"
	appErrors "github.com/noah-isme/result-portal-api/pkg/errors"
)

type stubDirectory struct {
	byEmail     map[string]*models.StudentIdentity
	byStudentID map[string]*models.StudentIdentity
	emailErr    error
	studentErr  error
	emailCalls  int
	idCalls     int
}

func (s *stubDirectory) FindByEmail(_ context.Context, email string) (*models.StudentIdentity, error) {
	s.emailCalls++
	if s.emailErr != nil {
		return nil, s.emailErr
	}
	if identity, ok := s.byEmail[email]; ok {
		return identity, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubDirectory) FindByStudentID(_ context.Context, studentID string) (*models.StudentIdentity, error) {
	s.idCalls++
	if s.studentErr != nil {
		return nil, s.studentErr
	}
	if identity, ok := s.byStudentID[studentID]; ok {
		return identity, nil
	}
	return nil, sql.ErrNoRows
}

func TestDirectoryServiceResolveByEmail(t *testing.T) {
	dir := &stubDirectory{byEmail: map[string]*models.StudentIdentity{
		"john@example.com": {UID: "uid-1", StudentID: "S001"},
	}}
	svc := NewDirectoryService(dir, nil, 0, zap.NewNop())

	uid, err := svc.Resolve(context.Background(), "john@example.com", "S001")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", uid)
	assert.Equal(t, 1, dir.emailCalls)
	assert.Zero(t, dir.idCalls, "student code lookup should not run when email matched")
}

func TestDirectoryServiceResolveFallsBackToStudentID(t *testing.T) {
	dir := &stubDirectory{byStudentID: map[string]*models.StudentIdentity{
		"S002": {UID: "uid-2", StudentID: "S002"},
	}}
	svc := NewDirectoryService(dir, nil, 0, zap.NewNop())

	uid, err := svc.Resolve(context.Background(), "unknown@example.com", "S002")
	require.NoError(t, err)
	assert.Equal(t, "uid-2", uid)
	assert.Equal(t, 1, dir.emailCalls)
	assert.Equal(t, 1, dir.idCalls)
}

func TestDirectoryServiceResolveUnmatched(t *testing.T) {
	svc := NewDirectoryService(&stubDirectory{}, nil, 0, zap.NewNop())

	uid, err := svc.Resolve(context.Background(), "ghost@example.com", "S404")
	require.NoError(t, err)
	assert.Empty(t, uid)
}

func TestDirectoryServiceResolveStoreError(t *testing.T) {
	dir := &stubDirectory{emailErr: errors.New("connection reset")}
	svc := NewDirectoryService(dir, nil, 0, zap.NewNop())

	_, err := svc.Resolve(context.Background(), "john@example.com", "")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrStore.Code, appErr.Code)
}
