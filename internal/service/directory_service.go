package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/result-portal-api/internal/models"
	appErrors "github.com/noah-isme/result-portal-api/pkg/errors"
)

// StudentDirectory exposes directory lookups for identity resolution.
type StudentDirectory interface {
	FindByEmail(ctx context.Context, email string) (*models.StudentIdentity, error)
	FindByStudentID(ctx context.Context, studentID string) (*models.StudentIdentity, error)
}

// DirectoryService resolves uploaded row identities against the student
// directory. Email wins over the student code when both match different
// directory entries.
type DirectoryService struct {
	students StudentDirectory
	cache    *CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewDirectoryService constructs a DirectoryService.
func NewDirectoryService(students StudentDirectory, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *DirectoryService {
	return &DirectoryService{students: students, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// Resolve maps an uploaded email and student code to a directory UID.
// Lookup order is email first, then the student code. It returns an empty
// UID with a nil error when neither matches a directory entry.
func (s *DirectoryService) Resolve(ctx context.Context, email, studentID string) (string, error) {
	if email != "" {
		uid, err := s.lookup(ctx, "directory:email:"+strings.ToLower(email), func(ctx context.Context) (*models.StudentIdentity, error) {
			return s.students.FindByEmail(ctx, email)
		})
		if err != nil {
			return "", err
		}
		if uid != "" {
			return uid, nil
		}
	}
	if studentID != "" {
		uid, err := s.lookup(ctx, "directory:sid:"+studentID, func(ctx context.Context) (*models.StudentIdentity, error) {
			return s.students.FindByStudentID(ctx, studentID)
		})
		if err != nil {
			return "", err
		}
		if uid != "" {
			return uid, nil
		}
	}
	return "", nil
}

func (s *DirectoryService) lookup(ctx context.Context, cacheKey string, find func(context.Context) (*models.StudentIdentity, error)) (string, error) {
	if s.cache.Enabled() {
		var cached string
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return cached, nil
		}
	}

	identity, err := find(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		if s.logger != nil {
			s.logger.Error("directory lookup failed", zap.String("key", cacheKey), zap.Error(err))
		}
		return "", appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "directory lookup failed")
	}

	if s.cache.Enabled() {
		_ = s.cache.Set(ctx, cacheKey, identity.UID, s.cacheTTL)
	}
	return identity.UID, nil
}
