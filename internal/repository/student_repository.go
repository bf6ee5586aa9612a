package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/result-portal-api/internal/models"
)

// StudentRepository reads the student directory used to resolve uploaded
// rows to canonical identities.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByEmail fetches a directory entry by email, matched case-insensitively.
// Returns sql.ErrNoRows when no entry matches.
func (r *StudentRepository) FindByEmail(ctx context.Context, email string) (*models.StudentIdentity, error) {
	const query = `SELECT uid, student_id, full_name, email, active, created_at, updated_at
        FROM students WHERE LOWER(email) = LOWER($1) LIMIT 1`
	var identity models.StudentIdentity
	if err := r.db.GetContext(ctx, &identity, query, email); err != nil {
		return nil, fmt.Errorf("find student by email: %w", err)
	}
	return &identity, nil
}

// FindByStudentID fetches a directory entry by its human-entered student
// code, matched exactly. Returns sql.ErrNoRows when no entry matches.
func (r *StudentRepository) FindByStudentID(ctx context.Context, studentID string) (*models.StudentIdentity, error) {
	const query = `SELECT uid, student_id, full_name, email, active, created_at, updated_at
        FROM students WHERE student_id = $1 LIMIT 1`
	var identity models.StudentIdentity
	if err := r.db.GetContext(ctx, &identity, query, studentID); err != nil {
		return nil, fmt.Errorf("find student by id: %w", err)
	}
	return &identity, nil
}
