package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/result-portal-api/internal/models"
)

// ResultRepository manages persistence for result records. The uniqueness of
// (student_uid, course, semester) is backed by a unique index, so the upsert
// is a single conditional write with no check-then-act window.
type ResultRepository struct {
	db *sqlx.DB
}

// NewResultRepository constructs a ResultRepository.
func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// FindByKey fetches the record for an exact (studentUID, course, semester)
// triple. Returns sql.ErrNoRows when none exists.
func (r *ResultRepository) FindByKey(ctx context.Context, studentUID, course, semester string) (*models.ResultRecord, error) {
	const query = `SELECT id, student_uid, student_id, student_name, course, semester, subject_marks, total_marks, result_status, uploaded_at, updated_at
        FROM results WHERE student_uid = $1 AND course = $2 AND semester = $3`
	var record models.ResultRecord
	if err := r.db.GetContext(ctx, &record, query, studentUID, course, semester); err != nil {
		return nil, fmt.Errorf("find result: %w", err)
	}
	return &record, nil
}

// Upsert inserts a new record or, when the (student_uid, course, semester)
// triple already exists, corrects only its marks, total, status and update
// timestamp. Identity fields and the original upload timestamp survive the
// correction path. Returns true when a new row was inserted.
func (r *ResultRepository) Upsert(ctx context.Context, record *models.ResultRecord) (bool, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.UploadedAt.IsZero() {
		record.UploadedAt = now
	}
	record.UpdatedAt = now

	const query = `INSERT INTO results (id, student_uid, student_id, student_name, course, semester, subject_marks, total_marks, result_status, uploaded_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        ON CONFLICT (student_uid, course, semester) DO UPDATE
        SET subject_marks = EXCLUDED.subject_marks,
            total_marks = EXCLUDED.total_marks,
            result_status = EXCLUDED.result_status,
            updated_at = EXCLUDED.updated_at
        RETURNING id, (xmax = 0) AS inserted`

	var outcome struct {
		ID       string `db:"id"`
		Inserted bool   `db:"inserted"`
	}
	if err := r.db.GetContext(ctx, &outcome, query,
		record.ID,
		record.StudentUID,
		record.StudentID,
		record.StudentName,
		record.Course,
		record.Semester,
		record.SubjectMarks,
		record.TotalMarks,
		record.ResultStatus,
		record.UploadedAt,
		record.UpdatedAt,
	); err != nil {
		return false, fmt.Errorf("upsert result: %w", err)
	}

	record.ID = outcome.ID
	return outcome.Inserted, nil
}

// ListByStudent returns all records for one student, most recent semester
// first. Semesters compare lexicographically.
func (r *ResultRepository) ListByStudent(ctx context.Context, studentUID string) ([]models.ResultRecord, error) {
	const query = `SELECT id, student_uid, student_id, student_name, course, semester, subject_marks, total_marks, result_status, uploaded_at, updated_at
        FROM results WHERE student_uid = $1 ORDER BY semester DESC, course ASC`
	var records []models.ResultRecord
	if err := r.db.SelectContext(ctx, &records, query, studentUID); err != nil {
		return nil, fmt.Errorf("list results by student: %w", err)
	}
	return records, nil
}

// List returns records matching the provided filters with a total count.
func (r *ResultRepository) List(ctx context.Context, filter models.ResultFilter) ([]models.ResultRecord, int, error) {
	base := "FROM results"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.StudentUID != "" {
		conditions = append(conditions, fmt.Sprintf("student_uid = $%d", len(args)+1))
		args = append(args, filter.StudentUID)
	}
	if filter.Course != "" {
		conditions = append(conditions, fmt.Sprintf("course = $%d", len(args)+1))
		args = append(args, filter.Course)
	}
	if filter.Semester != "" {
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, student_uid, student_id, student_name, course, semester, subject_marks, total_marks, result_status, uploaded_at, updated_at
        %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`, base, size, offset)

	var records []models.ResultRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list results: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count results: %w", err)
	}
	return records, total, nil
}
