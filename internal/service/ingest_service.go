package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/result-portal-api/internal/ingest"
	"github.com/noah-isme/result-portal-api/internal/models"
	appErrors "github.com/noah-isme/result-portal-api/pkg/errors"
)

type resultStore interface {
	Upsert(ctx context.Context, record *models.ResultRecord) (bool, error)
}

type identityResolver interface {
	Resolve(ctx context.Context, email, studentID string) (string, error)
}

// UploadOptions tunes a single upload batch.
type UploadOptions struct {
	PassingPercentage float64 `json:"passing_percentage" validate:"omitempty,gt=0,lte=100"`
}

// IngestService runs uploaded CSV text through parsing, validation,
// scoring and identity resolution, then writes the surviving rows.
// Rows are independent: one bad row never blocks the others.
type IngestService struct {
	results           resultStore
	directory         identityResolver
	validate          *validator.Validate
	cache             *CacheService
	metrics           *MetricsService
	logger            *zap.Logger
	passingPercentage float64
}

// NewIngestService constructs an IngestService.
func NewIngestService(results resultStore, directory identityResolver, validate *validator.Validate, cache *CacheService, metrics *MetricsService, logger *zap.Logger, passingPercentage float64) *IngestService {
	if passingPercentage <= 0 {
		passingPercentage = ingest.DefaultPassingPercentage
	}
	return &IngestService{
		results:           results,
		directory:         directory,
		validate:          validate,
		cache:             cache,
		metrics:           metrics,
		logger:            logger,
		passingPercentage: passingPercentage,
	}
}

// ProcessUpload ingests one CSV payload and reports per-row outcomes.
// It returns an error only when the payload as a whole is unusable or
// the context is cancelled; row-level failures land in the report.
func (s *IngestService) ProcessUpload(ctx context.Context, text string, opts UploadOptions) (*models.BatchReport, error) {
	if s.validate != nil {
		if err := s.validate.Struct(opts); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "passing_percentage must be greater than 0 and at most 100")
		}
	}
	pct := opts.PassingPercentage
	if pct == 0 {
		pct = s.passingPercentage
	}

	start := time.Now()
	rows, lineErrors, err := ingest.Parse(text)
	if err != nil {
		return nil, err
	}

	report := &models.BatchReport{}
	for _, le := range lineErrors {
		report.RecordFailure(le.Line, le.Err.Error())
		s.metrics.ObserveIngestRow("parse_error")
	}

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if msgs := ingest.ValidateRow(row); len(msgs) > 0 {
			report.RecordFailure(row.Line, strings.Join(msgs, ", "))
			s.metrics.ObserveIngestRow("rejected")
			continue
		}
		inserted, err := s.processRow(ctx, row, pct)
		if err != nil {
			appErr := appErrors.FromError(err)
			report.RecordFailure(row.Line, appErr.Message)
			s.metrics.ObserveIngestRow(outcomeForError(appErr))
			if s.logger != nil {
				s.logger.Warn("row rejected",
					zap.Int("line", row.Line),
					zap.String("code", appErr.Code),
					zap.String("reason", appErr.Message))
			}
			continue
		}
		report.RecordSuccess()
		if inserted {
			s.metrics.ObserveIngestRow("inserted")
		} else {
			s.metrics.ObserveIngestRow("updated")
		}
	}

	if report.Success > 0 && s.cache.Enabled() {
		_ = s.cache.Invalidate(ctx, "results:*")
	}

	s.metrics.ObserveBatch(len(rows)+len(lineErrors), time.Since(start))
	if s.logger != nil {
		s.logger.Info("upload processed",
			zap.Int("success", report.Success),
			zap.Int("failed", report.Failed),
			zap.Duration("took", time.Since(start)))
	}
	return report, nil
}

func (s *IngestService) processRow(ctx context.Context, row ingest.Row, pct float64) (bool, error) {
	marks := ingest.ExtractMarks(row)
	total, status := ingest.Score(marks, pct)

	email := row.Get("email")
	studentID := row.Get("studentid")
	uid, err := s.directory.Resolve(ctx, email, studentID)
	if err != nil {
		return false, err
	}
	if uid == "" {
		identifier := email
		if identifier == "" {
			identifier = studentID
		}
		return false, appErrors.Clone(appErrors.ErrStudentNotFound, "Student not found: "+identifier)
	}

	record := &models.ResultRecord{
		StudentUID:   uid,
		StudentID:    studentID,
		StudentName:  row.Get("name"),
		Course:       row.Get("course"),
		Semester:     row.Get("semester"),
		SubjectMarks: marks,
		TotalMarks:   total,
		ResultStatus: status,
	}

	if msgs := ingest.ValidateRecord(record); len(msgs) > 0 {
		return false, appErrors.Clone(appErrors.ErrRecordValidation, strings.Join(msgs, ", "))
	}

	inserted, err := s.results.Upsert(ctx, record)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to save result")
	}
	return inserted, nil
}

func outcomeForError(err *appErrors.Error) string {
	switch err.Code {
	case appErrors.ErrStudentNotFound.Code:
		return "unmatched"
	case appErrors.ErrStore.Code:
		return "store_error"
	default:
		return "rejected"
	}
}
