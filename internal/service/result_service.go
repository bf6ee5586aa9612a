package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/result-portal-api/internal/models"
	appErrors "github.com/noah-isme/result-portal-api/pkg/errors"
	"github.com/noah-isme/result-portal-api/pkg/export"
)

type resultReader interface {
	List(ctx context.Context, filter models.ResultFilter) ([]models.ResultRecord, int, error)
	ListByStudent(ctx context.Context, studentUID string) ([]models.ResultRecord, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string, footer ...string) ([]byte, error)
}

// MarksheetFile is a rendered marksheet ready to be served as a download.
type MarksheetFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ResultService serves stored result records and renders downloads.
type ResultService struct {
	results resultReader
	cache   *CacheService
	csv     csvRenderer
	pdf     pdfRenderer
	logger  *zap.Logger
}

// NewResultService constructs a ResultService.
func NewResultService(results resultReader, cache *CacheService, logger *zap.Logger) *ResultService {
	return &ResultService{
		results: results,
		cache:   cache,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		logger:  logger,
	}
}

// List returns result records matching the filter, paginated.
func (s *ResultService) List(ctx context.Context, filter models.ResultFilter) ([]models.ResultRecord, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	records, total, err := s.results.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to list results")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return records, pagination, nil
}

// ListByStudent returns every record for one student, newest semester first.
func (s *ResultService) ListByStudent(ctx context.Context, studentUID string) ([]models.ResultRecord, error) {
	cacheKey := "results:student:" + studentUID
	if s.cache.Enabled() {
		var cached []models.ResultRecord
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return cached, nil
		}
	}
	records, err := s.results.ListByStudent(ctx, studentUID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to list student results")
	}
	if s.cache.Enabled() {
		_ = s.cache.Set(ctx, cacheKey, records, 0)
	}
	return records, nil
}

// TemplateCSV renders the upload template with the expected header and two
// example rows.
func (s *ResultService) TemplateCSV() ([]byte, error) {
	dataset := export.Dataset{
		Headers: []string{"StudentID", "Name", "Email", "Course", "Semester", "Math", "Physics", "Chemistry", "English", "Biology"},
		Rows: []map[string]string{
			{
				"StudentID": "S001", "Name": "John Doe", "Email": "john@example.com",
				"Course": "BSc Computer Science", "Semester": "Semester 1",
				"Math": "85", "Physics": "78", "Chemistry": "92", "English": "74", "Biology": "88",
			},
			{
				"StudentID": "S002", "Name": "Jane Smith", "Email": "jane@example.com",
				"Course": "BSc Computer Science", "Semester": "Semester 1",
				"Math": "67", "Physics": "81", "Chemistry": "59", "English": "90", "Biology": "72",
			},
		},
	}
	return s.csv.Render(dataset)
}

// ExportMarksheet renders all of a student's results as CSV or PDF.
func (s *ResultService) ExportMarksheet(ctx context.Context, studentUID, format string) (*MarksheetFile, error) {
	records, err := s.ListByStudent(ctx, studentUID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no results found for student")
	}

	dataset := marksheetDataset(records)
	timestamp := time.Now().UTC().Format("20060102_150405")
	base := fmt.Sprintf("marksheet_%s_%s", sanitizeFilename(records[0].StudentID), timestamp)

	switch format {
	case "csv", "":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, err
		}
		return &MarksheetFile{Filename: base + ".csv", ContentType: "text/csv", Payload: payload}, nil
	case "pdf":
		title := fmt.Sprintf("Marksheet - %s (%s)", records[0].StudentName, records[0].StudentID)
		payload, err := s.pdf.Render(dataset, title, marksheetFooter(records)...)
		if err != nil {
			return nil, err
		}
		return &MarksheetFile{Filename: base + ".pdf", ContentType: "application/pdf", Payload: payload}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", format))
	}
}

func marksheetDataset(records []models.ResultRecord) export.Dataset {
	rows := make([]map[string]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, map[string]string{
			"Course":      rec.Course,
			"Semester":    rec.Semester,
			"Subjects":    formatSubjects(rec.SubjectMarks),
			"Total Marks": fmt.Sprintf("%.2f", rec.TotalMarks),
			"Status":      string(rec.ResultStatus),
			"Uploaded At": rec.UploadedAt.UTC().Format(time.RFC3339),
		})
	}
	return export.Dataset{
		Headers: []string{"Course", "Semester", "Subjects", "Total Marks", "Status", "Uploaded At"},
		Rows:    rows,
	}
}

func formatSubjects(marks models.SubjectMarks) string {
	subjects := make([]string, 0, len(marks))
	for subject := range marks {
		subjects = append(subjects, subject)
	}
	sort.Strings(subjects)
	parts := make([]string, 0, len(subjects))
	for _, subject := range subjects {
		parts = append(parts, fmt.Sprintf("%s: %s", subject, trimZeros(marks[subject])))
	}
	return strings.Join(parts, "; ")
}

func marksheetFooter(records []models.ResultRecord) []string {
	var total float64
	passed := 0
	for _, rec := range records {
		total += rec.TotalMarks
		if rec.ResultStatus == models.ResultStatusPass {
			passed++
		}
	}
	return []string{
		fmt.Sprintf("Results: %d (%d passed)", len(records), passed),
		fmt.Sprintf("Combined total: %.2f", total),
	}
}

func trimZeros(value float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", value), "0"), ".")
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
