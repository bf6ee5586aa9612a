package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/result-portal-api/internal/models"
	"github.com/noah-isme/result-portal-api/internal/service"
	appErrors "github.com/noah-isme/result-portal-api/pkg/errors"
	"github.com/noah-isme/result-portal-api/pkg/response"
)

// UploadResponse wraps a batch report with its error list capped for display.
type UploadResponse struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// ResultHandler exposes result ingestion and retrieval endpoints.
type ResultHandler struct {
	ingest         *service.IngestService
	results        *service.ResultService
	maxErrorDetail int
	maxUploadBytes int64
}

// NewResultHandler constructs a ResultHandler.
func NewResultHandler(ingest *service.IngestService, results *service.ResultService, maxErrorDetail int, maxUploadBytes int64) *ResultHandler {
	if maxErrorDetail <= 0 {
		maxErrorDetail = 5
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = 5 << 20
	}
	return &ResultHandler{ingest: ingest, results: results, maxErrorDetail: maxErrorDetail, maxUploadBytes: maxUploadBytes}
}

// Upload godoc
// @Summary Upload a CSV of student results
// @Tags Results
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file"
// @Param passing_percentage formData number false "Passing percentage (0-100]"
// @Success 200 {object} response.Envelope
// @Router /results/upload [post]
func (h *ResultHandler) Upload(c *gin.Context) {
	text, err := h.readUpload(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	opts := service.UploadOptions{}
	if raw := c.PostForm("passing_percentage"); raw != "" {
		pct, parseErr := strconv.ParseFloat(raw, 64)
		if parseErr != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "passing_percentage must be a number"))
			return
		}
		opts.PassingPercentage = pct
	}

	report, uploadErr := h.ingest.ProcessUpload(c.Request.Context(), text, opts)
	if uploadErr != nil {
		response.Error(c, uploadErr)
		return
	}
	response.JSON(c, http.StatusOK, h.summarise(report), nil)
}

func (h *ResultHandler) readUpload(c *gin.Context) (string, *appErrors.Error) {
	if fileHeader, err := c.FormFile("file"); err == nil {
		if fileHeader.Size > h.maxUploadBytes {
			return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds the %d byte limit", h.maxUploadBytes))
		}
		src, openErr := fileHeader.Open()
		if openErr != nil {
			return "", appErrors.Wrap(openErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file")
		}
		defer src.Close()
		buf, readErr := io.ReadAll(src)
		if readErr != nil {
			return "", appErrors.Wrap(readErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read file")
		}
		return string(buf), nil
	}

	// Raw CSV body fallback for clients that do not use multipart.
	limited := http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	buf, err := io.ReadAll(limited)
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("body exceeds the %d byte limit", h.maxUploadBytes))
	}
	if len(buf) == 0 {
		return "", appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	return string(buf), nil
}

func (h *ResultHandler) summarise(report *models.BatchReport) UploadResponse {
	resp := UploadResponse{Success: report.Success, Failed: report.Failed, Errors: report.Errors}
	if len(resp.Errors) > h.maxErrorDetail {
		suppressed := len(resp.Errors) - h.maxErrorDetail
		resp.Errors = append(resp.Errors[:h.maxErrorDetail:h.maxErrorDetail], fmt.Sprintf("... and %d more errors", suppressed))
	}
	return resp
}

// Template godoc
// @Summary Download the CSV upload template
// @Tags Results
// @Produce text/csv
// @Success 200 {string} string "CSV template"
// @Router /results/template [get]
func (h *ResultHandler) Template(c *gin.Context) {
	payload, err := h.results.TemplateCSV()
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="student_results_template.csv"`)
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/csv", payload)
}

// List godoc
// @Summary List result records
// @Tags Results
// @Produce json
// @Param studentUid query string false "Filter by student UID"
// @Param course query string false "Filter by course"
// @Param semester query string false "Filter by semester"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /results [get]
func (h *ResultHandler) List(c *gin.Context) {
	filter := models.ResultFilter{
		StudentUID: c.Query("studentUid"),
		Course:     c.Query("course"),
		Semester:   c.Query("semester"),
		Page:       intQuery(c, "page", 1),
		PageSize:   intQuery(c, "pageSize", 20),
	}
	records, pagination, err := h.results.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// ListByStudent godoc
// @Summary List one student's results
// @Tags Results
// @Produce json
// @Param id path string true "Student UID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/results [get]
func (h *ResultHandler) ListByStudent(c *gin.Context) {
	records, err := h.results.ListByStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// Export godoc
// @Summary Download one student's marksheet
// @Tags Results
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Student UID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {string} string "Rendered marksheet"
// @Router /students/{id}/results/export [get]
func (h *ResultHandler) Export(c *gin.Context) {
	file, err := h.results.ExportMarksheet(c.Request.Context(), c.Param("id"), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Payload)
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
