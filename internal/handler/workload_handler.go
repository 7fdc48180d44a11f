package handler

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/middleware"
	"github.com/SMTech-UK/workload-wizard-sub001/internal/service"
	appErrors "github.com/SMTech-UK/workload-wizard-sub001/pkg/errors"
	"github.com/SMTech-UK/workload-wizard-sub001/pkg/response"
)

// GenerateReportRequest selects the year and encoding of a workload report.
type GenerateReportRequest struct {
	AcademicYearID string `json:"academic_year_id"`
	Format         string `json:"format"`
}

// WorkloadHandler exposes capacity views and workload reports.
type WorkloadHandler struct {
	workloads *service.WorkloadService
	reports   *service.ReportService
}

// NewWorkloadHandler constructs the handler. reports may be nil when exports are disabled.
func NewWorkloadHandler(workloads *service.WorkloadService, reports *service.ReportService) *WorkloadHandler {
	return &WorkloadHandler{workloads: workloads, reports: reports}
}

// Lecturer godoc
// @Summary Get the workload summary of a lecturer
// @Tags Workload
// @Produce json
// @Param id path string true "Lecturer ID"
// @Success 200 {object} response.Envelope
// @Router /lecturers/{id}/workload [get]
func (h *WorkloadHandler) Lecturer(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	workload, err := h.workloads.Lecturer(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, workload, nil)
}

// Overview godoc
// @Summary Get the workload overview of an academic year
// @Tags Workload
// @Produce json
// @Param academic_year_id query string true "Academic year ID"
// @Success 200 {object} response.Envelope
// @Router /workload/overview [get]
func (h *WorkloadHandler) Overview(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	yearID := c.Query("academic_year_id")
	if yearID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "academic_year_id is required"))
		return
	}
	overview, cached, err := h.workloads.Overview(c.Request.Context(), actor, yearID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cached)
	response.JSON(c, http.StatusOK, overview, nil, middleware.ExtractMeta(c))
}

// GenerateReport godoc
// @Summary Export the workload overview as CSV or PDF
// @Tags Workload
// @Accept json
// @Produce json
// @Param payload body GenerateReportRequest true "Report request"
// @Success 201 {object} response.Envelope
// @Router /reports/workload [post]
func (h *WorkloadHandler) GenerateReport(c *gin.Context) {
	if h.reports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "reports are disabled"))
		return
	}
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req GenerateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "report"))
		return
	}
	if req.AcademicYearID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "academic_year_id is required"))
		return
	}
	format := service.ReportFormat(strings.ToLower(strings.TrimSpace(req.Format)))
	if format == "" {
		format = service.ReportFormatCSV
	}
	result, err := h.reports.GenerateWorkload(c.Request.Context(), actor, req.AcademicYearID, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// DownloadReport godoc
// @Summary Download a generated report through its signed token
// @Tags Workload
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Router /reports/download/{token} [get]
func (h *WorkloadHandler) DownloadReport(c *gin.Context) {
	if h.reports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "reports are disabled"))
		return
	}
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	file, rel, err := h.reports.Open(actor, c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck
	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read report"))
		return
	}
	mimeType := "text/csv"
	if strings.HasSuffix(rel, ".pdf") {
		mimeType = "application/pdf"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", path.Base(rel)))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), mimeType, file, nil)
}
