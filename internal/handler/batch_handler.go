package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
	"github.com/SMTech-UK/workload-wizard-sub001/internal/service"
	"github.com/SMTech-UK/workload-wizard-sub001/pkg/response"
)

type batchService interface {
	ImportModules(ctx context.Context, actor models.Actor, req service.BulkImportRequest) ([]models.BulkResult, error)
	RolloverModules(ctx context.Context, actor models.Actor, req service.RolloverRequest) ([]models.BulkResult, error)
	RolloverLecturers(ctx context.Context, actor models.Actor, req service.RolloverRequest) ([]models.BulkResult, error)
}

// BatchHandler exposes bulk import and rollover. Every response carries per-item results.
type BatchHandler struct {
	batches batchService
}

// NewBatchHandler constructs the handler.
func NewBatchHandler(batches batchService) *BatchHandler {
	return &BatchHandler{batches: batches}
}

// ImportModules godoc
// @Summary Bulk create module profiles and their instances
// @Tags Batch
// @Accept json
// @Produce json
// @Param payload body service.BulkImportRequest true "Rows to import"
// @Success 200 {object} response.Envelope
// @Router /modules/bulk-import [post]
func (h *BatchHandler) ImportModules(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req service.BulkImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "bulk import"))
		return
	}
	results, err := h.batches.ImportModules(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Batch(c, results)
}

// RolloverModules godoc
// @Summary Create this year's module instances from every active module profile
// @Tags Batch
// @Accept json
// @Produce json
// @Param payload body service.RolloverRequest true "Target year"
// @Success 200 {object} response.Envelope
// @Router /rollover/modules [post]
func (h *BatchHandler) RolloverModules(c *gin.Context) {
	h.rollover(c, h.batches.RolloverModules)
}

// RolloverLecturers godoc
// @Summary Create this year's lecturer instances from every active lecturer profile
// @Tags Batch
// @Accept json
// @Produce json
// @Param payload body service.RolloverRequest true "Target year"
// @Success 200 {object} response.Envelope
// @Router /rollover/lecturers [post]
func (h *BatchHandler) RolloverLecturers(c *gin.Context) {
	h.rollover(c, h.batches.RolloverLecturers)
}

func (h *BatchHandler) rollover(c *gin.Context, run func(context.Context, models.Actor, service.RolloverRequest) ([]models.BulkResult, error)) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req service.RolloverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "rollover"))
		return
	}
	results, err := run(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Batch(c, results)
}
