package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
	"github.com/SMTech-UK/workload-wizard-sub001/internal/service"
	"github.com/SMTech-UK/workload-wizard-sub001/pkg/response"
)

type adminAllocationService interface {
	List(ctx context.Context, actor models.Actor, lecturerID string) ([]models.AdminAllocation, error)
	Preview(ctx context.Context, actor models.Actor, lecturerID string, req service.SaveAdminAllocationsRequest) (*service.AllocationCheck, error)
	Save(ctx context.Context, actor models.Actor, lecturerID string, req service.SaveAdminAllocationsRequest) (*service.AllocationCheck, error)
}

// AdminAllocationHandler exposes a lecturer's admin allocation list.
type AdminAllocationHandler struct {
	allocations adminAllocationService
}

// NewAdminAllocationHandler constructs the handler.
func NewAdminAllocationHandler(allocations adminAllocationService) *AdminAllocationHandler {
	return &AdminAllocationHandler{allocations: allocations}
}

// List godoc
// @Summary List admin allocations of a lecturer
// @Tags Admin Allocations
// @Produce json
// @Param id path string true "Lecturer ID"
// @Success 200 {object} response.Envelope
// @Router /lecturers/{id}/admin-allocations [get]
func (h *AdminAllocationHandler) List(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	entries, err := h.allocations.List(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Preview godoc
// @Summary Evaluate an admin allocation edit without saving
// @Tags Admin Allocations
// @Accept json
// @Produce json
// @Param id path string true "Lecturer ID"
// @Param payload body service.SaveAdminAllocationsRequest true "Edited entries"
// @Success 200 {object} response.Envelope
// @Router /lecturers/{id}/admin-allocations/preview [post]
func (h *AdminAllocationHandler) Preview(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req service.SaveAdminAllocationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "admin allocation"))
		return
	}
	check, err := h.allocations.Preview(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, check, nil)
}

// Save godoc
// @Summary Replace the admin allocations of a lecturer
// @Description Rejected with 422 when the edit would exceed available capacity; the evaluation is returned in data.
// @Tags Admin Allocations
// @Accept json
// @Produce json
// @Param id path string true "Lecturer ID"
// @Param payload body service.SaveAdminAllocationsRequest true "Edited entries"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /lecturers/{id}/admin-allocations [put]
func (h *AdminAllocationHandler) Save(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req service.SaveAdminAllocationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "admin allocation"))
		return
	}
	check, err := h.allocations.Save(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		if check != nil {
			response.ErrorWithData(c, err, check)
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, check, nil)
}
