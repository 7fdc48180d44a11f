package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
	"github.com/SMTech-UK/workload-wizard-sub001/internal/service"
	appErrors "github.com/SMTech-UK/workload-wizard-sub001/pkg/errors"
	"github.com/SMTech-UK/workload-wizard-sub001/pkg/response"
)

type moduleIterationService interface {
	Get(ctx context.Context, actor models.Actor, id string) (*models.ModuleIteration, error)
	ListByYear(ctx context.Context, actor models.Actor, academicYearID string) ([]models.ModuleIteration, error)
	Allocations(ctx context.Context, actor models.Actor, id string) ([]models.ModuleAllocation, error)
	Create(ctx context.Context, actor models.Actor, req service.CreateIterationRequest) (*models.ModuleIteration, error)
	Delete(ctx context.Context, actor models.Actor, id string) error
	Assign(ctx context.Context, actor models.Actor, iterationID string, req service.AssignmentRequest) (*models.ModuleIteration, error)
	Unassign(ctx context.Context, actor models.Actor, iterationID string, req service.AssignmentRequest) (*models.ModuleIteration, error)
	SetStatus(ctx context.Context, actor models.Actor, iterationID string, req service.SetIterationStatusRequest) (*models.ModuleIteration, error)
	Pending(session string) []string
	Flush(session string) []string
}

// ModuleIterationHandler exposes iterations and their lecturer assignments.
type ModuleIterationHandler struct {
	iterations moduleIterationService
}

// NewModuleIterationHandler constructs the handler.
func NewModuleIterationHandler(iterations moduleIterationService) *ModuleIterationHandler {
	return &ModuleIterationHandler{iterations: iterations}
}

// List godoc
// @Summary List module iterations of an academic year
// @Tags Module Iterations
// @Produce json
// @Param academic_year_id query string true "Academic year ID"
// @Success 200 {object} response.Envelope
// @Router /module-iterations [get]
func (h *ModuleIterationHandler) List(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	yearID := c.Query("academic_year_id")
	if yearID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "academic_year_id is required"))
		return
	}
	iterations, err := h.iterations.ListByYear(c.Request.Context(), actor, yearID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, iterations, nil)
}

// Get godoc
// @Summary Get module iteration
// @Tags Module Iterations
// @Produce json
// @Param id path string true "Iteration ID"
// @Success 200 {object} response.Envelope
// @Router /module-iterations/{id} [get]
func (h *ModuleIterationHandler) Get(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	iteration, err := h.iterations.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, iteration, nil)
}

// Allocations godoc
// @Summary List teaching allocations derived from an iteration's assignments
// @Tags Module Iterations
// @Produce json
// @Param id path string true "Iteration ID"
// @Success 200 {object} response.Envelope
// @Router /module-iterations/{id}/allocations [get]
func (h *ModuleIterationHandler) Allocations(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	allocations, err := h.iterations.Allocations(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, allocations, nil)
}

// Create godoc
// @Summary Create module iteration
// @Tags Module Iterations
// @Accept json
// @Produce json
// @Param payload body service.CreateIterationRequest true "Iteration payload"
// @Success 201 {object} response.Envelope
// @Router /module-iterations [post]
func (h *ModuleIterationHandler) Create(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req service.CreateIterationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "iteration"))
		return
	}
	iteration, err := h.iterations.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, iteration)
}

// Delete godoc
// @Summary Delete module iteration
// @Tags Module Iterations
// @Param id path string true "Iteration ID"
// @Success 204
// @Router /module-iterations/{id} [delete]
func (h *ModuleIterationHandler) Delete(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	if err := h.iterations.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Assign godoc
// @Summary Assign a lecturer to an iteration
// @Tags Module Iterations
// @Accept json
// @Produce json
// @Param id path string true "Iteration ID"
// @Param X-Edit-Session header string false "Edit session tracking pending changes"
// @Param payload body service.AssignmentRequest true "Lecturer"
// @Success 200 {object} response.Envelope
// @Router /module-iterations/{id}/assignments [post]
func (h *ModuleIterationHandler) Assign(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req service.AssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "assignment"))
		return
	}
	req.SessionID = sessionKey(actor, editSession(c))
	iteration, err := h.iterations.Assign(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, iteration, nil)
}

// Unassign godoc
// @Summary Remove a lecturer from an iteration
// @Tags Module Iterations
// @Produce json
// @Param id path string true "Iteration ID"
// @Param lecturerId path string true "Lecturer ID"
// @Param X-Edit-Session header string false "Edit session tracking pending changes"
// @Success 200 {object} response.Envelope
// @Router /module-iterations/{id}/assignments/{lecturerId} [delete]
func (h *ModuleIterationHandler) Unassign(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	req := service.AssignmentRequest{LecturerID: c.Param("lecturerId"), SessionID: sessionKey(actor, editSession(c))}
	iteration, err := h.iterations.Unassign(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, iteration, nil)
}

// SetStatus godoc
// @Summary Set the workflow status of an iteration
// @Tags Module Iterations
// @Accept json
// @Produce json
// @Param id path string true "Iteration ID"
// @Param payload body service.SetIterationStatusRequest true "Status"
// @Success 200 {object} response.Envelope
// @Router /module-iterations/{id}/status [patch]
func (h *ModuleIterationHandler) SetStatus(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req service.SetIterationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "status"))
		return
	}
	iteration, err := h.iterations.SetStatus(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, iteration, nil)
}

// Pending godoc
// @Summary List iterations changed in the current edit session
// @Tags Module Iterations
// @Produce json
// @Param X-Edit-Session header string true "Edit session"
// @Success 200 {object} response.Envelope
// @Router /edit-session/pending [get]
func (h *ModuleIterationHandler) Pending(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"pending": h.iterations.Pending(session)}, nil)
}

// Flush godoc
// @Summary Report and clear the iterations changed in the current edit session
// @Description Changes are already persisted; flushing issues no writes.
// @Tags Module Iterations
// @Produce json
// @Param X-Edit-Session header string true "Edit session"
// @Success 200 {object} response.Envelope
// @Router /edit-session/flush [post]
func (h *ModuleIterationHandler) Flush(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"flushed": h.iterations.Flush(session)}, nil)
}

func requireSession(c *gin.Context) (string, bool) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return "", false
	}
	session := sessionKey(actor, editSession(c))
	if session == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, EditSessionHeader+" header is required"))
		return "", false
	}
	return session, true
}

// sessionKey scopes a client session id to its caller.
func sessionKey(actor models.Actor, session string) string {
	if session == "" {
		return ""
	}
	return actor.OrganisationID + "/" + actor.UserID + "/" + session
}
