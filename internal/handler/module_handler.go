package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
	"github.com/SMTech-UK/workload-wizard-sub001/internal/service"
	appErrors "github.com/SMTech-UK/workload-wizard-sub001/pkg/errors"
	"github.com/SMTech-UK/workload-wizard-sub001/pkg/response"
)

// ModuleHandler wires module profiles and year instances to HTTP routes.
type ModuleHandler struct {
	modules *service.ModuleService
}

// NewModuleHandler constructs the handler.
func NewModuleHandler(modules *service.ModuleService) *ModuleHandler {
	return &ModuleHandler{modules: modules}
}

// ListProfiles godoc
// @Summary List module profiles
// @Tags Modules
// @Produce json
// @Param search query string false "Search by code or title"
// @Param level query int false "Filter by level"
// @Param active query bool false "Filter by active status"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /module-profiles [get]
func (h *ModuleHandler) ListProfiles(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	page, size := pageQuery(c)
	filter := models.ModuleProfileFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		Active:   boolQuery(c, "active"),
		Page:     page,
		PageSize: size,
	}
	if raw := c.Query("level"); raw != "" {
		level, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "level must be an integer"))
			return
		}
		filter.Level = &level
	}
	profiles, pagination, err := h.modules.ListProfiles(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profiles, pagination)
}

// GetProfile godoc
// @Summary Get module profile
// @Tags Modules
// @Produce json
// @Param id path string true "Profile ID"
// @Success 200 {object} response.Envelope
// @Router /module-profiles/{id} [get]
func (h *ModuleHandler) GetProfile(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	profile, err := h.modules.GetProfile(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// CreateProfile godoc
// @Summary Create module profile
// @Tags Modules
// @Accept json
// @Produce json
// @Param payload body service.ModuleProfileRequest true "Profile payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /module-profiles [post]
func (h *ModuleHandler) CreateProfile(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req service.ModuleProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "module profile"))
		return
	}
	profile, err := h.modules.CreateProfile(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, profile)
}

// UpdateProfile godoc
// @Summary Update module profile
// @Tags Modules
// @Accept json
// @Produce json
// @Param id path string true "Profile ID"
// @Param payload body service.ModuleProfileRequest true "Profile payload"
// @Success 200 {object} response.Envelope
// @Router /module-profiles/{id} [put]
func (h *ModuleHandler) UpdateProfile(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req service.ModuleProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "module profile"))
		return
	}
	profile, err := h.modules.UpdateProfile(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// DeactivateProfile godoc
// @Summary Deactivate module profile
// @Tags Modules
// @Param id path string true "Profile ID"
// @Success 204
// @Router /module-profiles/{id} [delete]
func (h *ModuleHandler) DeactivateProfile(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	if err := h.modules.DeactivateProfile(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListModules godoc
// @Summary List modules of an academic year
// @Tags Modules
// @Produce json
// @Param academic_year_id query string true "Academic year ID"
// @Success 200 {object} response.Envelope
// @Router /modules [get]
func (h *ModuleHandler) ListModules(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	yearID := c.Query("academic_year_id")
	if yearID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "academic_year_id is required"))
		return
	}
	modules, err := h.modules.ListModules(c.Request.Context(), actor, yearID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, modules, nil)
}

// CreateModule godoc
// @Summary Create module instance for an academic year
// @Tags Modules
// @Accept json
// @Produce json
// @Param payload body service.CreateModuleRequest true "Module payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /modules [post]
func (h *ModuleHandler) CreateModule(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req service.CreateModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "module"))
		return
	}
	module, err := h.modules.CreateModule(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, module)
}
