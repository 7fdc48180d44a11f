package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
	"github.com/SMTech-UK/workload-wizard-sub001/internal/service"
	"github.com/SMTech-UK/workload-wizard-sub001/pkg/response"
)

// LecturerHandler wires lecturer profiles and year instances to HTTP routes.
type LecturerHandler struct {
	lecturers *service.LecturerService
}

// NewLecturerHandler constructs the handler.
func NewLecturerHandler(lecturers *service.LecturerService) *LecturerHandler {
	return &LecturerHandler{lecturers: lecturers}
}

// ListProfiles godoc
// @Summary List lecturer profiles
// @Tags Lecturers
// @Produce json
// @Param search query string false "Search by name or email"
// @Param family query string false "Filter by job family"
// @Param active query bool false "Filter by active status"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /lecturer-profiles [get]
func (h *LecturerHandler) ListProfiles(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	page, size := pageQuery(c)
	filter := models.LecturerProfileFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		Family:   strings.TrimSpace(c.Query("family")),
		Active:   boolQuery(c, "active"),
		Page:     page,
		PageSize: size,
	}
	profiles, pagination, err := h.lecturers.ListProfiles(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profiles, pagination)
}

// GetProfile godoc
// @Summary Get lecturer profile
// @Tags Lecturers
// @Produce json
// @Param id path string true "Profile ID"
// @Success 200 {object} response.Envelope
// @Router /lecturer-profiles/{id} [get]
func (h *LecturerHandler) GetProfile(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	profile, err := h.lecturers.GetProfile(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// CreateProfile godoc
// @Summary Create lecturer profile
// @Tags Lecturers
// @Accept json
// @Produce json
// @Param payload body service.LecturerProfileRequest true "Profile payload"
// @Success 201 {object} response.Envelope
// @Router /lecturer-profiles [post]
func (h *LecturerHandler) CreateProfile(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req service.LecturerProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "lecturer profile"))
		return
	}
	profile, err := h.lecturers.CreateProfile(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, profile)
}

// UpdateProfile godoc
// @Summary Update lecturer profile
// @Tags Lecturers
// @Accept json
// @Produce json
// @Param id path string true "Profile ID"
// @Param payload body service.LecturerProfileRequest true "Profile payload"
// @Success 200 {object} response.Envelope
// @Router /lecturer-profiles/{id} [put]
func (h *LecturerHandler) UpdateProfile(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req service.LecturerProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "lecturer profile"))
		return
	}
	profile, err := h.lecturers.UpdateProfile(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// DeactivateProfile godoc
// @Summary Deactivate lecturer profile
// @Tags Lecturers
// @Param id path string true "Profile ID"
// @Success 204
// @Router /lecturer-profiles/{id} [delete]
func (h *LecturerHandler) DeactivateProfile(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	if err := h.lecturers.DeactivateProfile(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Get godoc
// @Summary Get lecturer year instance
// @Tags Lecturers
// @Produce json
// @Param id path string true "Lecturer ID"
// @Success 200 {object} response.Envelope
// @Router /lecturers/{id} [get]
func (h *LecturerHandler) Get(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	lecturer, err := h.lecturers.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lecturer, nil)
}

// AddToYear godoc
// @Summary Add a lecturer profile to an academic year
// @Tags Lecturers
// @Accept json
// @Produce json
// @Param payload body service.AddLecturerToYearRequest true "Lecturer payload"
// @Success 201 {object} response.Envelope
// @Router /lecturers [post]
func (h *LecturerHandler) AddToYear(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req service.AddLecturerToYearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "lecturer"))
		return
	}
	lecturer, err := h.lecturers.AddToYear(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lecturer)
}

// UpdateHours godoc
// @Summary Update the category hours of a lecturer
// @Tags Lecturers
// @Accept json
// @Produce json
// @Param id path string true "Lecturer ID"
// @Param payload body service.UpdateLecturerHoursRequest true "Hours payload"
// @Success 200 {object} response.Envelope
// @Router /lecturers/{id}/hours [patch]
func (h *LecturerHandler) UpdateHours(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req service.UpdateLecturerHoursRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "lecturer hours"))
		return
	}
	lecturer, err := h.lecturers.UpdateHours(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lecturer, nil)
}

// Delete godoc
// @Summary Delete lecturer year instance
// @Tags Lecturers
// @Param id path string true "Lecturer ID"
// @Success 204
// @Router /lecturers/{id} [delete]
func (h *LecturerHandler) Delete(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	if err := h.lecturers.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
