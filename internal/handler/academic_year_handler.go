package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/service"
	"github.com/SMTech-UK/workload-wizard-sub001/pkg/response"
)

// AcademicYearHandler exposes academic years.
type AcademicYearHandler struct {
	years *service.AcademicYearService
}

// NewAcademicYearHandler constructs the handler.
func NewAcademicYearHandler(years *service.AcademicYearService) *AcademicYearHandler {
	return &AcademicYearHandler{years: years}
}

// List godoc
// @Summary List academic years
// @Tags Academic Years
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /academic-years [get]
func (h *AcademicYearHandler) List(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	years, err := h.years.List(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, years, nil)
}

// Default godoc
// @Summary Get the default academic year
// @Tags Academic Years
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /academic-years/default [get]
func (h *AcademicYearHandler) Default(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	year, err := h.years.Default(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, year, nil)
}

// Get godoc
// @Summary Get academic year
// @Tags Academic Years
// @Produce json
// @Param id path string true "Academic year ID"
// @Success 200 {object} response.Envelope
// @Router /academic-years/{id} [get]
func (h *AcademicYearHandler) Get(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	year, err := h.years.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, year, nil)
}

// Create godoc
// @Summary Create academic year
// @Tags Academic Years
// @Accept json
// @Produce json
// @Param payload body service.CreateAcademicYearRequest true "Year payload"
// @Success 201 {object} response.Envelope
// @Router /academic-years [post]
func (h *AcademicYearHandler) Create(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req service.CreateAcademicYearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "academic year"))
		return
	}
	year, err := h.years.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, year)
}
