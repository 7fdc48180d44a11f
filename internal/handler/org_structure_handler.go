package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/service"
	"github.com/SMTech-UK/workload-wizard-sub001/pkg/response"
)

// OrgStructureHandler exposes faculties and departments.
type OrgStructureHandler struct {
	org *service.OrgStructureService
}

// NewOrgStructureHandler constructs the handler.
func NewOrgStructureHandler(org *service.OrgStructureService) *OrgStructureHandler {
	return &OrgStructureHandler{org: org}
}

// ListFaculties godoc
// @Summary List faculties
// @Tags Org Structure
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /faculties [get]
func (h *OrgStructureHandler) ListFaculties(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	faculties, err := h.org.ListFaculties(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, faculties, nil)
}

// CreateFaculty godoc
// @Summary Create faculty
// @Tags Org Structure
// @Accept json
// @Produce json
// @Param payload body service.FacultyRequest true "Faculty payload"
// @Success 201 {object} response.Envelope
// @Router /faculties [post]
func (h *OrgStructureHandler) CreateFaculty(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req service.FacultyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "faculty"))
		return
	}
	faculty, err := h.org.CreateFaculty(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, faculty)
}

// UpdateFaculty godoc
// @Summary Update faculty
// @Tags Org Structure
// @Accept json
// @Produce json
// @Param id path string true "Faculty ID"
// @Param payload body service.FacultyRequest true "Faculty payload"
// @Success 200 {object} response.Envelope
// @Router /faculties/{id} [put]
func (h *OrgStructureHandler) UpdateFaculty(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req service.FacultyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "faculty"))
		return
	}
	faculty, err := h.org.UpdateFaculty(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, faculty, nil)
}

// DeleteFaculty godoc
// @Summary Delete faculty
// @Tags Org Structure
// @Param id path string true "Faculty ID"
// @Success 204
// @Router /faculties/{id} [delete]
func (h *OrgStructureHandler) DeleteFaculty(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	if err := h.org.DeleteFaculty(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListDepartments godoc
// @Summary List departments
// @Tags Org Structure
// @Produce json
// @Param faculty_id query string false "Restrict to one faculty"
// @Success 200 {object} response.Envelope
// @Router /departments [get]
func (h *OrgStructureHandler) ListDepartments(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	departments, err := h.org.ListDepartments(c.Request.Context(), actor, c.Query("faculty_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, departments, nil)
}

// CreateDepartment godoc
// @Summary Create department
// @Tags Org Structure
// @Accept json
// @Produce json
// @Param payload body service.DepartmentRequest true "Department payload"
// @Success 201 {object} response.Envelope
// @Router /departments [post]
func (h *OrgStructureHandler) CreateDepartment(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req service.DepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "department"))
		return
	}
	department, err := h.org.CreateDepartment(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, department)
}

// UpdateDepartment godoc
// @Summary Update department
// @Tags Org Structure
// @Accept json
// @Produce json
// @Param id path string true "Department ID"
// @Param payload body service.DepartmentRequest true "Department payload"
// @Success 200 {object} response.Envelope
// @Router /departments/{id} [put]
func (h *OrgStructureHandler) UpdateDepartment(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req service.DepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "department"))
		return
	}
	department, err := h.org.UpdateDepartment(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, department, nil)
}

// DeleteDepartment godoc
// @Summary Delete department
// @Tags Org Structure
// @Param id path string true "Department ID"
// @Success 204
// @Router /departments/{id} [delete]
func (h *OrgStructureHandler) DeleteDepartment(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	if err := h.org.DeleteDepartment(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
