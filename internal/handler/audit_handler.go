package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/service"
	"github.com/SMTech-UK/workload-wizard-sub001/pkg/response"
)

// AuditHandler exposes the audit trail.
type AuditHandler struct {
	logs *service.AuditLogService
}

// NewAuditHandler constructs the handler.
func NewAuditHandler(logs *service.AuditLogService) *AuditHandler {
	return &AuditHandler{logs: logs}
}

// List godoc
// @Summary List audit entries of an entity
// @Tags Audit
// @Produce json
// @Param entity_type query string true "Entity type, e.g. lecturer"
// @Param entity_id query string true "Entity ID"
// @Param limit query int false "Maximum entries (default 50, max 200)"
// @Success 200 {object} response.Envelope
// @Router /audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	logs, err := h.logs.ListByEntity(c.Request.Context(), actor, c.Query("entity_type"), c.Query("entity_id"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}
