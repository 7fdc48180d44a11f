package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/middleware"
	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
	appErrors "github.com/SMTech-UK/workload-wizard-sub001/pkg/errors"
	"github.com/SMTech-UK/workload-wizard-sub001/pkg/response"
)

// EditSessionHeader carries the client's edit session id for assignment changes.
const EditSessionHeader = "X-Edit-Session"

// actorOrAbort returns the request actor, writing 401 when the scope middleware did not run.
func actorOrAbort(c *gin.Context) (models.Actor, bool) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok || actor.OrganisationID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		c.Abort()
		return models.Actor{}, false
	}
	return actor, true
}

func editSession(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(EditSessionHeader))
}

func boolQuery(c *gin.Context, key string) *bool {
	switch strings.ToLower(c.Query(key)) {
	case "true":
		val := true
		return &val
	case "false":
		val := false
		return &val
	}
	return nil
}

func pageQuery(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	return page, size
}

func bindError(err error, what string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid "+what+" payload")
}
