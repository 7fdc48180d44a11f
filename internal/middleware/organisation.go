package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
	appErrors "github.com/SMTech-UK/workload-wizard-sub001/pkg/errors"
	"github.com/SMTech-UK/workload-wizard-sub001/pkg/response"
)

// Context keys set by OrganisationScope.
const (
	ContextActorKey        = "actor"
	ContextOrganisationKey = "organisation"
)

// OrganisationResolver loads an active organisation by id.
type OrganisationResolver interface {
	Resolve(ctx context.Context, id string) (*models.Organisation, error)
}

// OrganisationScope resolves the token's organisation once per request and stores the actor.
// It must run after JWT.
func OrganisationScope(resolver OrganisationResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		org, err := resolver.Resolve(c.Request.Context(), claims.OrganisationID)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextOrganisationKey, org)
		c.Set(ContextActorKey, models.Actor{UserID: claims.UserID, OrganisationID: org.ID})
		c.Next()
	}
}

// ActorFromContext returns the actor stored by OrganisationScope.
func ActorFromContext(c *gin.Context) (models.Actor, bool) {
	value, exists := c.Get(ContextActorKey)
	if !exists {
		return models.Actor{}, false
	}
	actor, ok := value.(models.Actor)
	return actor, ok
}
