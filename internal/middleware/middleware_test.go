package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
	appErrors "github.com/SMTech-UK/workload-wizard-sub001/pkg/errors"
)

type stubValidator struct{}

func (stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	switch token {
	case "manager":
		return &models.JWTClaims{UserID: "user-1", OrganisationID: "org-1", Role: models.RoleManager}, nil
	case "lecturer":
		return &models.JWTClaims{UserID: "user-2", OrganisationID: "org-1", Role: models.RoleLecturer}, nil
	case "closed":
		return &models.JWTClaims{UserID: "user-3", OrganisationID: "org-closed", Role: models.RoleAdmin}, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

type stubResolver struct{}

func (stubResolver) Resolve(ctx context.Context, id string) (*models.Organisation, error) {
	if id == "org-1" {
		return &models.Organisation{ID: id, IsActive: true}, nil
	}
	return nil, appErrors.Clone(appErrors.ErrForbidden, "organisation is inactive")
}

type recordingObserver struct {
	paths []string
}

func (r *recordingObserver) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	r.paths = append(r.paths, path)
}

func newProtectedRouter(roles ...models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/things", JWT(stubValidator{}), OrganisationScope(stubResolver{}), RequireRoles(roles...), func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, actor.UserID+"@"+actor.OrganisationID)
	})
	return r
}

func perform(r http.Handler, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/things", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestProtectedChain(t *testing.T) {
	r := newProtectedRouter(models.RoleAdmin, models.RoleManager)

	w := perform(r, "Bearer manager")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1@org-1", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, perform(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, "Bearer nope").Code)
	assert.Equal(t, http.StatusForbidden, perform(r, "Bearer lecturer").Code)
	assert.Equal(t, http.StatusForbidden, perform(r, "Bearer closed").Code)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &recordingObserver{}
	r := gin.New()
	r.Use(Metrics(observer))
	r.GET("/lecturers/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/lecturers/abc", "/missing"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	assert.Equal(t, []string{"/lecturers/:id", "unmatched"}, observer.paths)
}

func TestResponseMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var meta map[string]interface{}
	r := gin.New()
	r.Use(WithResponseMeta())
	r.GET("/", func(c *gin.Context) {
		SetCacheHit(c, true)
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, true, meta["cache_hit"])
	assert.Contains(t, meta, "processing_time_ms")
}
