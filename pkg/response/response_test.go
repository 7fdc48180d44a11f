package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
	appErrors "github.com/SMTech-UK/workload-wizard-sub001/pkg/errors"
)

func TestBatchIncludesSummary(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Batch(c, []models.BulkResult{
		{Success: true, ID: "m1", Code: "CS101"},
		{Success: false, Code: "CS102", Error: "Credits must be greater than 0"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	var env struct {
		Data []models.BulkResult `json:"data"`
		Meta map[string]float64  `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Len(t, env.Data, 2)
	assert.Equal(t, float64(2), env.Meta["total"])
	assert.Equal(t, float64(1), env.Meta["successful"])
	assert.Equal(t, float64(1), env.Meta["failed"])
}

func TestErrorUsesTypedStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, appErrors.Clone(appErrors.ErrCapacityExceeded, "over capacity"))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "CAPACITY_EXCEEDED")
}

func TestErrorWithDataKeepsPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	ErrorWithData(c, appErrors.Clone(appErrors.ErrCapacityExceeded, "over capacity"), map[string]float64{"remaining": -5})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var env struct {
		Data  map[string]float64 `json:"data"`
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, -5.0, env.Data["remaining"])
	assert.Equal(t, "CAPACITY_EXCEEDED", env.Error.Code)
}
