package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/middleware"
	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
	"github.com/SMTech-UK/workload-wizard-sub001/internal/service"
	appErrors "github.com/SMTech-UK/workload-wizard-sub001/pkg/errors"
)

var handlerActor = models.Actor{UserID: "user-1", OrganisationID: "org-1"}

func newTestContext(method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req, _ := http.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextActorKey, handlerActor)
	return c, w
}

type adminAllocationServiceMock struct {
	check      *service.AllocationCheck
	err        error
	lecturerID string
	entries    int
}

func (m *adminAllocationServiceMock) List(ctx context.Context, actor models.Actor, lecturerID string) ([]models.AdminAllocation, error) {
	return nil, m.err
}

func (m *adminAllocationServiceMock) Preview(ctx context.Context, actor models.Actor, lecturerID string, req service.SaveAdminAllocationsRequest) (*service.AllocationCheck, error) {
	return m.check, m.err
}

func (m *adminAllocationServiceMock) Save(ctx context.Context, actor models.Actor, lecturerID string, req service.SaveAdminAllocationsRequest) (*service.AllocationCheck, error) {
	m.lecturerID = lecturerID
	m.entries = len(req.Entries)
	return m.check, m.err
}

func TestAdminAllocationSaveRejectedCarriesCheck(t *testing.T) {
	mock := &adminAllocationServiceMock{
		check: &service.AllocationCheck{Capacity: 5, Delta: 10, Remaining: -5},
		err:   appErrors.Clone(appErrors.ErrCapacityExceeded, "Allocation exceeds available capacity by 5.00 hours"),
	}
	h := NewAdminAllocationHandler(mock)

	c, w := newTestContext(http.MethodPut, "/lecturers/lec-1/admin-allocations", `{"entries":[{"category":"Admin","hours":50}]}`)
	c.Params = gin.Params{{Key: "id", Value: "lec-1"}}
	h.Save(c)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "lec-1", mock.lecturerID)
	assert.Equal(t, 1, mock.entries)
	var env struct {
		Data  service.AllocationCheck `json:"data"`
		Error appErrors.Error         `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "CAPACITY_EXCEEDED", env.Error.Code)
	assert.Equal(t, -5.0, env.Data.Remaining)
}

func TestAdminAllocationSaveInvalidBody(t *testing.T) {
	h := NewAdminAllocationHandler(&adminAllocationServiceMock{})
	c, w := newTestContext(http.MethodPut, "/lecturers/lec-1/admin-allocations", `{"entries":`)
	h.Save(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlersRequireActor(t *testing.T) {
	h := NewAdminAllocationHandler(&adminAllocationServiceMock{})
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/lecturers/lec-1/admin-allocations", nil)

	h.List(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

type iterationServiceMock struct {
	lastReq  service.AssignmentRequest
	sessions map[string][]string
}

func (m *iterationServiceMock) Get(ctx context.Context, actor models.Actor, id string) (*models.ModuleIteration, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "module iteration not found")
}

func (m *iterationServiceMock) ListByYear(ctx context.Context, actor models.Actor, academicYearID string) ([]models.ModuleIteration, error) {
	return nil, nil
}

func (m *iterationServiceMock) Allocations(ctx context.Context, actor models.Actor, id string) ([]models.ModuleAllocation, error) {
	return nil, nil
}

func (m *iterationServiceMock) Create(ctx context.Context, actor models.Actor, req service.CreateIterationRequest) (*models.ModuleIteration, error) {
	return &models.ModuleIteration{ID: "it-1"}, nil
}

func (m *iterationServiceMock) Delete(ctx context.Context, actor models.Actor, id string) error {
	return nil
}

func (m *iterationServiceMock) Assign(ctx context.Context, actor models.Actor, iterationID string, req service.AssignmentRequest) (*models.ModuleIteration, error) {
	m.lastReq = req
	m.sessions[req.SessionID] = append(m.sessions[req.SessionID], iterationID)
	return &models.ModuleIteration{ID: iterationID}, nil
}

func (m *iterationServiceMock) Unassign(ctx context.Context, actor models.Actor, iterationID string, req service.AssignmentRequest) (*models.ModuleIteration, error) {
	m.lastReq = req
	return &models.ModuleIteration{ID: iterationID}, nil
}

func (m *iterationServiceMock) SetStatus(ctx context.Context, actor models.Actor, iterationID string, req service.SetIterationStatusRequest) (*models.ModuleIteration, error) {
	return &models.ModuleIteration{ID: iterationID}, nil
}

func (m *iterationServiceMock) Pending(session string) []string {
	return m.sessions[session]
}

func (m *iterationServiceMock) Flush(session string) []string {
	ids := m.sessions[session]
	delete(m.sessions, session)
	return ids
}

func TestModuleIterationAssignScopesSession(t *testing.T) {
	mock := &iterationServiceMock{sessions: map[string][]string{}}
	h := NewModuleIterationHandler(mock)

	c, w := newTestContext(http.MethodPost, "/module-iterations/it-1/assignments", `{"lecturer_id":"lec-9"}`)
	c.Request.Header.Set(EditSessionHeader, "tab-1")
	c.Params = gin.Params{{Key: "id", Value: "it-1"}}
	h.Assign(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "lec-9", mock.lastReq.LecturerID)
	assert.Equal(t, "org-1/user-1/tab-1", mock.lastReq.SessionID)

	c, w = newTestContext(http.MethodPost, "/edit-session/flush", "")
	c.Request.Header.Set(EditSessionHeader, "tab-1")
	h.Flush(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"flushed":["it-1"]}}`, w.Body.String())
}

func TestModuleIterationFlushRequiresSession(t *testing.T) {
	h := NewModuleIterationHandler(&iterationServiceMock{sessions: map[string][]string{}})
	c, w := newTestContext(http.MethodPost, "/edit-session/flush", "")
	h.Flush(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestModuleIterationUnassignUsesPathLecturer(t *testing.T) {
	mock := &iterationServiceMock{sessions: map[string][]string{}}
	h := NewModuleIterationHandler(mock)

	c, w := newTestContext(http.MethodDelete, "/module-iterations/it-1/assignments/lec-2", "")
	c.Params = gin.Params{{Key: "id", Value: "it-1"}, {Key: "lecturerId", Value: "lec-2"}}
	h.Unassign(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "lec-2", mock.lastReq.LecturerID)
	assert.Empty(t, mock.lastReq.SessionID)
}

type batchServiceMock struct {
	results []models.BulkResult
}

func (m *batchServiceMock) ImportModules(ctx context.Context, actor models.Actor, req service.BulkImportRequest) ([]models.BulkResult, error) {
	return m.results, nil
}

func (m *batchServiceMock) RolloverModules(ctx context.Context, actor models.Actor, req service.RolloverRequest) ([]models.BulkResult, error) {
	return m.results, nil
}

func (m *batchServiceMock) RolloverLecturers(ctx context.Context, actor models.Actor, req service.RolloverRequest) ([]models.BulkResult, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "academic year not found")
}

func TestBatchRolloverRendersResults(t *testing.T) {
	h := NewBatchHandler(&batchServiceMock{results: []models.BulkResult{
		{Success: true, ID: "m-1", Code: "CS101"},
		{Success: false, Code: "CS102", Error: service.MessageAlreadyInYear},
	}})

	c, w := newTestContext(http.MethodPost, "/rollover/modules", `{"academic_year_id":"ay-2"}`)
	h.RolloverModules(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"failed":1`)

	c, w = newTestContext(http.MethodPost, "/rollover/lecturers", `{"academic_year_id":"ay-x"}`)
	h.RolloverLecturers(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReadyReportsFailingDependency(t *testing.T) {
	h := NewMetricsHandler(nil, map[string]DependencyCheck{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})

	c, w := newTestContext(http.MethodGet, "/ready", "")
	h.Ready(c)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"degraded","checks":{"postgres":"ok","redis":"connection refused"}}`, w.Body.String())

	c, w = newTestContext(http.MethodGet, "/metrics", "")
	h.Prometheus(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
