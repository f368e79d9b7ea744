package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmesh/scheduler/internal/domain"
	"github.com/taskmesh/scheduler/internal/http/response"
)

// withURLParam attaches a chi route param to req the way the router would
// after matching a "/job/{id}" pattern, without standing up a full router.
func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestJobStatus_MalformedIDReturns400EmptyBody(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/job/not-a-uuid", nil)
	req = withURLParam(req, "id", "not-a-uuid")
	rec := httptest.NewRecorder()

	s.JobStatus(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
}

func TestJobStatus_UnknownIDReturns404(t *testing.T) {
	s := newTestServer(t)

	unknown := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/job/"+unknown.String(), nil)
	req = withURLParam(req, "id", unknown.String())
	rec := httptest.NewRecorder()

	s.JobStatus(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var body response.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
}

func TestJobList_BadFilterReturns400(t *testing.T) {
	s := newTestServer(t)

	payload := []byte(`{"status_search":"NOT_A_STATUS"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/job/list", bytes.NewReader(payload))
	rec := httptest.NewRecorder()

	s.JobList(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
}

func TestJobList_ValidFilterReturns200(t *testing.T) {
	s := newTestServer(t)

	payload := []byte(`{"status_search":"PENDING"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/job/list", bytes.NewReader(payload))
	rec := httptest.NewRecorder()

	s.JobList(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body jobListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.List)
}

func TestSubmitJob_DefaultsPriorityToLow(t *testing.T) {
	s := newTestServer(t)

	payload := []byte(`{"command":"echo hi"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/job", bytes.NewReader(payload))
	rec := httptest.NewRecorder()

	s.SubmitJob(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var job domain.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, domain.PriorityLow, job.Priority)
	assert.Equal(t, domain.StatusPending, job.Status)
}
