package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextJob_EmptyQueueReturns404TextBody(t *testing.T) {
	s := newTestServer(t)

	payload := []byte(`{"worker_id":"` + uuid.New().String() + `"}`)
	req := httptest.NewRequest(http.MethodGet, "/api/job/next", bytes.NewReader(payload))
	rec := httptest.NewRecorder()

	s.NextJob(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no job available", rec.Body.String())
}

func TestRegisterWorker_ReturnsWorkerInfo(t *testing.T) {
	s := newTestServer(t)

	workerID := uuid.New()
	payload := []byte(`{"worker_id":"` + workerID.String() + `","hostname":"h1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/worker/register", bytes.NewReader(payload))
	rec := httptest.NewRecorder()

	s.RegisterWorker(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}
