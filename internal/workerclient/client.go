// Package workerclient is the execution worker's HTTP client for the
// coordinator's dispatcher API: registration, heartbeats, polling for
// work, and reporting results. It is an external collaborator — it knows
// nothing about the queue core's internals, only the wire contract in
// spec §6.
package workerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/taskmesh/scheduler/internal/domain"
)

// ErrNoJob indicates the coordinator's queue was empty when polled.
var ErrNoJob = fmt.Errorf("no job available")

// Client talks to one coordinator over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) Register(ctx context.Context, workerID uuid.UUID, hostname string) (domain.WorkerInfo, error) {
	var info domain.WorkerInfo
	err := c.postJSON(ctx, "/api/worker/register", map[string]any{
		"worker_id": workerID,
		"hostname":  hostname,
	}, &info)
	return info, err
}

func (c *Client) Heartbeat(ctx context.Context, workerID uuid.UUID, timestamp time.Time) error {
	return c.postJSON(ctx, "/api/worker/heartbeat", map[string]any{
		"worker_id": workerID,
		"timestamp": timestamp,
	}, nil)
}

// NextJob polls for the next pending job. Returns ErrNoJob when the
// coordinator's queue is empty (HTTP 404).
func (c *Client) NextJob(ctx context.Context, workerID uuid.UUID) (domain.Job, error) {
	body, err := json.Marshal(map[string]any{"worker_id": workerID})
	if err != nil {
		return domain.Job{}, fmt.Errorf("marshal next-job request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/job/next", bytes.NewReader(body))
	if err != nil {
		return domain.Job{}, fmt.Errorf("build next-job request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Job{}, fmt.Errorf("request next job: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.Job{}, ErrNoJob
	}
	if resp.StatusCode != http.StatusOK {
		return domain.Job{}, fmt.Errorf("unexpected status %d polling for job", resp.StatusCode)
	}

	var job domain.Job
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return domain.Job{}, fmt.Errorf("decode job: %w", err)
	}
	return job, nil
}

func (c *Client) ReportResult(ctx context.Context, jobID uuid.UUID, result domain.JobResult) error {
	return c.postJSON(ctx, fmt.Sprintf("/api/job/%s/results", jobID), result, nil)
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		discard, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d from %s: %s", resp.StatusCode, path, discard)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", path, err)
	}
	return nil
}
