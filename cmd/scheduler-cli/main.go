// Command scheduler-cli is the operator-facing client for a coordinator:
// submit jobs, check status, and list the queue (spec §6, external
// collaborator). Exit code 0 on a successful request, non-zero on a
// transport or protocol failure.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/taskmesh/scheduler/internal/domain"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var coordinatorAddr string

	root := &cobra.Command{
		Use:           "scheduler",
		Short:         "Distributed task scheduler CLI",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&coordinatorAddr, "coordinator", "http://127.0.0.1:8080", "coordinator base URL")

	root.AddCommand(newSubmitCmd(&coordinatorAddr))
	root.AddCommand(newStatusCmd(&coordinatorAddr))
	root.AddCommand(newListCmd(&coordinatorAddr))
	return root
}

func newSubmitCmd(coordinatorAddr *string) *cobra.Command {
	var (
		argsStr  string
		priority string
		schedule string
	)

	cmd := &cobra.Command{
		Use:   "submit <command>",
		Short: "Submit a new job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(*coordinatorAddr)

			var jobArgs []string
			if strings.TrimSpace(argsStr) != "" {
				jobArgs = strings.Fields(argsStr)
			}

			p := domain.PriorityLow
			if priority != "" {
				p = domain.Priority(strings.ToUpper(priority))
			}

			payload := map[string]any{
				"command":  args[0],
				"args":     jobArgs,
				"priority": p,
			}
			if schedule != "" {
				payload["schedule"] = schedule
			}

			var job domain.Job
			if err := client.Submit(cmd.Context(), payload, &job); err != nil {
				return fmt.Errorf("submit job: %w", err)
			}

			fmt.Printf("submitted job %s (status %s)\n", job.ID, job.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&argsStr, "args", "", "space-separated command arguments")
	cmd.Flags().StringVar(&priority, "priority", "", "HIGH, MEDIUM, or LOW (default LOW)")
	cmd.Flags().StringVar(&schedule, "schedule", "", "cron expression for a recurring job")
	return cmd
}

func newStatusCmd(coordinatorAddr *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status <uuid>",
		Short: "Check job status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid job id %q: %w", args[0], err)
			}

			client := newClient(*coordinatorAddr)
			var out struct {
				Job    domain.Job        `json:"job"`
				Result *domain.JobResult `json:"result,omitempty"`
			}
			if err := client.Status(cmd.Context(), id, &out); err != nil {
				return fmt.Errorf("fetch status: %w", err)
			}

			fmt.Printf("job %s: %s (priority %s, retries %d/%d)\n",
				out.Job.ID, out.Job.Status, out.Job.Priority, out.Job.RetryCount, out.Job.MaxRetries)
			if out.Result != nil {
				fmt.Printf("  exitcode=%d\n  stdout=%s\n  stderr=%s\n", out.Result.ExitCode, out.Result.Stdout, out.Result.Stderr)
			}
			return nil
		},
	}
}

func newListCmd(coordinatorAddr *string) *cobra.Command {
	var statusFilter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(*coordinatorAddr)

			payload := map[string]any{}
			if statusFilter != "" {
				payload["status_search"] = domain.JobStatus(strings.ToUpper(statusFilter))
			}

			var out struct {
				List []domain.Job `json:"list"`
			}
			if err := client.List(cmd.Context(), payload, &out); err != nil {
				return fmt.Errorf("list jobs: %w", err)
			}

			for _, job := range out.List {
				fmt.Printf("%s  %-10s  %-8s  %s\n", job.ID, job.Status, job.Priority, job.Command)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&statusFilter, "status", "", "filter by job status")
	return cmd
}

// cliClient is a minimal HTTP client for the three CLI operations; it
// intentionally doesn't reuse workerclient.Client, whose surface is
// shaped for the execution worker's register/heartbeat/poll loop.
type cliClient struct {
	baseURL string
}

func newClient(baseURL string) *cliClient {
	return &cliClient{baseURL: baseURL}
}

func (c *cliClient) Submit(ctx context.Context, payload map[string]any, out *domain.Job) error {
	return postJSON(ctx, c.baseURL+"/api/job", payload, out)
}

func (c *cliClient) Status(ctx context.Context, id uuid.UUID, out any) error {
	return getJSON(ctx, fmt.Sprintf("%s/api/job/%s", c.baseURL, id), out)
}

func (c *cliClient) List(ctx context.Context, payload map[string]any, out any) error {
	return postJSON(ctx, c.baseURL+"/api/job/list", payload, out)
}

func postJSON(ctx context.Context, url string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return doJSON(req, out)
}

func getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return doJSON(req, out)
}

func doJSON(req *http.Request, out any) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("not found (404)")
	}
	if resp.StatusCode == http.StatusBadRequest {
		return fmt.Errorf("malformed request (400)")
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
