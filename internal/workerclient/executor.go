package workerclient

import (
	"bytes"
	"context"
	"os/exec"
	"runtime"

	"github.com/taskmesh/scheduler/internal/domain"
)

// Execute runs job's command through the platform shell (sh -c on
// POSIX, cmd /C on Windows), matching the original worker's behavior of
// letting the shell interpret the command string, with args appended
// verbatim.
func Execute(ctx context.Context, job domain.Job) domain.JobResult {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "cmd", append([]string{"/C", job.Command}, job.Args...)...)
	} else {
		// "$@" expands to the args; "sh" fills $0 so no arg is consumed.
		cmd = exec.CommandContext(ctx, "sh", append([]string{"-c", job.Command + ` "$@"`, "sh"}, job.Args...)...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	exitCode := int32(0)
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = int32(exitErr.ExitCode())
		} else {
			exitCode = -1
		}
	}

	return domain.JobResult{
		ExitCode: exitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}
}
