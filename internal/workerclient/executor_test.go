package workerclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskmesh/scheduler/internal/domain"
)

func TestExecute_CapturesStdoutAndZeroExit(t *testing.T) {
	result := Execute(context.Background(), domain.Job{Command: "echo hello"})
	assert.Equal(t, int32(0), result.ExitCode)
	assert.Contains(t, result.Stdout, "hello")
}

func TestExecute_CapturesNonZeroExit(t *testing.T) {
	result := Execute(context.Background(), domain.Job{Command: "exit 3"})
	assert.Equal(t, int32(3), result.ExitCode)
}
