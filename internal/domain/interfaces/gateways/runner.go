package gateways

import (
	"context"

	"github.com/ilastik/app-pass/internal/domain/entities"
)

// RunResult captures the outcome of one external tool invocation.
type RunResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// CommandRunner executes a single command and waits for completion.
// A non-zero exit yields a *entities.ToolError alongside the captured
// output.
type CommandRunner interface {
	Run(ctx context.Context, cmd entities.Command) (*RunResult, error)
}
