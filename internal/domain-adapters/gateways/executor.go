package gateways

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ilastik/app-pass/internal/domain/entities"
	"github.com/ilastik/app-pass/internal/domain/interfaces"
	"github.com/ilastik/app-pass/internal/domain/interfaces/gateways"
)

// execRunner invokes external tools via os/exec, capturing exit
// status, stdout and stderr.
type execRunner struct {
	logger interfaces.Logger
}

// NewCommandRunner creates a new external-tool runner
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewCommandRunner(logger interfaces.Logger) *execRunner {
	return &execRunner{logger: logger}
}

// Run executes one command and waits for completion. A non-zero exit
// yields a *entities.ToolError carrying the captured output.
func (r *execRunner) Run(ctx context.Context, cmd entities.Command) (*gateways.RunResult, error) {
	if len(cmd.Args) == 0 {
		return nil, fmt.Errorf("cannot run empty command")
	}

	r.logger.Debug("about to execute", interfaces.F("command", strings.Join(cmd.Args, " ")))

	//nolint:gosec // G204: argument vectors are built by the repair planner
	c := exec.CommandContext(ctx, cmd.Args[0], cmd.Args[1:]...)
	if cmd.Cwd != "" {
		c.Dir = cmd.Cwd
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	result := &gateways.RunResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, &entities.ToolError{
				Args:     cmd.Args,
				ExitCode: result.ExitCode,
				Stdout:   result.Stdout,
				Stderr:   result.Stderr,
			}
		}
		return result, fmt.Errorf("failed to run %s: %w", cmd.Args[0], err)
	}

	r.logger.Info("successful command",
		interfaces.F("command", strings.Join(cmd.Args, " ")),
		interfaces.F("exit_code", 0))
	return result, nil
}

// Executor applies an ordered command list: every command is offered
// to the recorders first, then run unless the executor is in dry-run
// mode. Execution is strictly sequential and fail-fast; the first
// failing command abandons the rest.
type Executor struct {
	runner    gateways.CommandRunner
	recorders []Recorder
	dryRun    bool
	logger    interfaces.Logger
}

// NewExecutor creates an executor. Recorders may be empty; a nil
// runner is only valid together with dryRun.
func NewExecutor(runner gateways.CommandRunner, recorders []Recorder, dryRun bool, logger interfaces.Logger) *Executor {
	return &Executor{
		runner:    runner,
		recorders: recorders,
		dryRun:    dryRun,
		logger:    logger,
	}
}

// Apply records and (unless dry-run) executes the commands in order.
func (e *Executor) Apply(ctx context.Context, cmds []entities.Command) error {
	for _, cmd := range cmds {
		for _, rec := range e.recorders {
			if err := rec.Record(cmd); err != nil {
				return fmt.Errorf("failed to record command: %w", err)
			}
		}

		if e.dryRun {
			e.logger.Debug("dry run, skipping execution",
				interfaces.F("command", strings.Join(cmd.Args, " ")))
			continue
		}

		if _, err := e.runner.Run(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}
