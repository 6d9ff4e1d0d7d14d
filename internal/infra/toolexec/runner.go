// Package toolexec runs external command-line tools without a shell and
// classifies their outcome.
package toolexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"signature-service/internal/domain"
	"signature-service/internal/infra/logging"
)

// Result holds the captured output of a finished command.
type Result struct {
	Stdout []byte
	Stderr []byte
}

// Runner abstracts command execution to enable testing without real subprocesses.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// ExecRunner implements Runner using os/exec. Arguments are passed as an
// argv array; no shell ever interprets them.
type ExecRunner struct {
	// Timeout bounds a single invocation. Zero means no limit.
	Timeout time.Duration
}

// NewExecRunner creates an ExecRunner with the given per-invocation timeout.
func NewExecRunner(timeout time.Duration) *ExecRunner {
	return &ExecRunner{Timeout: timeout}
}

// Run starts name with args, waits for it and returns stdout and stderr.
// A missing executable, a non-zero exit or a timeout is reported as
// domain.ErrToolInvocation.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	logging.Info("Executing command", "command", name, "args", args)

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	configureProcessGroup(cmd)

	start := time.Now()
	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err == nil {
		logging.Debug("Command finished", "command", name, "duration_ms", time.Since(start).Milliseconds())
		return res, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, fmt.Errorf("%w: %s: %w", domain.ErrToolInvocation, name, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		return res, fmt.Errorf("%w: %s exited with code %d: %s", domain.ErrToolInvocation, name, exitErr.ExitCode(), msg)
	}
	return res, fmt.Errorf("%w: %s: %w", domain.ErrToolInvocation, name, err)
}
