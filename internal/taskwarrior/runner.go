package taskwarrior

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Result holds the captured output of one command run.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes an external program.
//
// A non-zero exit is reported through [Result.ExitCode], not as an error. The
// error is reserved for failures to start or wait for the process.
type Runner interface {
	Run(ctx context.Context, req Request) (Result, error)
}

// Request describes one program invocation.
type Request struct {
	Program string
	Args    []string

	// Stdin is written to the process when non-empty.
	Stdin string

	// Env is appended to the current process environment.
	Env map[string]string
}

// ExecRunner runs programs with [exec.CommandContext].
type ExecRunner struct{}

// Run implements [Runner].
func (ExecRunner) Run(ctx context.Context, req Request) (Result, error) {
	cmd := exec.CommandContext(ctx, req.Program, req.Args...)

	if len(req.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range req.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}

	if req.Stdin != "" {
		cmd.Stdin = strings.NewReader(req.Stdin)
	}

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := Result{Stdout: stdout.String(), Stderr: stderr.String()}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()

		return result, nil
	}

	if err != nil {
		return result, fmt.Errorf("run %s: %w", req.Program, err)
	}

	return result, nil
}
