// Package taskwarrior drives the local task manager through its command line:
// JSON export, single-record import and rc value lookups.
package taskwarrior

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/calvinalkan/habitsync/internal/task"
)

// RunningEnv is set to "1" in the environment of every child process, so hook
// invocations triggered by our own imports can pass records through untouched.
const RunningEnv = "HABITSYNC_RUNNING"

// DefaultCommand is the task manager binary looked up on PATH.
const DefaultCommand = "task"

var (
	// ErrCommandFailed is returned when the task command cannot run or exits
	// non-zero.
	ErrCommandFailed = errors.New("task command failed")

	// ErrParse is returned when export output is not a JSON task array.
	ErrParse = errors.New("cannot parse task output")
)

// Client runs the task command.
type Client struct {
	command string
	runner  Runner
	log     zerolog.Logger
}

// New returns a Client. An empty command uses [DefaultCommand]; a nil runner
// uses [ExecRunner].
func New(command string, runner Runner, log zerolog.Logger) *Client {
	if command == "" {
		command = DefaultCommand
	}

	if runner == nil {
		runner = ExecRunner{}
	}

	return &Client{command: command, runner: runner, log: log}
}

// Export returns the tasks matching filters.
func (c *Client) Export(ctx context.Context, filters ...string) ([]task.LocalTask, error) {
	args := append(append([]string{}, filters...), "export")

	out, err := c.run(ctx, "", args...)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	out = strings.TrimSpace(out)
	if out == "" || out == "[]" {
		return nil, nil
	}

	var tasks []task.LocalTask

	err = json.Unmarshal([]byte(out), &tasks)
	if err != nil {
		return nil, fmt.Errorf("export: %w: %w", ErrParse, err)
	}

	return tasks, nil
}

// PendingUnlinked returns pending tasks that have no remote id yet.
func (c *Client) PendingUnlinked(ctx context.Context) ([]task.LocalTask, error) {
	return c.Export(ctx, "status:pending", task.KeyRemoteID+".none:")
}

// Linked returns every task that carries a remote id, in any status.
func (c *Client) Linked(ctx context.Context) ([]task.LocalTask, error) {
	return c.Export(ctx, task.KeyRemoteID+".any:")
}

// Import writes t back to the task manager, replacing the record with the
// same uuid. The import is not interrupted by ctx cancellation.
func (c *Client) Import(ctx context.Context, t task.LocalTask) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("import %s: encode: %w", t.ID, err)
	}

	_, err = c.run(context.WithoutCancel(ctx), string(data), "import", "-")
	if err != nil {
		return fmt.Errorf("import %s: %w", t.ID, err)
	}

	return nil
}

// Get returns the rc value for key, e.g. "rc.habitica.user_id".
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	out, err := c.run(ctx, "", "_get", key)
	if err != nil {
		return "", fmt.Errorf("_get %s: %w", key, err)
	}

	return strings.TrimSpace(out), nil
}

func (c *Client) run(ctx context.Context, stdin string, args ...string) (string, error) {
	req := Request{
		Program: c.command,
		Args:    append([]string{"rc.hooks=off"}, args...),
		Stdin:   stdin,
		Env:     map[string]string{RunningEnv: "1"},
	}

	res, err := c.runner.Run(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCommandFailed, err)
	}

	c.log.Debug().
		Strs("args", req.Args).
		Int("exit", res.ExitCode).
		Msg("task command")

	if res.ExitCode != 0 {
		return "", fmt.Errorf("%w: exit %d: %s", ErrCommandFailed, res.ExitCode, strings.TrimSpace(res.Stderr))
	}

	return res.Stdout, nil
}
