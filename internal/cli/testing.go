package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/calvinalkan/habitsync/internal/habitica"
	"github.com/calvinalkan/habitsync/internal/task"
	"github.com/calvinalkan/habitsync/internal/taskwarrior"
)

// CLI provides a clean interface for running CLI commands in tests.
// It manages a temp directory used as working and home directory, the
// environment, and the task manager runner.
type CLI struct {
	t   *testing.T
	Dir string
	Env map[string]string

	// Runner replaces the task manager process. Nil runs the real binary.
	Runner taskwarrior.Runner

	// Clock fixes the time seen by hooks and sync. Nil uses the system clock.
	Clock task.Clock
}

// NewCLI creates a new test CLI with a temp directory as HOME.
func NewCLI(t *testing.T) *CLI {
	t.Helper()

	dir := t.TempDir()

	return &CLI{
		t:   t,
		Dir: dir,
		Env: map[string]string{"HOME": dir},
	}
}

// Run executes the CLI with the given args and returns stdout, stderr, and exit code.
// Args should not include "habitsync" or "--cwd" - those are added automatically.
func (r *CLI) Run(args ...string) (string, string, int) {
	return r.RunWithInput("", args...)
}

// RunWithInput executes the CLI with stdin and returns stdout, stderr, and exit code.
// stdin must be a string or io.Reader; panics otherwise.
func (r *CLI) RunWithInput(stdin any, args ...string) (string, string, int) {
	var inReader io.Reader

	switch v := stdin.(type) {
	case string:
		inReader = strings.NewReader(v)
	case io.Reader:
		inReader = v
	default:
		panic(fmt.Sprintf("stdin must be string or io.Reader, got %T", stdin))
	}

	var outBuf, errBuf bytes.Buffer

	fullArgs := append([]string{"habitsync", "--cwd", r.Dir}, args...)
	code := run(inReader, &outBuf, &errBuf, fullArgs, r.Env, nil, r.deps())

	return outBuf.String(), errBuf.String(), code
}

// RunHook executes the binary as if installed as the named hook script.
// Hooks get no global flags, so they only see the global config.
func (r *CLI) RunHook(script, stdin string) (string, string, int) {
	var outBuf, errBuf bytes.Buffer

	args := []string{filepath.Join(r.Dir, "hooks", script), "api:2", "command:add"}
	code := run(strings.NewReader(stdin), &outBuf, &errBuf, args, r.Env, nil, r.deps())

	return outBuf.String(), errBuf.String(), code
}

func (r *CLI) deps() deps {
	return deps{
		runner:  r.Runner,
		clock:   r.Clock,
		limiter: habitica.NewLimiter(0),
	}
}

// MustRun executes the CLI and fails the test if the command returns non-zero.
// Returns trimmed stdout on success.
func (r *CLI) MustRun(args ...string) string {
	r.t.Helper()

	stdout, stderr, code := r.Run(args...)
	if code != 0 {
		r.t.Fatalf("command %v failed with exit code %d\nstderr: %s", args, code, stderr)
	}

	return strings.TrimSpace(stdout)
}

// MustFail executes the CLI and fails the test if the command succeeds.
// Also fails if stdout is not empty. Returns trimmed stderr.
func (r *CLI) MustFail(args ...string) string {
	r.t.Helper()

	stdout, stderr, code := r.Run(args...)
	if code == 0 {
		r.t.Fatalf("command %v should have failed but succeeded\nstdout: %s", args, stdout)
	}

	if stdout != "" {
		r.t.Fatalf("command %v failed but stdout should be empty\nstdout: %s", args, stdout)
	}

	return strings.TrimSpace(stderr)
}

// WriteConfig writes the project config file.
func (r *CLI) WriteConfig(content string) {
	r.t.Helper()

	r.WriteFile(".habitsync.json", content)
}

// WriteGlobalConfig writes the user config file under HOME.
func (r *CLI) WriteGlobalConfig(content string) {
	r.t.Helper()

	r.WriteFile(filepath.Join(".config", "habitsync", "config.json"), content)
}

// WriteFile writes content to a path relative to Dir, creating parents.
func (r *CLI) WriteFile(rel, content string) {
	r.t.Helper()

	path := filepath.Join(r.Dir, rel)

	err := os.MkdirAll(filepath.Dir(path), 0o750)
	if err != nil {
		r.t.Fatalf("failed to create dir for %s: %v", rel, err)
	}

	err = os.WriteFile(path, []byte(content), 0o600)
	if err != nil {
		r.t.Fatalf("failed to write %s: %v", rel, err)
	}
}

// ReadFile returns the content of a path relative to Dir.
func (r *CLI) ReadFile(rel string) string {
	r.t.Helper()

	content, err := os.ReadFile(filepath.Join(r.Dir, rel))
	if err != nil {
		r.t.Fatalf("failed to read %s: %v", rel, err)
	}

	return string(content)
}

// FileExists reports whether a path relative to Dir exists.
func (r *CLI) FileExists(rel string) bool {
	_, err := os.Stat(filepath.Join(r.Dir, rel))

	return err == nil
}

// AssertContains fails the test if content doesn't contain substr.
func AssertContains(t *testing.T, content, substr string) {
	t.Helper()

	if !strings.Contains(content, substr) {
		t.Errorf("content should contain %q\ncontent:\n%s", substr, content)
	}
}

// AssertNotContains fails the test if content contains substr.
func AssertNotContains(t *testing.T, content, substr string) {
	t.Helper()

	if !strings.Contains(content, substr) {
		return
	}

	t.Errorf("content should NOT contain %q\ncontent:\n%s", substr, content)
}
