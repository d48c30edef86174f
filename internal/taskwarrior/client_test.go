package taskwarrior_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/calvinalkan/habitsync/internal/task"
	"github.com/calvinalkan/habitsync/internal/taskwarrior"
)

type fakeRunner struct {
	requests []taskwarrior.Request
	results  []taskwarrior.Result
	err      error
}

func (f *fakeRunner) Run(_ context.Context, req taskwarrior.Request) (taskwarrior.Result, error) {
	f.requests = append(f.requests, req)

	if f.err != nil {
		return taskwarrior.Result{}, f.err
	}

	if len(f.results) == 0 {
		return taskwarrior.Result{}, nil
	}

	res := f.results[0]
	f.results = f.results[1:]

	return res, nil
}

func TestExportBuildsArgsAndParses(t *testing.T) {
	t.Parallel()

	id := uuid.MustParse("5f2a4d1e-9c1b-4c59-8f3e-2a7b3c4d5e6f")
	runner := &fakeRunner{results: []taskwarrior.Result{{
		Stdout: `[{"uuid":"` + id.String() + `","description":"Buy milk","status":"pending","project":"home"}]` + "\n",
	}}}

	client := taskwarrior.New("", runner, zerolog.Nop())

	tasks, err := client.PendingUnlinked(context.Background())
	if err != nil {
		t.Fatalf("PendingUnlinked: %v", err)
	}

	if got, want := len(tasks), 1; got != want {
		t.Fatalf("len(tasks)=%d, want=%d", got, want)
	}

	if got, want := tasks[0].ID, id; got != want {
		t.Errorf("ID=%v, want=%v", got, want)
	}

	if got, want := tasks[0].Extra.Keys(), []string{"project"}; !cmp.Equal(got, want) {
		t.Errorf("extra keys=%v, want=%v", got, want)
	}

	req := runner.requests[0]

	if got, want := req.Program, "task"; got != want {
		t.Errorf("Program=%q, want=%q", got, want)
	}

	wantArgs := []string{"rc.hooks=off", "status:pending", "habitica_uuid.none:", "export"}
	if diff := cmp.Diff(wantArgs, req.Args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}

	if got, want := req.Env[taskwarrior.RunningEnv], "1"; got != want {
		t.Errorf("env %s=%q, want=%q", taskwarrior.RunningEnv, got, want)
	}
}

func TestExportEmptyOutput(t *testing.T) {
	t.Parallel()

	for _, out := range []string{"", "  \n", "[]", "[]\n"} {
		runner := &fakeRunner{results: []taskwarrior.Result{{Stdout: out}}}
		client := taskwarrior.New("task", runner, zerolog.Nop())

		tasks, err := client.Linked(context.Background())
		if err != nil {
			t.Fatalf("Linked(%q): %v", out, err)
		}

		if len(tasks) != 0 {
			t.Errorf("Linked(%q)=%v, want empty", out, tasks)
		}

		if got, want := runner.requests[0].Args[1], "habitica_uuid.any:"; got != want {
			t.Errorf("filter=%q, want=%q", got, want)
		}
	}
}

func TestExportErrors(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name   string
		runner *fakeRunner
		want   error
	}{
		{
			name:   "non-zero exit",
			runner: &fakeRunner{results: []taskwarrior.Result{{ExitCode: 2, Stderr: "No matches."}}},
			want:   taskwarrior.ErrCommandFailed,
		},
		{
			name:   "cannot start",
			runner: &fakeRunner{err: errors.New("executable file not found")},
			want:   taskwarrior.ErrCommandFailed,
		},
		{
			name:   "bad json",
			runner: &fakeRunner{results: []taskwarrior.Result{{Stdout: "Configuration override"}}},
			want:   taskwarrior.ErrParse,
		},
	} {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := taskwarrior.New("task", tt.runner, zerolog.Nop())

			_, err := client.Export(context.Background())
			if !errors.Is(err, tt.want) {
				t.Errorf("err=%v, want %v", err, tt.want)
			}
		})
	}
}

func TestImportSendsRecordOnStdin(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	client := taskwarrior.New("/usr/local/bin/task", runner, zerolog.Nop())

	tsk := task.LocalTask{
		ID:          uuid.MustParse("5f2a4d1e-9c1b-4c59-8f3e-2a7b3c4d5e6f"),
		Description: "Buy milk",
		Status:      task.StatusPending,
		RemoteID:    uuid.MustParse("0c9d8e7f-6a5b-4c3d-9e1f-0a1b2c3d4e5f"),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.Import(ctx, tsk)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	req := runner.requests[0]

	if got, want := req.Program, "/usr/local/bin/task"; got != want {
		t.Errorf("Program=%q, want=%q", got, want)
	}

	if diff := cmp.Diff([]string{"rc.hooks=off", "import", "-"}, req.Args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}

	if !strings.Contains(req.Stdin, `"habitica_uuid":"0c9d8e7f-6a5b-4c3d-9e1f-0a1b2c3d4e5f"`) {
		t.Errorf("stdin=%s, want remote id", req.Stdin)
	}
}

func TestGetTrimsValue(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{results: []taskwarrior.Result{{Stdout: "abc-123\n"}}}
	client := taskwarrior.New("task", runner, zerolog.Nop())

	got, err := client.Get(context.Background(), "rc.habitica.user_id")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if want := "abc-123"; got != want {
		t.Errorf("Get=%q, want=%q", got, want)
	}

	if diff := cmp.Diff([]string{"rc.hooks=off", "_get", "rc.habitica.user_id"}, runner.requests[0].Args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}
