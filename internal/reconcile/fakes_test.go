package reconcile_test

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/calvinalkan/habitsync/internal/stats"
	"github.com/calvinalkan/habitsync/internal/task"
)

var (
	now     = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	earlier = now.Add(-time.Hour)
	later   = now.Add(time.Hour)
)

func ts(t time.Time) *time.Time { return &t }

func intPtr(v int) *int { return &v }

func userStats(hp, exp, gold float64, level int) task.UserStats {
	return task.UserStats{
		HP:    hp,
		MaxHP: intPtr(50),
		MP:    30,
		MaxMP: intPtr(30),
		Exp:   exp,
		Gold:  gold,
		Level: level,
	}
}

// fakeRemote records every call as a short string and answers from queues.
type fakeRemote struct {
	calls []string

	tasks []task.RemoteTask
	stats task.UserStats

	createEffects []stats.Effect
	updateEffects []stats.Effect
	scoreEffects  []stats.Effect

	created []task.RemoteTask
	updated []task.RemoteTask

	failOn string
}

func (f *fakeRemote) fail(call string) error {
	if f.failOn != "" && strings.HasPrefix(call, f.failOn) {
		return fmt.Errorf("remote refused %s", call)
	}

	return nil
}

func pop(q *[]stats.Effect) stats.Effect {
	if len(*q) == 0 {
		return stats.Effect{}
	}

	e := (*q)[0]
	*q = (*q)[1:]

	return e
}

func (f *fakeRemote) CreateTask(_ context.Context, t task.RemoteTask) (task.RemoteTask, stats.Effect, error) {
	call := "create " + t.Text
	f.calls = append(f.calls, call)

	if err := f.fail(call); err != nil {
		return task.RemoteTask{}, stats.Effect{}, err
	}

	f.created = append(f.created, t)
	t.ID = uuid.New()

	return t, pop(&f.createEffects), nil
}

func (f *fakeRemote) UpdateTask(_ context.Context, t task.RemoteTask) (task.RemoteTask, stats.Effect, error) {
	call := "update " + t.Text
	f.calls = append(f.calls, call)

	if err := f.fail(call); err != nil {
		return task.RemoteTask{}, stats.Effect{}, err
	}

	f.updated = append(f.updated, t)

	return t, pop(&f.updateEffects), nil
}

func (f *fakeRemote) DeleteTask(_ context.Context, id uuid.UUID) error {
	call := "delete " + id.String()
	f.calls = append(f.calls, call)

	return f.fail(call)
}

func (f *fakeRemote) ScoreTask(_ context.Context, id uuid.UUID, dir task.Direction) (stats.Effect, error) {
	call := "score " + string(dir) + " " + id.String()
	f.calls = append(f.calls, call)

	if err := f.fail(call); err != nil {
		return stats.Effect{}, err
	}

	return pop(&f.scoreEffects), nil
}

func (f *fakeRemote) AllTasks(context.Context) ([]task.RemoteTask, error) {
	return f.tasks, nil
}

func (f *fakeRemote) UserStats(context.Context) (task.UserStats, error) {
	return f.stats, nil
}

// fakeNotes keeps notes in memory and mirrors nothing.
type fakeNotes struct {
	notes    map[uuid.UUID]string
	imported map[uuid.UUID]string
}

func newFakeNotes() *fakeNotes {
	return &fakeNotes{notes: map[uuid.UUID]string{}, imported: map[uuid.UUID]string{}}
}

func (f *fakeNotes) Read(id uuid.UUID) (string, bool, error) {
	text, ok := f.notes[id]

	return text, ok, nil
}

func (f *fakeNotes) Import(t *task.LocalTask, text string) error {
	f.imported[t.ID] = text

	if text == "" {
		delete(f.notes, t.ID)
	} else {
		f.notes[t.ID] = text
	}

	return nil
}

type fakeLocal struct {
	unlinked []task.LocalTask
	linked   []task.LocalTask
	imported []task.LocalTask

	// onImport runs after each import, e.g. to cancel a context.
	onImport func()
}

func (f *fakeLocal) PendingUnlinked(context.Context) ([]task.LocalTask, error) {
	return f.unlinked, nil
}

func (f *fakeLocal) Linked(context.Context) ([]task.LocalTask, error) {
	return f.linked, nil
}

func (f *fakeLocal) Import(_ context.Context, t task.LocalTask) error {
	f.imported = append(f.imported, t)

	if f.onImport != nil {
		f.onImport()
	}

	return nil
}
