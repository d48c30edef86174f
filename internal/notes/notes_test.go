package notes_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/calvinalkan/habitsync/internal/fs"
	"github.com/calvinalkan/habitsync/internal/notes"
	"github.com/calvinalkan/habitsync/internal/task"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newStore(t *testing.T) (*notes.Store, string) {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "notes")

	return notes.New(fs.NewReal(), dir, "[tasknote]", ".txt", task.FixedClock(now)), dir
}

func TestPathUsesIDAndExtension(t *testing.T) {
	t.Parallel()

	store, dir := newStore(t)
	id := uuid.MustParse("1b4e28ba-2fa1-11d2-883f-0016d3cca427")

	if got, want := store.Path(id), filepath.Join(dir, "1b4e28ba-2fa1-11d2-883f-0016d3cca427.txt"); got != want {
		t.Errorf("Path=%q, want=%q", got, want)
	}
}

func TestWriteReadDelete(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t)
	id := uuid.New()

	_, exists, err := store.Read(id)
	if err != nil || exists {
		t.Fatalf("Read before write: exists=%t err=%v", exists, err)
	}

	err = store.Write(id, "line one\nline two")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	text, exists, err := store.Read(id)
	if err != nil || !exists {
		t.Fatalf("Read: exists=%t err=%v", exists, err)
	}

	if got, want := text, "line one\nline two"; got != want {
		t.Errorf("text=%q, want=%q", got, want)
	}

	err = store.Delete(id)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}

	err = store.Delete(id)
	if err != nil {
		t.Fatalf("second Delete: %v", err)
	}
}

func TestImportWritesNoteAndMirrorsFirstLine(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t)
	earlier := now.Add(-time.Hour)
	tsk := task.LocalTask{
		ID: uuid.New(),
		Annotations: []task.Annotation{
			{Entry: earlier, Description: "[tasknote] old first line"},
			{Entry: earlier, Description: "called the plumber"},
		},
	}

	err := store.Import(&tsk, "  new first line  \nmore detail")
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	want := []task.Annotation{
		{Entry: now, Description: "[tasknote] new first line"},
		{Entry: earlier, Description: "called the plumber"},
	}

	if diff := cmp.Diff(want, tsk.Annotations); diff != "" {
		t.Errorf("annotations mismatch (-want +got):\n%s", diff)
	}

	text, _, _ := store.Read(tsk.ID)
	if got, want := text, "  new first line  \nmore detail"; got != want {
		t.Errorf("note=%q, want=%q", got, want)
	}
}

func TestImportKeepsUnchangedMirrorTimestamp(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t)
	earlier := now.Add(-24 * time.Hour)
	tsk := task.LocalTask{
		ID:          uuid.New(),
		Annotations: []task.Annotation{{Entry: earlier, Description: "[tasknote] same"}},
	}

	err := store.Import(&tsk, "same")
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	want := []task.Annotation{{Entry: earlier, Description: "[tasknote] same"}}
	if diff := cmp.Diff(want, tsk.Annotations); diff != "" {
		t.Errorf("annotations mismatch (-want +got):\n%s", diff)
	}
}

func TestImportRewritesNoteOnlyWhenTextDiffers(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t)
	tsk := task.LocalTask{ID: uuid.New()}
	old := now.Add(-48 * time.Hour)

	err := store.Write(tsk.ID, "same")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	err = os.Chtimes(store.Path(tsk.ID), old, old)
	if err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	err = store.Import(&tsk, "same")
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	info, err := os.Stat(store.Path(tsk.ID))
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}

	if !info.ModTime().Equal(old) {
		t.Errorf("modtime=%v, want=%v (file should be untouched)", info.ModTime(), old)
	}

	err = store.Import(&tsk, "same\nplus a second line")
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	text, _, _ := store.Read(tsk.ID)
	if got, want := text, "same\nplus a second line"; got != want {
		t.Errorf("note=%q, want=%q", got, want)
	}
}

func TestImportBlankDeletesNote(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t)
	tsk := task.LocalTask{
		ID:          uuid.New(),
		Annotations: []task.Annotation{{Entry: now, Description: "[tasknote] stale"}},
	}

	err := store.Write(tsk.ID, "stale")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	err = store.Import(&tsk, "  \n ")
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	if tsk.Annotations != nil {
		t.Errorf("annotations=%v, want nil", tsk.Annotations)
	}

	if _, err := os.Stat(store.Path(tsk.ID)); !os.IsNotExist(err) {
		t.Errorf("note file still exists: %v", err)
	}
}

func TestModifiedWithin(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t)
	id := uuid.New()

	recent, err := store.ModifiedWithin(id, time.Minute)
	if err != nil || recent {
		t.Fatalf("missing note: recent=%t err=%v", recent, err)
	}

	err = store.Write(id, "x")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	for _, tt := range []struct {
		mtime time.Time
		want  bool
	}{
		{mtime: now.Add(-30 * time.Second), want: true},
		{mtime: now.Add(-2 * time.Minute), want: false},
	} {
		err = os.Chtimes(store.Path(id), tt.mtime, tt.mtime)
		if err != nil {
			t.Fatalf("Chtimes: %v", err)
		}

		got, err := store.ModifiedWithin(id, time.Minute)
		if err != nil {
			t.Fatalf("ModifiedWithin: %v", err)
		}

		if got != tt.want {
			t.Errorf("mtime %v: ModifiedWithin=%t, want=%t", tt.mtime, got, tt.want)
		}
	}
}
