// Package notes stores free-text task notes as one plain file per task and
// mirrors the first line of each note into a prefixed task annotation.
package notes

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/calvinalkan/habitsync/internal/fs"
	"github.com/calvinalkan/habitsync/internal/task"
)

const filePerms = 0o600

// Store reads and writes note files under a single directory.
type Store struct {
	fs        fs.FS
	dir       string
	prefix    string
	extension string
	clock     task.Clock
}

// New returns a Store rooted at dir. Note files are named <uuid><extension>,
// and mirrored annotations start with prefix.
func New(fsys fs.FS, dir, prefix, extension string, clock task.Clock) *Store {
	return &Store{fs: fsys, dir: dir, prefix: prefix, extension: extension, clock: clock}
}

// Path returns the note file path for the task id.
func (s *Store) Path(id uuid.UUID) string {
	return filepath.Join(s.dir, id.String()+s.extension)
}

// Read returns the note text for id and whether a note file exists.
func (s *Store) Read(id uuid.UUID) (string, bool, error) {
	path := s.Path(id)

	exists, err := s.fs.Exists(path)
	if err != nil {
		return "", false, fmt.Errorf("stat note: %w", err)
	}

	if !exists {
		return "", false, nil
	}

	data, err := s.fs.ReadFile(path)
	if err != nil {
		return "", false, fmt.Errorf("read note: %w", err)
	}

	return string(data), true, nil
}

// Write replaces the note for id.
func (s *Store) Write(id uuid.UUID, text string) error {
	err := s.fs.WriteFileAtomic(s.Path(id), []byte(text), filePerms)
	if err != nil {
		return fmt.Errorf("write note: %w", err)
	}

	return nil
}

// Delete removes the note for id. A missing note is not an error.
func (s *Store) Delete(id uuid.UUID) error {
	path := s.Path(id)

	exists, err := s.fs.Exists(path)
	if err != nil {
		return fmt.Errorf("stat note: %w", err)
	}

	if !exists {
		return nil
	}

	err = s.fs.Remove(path)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}

	return nil
}

// ModifiedWithin reports whether the note for id was written less than d ago.
func (s *Store) ModifiedWithin(id uuid.UUID, d time.Duration) (bool, error) {
	path := s.Path(id)

	exists, err := s.fs.Exists(path)
	if err != nil || !exists {
		return false, err
	}

	mtime, err := s.fs.ModTime(path)
	if err != nil {
		return false, fmt.Errorf("stat note: %w", err)
	}

	age := s.clock.Now().Sub(mtime)

	return age >= 0 && age <= d, nil
}

// IsNoteAnnotation reports whether a carries the note prefix.
func (s *Store) IsNoteAnnotation(a task.Annotation) bool {
	return strings.HasPrefix(strings.TrimSpace(a.Description), s.prefix)
}

// NoteAnnotations returns the prefixed annotations of t in order.
func (s *Store) NoteAnnotations(t task.LocalTask) []task.Annotation {
	var out []task.Annotation

	for _, a := range t.Annotations {
		if s.IsNoteAnnotation(a) {
			out = append(out, a)
		}
	}

	return out
}

// Mirror replaces the note annotation on t with one built from text.
//
// The mirror is the prefix followed by the first line of text. If t already
// carries exactly that annotation it is kept with its original timestamp, so
// repeated syncs do not rewrite it. Blank text removes the mirror.
func (s *Store) Mirror(t *task.LocalTask, text string) {
	var (
		kept     []task.Annotation
		previous []task.Annotation
	)

	for _, a := range t.Annotations {
		if s.IsNoteAnnotation(a) {
			previous = append(previous, a)
		} else {
			kept = append(kept, a)
		}
	}

	firstLine := ""
	if strings.TrimSpace(text) != "" {
		firstLine, _, _ = strings.Cut(text, "\n")
		firstLine = strings.TrimSpace(firstLine)
	}

	if firstLine != "" {
		mirror := task.Annotation{
			Entry:       s.clock.Now().UTC().Truncate(time.Second),
			Description: s.prefix + " " + firstLine,
		}

		for _, p := range previous {
			if p.Description == mirror.Description {
				mirror.Entry = p.Entry

				break
			}
		}

		kept = append([]task.Annotation{mirror}, kept...)
	}

	if len(kept) == 0 {
		kept = nil
	}

	t.Annotations = kept
}

// Import stores text as the note of t and refreshes its mirror annotation.
// Blank text deletes the note file. The file is left untouched when it
// already holds exactly this text.
func (s *Store) Import(t *task.LocalTask, text string) error {
	if strings.TrimSpace(text) == "" {
		err := s.Delete(t.ID)
		if err != nil {
			return err
		}

		s.Mirror(t, "")

		return nil
	}

	current, exists, err := s.Read(t.ID)
	if err != nil {
		return err
	}

	if !exists || current != text {
		err = s.Write(t.ID, text)
		if err != nil {
			return err
		}
	}

	s.Mirror(t, text)

	return nil
}
