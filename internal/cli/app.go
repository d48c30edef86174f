package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/calvinalkan/habitsync/internal/config"
	"github.com/calvinalkan/habitsync/internal/fs"
	"github.com/calvinalkan/habitsync/internal/habitica"
	"github.com/calvinalkan/habitsync/internal/notes"
	"github.com/calvinalkan/habitsync/internal/stats"
	"github.com/calvinalkan/habitsync/internal/task"
	"github.com/calvinalkan/habitsync/internal/taskwarrior"
)

// deps are the replaceable collaborators of a run. Zero values select the
// production implementations.
type deps struct {
	runner     taskwarrior.Runner
	httpClient *http.Client
	clock      task.Clock
	limiter    *habitica.Limiter
}

// app is the state shared by all commands of one invocation.
type app struct {
	cfg     config.Config
	env     map[string]string
	mode    Mode
	verbose bool
	log     zerolog.Logger
	fsys    fs.FS
	stdin   io.Reader
	deps    deps
}

func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	if !verbose {
		return zerolog.Nop()
	}

	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    true,
	}

	return zerolog.New(output).With().Timestamp().Str("app", "habitsync").Logger().Level(zerolog.DebugLevel)
}

func (a *app) clock() task.Clock {
	if a.deps.clock != nil {
		return a.deps.clock
	}

	return task.SystemClock{}
}

func (a *app) local() *taskwarrior.Client {
	return taskwarrior.New(a.cfg.TaskCommand, a.deps.runner, a.log)
}

// remote returns a client for the configured account. Credentials missing
// from files and environment are looked up in the task manager rc.
func (a *app) remote(ctx context.Context) (*habitica.Client, error) {
	local := a.local()

	err := a.cfg.RequireCredentials(func(key string) (string, error) {
		return local.Get(ctx, key)
	})
	if err != nil {
		return nil, err
	}

	limiter := a.deps.limiter
	if limiter == nil {
		limiter = habitica.NewLimiter(a.cfg.Interval)
	}

	return habitica.New(habitica.Options{
		BaseURL:    a.cfg.BaseURL,
		UserID:     a.cfg.UserID,
		APIKey:     a.cfg.APIKey,
		HTTPClient: a.deps.httpClient,
		Limiter:    limiter,
		Logger:     a.log,
	}), nil
}

func (a *app) notes() *notes.Store {
	return notes.New(a.fsys, a.cfg.NoteDirAbs, a.cfg.NotePrefix, a.cfg.NoteExtension, a.clock())
}

func (a *app) ledgerPath() string {
	return filepath.Join(a.cfg.DataDirAbs, stats.FileName)
}

// statsSource is the part of the remote client a hook ledger needs.
type statsSource interface {
	UserStats(ctx context.Context) (task.UserStats, error)
}

// openLedger returns the pending on-disk ledger, or a fresh one whose
// baseline is the current remote stats.
func (a *app) openLedger(ctx context.Context, remote statsSource) (*stats.Ledger, error) {
	existing, err := stats.Load(a.fsys, a.ledgerPath())
	if err != nil {
		return nil, err
	}

	if existing != nil {
		a.log.Debug().Str("path", a.ledgerPath()).Msg("merging into pending stats ledger")

		return existing, nil
	}

	baseline, err := remote.UserStats(ctx)
	if err != nil {
		return nil, err
	}

	return stats.New(baseline), nil
}

func printTask(o *IO, t task.LocalTask) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}

	o.Println(string(data))

	return nil
}

func parseTask(line string) (task.LocalTask, error) {
	var t task.LocalTask

	err := json.Unmarshal([]byte(line), &t)
	if err != nil {
		return task.LocalTask{}, fmt.Errorf("parse task: %w", err)
	}

	return t, nil
}
