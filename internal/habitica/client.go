// Package habitica is a small client for the Habitica v3/v4 REST API,
// covering exactly the task and stats endpoints the sync engine uses.
package habitica

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/calvinalkan/habitsync/internal/stats"
	"github.com/calvinalkan/habitsync/internal/task"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://habitica.com/api"

const (
	clientName = "habitsync"

	// Task list types accepted by GET /v3/tasks/user.
	TypeTodos          = "todos"
	TypeDailys         = "dailys"
	TypeCompletedTodos = "_allCompletedTodos"

	maxErrorBody = 512
)

// ErrNoTaskID is returned by [Client.UpdateTask] for tasks without a remote id.
var ErrNoTaskID = errors.New("remote task has no id")

// Options configures a [Client].
type Options struct {
	BaseURL string
	UserID  string
	APIKey  string

	// HTTPClient defaults to a client with a 30s timeout.
	HTTPClient *http.Client

	// Limiter spaces requests. Nil disables spacing.
	Limiter *Limiter

	Logger zerolog.Logger
}

// Client talks to the Habitica API with one user's credentials.
//
// Requests run detached from the caller's cancellation: a started call always
// completes, so a sync pair is never left half-applied on the remote side.
type Client struct {
	baseURL string
	userID  string
	apiKey  string
	http    *http.Client
	limiter *Limiter
	log     zerolog.Logger
}

// New returns a Client for opts.
func New(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		baseURL: baseURL,
		userID:  opts.UserID,
		apiKey:  opts.APIKey,
		http:    httpClient,
		limiter: opts.Limiter,
		log:     opts.Logger,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// mutationMeta holds the side effects Habitica reports next to task data.
type mutationMeta struct {
	Stats *task.UserStats `json:"stats"`
	Tmp   *struct {
		Drop *struct {
			Dialog string `json:"dialog"`
		} `json:"drop"`
	} `json:"_tmp"`
}

func (m mutationMeta) effect() stats.Effect {
	e := stats.Effect{Stats: m.Stats}
	if m.Tmp != nil && m.Tmp.Drop != nil {
		e.Message = m.Tmp.Drop.Dialog
	}

	return e
}

// Tasks lists the user's tasks of one type.
func (c *Client) Tasks(ctx context.Context, taskType string) ([]task.RemoteTask, error) {
	query := url.Values{"type": []string{taskType}}

	data, _, err := c.do(ctx, http.MethodGet, "/v3/tasks/user", query, nil, false)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", taskType, err)
	}

	if !hasData(data) {
		return nil, nil
	}

	var tasks []task.RemoteTask

	err = json.Unmarshal(data, &tasks)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w: %w", taskType, ErrMalformedResponse, err)
	}

	return tasks, nil
}

// AllTasks returns open todos, dailies and completed todos, in that order.
func (c *Client) AllTasks(ctx context.Context) ([]task.RemoteTask, error) {
	var all []task.RemoteTask

	for _, taskType := range []string{TypeTodos, TypeDailys, TypeCompletedTodos} {
		tasks, err := c.Tasks(ctx, taskType)
		if err != nil {
			return nil, err
		}

		all = append(all, tasks...)
	}

	return all, nil
}

// CreateTask creates t and returns the stored task with its new id.
func (c *Client) CreateTask(ctx context.Context, t task.RemoteTask) (task.RemoteTask, stats.Effect, error) {
	created, effect, err := c.mutate(ctx, http.MethodPost, "/v3/tasks/user", t)
	if err != nil {
		return task.RemoteTask{}, stats.Effect{}, fmt.Errorf("create task: %w", err)
	}

	return created, effect, nil
}

// UpdateTask overwrites the remote task identified by t.ID.
func (c *Client) UpdateTask(ctx context.Context, t task.RemoteTask) (task.RemoteTask, stats.Effect, error) {
	if !t.HasID() {
		return task.RemoteTask{}, stats.Effect{}, fmt.Errorf("update task: %w", ErrNoTaskID)
	}

	updated, effect, err := c.mutate(ctx, http.MethodPut, "/v3/tasks/"+t.ID.String(), t)
	if err != nil {
		return task.RemoteTask{}, stats.Effect{}, fmt.Errorf("update task %s: %w", t.ID, err)
	}

	return updated, effect, nil
}

// DeleteTask deletes the remote task. A task that no longer exists is not an
// error.
func (c *Client) DeleteTask(ctx context.Context, id uuid.UUID) error {
	_, _, err := c.do(ctx, http.MethodDelete, "/v3/tasks/"+id.String(), nil, nil, true)
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}

	return nil
}

// ScoreTask scores the task up or down. A task that no longer exists yields
// an empty effect.
func (c *Client) ScoreTask(ctx context.Context, id uuid.UUID, dir task.Direction) (stats.Effect, error) {
	path := "/v3/tasks/" + id.String() + "/score/" + string(dir)

	data, found, err := c.do(ctx, http.MethodPost, path, nil, nil, true)
	if err != nil {
		return stats.Effect{}, fmt.Errorf("score task %s %s: %w", id, dir, err)
	}

	if !found {
		return stats.Effect{}, nil
	}

	if !hasData(data) {
		return stats.Effect{}, fmt.Errorf("score task %s %s: %w", id, dir, ErrNoData)
	}

	var meta mutationMeta

	err = json.Unmarshal(data, &meta)
	if err != nil {
		return stats.Effect{}, fmt.Errorf("score task %s %s: %w: %w", id, dir, ErrMalformedResponse, err)
	}

	return meta.effect(), nil
}

// UserStats fetches the user's current stats.
func (c *Client) UserStats(ctx context.Context) (task.UserStats, error) {
	data, _, err := c.do(ctx, http.MethodGet, "/v4/user", nil, nil, false)
	if err != nil {
		return task.UserStats{}, fmt.Errorf("get user stats: %w", err)
	}

	if !hasData(data) {
		return task.UserStats{}, fmt.Errorf("get user stats: %w", ErrNoData)
	}

	var user struct {
		Stats *task.UserStats `json:"stats"`
	}

	err = json.Unmarshal(data, &user)
	if err != nil {
		return task.UserStats{}, fmt.Errorf("get user stats: %w: %w", ErrMalformedResponse, err)
	}

	if user.Stats == nil {
		return task.UserStats{}, fmt.Errorf("get user stats: %w", ErrNoData)
	}

	return *user.Stats, nil
}

func (c *Client) mutate(ctx context.Context, method, path string, t task.RemoteTask) (task.RemoteTask, stats.Effect, error) {
	data, _, err := c.do(ctx, method, path, nil, t, false)
	if err != nil {
		return task.RemoteTask{}, stats.Effect{}, err
	}

	if !hasData(data) {
		return task.RemoteTask{}, stats.Effect{}, ErrNoData
	}

	// Task fields, stats and _tmp share one flat object.
	var (
		out  task.RemoteTask
		meta mutationMeta
	)

	err = json.Unmarshal(data, &out)
	if err == nil {
		err = json.Unmarshal(data, &meta)
	}

	if err != nil {
		return task.RemoteTask{}, stats.Effect{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	return out, meta.effect(), nil
}

// do performs one request and unwraps the envelope. With allowNotFound, a 404
// returns found=false and no error.
func (c *Client) do(
	ctx context.Context,
	method, path string,
	query url.Values,
	body any,
	allowNotFound bool,
) (json.RawMessage, bool, error) {
	c.limiter.Wait()

	ctx = context.WithoutCancel(ctx)

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader = http.NoBody

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, false, fmt.Errorf("encode request: %w", err)
		}

		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("x-api-user", c.userID)
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("x-client", c.userID+"-"+clientName)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("%s %s: read body: %w", method, path, err)
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("habitica request")

	if resp.StatusCode == http.StatusNotFound && allowNotFound {
		return nil, false, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, false, fmt.Errorf("%w: %s %s: HTTP %d: %s", ErrAPI, method, path, resp.StatusCode, errorBody(raw))
	}

	var env envelope

	err = json.Unmarshal(raw, &env)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %s %s: %w", ErrMalformedResponse, method, path, err)
	}

	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "unknown error"
		}

		return nil, false, fmt.Errorf("%w: %s %s: %s", ErrAPI, method, path, msg)
	}

	return env.Data, true, nil
}

func hasData(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)

	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// errorBody flattens a response body into one bounded line.
func errorBody(raw []byte) string {
	s := strings.Join(strings.Fields(string(raw)), " ")
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "..."
	}

	return s
}
