package cli_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/calvinalkan/habitsync/internal/cli"
	"github.com/calvinalkan/habitsync/internal/taskwarrior"
)

type apiCall struct {
	Method string
	Path   string
	Body   string
}

// fakeHabitica serves canned envelopes keyed by "METHOD path".
type fakeHabitica struct {
	mu     sync.Mutex
	calls  []apiCall
	routes map[string]string
	URL    string
}

func newFakeHabitica(t *testing.T, routes map[string]string) *fakeHabitica {
	t.Helper()

	f := &fakeHabitica{routes: routes}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		key := r.Method + " " + strings.TrimPrefix(r.URL.Path, "/api")
		if q := r.URL.RawQuery; q != "" {
			key += "?" + q
		}

		f.mu.Lock()
		f.calls = append(f.calls, apiCall{Method: r.Method, Path: key, Body: string(body)})
		resp, ok := f.routes[key]
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")

		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"success":false,"message":"not found"}`)

			return
		}

		_, _ = io.WriteString(w, resp)
	}))
	t.Cleanup(srv.Close)

	f.URL = srv.URL + "/api"

	return f
}

func (f *fakeHabitica) Calls() []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]apiCall(nil), f.calls...)
}

func (f *fakeHabitica) Paths() []string {
	var paths []string

	for _, c := range f.Calls() {
		paths = append(paths, c.Path)
	}

	return paths
}

// fakeTask stands in for the task binary.
type fakeTask struct {
	mu       sync.Mutex
	requests []taskwarrior.Request
	respond  func(args []string) taskwarrior.Result
}

func (f *fakeTask) Run(_ context.Context, req taskwarrior.Request) (taskwarrior.Result, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.respond == nil {
		return taskwarrior.Result{}, nil
	}

	return f.respond(req.Args), nil
}

func (f *fakeTask) Imported() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []string

	for _, req := range f.requests {
		if len(req.Args) > 1 && req.Args[1] == "import" {
			out = append(out, req.Stdin)
		}
	}

	return out
}

func withAccount(c *cli.CLI, baseURL string) {
	c.WriteGlobalConfig(`{
		// test account
		"user_id": "user-1",
		"api_key": "key-1",
		"base_url": "` + baseURL + `",
	}`)
}
