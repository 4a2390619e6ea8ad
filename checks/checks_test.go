package checks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-github/v59/github"
	"github.com/perfgo/testcheck/tree"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	serverURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	gh := github.NewClient(nil)
	gh.BaseURL = serverURL

	c, err := NewWithClient(zerolog.Nop(), gh, "owner/repo")
	require.NoError(t, err)
	return c
}

func TestClient_Create(t *testing.T) {
	var captured map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/owner/repo/check-runs", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("failed to decode request: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":       12345,
			"name":     "test (app)",
			"status":   "in_progress",
			"html_url": "https://github.com/owner/repo/runs/12345",
		})
	})
	c := newTestClient(t, mux)

	cr, err := c.Create(context.Background(), "test (app)", "abc123", "run-1")
	require.NoError(t, err)
	assert.Equal(t, int64(12345), cr.ID)
	assert.Equal(t, "https://github.com/owner/repo/runs/12345", cr.HTMLURL)

	assert.Equal(t, "test (app)", captured["name"])
	assert.Equal(t, "abc123", captured["head_sha"])
	assert.Equal(t, "in_progress", captured["status"])
	assert.Equal(t, "run-1", captured["external_id"])
}

func TestClient_CreateError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/owner/repo/check-runs", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Resource not accessible by integration"}`, http.StatusForbidden)
	})
	c := newTestClient(t, mux)

	_, err := c.Create(context.Background(), "test (app)", "abc123", "")
	require.ErrorIs(t, err, ErrCheckRunCreate)
}

func TestClient_Complete(t *testing.T) {
	tests := []struct {
		name       string
		conclusion tree.Conclusion
		want       string
	}{
		{name: "success", conclusion: tree.ConclusionSuccess, want: "success"},
		{name: "failure", conclusion: tree.ConclusionFailure, want: "failure"},
		{name: "terminated early", conclusion: tree.ConclusionUnknown, want: "timed_out"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured map[string]any
			mux := http.NewServeMux()
			mux.HandleFunc("/repos/owner/repo/check-runs/12345", func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPatch, r.Method)
				if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
					t.Errorf("failed to decode request: %v", err)
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(map[string]any{"id": 12345, "status": "completed"})
			})
			c := newTestClient(t, mux)

			err := c.Complete(context.Background(), 12345, CompleteOptions{
				Name:       "test (app)",
				Conclusion: tt.conclusion,
				Title:      "Tests of app",
				Summary:    tt.conclusion.Message(),
				Text:       "# Test Results\n",
			})
			require.NoError(t, err)

			assert.Equal(t, "completed", captured["status"])
			assert.Equal(t, tt.want, captured["conclusion"])
			output, ok := captured["output"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "Tests of app", output["title"])
			assert.Equal(t, tt.conclusion.Message(), output["summary"])
			assert.Equal(t, "# Test Results\n", output["text"])
		})
	}
}

func TestClient_CompleteError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/owner/repo/check-runs/1", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	})
	c := newTestClient(t, mux)

	err := c.Complete(context.Background(), 1, CompleteOptions{Name: "x"})
	require.ErrorIs(t, err, ErrCheckRunUpdate)
}

func TestNew(t *testing.T) {
	_, err := New(zerolog.Nop(), Config{Repository: "owner/repo"})
	require.ErrorIs(t, err, ErrMissingToken)

	for _, repo := range []string{"", "owner", "owner/", "/repo", "a/b/c"} {
		_, err := New(zerolog.Nop(), Config{Token: "t", Repository: repo})
		require.ErrorIs(t, err, ErrMissingRepository, repo)
	}

	c, err := New(zerolog.Nop(), Config{Token: "t", Repository: "owner/repo", APIURL: "https://ghe.example.com/api/v3"})
	require.NoError(t, err)
	assert.Equal(t, "ghe.example.com", c.client.BaseURL.Host)

	c, err = New(zerolog.Nop(), Config{Token: "t", Repository: "owner/repo", APIURL: "https://api.github.com"})
	require.NoError(t, err)
	assert.Equal(t, "api.github.com", c.client.BaseURL.Host)
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", truncateText("short", 100))

	long := strings.Repeat("✔️ | row\n", 10000)
	got := truncateText(long, maxTextLength)
	assert.LessOrEqual(t, len(got), maxTextLength)
	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasSuffix(got, truncatedNote))
}

func TestAppendStepSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.md")
	require.NoError(t, AppendStepSummary(path, "# one\n"))
	require.NoError(t, AppendStepSummary(path, "# two\n"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# one\n# two\n", string(data))
}
