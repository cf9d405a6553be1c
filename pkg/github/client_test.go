package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-github/v60/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesweep/codesweep/pkg/errors"
	"github.com/codesweep/codesweep/pkg/logger"
)

// newTestClient wires a Client against an httptest server so API behavior
// can be exercised without touching github.com.
func newTestClient(t *testing.T) (*Client, *http.ServeMux, *httptest.Server) {
	t.Helper()

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	apiClient := github.NewClient(&http.Client{})
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	apiClient.BaseURL = baseURL

	client := &Client{
		apiClient:   apiClient,
		rateLimiter: NewRateLimiter(1000, time.Hour),
		logger:      logger.GetLogger().WithPrefix("github"),
	}
	return client, mux, server
}

func TestValidateAccess(t *testing.T) {
	client, mux, _ := newTestClient(t)
	mux.HandleFunc("/repos/octo/repo", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id": 1, "full_name": "octo/repo"}`)
	})
	mux.HandleFunc("/repos/octo/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message": "Not Found"}`)
	})
	mux.HandleFunc("/repos/octo/private", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message": "Forbidden"}`)
	})

	ctx := context.Background()

	assert.NoError(t, client.ValidateAccess(ctx, "octo", "repo"))

	err := client.ValidateAccess(ctx, "octo", "missing")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeGitHub))
	assert.False(t, errors.IsRecoverable(err))
	assert.Contains(t, err.Error(), "access check for octo/missing failed")

	err = client.ValidateAccess(ctx, "octo", "private")
	require.Error(t, err)
	assert.False(t, errors.IsRecoverable(err))
}

func TestGetPullRequest(t *testing.T) {
	client, mux, _ := newTestClient(t)
	mux.HandleFunc("/repos/octo/repo/pulls/7", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"number": 7,
			"title": "Tighten input validation",
			"body": "Adds missing checks",
			"state": "open",
			"user": {"login": "alice"},
			"head": {"ref": "feature/validation"},
			"base": {"ref": "main"},
			"created_at": "2024-06-01T12:00:00Z",
			"updated_at": "2024-06-02T08:30:00Z"
		}`)
	})

	pr, err := client.GetPullRequest(context.Background(), "octo", "repo", 7)

	require.NoError(t, err)
	assert.Equal(t, 7, pr.Number)
	assert.Equal(t, "Tighten input validation", pr.Title)
	assert.Equal(t, "Adds missing checks", pr.Body)
	assert.Equal(t, "open", pr.State)
	assert.Equal(t, "alice", pr.Author)
	assert.Equal(t, "feature/validation", pr.Branch)
	assert.Equal(t, "main", pr.BaseBranch)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), pr.CreatedAt)
	assert.Equal(t, time.Date(2024, 6, 2, 8, 30, 0, 0, time.UTC), pr.UpdatedAt)
}

func TestGetPullRequestNotFound(t *testing.T) {
	client, mux, _ := newTestClient(t)
	mux.HandleFunc("/repos/octo/repo/pulls/404", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message": "Not Found"}`)
	})

	pr, err := client.GetPullRequest(context.Background(), "octo", "repo", 404)

	require.Error(t, err)
	assert.Nil(t, pr)
	assert.True(t, errors.IsType(err, errors.ErrorTypeGitHub))
	assert.Contains(t, err.Error(), "fetch of pull request octo/repo#404 failed")
}

func TestListChangedFilesFollowsPagination(t *testing.T) {
	client, mux, server := newTestClient(t)
	mux.HandleFunc("/repos/octo/repo/pulls/7/files", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `[{"filename": "pkg/util.py", "status": "added", "additions": 3, "deletions": 0}]`)
			return
		}
		w.Header().Set("Link", fmt.Sprintf(`<%s/repos/octo/repo/pulls/7/files?page=2>; rel="next"`, server.URL))
		fmt.Fprint(w, `[
			{"filename": "app.py", "status": "modified", "additions": 10, "deletions": 2},
			{"filename": "docs/old.md", "status": "removed", "additions": 0, "deletions": 40}
		]`)
	})

	files, err := client.ListChangedFiles(context.Background(), "octo", "repo", 7)

	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, ChangedFile{Filename: "app.py", Status: FileModified, Additions: 10, Deletions: 2}, files[0])
	assert.Equal(t, ChangedFile{Filename: "docs/old.md", Status: FileRemoved, Deletions: 40}, files[1])
	assert.Equal(t, ChangedFile{Filename: "pkg/util.py", Status: FileAdded, Additions: 3}, files[2])
}

func TestCreatePullRequest(t *testing.T) {
	client, mux, _ := newTestClient(t)
	mux.HandleFunc("/repos/octo/repo/pulls", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		var payload struct {
			Title string `json:"title"`
			Head  string `json:"head"`
			Base  string `json:"base"`
			Body  string `json:"body"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "Automated quality fixes", payload.Title)
		assert.Equal(t, "codesweep/fixes", payload.Head)
		assert.Equal(t, "main", payload.Base)

		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{
			"number": 12,
			"title": "Automated quality fixes",
			"state": "open",
			"head": {"ref": "codesweep/fixes"},
			"base": {"ref": "main"}
		}`)
	})

	created, err := client.CreatePullRequest(context.Background(), "octo", "repo", &PullRequest{
		Title:      "Automated quality fixes",
		Body:       "Applies safe style fixes.",
		Branch:     "codesweep/fixes",
		BaseBranch: "main",
	})

	require.NoError(t, err)
	assert.Equal(t, 12, created.Number)
	assert.Equal(t, "codesweep/fixes", created.Branch)
}

func TestCreateComment(t *testing.T) {
	client, mux, _ := newTestClient(t)
	mux.HandleFunc("/repos/octo/repo/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{
			"id": 101,
			"body": "Quality review",
			"user": {"login": "sweep-bot"},
			"created_at": "2024-06-01T12:00:00Z"
		}`)
	})

	comment, err := client.CreateComment(context.Background(), "octo", "repo", 7, "Quality review")

	require.NoError(t, err)
	assert.Equal(t, int64(101), comment.ID)
	assert.Equal(t, "Quality review", comment.Body)
	assert.Equal(t, "sweep-bot", comment.Author)
}

func TestListComments(t *testing.T) {
	client, mux, _ := newTestClient(t)
	mux.HandleFunc("/repos/octo/repo/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"id": 1, "body": "first", "user": {"login": "alice"}},
			{"id": 2, "body": "second", "user": {"login": "bob"}}
		]`)
	})

	comments, err := client.ListComments(context.Background(), "octo", "repo", 7)

	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, int64(1), comments[0].ID)
	assert.Equal(t, "alice", comments[0].Author)
	assert.Equal(t, "second", comments[1].Body)
}

func TestUpdateComment(t *testing.T) {
	client, mux, _ := newTestClient(t)
	mux.HandleFunc("/repos/octo/repo/issues/comments/101", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		fmt.Fprint(w, `{"id": 101, "body": "refreshed", "user": {"login": "sweep-bot"}}`)
	})

	comment, err := client.UpdateComment(context.Background(), "octo", "repo", 101, "refreshed")

	require.NoError(t, err)
	assert.Equal(t, int64(101), comment.ID)
	assert.Equal(t, "refreshed", comment.Body)
}

func TestGetDefaultBranch(t *testing.T) {
	client, mux, _ := newTestClient(t)
	mux.HandleFunc("/repos/octo/repo", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id": 1, "default_branch": "develop"}`)
	})

	branch, err := client.GetDefaultBranch(context.Background(), "octo", "repo")

	require.NoError(t, err)
	assert.Equal(t, "develop", branch)
}

func TestIsAuthenticated(t *testing.T) {
	client, mux, _ := newTestClient(t)
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"login": "alice"}`)
	})

	assert.NoError(t, client.IsAuthenticated(context.Background()))
}

func TestIsAuthenticatedRejectsBadToken(t *testing.T) {
	client, mux, _ := newTestClient(t)
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message": "Bad credentials"}`)
	})

	err := client.IsAuthenticated(context.Background())

	require.Error(t, err)
	assert.False(t, errors.IsRecoverable(err))
	assert.Contains(t, err.Error(), "authentication check failed")
}

func TestGetRateLimit(t *testing.T) {
	client, mux, _ := newTestClient(t)
	mux.HandleFunc("/rate_limit", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"resources": {
				"core": {"limit": 5000, "remaining": 4321, "reset": 1717243200},
				"search": {"limit": 30, "remaining": 30, "reset": 1717243200}
			}
		}`)
	})

	limits, err := client.GetRateLimit(context.Background())

	require.NoError(t, err)
	require.NotNil(t, limits.Core)
	assert.Equal(t, 5000, limits.Core.Limit)
	assert.Equal(t, 4321, limits.Core.Remaining)
}

func TestGetPullRequestViaCLIWithoutClient(t *testing.T) {
	client := &Client{
		rateLimiter: NewRateLimiter(10, time.Hour),
		logger:      logger.GetLogger().WithPrefix("github"),
	}

	pr, err := client.GetPullRequestViaCLI("octo", "repo", 7)

	require.Error(t, err)
	assert.Nil(t, pr)
	assert.Contains(t, err.Error(), "gh CLI client not configured")
}

func TestAPIErrorClassification(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		recoverable bool
	}{
		{
			name:        "not found fails fast",
			err:         &github.ErrorResponse{Response: &http.Response{StatusCode: http.StatusNotFound}},
			recoverable: false,
		},
		{
			name:        "forbidden fails fast",
			err:         &github.ErrorResponse{Response: &http.Response{StatusCode: http.StatusForbidden}},
			recoverable: false,
		},
		{
			name:        "server error retries",
			err:         &github.ErrorResponse{Response: &http.Response{StatusCode: http.StatusServiceUnavailable}},
			recoverable: true,
		},
		{
			name:        "transport error retries",
			err:         fmt.Errorf("connection reset"),
			recoverable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := apiError("probe", tt.err)

			assert.True(t, errors.IsType(err, errors.ErrorTypeGitHub))
			assert.Equal(t, tt.recoverable, errors.IsRecoverable(err))
		})
	}
}

func TestAPIErrorRecordsStatusContext(t *testing.T) {
	err := apiError("probe", &github.ErrorResponse{Response: &http.Response{StatusCode: http.StatusNotFound}})

	assert.Equal(t, http.StatusNotFound, errors.GetContext(err)["status"])
}
