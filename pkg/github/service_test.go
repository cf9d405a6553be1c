package github

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-github/v60/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGitHubClient records calls and serves canned responses so Service
// logic can be tested without network access.
type fakeGitHubClient struct {
	accessErr  error
	pr         *PullRequest
	prErr      error
	cliPR      *PullRequest
	cliErr     error
	cliCalls   int
	files      []ChangedFile
	filesErr   error
	comments   []Comment
	listErr    error
	created    []string
	updated    map[int64]string
	createdPRs []*PullRequest
	createErr  error
	branch     string
	branchErr  error
	authErr    error
	rateLimits *github.RateLimits
	rateErr    error
}

func (f *fakeGitHubClient) ValidateAccess(ctx context.Context, owner, repo string) error {
	return f.accessErr
}

func (f *fakeGitHubClient) GetPullRequest(ctx context.Context, owner, repo string, number int) (*PullRequest, error) {
	if f.prErr != nil {
		return nil, f.prErr
	}
	return f.pr, nil
}

func (f *fakeGitHubClient) ListChangedFiles(ctx context.Context, owner, repo string, number int) ([]ChangedFile, error) {
	return f.files, f.filesErr
}

func (f *fakeGitHubClient) CreatePullRequest(ctx context.Context, owner, repo string, pr *PullRequest) (*PullRequest, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.createdPRs = append(f.createdPRs, pr)
	created := *pr
	created.Number = 99
	return &created, nil
}

func (f *fakeGitHubClient) CreateComment(ctx context.Context, owner, repo string, number int, body string) (*Comment, error) {
	f.created = append(f.created, body)
	return &Comment{ID: int64(len(f.created)), Body: body}, nil
}

func (f *fakeGitHubClient) ListComments(ctx context.Context, owner, repo string, number int) ([]Comment, error) {
	return f.comments, f.listErr
}

func (f *fakeGitHubClient) UpdateComment(ctx context.Context, owner, repo string, commentID int64, body string) (*Comment, error) {
	if f.updated == nil {
		f.updated = make(map[int64]string)
	}
	f.updated[commentID] = body
	return &Comment{ID: commentID, Body: body}, nil
}

func (f *fakeGitHubClient) GetDefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	return f.branch, f.branchErr
}

func (f *fakeGitHubClient) IsAuthenticated(ctx context.Context) error {
	return f.authErr
}

func (f *fakeGitHubClient) GetRateLimit(ctx context.Context) (*github.RateLimits, error) {
	return f.rateLimits, f.rateErr
}

func (f *fakeGitHubClient) GetPullRequestViaCLI(owner, repo string, number int) (*PullRequest, error) {
	f.cliCalls++
	if f.cliErr != nil {
		return nil, f.cliErr
	}
	return f.cliPR, nil
}

var _ GitHubClient = (*fakeGitHubClient)(nil)

func TestValidatePullRequestAccess(t *testing.T) {
	tests := []struct {
		name    string
		client  *fakeGitHubClient
		wantErr string
	}{
		{
			name:   "both reachable",
			client: &fakeGitHubClient{pr: &PullRequest{Number: 7}},
		},
		{
			name:    "repository unreachable",
			client:  &fakeGitHubClient{accessErr: fmt.Errorf("no access")},
			wantErr: "repository access validation failed",
		},
		{
			name:    "pull request unreachable",
			client:  &fakeGitHubClient{prErr: fmt.Errorf("not found")},
			wantErr: "pull request access validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewServiceWithClient(tt.client)

			err := svc.ValidatePullRequestAccess(context.Background(), "octo", "repo", 7)

			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestFetchPullRequest(t *testing.T) {
	fake := &fakeGitHubClient{pr: &PullRequest{Number: 7, State: "open", Title: "Fix parser"}}
	svc := NewServiceWithClient(fake)

	pr, err := svc.FetchPullRequest(context.Background(), "octo", "repo", 7)

	require.NoError(t, err)
	assert.Equal(t, 7, pr.Number)
	assert.Zero(t, fake.cliCalls)
}

func TestFetchPullRequestRejectsClosed(t *testing.T) {
	fake := &fakeGitHubClient{pr: &PullRequest{Number: 7, State: "closed"}}
	svc := NewServiceWithClient(fake)

	pr, err := svc.FetchPullRequest(context.Background(), "octo", "repo", 7)

	require.Error(t, err)
	assert.Nil(t, pr)
	assert.Contains(t, err.Error(), "octo/repo#7 is closed")
}

func TestFetchPullRequestFallsBackToCLI(t *testing.T) {
	fake := &fakeGitHubClient{
		prErr: fmt.Errorf("api unreachable"),
		cliPR: &PullRequest{Number: 7, State: "open", Title: "Fix parser"},
	}
	svc := NewServiceWithClient(fake)

	pr, err := svc.FetchPullRequest(context.Background(), "octo", "repo", 7)

	require.NoError(t, err)
	assert.Equal(t, "Fix parser", pr.Title)
	assert.Equal(t, 1, fake.cliCalls)
}

func TestFetchPullRequestReportsBothPathsFailing(t *testing.T) {
	fake := &fakeGitHubClient{
		prErr:  fmt.Errorf("api unreachable"),
		cliErr: fmt.Errorf("gh not installed"),
	}
	svc := NewServiceWithClient(fake)

	pr, err := svc.FetchPullRequest(context.Background(), "octo", "repo", 7)

	require.Error(t, err)
	assert.Nil(t, pr)
	assert.Contains(t, err.Error(), "via API and CLI")
}

func TestChangedFilenamesDropsRemovedFiles(t *testing.T) {
	fake := &fakeGitHubClient{files: []ChangedFile{
		{Filename: "app.py", Status: FileModified},
		{Filename: "legacy.py", Status: FileRemoved},
		{Filename: "pkg/util.go", Status: FileAdded},
	}}
	svc := NewServiceWithClient(fake)

	names, err := svc.ChangedFilenames(context.Background(), "octo", "repo", 7)

	require.NoError(t, err)
	assert.Equal(t, []string{"app.py", "pkg/util.go"}, names)
}

func TestPublishReviewCommentCreatesWhenNoneExists(t *testing.T) {
	fake := &fakeGitHubClient{comments: []Comment{
		{ID: 1, Body: "LGTM", Author: "alice"},
	}}
	svc := NewServiceWithClient(fake)

	comment, err := svc.PublishReviewComment(context.Background(), "octo", "repo", 7, "## Quality review\n\nAll clear.")

	require.NoError(t, err)
	require.Len(t, fake.created, 1)
	assert.Empty(t, fake.updated)
	assert.True(t, strings.HasPrefix(fake.created[0], reviewMarker))
	assert.Contains(t, fake.created[0], "All clear.")
	assert.Contains(t, comment.Body, reviewMarker)
}

func TestPublishReviewCommentUpdatesExisting(t *testing.T) {
	fake := &fakeGitHubClient{comments: []Comment{
		{ID: 3, Body: "unrelated", Author: "alice"},
		{ID: 9, Body: reviewMarker + "\nstale review", Author: "sweep-bot"},
	}}
	svc := NewServiceWithClient(fake)

	comment, err := svc.PublishReviewComment(context.Background(), "octo", "repo", 7, "fresh review")

	require.NoError(t, err)
	assert.Empty(t, fake.created)
	require.Contains(t, fake.updated, int64(9))
	assert.Contains(t, fake.updated[9], "fresh review")
	assert.Equal(t, int64(9), comment.ID)
}

func TestPublishReviewCommentSurvivesListFailure(t *testing.T) {
	fake := &fakeGitHubClient{listErr: fmt.Errorf("listing broken")}
	svc := NewServiceWithClient(fake)

	_, err := svc.PublishReviewComment(context.Background(), "octo", "repo", 7, "review body")

	require.NoError(t, err)
	require.Len(t, fake.created, 1)
}

func TestOpenFixPullRequestDefaultsBaseBranch(t *testing.T) {
	fake := &fakeGitHubClient{branch: "develop"}
	svc := NewServiceWithClient(fake)

	created, err := svc.OpenFixPullRequest(context.Background(), "octo", "repo", &PullRequest{
		Title:  "Automated quality fixes",
		Branch: "codesweep/fixes",
	})

	require.NoError(t, err)
	require.Len(t, fake.createdPRs, 1)
	assert.Equal(t, "develop", fake.createdPRs[0].BaseBranch)
	assert.Equal(t, 99, created.Number)
}

func TestOpenFixPullRequestKeepsExplicitBase(t *testing.T) {
	fake := &fakeGitHubClient{branchErr: fmt.Errorf("should not be called")}
	svc := NewServiceWithClient(fake)

	_, err := svc.OpenFixPullRequest(context.Background(), "octo", "repo", &PullRequest{
		Title:      "Automated quality fixes",
		Branch:     "codesweep/fixes",
		BaseBranch: "release/1.2",
	})

	require.NoError(t, err)
	require.Len(t, fake.createdPRs, 1)
	assert.Equal(t, "release/1.2", fake.createdPRs[0].BaseBranch)
}

func TestCheckReviewPreconditions(t *testing.T) {
	reset := github.Timestamp{Time: time.Date(2024, 6, 1, 13, 0, 0, 0, time.UTC)}
	tests := []struct {
		name    string
		client  *fakeGitHubClient
		wantErr string
	}{
		{
			name: "healthy",
			client: &fakeGitHubClient{rateLimits: &github.RateLimits{
				Core: &github.Rate{Limit: 5000, Remaining: 4000, Reset: reset},
			}},
		},
		{
			name:    "not authenticated",
			client:  &fakeGitHubClient{authErr: fmt.Errorf("bad token")},
			wantErr: "authentication failed",
		},
		{
			name: "rate limit nearly exhausted",
			client: &fakeGitHubClient{rateLimits: &github.RateLimits{
				Core: &github.Rate{Limit: 5000, Remaining: 12, Reset: reset},
			}},
			wantErr: "rate limit is low",
		},
		{
			name:    "rate limit lookup fails",
			client:  &fakeGitHubClient{rateErr: fmt.Errorf("boom")},
			wantErr: "failed to check rate limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewServiceWithClient(tt.client)

			err := svc.CheckReviewPreconditions(context.Background())

			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
