package github

import (
	"context"

	"github.com/google/go-github/v60/github"
)

// GitHubClient is the set of GitHub operations the review integration
// depends on, kept as an interface so tests can substitute a fake
type GitHubClient interface {
	ValidateAccess(ctx context.Context, owner, repo string) error
	GetPullRequest(ctx context.Context, owner, repo string, number int) (*PullRequest, error)
	ListChangedFiles(ctx context.Context, owner, repo string, number int) ([]ChangedFile, error)
	CreatePullRequest(ctx context.Context, owner, repo string, pr *PullRequest) (*PullRequest, error)
	CreateComment(ctx context.Context, owner, repo string, number int, body string) (*Comment, error)
	ListComments(ctx context.Context, owner, repo string, number int) ([]Comment, error)
	UpdateComment(ctx context.Context, owner, repo string, commentID int64, body string) (*Comment, error)
	GetDefaultBranch(ctx context.Context, owner, repo string) (string, error)
	IsAuthenticated(ctx context.Context) error
	GetRateLimit(ctx context.Context) (*github.RateLimits, error)
	GetPullRequestViaCLI(owner, repo string, number int) (*PullRequest, error)
}

// Ensure the concrete client implements the interface
var _ GitHubClient = (*Client)(nil)
