// Package github provides the GitHub API integration for pull request
// review: fetching pull requests and their changed files, posting review
// comments, and opening fix pull requests, all behind a local token-bucket
// rate limiter.
package github

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cli/go-gh/v2/pkg/api"
	"github.com/cli/go-gh/v2/pkg/auth"
	"github.com/google/go-github/v60/github"

	"github.com/codesweep/codesweep/pkg/errors"
	"github.com/codesweep/codesweep/pkg/logger"
)

const (
	defaultHost        = "github.com"
	defaultHTTPTimeout = 30 * time.Second

	// requestsPerHour is GitHub's documented limit for authenticated users
	requestsPerHour = 5000
)

// Client wraps the GitHub API with rate limiting and gh CLI authentication
type Client struct {
	apiClient   *github.Client
	ghClient    *api.RESTClient
	rateLimiter *RateLimiter
	logger      *logger.Logger
}

// NewClient builds an authenticated client using the token the gh CLI or
// the environment provides
func NewClient() (*Client, error) {
	token, source := auth.TokenForHost(defaultHost)
	if token == "" {
		return nil, errors.NewError(errors.ErrorTypeGitHub).
			WithMessage("no GitHub credentials found").
			WithSuggestion("run 'gh auth login' or export GITHUB_TOKEN").
			Build()
	}

	httpClient := &http.Client{Timeout: defaultHTTPTimeout}
	apiClient := github.NewClient(httpClient).WithAuthToken(token)

	// the CLI client only backs the fallback fetch path; its absence is not fatal
	ghClient, err := api.DefaultRESTClient()
	if err != nil {
		ghClient = nil
	}

	log := logger.GetLogger().WithPrefix("github")
	log.Debug("authenticated against %s with token from %s", defaultHost, source)

	return &Client{
		apiClient:   apiClient,
		ghClient:    ghClient,
		rateLimiter: NewRateLimiter(requestsPerHour, time.Hour),
		logger:      log,
	}, nil
}

// apiError classifies a go-github failure so retry logic only retries what
// can succeed on a second attempt
func apiError(operation string, err error) error {
	builder := errors.NewError(errors.ErrorTypeGitHub).
		WithMessagef("%s failed", operation).
		WithCause(err).
		WithSeverity(errors.SeverityMedium)

	if ghErr, ok := err.(*github.ErrorResponse); ok && ghErr.Response != nil {
		status := ghErr.Response.StatusCode
		builder = builder.WithContext("status", status)
		switch {
		case status == http.StatusNotFound:
			return builder.WithSuggestion("check the owner, repository and number").Build()
		case status == http.StatusUnauthorized:
			return builder.WithSuggestion("run 'gh auth login' to authenticate").Build()
		case status == http.StatusForbidden:
			return builder.WithSuggestion("check repository permissions and rate limits").Build()
		case status >= 500:
			return builder.WithRecoverable(true).Build()
		}
		return builder.Build()
	}

	// transport-level failure, worth another attempt
	return builder.WithRecoverable(true).Build()
}

// ValidateAccess checks that the authenticated user can reach the repository
func (c *Client) ValidateAccess(ctx context.Context, owner, repo string) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return err
	}

	if _, _, err := c.apiClient.Repositories.Get(ctx, owner, repo); err != nil {
		return apiError(fmt.Sprintf("access check for %s/%s", owner, repo), err)
	}
	return nil
}

// GetPullRequest retrieves one pull request
func (c *Client) GetPullRequest(ctx context.Context, owner, repo string, number int) (*PullRequest, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	pr, _, err := c.apiClient.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, apiError(fmt.Sprintf("fetch of pull request %s/%s#%d", owner, repo, number), err)
	}
	return convertPullRequest(pr), nil
}

// ListChangedFiles returns every file the pull request touches, following
// pagination
func (c *Client) ListChangedFiles(ctx context.Context, owner, repo string, number int) ([]ChangedFile, error) {
	opts := &github.ListOptions{PerPage: 100}
	var files []ChangedFile
	for {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
		page, resp, err := c.apiClient.PullRequests.ListFiles(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, apiError(fmt.Sprintf("file listing for pull request %s/%s#%d", owner, repo, number), err)
		}
		for _, file := range page {
			files = append(files, ChangedFile{
				Filename:  file.GetFilename(),
				Status:    file.GetStatus(),
				Additions: file.GetAdditions(),
				Deletions: file.GetDeletions(),
			})
		}
		if resp.NextPage == 0 {
			return files, nil
		}
		opts.Page = resp.NextPage
	}
}

// CreatePullRequest opens a pull request from pr.Branch onto pr.BaseBranch
func (c *Client) CreatePullRequest(ctx context.Context, owner, repo string, pr *PullRequest) (*PullRequest, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	created, _, err := c.apiClient.PullRequests.Create(ctx, owner, repo, &github.NewPullRequest{
		Title: &pr.Title,
		Head:  &pr.Branch,
		Base:  &pr.BaseBranch,
		Body:  &pr.Body,
	})
	if err != nil {
		return nil, apiError(fmt.Sprintf("pull request creation in %s/%s", owner, repo), err)
	}
	return convertPullRequest(created), nil
}

// CreateComment posts a comment on a pull request or issue
func (c *Client) CreateComment(ctx context.Context, owner, repo string, number int, body string) (*Comment, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	comment, _, err := c.apiClient.Issues.CreateComment(ctx, owner, repo, number, &github.IssueComment{Body: &body})
	if err != nil {
		return nil, apiError(fmt.Sprintf("comment creation on %s/%s#%d", owner, repo, number), err)
	}
	return convertComment(comment), nil
}

// ListComments returns every comment on a pull request or issue, following
// pagination
func (c *Client) ListComments(ctx context.Context, owner, repo string, number int) ([]Comment, error) {
	opts := &github.IssueListCommentsOptions{ListOptions: github.ListOptions{PerPage: 100}}
	var comments []Comment
	for {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
		page, resp, err := c.apiClient.Issues.ListComments(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, apiError(fmt.Sprintf("comment listing for %s/%s#%d", owner, repo, number), err)
		}
		for _, comment := range page {
			comments = append(comments, *convertComment(comment))
		}
		if resp.NextPage == 0 {
			return comments, nil
		}
		opts.Page = resp.NextPage
	}
}

// UpdateComment replaces the body of an existing comment
func (c *Client) UpdateComment(ctx context.Context, owner, repo string, commentID int64, body string) (*Comment, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	comment, _, err := c.apiClient.Issues.EditComment(ctx, owner, repo, commentID, &github.IssueComment{Body: &body})
	if err != nil {
		return nil, apiError(fmt.Sprintf("comment update on %s/%s", owner, repo), err)
	}
	return convertComment(comment), nil
}

// GetDefaultBranch returns the repository's default branch name
func (c *Client) GetDefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", err
	}

	repository, _, err := c.apiClient.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return "", apiError(fmt.Sprintf("repository lookup for %s/%s", owner, repo), err)
	}
	return repository.GetDefaultBranch(), nil
}

// IsAuthenticated checks that the token behind the client is valid
func (c *Client) IsAuthenticated(ctx context.Context) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return err
	}

	if _, _, err := c.apiClient.Users.Get(ctx, ""); err != nil {
		return apiError("authentication check", err)
	}
	return nil
}

// GetRateLimit returns the server-side rate limit status
func (c *Client) GetRateLimit(ctx context.Context) (*github.RateLimits, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	rateLimits, _, err := c.apiClient.RateLimit.Get(ctx)
	if err != nil {
		return nil, apiError("rate limit lookup", err)
	}
	return rateLimits, nil
}

// GetPullRequestViaCLI fetches a pull request through the gh CLI client,
// the fallback path when the typed API client fails
func (c *Client) GetPullRequestViaCLI(owner, repo string, number int) (*PullRequest, error) {
	if c.ghClient == nil {
		return nil, errors.NewError(errors.ErrorTypeGitHub).
			WithMessage("gh CLI client not configured").
			WithSuggestion("install and authenticate the gh CLI").
			Build()
	}

	var response struct {
		Number int    `json:"number"`
		Title  string `json:"title"`
		Body   string `json:"body"`
		State  string `json:"state"`
		User   struct {
			Login string `json:"login"`
		} `json:"user"`
		Head struct {
			Ref string `json:"ref"`
		} `json:"head"`
		Base struct {
			Ref string `json:"ref"`
		} `json:"base"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}

	endpoint := fmt.Sprintf("repos/%s/%s/pulls/%d", owner, repo, number)
	if err := c.ghClient.Get(endpoint, &response); err != nil {
		return nil, apiError(fmt.Sprintf("CLI fetch of pull request %s/%s#%d", owner, repo, number), err)
	}

	return &PullRequest{
		Number:     response.Number,
		Title:      response.Title,
		Body:       response.Body,
		State:      response.State,
		Author:     response.User.Login,
		Branch:     response.Head.Ref,
		BaseBranch: response.Base.Ref,
		CreatedAt:  response.CreatedAt,
		UpdatedAt:  response.UpdatedAt,
	}, nil
}

func convertPullRequest(pr *github.PullRequest) *PullRequest {
	return &PullRequest{
		Number:     pr.GetNumber(),
		Title:      pr.GetTitle(),
		Body:       pr.GetBody(),
		State:      pr.GetState(),
		Author:     pr.GetUser().GetLogin(),
		Branch:     pr.GetHead().GetRef(),
		BaseBranch: pr.GetBase().GetRef(),
		CreatedAt:  pr.GetCreatedAt().Time,
		UpdatedAt:  pr.GetUpdatedAt().Time,
	}
}

func convertComment(comment *github.IssueComment) *Comment {
	return &Comment{
		ID:        comment.GetID(),
		Body:      comment.GetBody(),
		Author:    comment.GetUser().GetLogin(),
		CreatedAt: comment.GetCreatedAt().Time,
	}
}
