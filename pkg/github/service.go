package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/codesweep/codesweep/pkg/errors"
	"github.com/codesweep/codesweep/pkg/logger"
)

// reviewMarker tags comments codesweep owns so a re-run updates its earlier
// comment instead of stacking a new one per push. HTML comments are
// invisible in rendered markdown.
const reviewMarker = "<!-- codesweep:review -->"

// lowRateLimitThreshold is the remaining-request count below which review
// runs refuse to start
const lowRateLimitThreshold = 100

// Service provides the high-level GitHub operations PR review needs
type Service struct {
	client GitHubClient
	logger *logger.Logger
}

// NewService creates a service around an authenticated client
func NewService() (*Service, error) {
	client, err := NewClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}
	return NewServiceWithClient(client), nil
}

// NewServiceWithClient creates a service around the given client
func NewServiceWithClient(client GitHubClient) *Service {
	return &Service{
		client: client,
		logger: logger.GetLogger().WithPrefix("github"),
	}
}

// ValidatePullRequestAccess checks that the repository and the pull request
// are both reachable with the current credentials
func (s *Service) ValidatePullRequestAccess(ctx context.Context, owner, repo string, number int) error {
	if err := s.client.ValidateAccess(ctx, owner, repo); err != nil {
		return fmt.Errorf("repository access validation failed: %w", err)
	}
	if _, err := s.client.GetPullRequest(ctx, owner, repo, number); err != nil {
		return fmt.Errorf("pull request access validation failed: %w", err)
	}
	return nil
}

// FetchPullRequest retrieves pull request data, retrying transient failures
// and falling back to the gh CLI path when the typed API keeps failing
func (s *Service) FetchPullRequest(ctx context.Context, owner, repo string, number int) (*PullRequest, error) {
	var pr *PullRequest
	retryErr := errors.RetryTransient(ctx, 3, func() error {
		var err error
		pr, err = s.client.GetPullRequest(ctx, owner, repo, number)
		return err
	})
	if retryErr == nil {
		if pr.State == "closed" {
			return nil, fmt.Errorf("pull request %s/%s#%d is closed", owner, repo, number)
		}
		return pr, nil
	}

	s.logger.Warn("API fetch of %s/%s#%d failed, trying the CLI path: %v", owner, repo, number, retryErr)
	pr, err := s.client.GetPullRequestViaCLI(owner, repo, number)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pull request via API and CLI: %w", err)
	}
	if pr.State == "closed" {
		return nil, fmt.Errorf("pull request %s/%s#%d is closed", owner, repo, number)
	}
	return pr, nil
}

// ChangedFilenames returns the scannable paths a pull request touches,
// dropping files the pull request removed
func (s *Service) ChangedFilenames(ctx context.Context, owner, repo string, number int) ([]string, error) {
	files, err := s.client.ListChangedFiles(ctx, owner, repo, number)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, file := range files {
		if file.Status == FileRemoved {
			continue
		}
		names = append(names, file.Filename)
	}
	return names, nil
}

// PublishReviewComment posts the review body on a pull request. When an
// earlier codesweep comment exists it is updated in place.
func (s *Service) PublishReviewComment(ctx context.Context, owner, repo string, number int, body string) (*Comment, error) {
	tagged := body
	if !strings.Contains(tagged, reviewMarker) {
		tagged = reviewMarker + "\n" + body
	}

	comments, err := s.client.ListComments(ctx, owner, repo, number)
	if err != nil {
		// fall through to creating a fresh comment
		s.logger.Warn("could not list comments on %s/%s#%d: %v", owner, repo, number, err)
	}
	for _, comment := range comments {
		if strings.Contains(comment.Body, reviewMarker) {
			s.logger.Debug("updating review comment %d on %s/%s#%d", comment.ID, owner, repo, number)
			return s.client.UpdateComment(ctx, owner, repo, comment.ID, tagged)
		}
	}

	return s.client.CreateComment(ctx, owner, repo, number, tagged)
}

// OpenFixPullRequest opens a pull request carrying automated fixes. An empty
// base branch defaults to the repository's default branch.
func (s *Service) OpenFixPullRequest(ctx context.Context, owner, repo string, pr *PullRequest) (*PullRequest, error) {
	if pr.BaseBranch == "" {
		defaultBranch, err := s.client.GetDefaultBranch(ctx, owner, repo)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve default branch: %w", err)
		}
		pr.BaseBranch = defaultBranch
	}

	var created *PullRequest
	retryErr := errors.RetryTransient(ctx, 3, func() error {
		var err error
		created, err = s.client.CreatePullRequest(ctx, owner, repo, pr)
		return err
	})
	if retryErr != nil {
		return nil, fmt.Errorf("failed to create pull request: %w", retryErr)
	}
	return created, nil
}

// CheckReviewPreconditions verifies authentication and that enough API
// budget remains for a review run
func (s *Service) CheckReviewPreconditions(ctx context.Context) error {
	if err := s.client.IsAuthenticated(ctx); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	rateLimits, err := s.client.GetRateLimit(ctx)
	if err != nil {
		return fmt.Errorf("failed to check rate limit: %w", err)
	}
	if rateLimits.Core != nil && rateLimits.Core.Remaining < lowRateLimitThreshold {
		return fmt.Errorf("GitHub API rate limit is low (remaining: %d), wait for the %v reset",
			rateLimits.Core.Remaining, rateLimits.Core.Reset.Time)
	}
	return nil
}
