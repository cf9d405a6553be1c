package git

import (
	"fmt"
	"regexp"
)

// RemoteInfo identifies the GitHub project a repository pushes to
type RemoteInfo struct {
	Owner string
	Repo  string
	URL   string
}

var githubURLPatterns = []*regexp.Regexp{
	// HTTPS: https://github.com/owner/repo.git
	regexp.MustCompile(`^https://github\.com/([^/]+)/([^/]+?)(?:\.git)?/?$`),
	// SSH: git@github.com:owner/repo.git
	regexp.MustCompile(`^git@github\.com:([^/]+)/([^/]+?)(?:\.git)?/?$`),
	// SSH alternative: ssh://git@github.com/owner/repo.git
	regexp.MustCompile(`^ssh://git@github\.com/([^/]+)/([^/]+?)(?:\.git)?/?$`),
}

// ParseGitHubRemote extracts owner and repository name from a GitHub
// remote URL
func ParseGitHubRemote(url string) (string, string, error) {
	for _, pattern := range githubURLPatterns {
		matches := pattern.FindStringSubmatch(url)
		if len(matches) == 3 {
			return matches[1], matches[2], nil
		}
	}
	return "", "", fmt.Errorf("not a valid GitHub URL: %s", url)
}

// GitHubRemote resolves the repository's origin to a GitHub owner/repo pair
func (r *Repository) GitHubRemote() (*RemoteInfo, error) {
	url, err := r.RemoteURL()
	if err != nil {
		return nil, err
	}
	owner, repo, err := ParseGitHubRemote(url)
	if err != nil {
		return nil, err
	}
	return &RemoteInfo{Owner: owner, Repo: repo, URL: url}, nil
}

var validRepoNamePattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9._-]*[a-zA-Z0-9])?$`)

// IsValidRepositoryName checks an owner/repo pair against GitHub naming rules
func IsValidRepositoryName(owner, repo string) bool {
	if owner == "" || repo == "" {
		return false
	}
	if !validRepoNamePattern.MatchString(owner) || !validRepoNamePattern.MatchString(repo) {
		return false
	}
	return len(owner) <= 39 && len(repo) <= 100
}
