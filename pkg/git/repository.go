// Package git provides repository access for codesweep: changed-file
// discovery for hooks and PR review, fix commits, and hook script paths.
package git

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/codesweep/codesweep/pkg/errors"
)

// Branch constants
const (
	branchMain = "main"
	branchHEAD = "HEAD"
)

// Repository wraps a local git repository rooted at a project directory
type Repository struct {
	root string
	repo *git.Repository
}

// Open locates and opens the repository containing path. The .git directory
// may sit in any parent of path.
func Open(path string) (*Repository, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.FileSystemError(path, err)
	}

	repo, err := git.PlainOpenWithOptions(absPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, errors.NewError(errors.ErrorTypeGit).
			WithMessage("failed to open repository").
			WithCause(err).
			WithContext("path", absPath).
			WithSuggestion("run inside a git repository or pass --project pointing at one").
			Build()
	}

	root := absPath
	if worktree, err := repo.Worktree(); err == nil {
		root = worktree.Filesystem.Root()
	}

	return &Repository{root: root, repo: repo}, nil
}

// Root returns the working tree root directory
func (r *Repository) Root() string {
	return r.root
}

// Validate checks that the repository has a readable HEAD and an existing
// working tree
func (r *Repository) Validate() error {
	if _, err := r.repo.Head(); err != nil {
		return errors.NewError(errors.ErrorTypeGit).
			WithMessage("repository is in invalid state").
			WithCause(err).
			WithContext("path", r.root).
			Build()
	}

	if _, err := os.Stat(r.root); os.IsNotExist(err) {
		return errors.NewError(errors.ErrorTypeFileSystem).
			WithMessage("repository working tree does not exist").
			WithContext("path", r.root).
			Build()
	}

	return nil
}

// CurrentBranch returns the short name of the checked-out branch, or the
// commit hash when HEAD is detached
func (r *Repository) CurrentBranch() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", errors.GitError("resolve HEAD", err)
	}
	if head.Name().IsBranch() {
		return head.Name().Short(), nil
	}
	return head.Hash().String(), nil
}

// HeadCommit returns the hash of the commit HEAD points at
func (r *Repository) HeadCommit() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", errors.GitError("resolve HEAD", err)
	}
	return head.Hash().String(), nil
}

// DefaultBranch guesses the repository's main development branch by probing
// common names, falling back to the current branch
func (r *Repository) DefaultBranch() string {
	for _, branch := range []string{branchMain, "master", "develop"} {
		ref := plumbing.NewBranchReferenceName(branch)
		if _, err := r.repo.Reference(ref, true); err == nil {
			return branch
		}
	}
	if branch, err := r.CurrentBranch(); err == nil {
		return branch
	}
	return branchMain
}

// GitDir returns the repository metadata directory, following the gitdir
// pointer file used by linked worktrees
func (r *Repository) GitDir() (string, error) {
	dotGit := filepath.Join(r.root, ".git")
	stat, err := os.Stat(dotGit)
	if err != nil {
		return "", errors.FileSystemError(dotGit, err)
	}
	if stat.IsDir() {
		return dotGit, nil
	}

	// .git is a pointer file in linked worktrees: "gitdir: <path>"
	data, err := os.ReadFile(dotGit) // #nosec G304 - path derived from the repository root
	if err != nil {
		return "", errors.FileSystemError(dotGit, err)
	}
	line := strings.TrimSpace(string(data))
	if !strings.HasPrefix(line, "gitdir:") {
		return "", errors.GitError("parse .git pointer", fmt.Errorf("unexpected content in %s", dotGit))
	}
	target := strings.TrimSpace(strings.TrimPrefix(line, "gitdir:"))
	if !filepath.IsAbs(target) {
		target = filepath.Join(r.root, target)
	}
	return filepath.Clean(target), nil
}

// HooksDir returns the directory where hook scripts live
func (r *Repository) HooksDir() (string, error) {
	gitDir, err := r.GitDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(gitDir, "hooks"), nil
}

// RemoteURL returns the origin URL, falling back to the first remote
func (r *Repository) RemoteURL() (string, error) {
	remotes, err := r.repo.Remotes()
	if err != nil || len(remotes) == 0 {
		return "", errors.NewError(errors.ErrorTypeGit).
			WithMessage("no remotes configured").
			WithCause(err).
			Build()
	}

	for _, remote := range remotes {
		if remote.Config().Name == "origin" && len(remote.Config().URLs) > 0 {
			return remote.Config().URLs[0], nil
		}
	}
	if urls := remotes[0].Config().URLs; len(urls) > 0 {
		return urls[0], nil
	}

	return "", errors.NewError(errors.ErrorTypeGit).
		WithMessage("no remote URLs found").
		Build()
}

// CommitFiles stages the given paths (relative to the repository root) and
// commits them, returning the new commit hash
func (r *Repository) CommitFiles(paths []string, message string) (string, error) {
	if len(paths) == 0 {
		return "", errors.ValidationError("no files to commit")
	}

	worktree, err := r.repo.Worktree()
	if err != nil {
		return "", errors.GitError("open worktree", err)
	}

	for _, path := range paths {
		if _, err := worktree.Add(path); err != nil {
			return "", errors.NewError(errors.ErrorTypeGit).
				WithMessage("failed to stage file").
				WithCause(err).
				WithContext("path", path).
				Build()
		}
	}

	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "codesweep",
			Email: "codesweep@localhost",
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", errors.GitError("commit", err)
	}

	return hash.String(), nil
}
