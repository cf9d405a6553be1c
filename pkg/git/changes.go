package git

import (
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/codesweep/codesweep/pkg/errors"
)

// StagedFiles returns the paths staged for the next commit, sorted.
// Deletions are excluded since there is no content left to scan.
func (r *Repository) StagedFiles() ([]string, error) {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return nil, errors.GitError("open worktree", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return nil, errors.GitError("read status", err)
	}

	var files []string
	for path, fileStatus := range status {
		switch fileStatus.Staging {
		case git.Added, git.Modified, git.Renamed, git.Copied:
			files = append(files, path)
		}
	}

	sort.Strings(files)
	return files, nil
}

// ModifiedFiles returns paths with staged or unstaged changes, including
// untracked files, sorted. Deletions are excluded.
func (r *Repository) ModifiedFiles() ([]string, error) {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return nil, errors.GitError("open worktree", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return nil, errors.GitError("read status", err)
	}

	var files []string
	for path, fileStatus := range status {
		if fileStatus.Staging == git.Deleted || fileStatus.Worktree == git.Deleted {
			continue
		}
		if fileStatus.Staging != git.Unmodified || fileStatus.Worktree != git.Unmodified {
			files = append(files, path)
		}
	}

	sort.Strings(files)
	return files, nil
}

// ChangedFiles returns the paths that differ between two revisions
// (branch names, tags or commit hashes), sorted. Renames report the new
// path; deletions report the old one so callers can drop vanished files.
func (r *Repository) ChangedFiles(base, head string) ([]string, error) {
	baseTree, err := r.revisionTree(base)
	if err != nil {
		return nil, err
	}
	headTree, err := r.revisionTree(head)
	if err != nil {
		return nil, err
	}

	changes, err := object.DiffTree(baseTree, headTree)
	if err != nil {
		return nil, errors.GitError("diff trees", err)
	}

	seen := make(map[string]bool)
	var files []string
	for _, change := range changes {
		name := change.To.Name
		if name == "" {
			name = change.From.Name
		}
		if name != "" && !seen[name] {
			seen[name] = true
			files = append(files, name)
		}
	}

	sort.Strings(files)
	return files, nil
}

// ChangedFilesSince returns the paths that differ between the given revision
// and the current HEAD
func (r *Repository) ChangedFilesSince(base string) ([]string, error) {
	return r.ChangedFiles(base, branchHEAD)
}

// FileExistsAt reports whether the path exists in the tree of the given
// revision
func (r *Repository) FileExistsAt(revision, path string) (bool, error) {
	tree, err := r.revisionTree(revision)
	if err != nil {
		return false, err
	}
	if _, err := tree.File(path); err != nil {
		if err == object.ErrFileNotFound {
			return false, nil
		}
		return false, errors.GitError("lookup file", err)
	}
	return true, nil
}

func (r *Repository) revisionTree(revision string) (*object.Tree, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		return nil, errors.NewError(errors.ErrorTypeGit).
			WithMessage("failed to resolve revision").
			WithCause(err).
			WithContext("revision", revision).
			Build()
	}

	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, errors.GitError("load commit", err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, errors.GitError("load tree", err)
	}
	return tree, nil
}
