package scanner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/codesweep/codesweep/pkg/analysis"
	"github.com/codesweep/codesweep/pkg/errors"
)

// resolvedByScan marks issues resolved because a scan stopped reporting them
const resolvedByScan = "scan"

// IssueStore persists findings to a single JSON file so issues keep their
// identity and status across scans. Issues are never deleted, only
// transitioned between open and resolved.
type IssueStore struct {
	path   string
	mutex  sync.RWMutex
	issues []*analysis.Issue
	loaded bool
}

// NewIssueStore creates a store writing to the given JSON file path
func NewIssueStore(path string) (*IssueStore, error) {
	if path == "" {
		return nil, errors.ValidationError("issue store path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, errors.FileSystemError(filepath.Dir(path), err)
	}
	return &IssueStore{path: path}, nil
}

// SyncSummary reports what one reconciliation changed
type SyncSummary struct {
	Added    int `json:"added"`
	Reopened int `json:"reopened"`
	Resolved int `json:"resolved"`
	Open     int `json:"open"`
	Total    int `json:"total"`
}

// SyncScan reconciles the store against a full project scan. Findings not
// seen before are recorded as open, stored open issues the scan no longer
// reports are resolved, and resolved issues that reappear are reopened.
// Matched issues keep their identity and creation time but track the latest
// observation. Only full scans may be synced; after a partial scan a
// missing issue is indistinguishable from an unscanned file.
func (s *IssueStore) SyncScan(result *ScanResult) (*SyncSummary, error) {
	if result == nil {
		return nil, errors.ValidationError("cannot sync a nil scan result")
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.loadLocked(); err != nil {
		return nil, err
	}

	observed := make(map[string]*analysis.Issue, len(result.Issues))
	for _, issue := range result.Issues {
		observed[issueKey(issue)] = issue
	}

	summary := &SyncSummary{}
	known := make(map[string]bool, len(s.issues))

	for _, issue := range s.issues {
		key := issueKey(issue)
		known[key] = true

		fresh, found := observed[key]
		if !found {
			if issue.Status == analysis.StatusOpen {
				issue.Resolve(resolvedByScan)
				summary.Resolved++
			}
			continue
		}
		if issue.Status == analysis.StatusResolved {
			issue.Reopen()
			summary.Reopened++
		}
		issue.Severity = fresh.Severity
		issue.Description = fresh.Description
		issue.SuggestedFix = fresh.SuggestedFix
		issue.AutoFixable = fresh.AutoFixable
	}

	for _, issue := range result.Issues {
		key := issueKey(issue)
		if known[key] {
			continue
		}
		known[key] = true
		s.issues = append(s.issues, issue)
		summary.Added++
	}

	sortIssues(s.issues)
	for _, issue := range s.issues {
		if issue.Status == analysis.StatusOpen {
			summary.Open++
		}
	}
	summary.Total = len(s.issues)

	if err := s.saveLocked(); err != nil {
		return nil, err
	}
	return summary, nil
}

// List returns every stored issue, open and resolved, ordered by file, line
// and category
func (s *IssueStore) List() ([]*analysis.Issue, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.loadLocked(); err != nil {
		return nil, err
	}
	out := make([]*analysis.Issue, len(s.issues))
	copy(out, s.issues)
	return out, nil
}

// OpenIssues returns the stored issues still waiting to be addressed
func (s *IssueStore) OpenIssues() ([]*analysis.Issue, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	var open []*analysis.Issue
	for _, issue := range all {
		if issue.Status == analysis.StatusOpen {
			open = append(open, issue)
		}
	}
	return open, nil
}

// issueKey identifies one finding across scans. Keys are location-exact: an
// issue that moves to another line is resolved at the old location and
// opened at the new one.
func issueKey(issue *analysis.Issue) string {
	return fmt.Sprintf("%s:%d:%d:%s", issue.FilePath, issue.LineNumber, issue.ColumnNumber, issue.Category)
}

// loadLocked reads the store file once; a missing file is an empty store
func (s *IssueStore) loadLocked() error {
	if s.loaded {
		return nil
	}

	// #nosec G304 - the path was fixed at store construction
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.loaded = true
			return nil
		}
		return errors.FileSystemError(s.path, err)
	}

	var issues []*analysis.Issue
	if err := json.Unmarshal(data, &issues); err != nil {
		return errors.NewError(errors.ErrorTypeFileSystem).
			WithMessage("issue store file is corrupt").
			WithCause(err).
			WithContext("path", s.path).
			Build()
	}
	s.issues = issues
	s.loaded = true
	return nil
}

func (s *IssueStore) saveLocked() error {
	data, err := json.MarshalIndent(s.issues, "", "  ")
	if err != nil {
		return errors.NewError(errors.ErrorTypeFileSystem).
			WithMessage("failed to serialize issue store").
			WithCause(err).
			Build()
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return errors.FileSystemError(s.path, err)
	}
	return nil
}
