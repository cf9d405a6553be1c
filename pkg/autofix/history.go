package autofix

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codesweep/codesweep/pkg/errors"
)

// FixRecord is the durable audit record of one fix attempt
type FixRecord struct {
	ID           string    `json:"id"`
	IssueID      string    `json:"issue_id"`
	ProjectID    string    `json:"project_id"`
	FilePath     string    `json:"file_path"`
	FixType      string    `json:"fix_type"`
	FixerName    string    `json:"fixer_name"`
	Success      bool      `json:"success"`
	BackupPath   string    `json:"backup_path,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	AppliedAt    time.Time `json:"applied_at"`
	AppliedBy    string    `json:"applied_by"`
	RolledBack   bool      `json:"rolled_back"`
}

// HistoryStore persists fix records to a single JSON file. Records are only
// ever appended or status-updated, never removed.
type HistoryStore struct {
	path    string
	mutex   sync.RWMutex
	records []*FixRecord
	loaded  bool
}

// NewHistoryStore creates a store writing to the given JSON file path
func NewHistoryStore(path string) (*HistoryStore, error) {
	if path == "" {
		return nil, errors.ValidationError("history store path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, errors.FileSystemError(filepath.Dir(path), err)
	}
	return &HistoryStore{path: path}, nil
}

// NewRecord builds a fix record for one apply attempt
func NewRecord(fixable *FixableIssue, appliedBy string) *FixRecord {
	record := &FixRecord{
		ID:        uuid.New().String(),
		FixType:   fixable.FixType,
		FixerName: fixable.FixerName,
		AppliedAt: time.Now(),
		AppliedBy: appliedBy,
	}
	if fixable.Issue != nil {
		record.IssueID = fixable.Issue.ID
		record.ProjectID = fixable.Issue.ProjectID
		record.FilePath = fixable.Issue.FilePath
	}
	return record
}

// Append persists one record
func (hs *HistoryStore) Append(record *FixRecord) error {
	hs.mutex.Lock()
	defer hs.mutex.Unlock()

	if err := hs.loadLocked(); err != nil {
		return err
	}
	hs.records = append(hs.records, record)
	return hs.saveLocked()
}

// List returns all records ordered by application time
func (hs *HistoryStore) List() ([]*FixRecord, error) {
	hs.mutex.Lock()
	defer hs.mutex.Unlock()

	if err := hs.loadLocked(); err != nil {
		return nil, err
	}
	out := make([]*FixRecord, len(hs.records))
	copy(out, hs.records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AppliedAt.Before(out[j].AppliedAt)
	})
	return out, nil
}

// ForFile returns the records for one file path
func (hs *HistoryStore) ForFile(filePath string) ([]*FixRecord, error) {
	all, err := hs.List()
	if err != nil {
		return nil, err
	}
	var matched []*FixRecord
	for _, record := range all {
		if record.FilePath == filePath {
			matched = append(matched, record)
		}
	}
	return matched, nil
}

// MarkRolledBack flags a record as rolled back and persists the change
func (hs *HistoryStore) MarkRolledBack(recordID string) error {
	hs.mutex.Lock()
	defer hs.mutex.Unlock()

	if err := hs.loadLocked(); err != nil {
		return err
	}
	for _, record := range hs.records {
		if record.ID == recordID {
			record.RolledBack = true
			return hs.saveLocked()
		}
	}
	return errors.NewError(errors.ErrorTypeValidation).
		WithMessagef("no fix record with id %s", recordID).
		Build()
}

// loadLocked reads the store file once; a missing file is an empty store
func (hs *HistoryStore) loadLocked() error {
	if hs.loaded {
		return nil
	}

	// #nosec G304 - the path was fixed at store construction
	data, err := os.ReadFile(hs.path)
	if err != nil {
		if os.IsNotExist(err) {
			hs.loaded = true
			return nil
		}
		return errors.FileSystemError(hs.path, err)
	}

	var records []*FixRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return errors.NewError(errors.ErrorTypeFileSystem).
			WithMessage("fix history file is corrupt").
			WithCause(err).
			WithContext("path", hs.path).
			Build()
	}
	hs.records = records
	hs.loaded = true
	return nil
}

func (hs *HistoryStore) saveLocked() error {
	data, err := json.MarshalIndent(hs.records, "", "  ")
	if err != nil {
		return errors.NewError(errors.ErrorTypeFileSystem).
			WithMessage("failed to serialize fix history").
			WithCause(err).
			Build()
	}
	if err := os.WriteFile(hs.path, data, 0o600); err != nil {
		return errors.FileSystemError(hs.path, err)
	}
	return nil
}
