package autofix

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/codesweep/codesweep/pkg/errors"
	"github.com/google/uuid"
)

// Checkpoint snapshots the content of a set of files before a batch of
// fixes touches them, so the whole batch can be undone as a unit
type Checkpoint struct {
	ID        string            `json:"id"`
	ProjectID string            `json:"project_id"`
	CreatedAt time.Time         `json:"created_at"`
	Files     map[string]string `json:"files"`
}

// CreateCheckpoint reads and snapshots the given files. Relative paths are
// resolved against projectRoot and kept relative in the snapshot so restores
// work from any working directory. The snapshot is persisted durably before
// it is returned; a file that cannot be read fails the whole checkpoint,
// since a partial snapshot cannot guarantee a clean rollback.
func (e *Engine) CreateCheckpoint(projectID, projectRoot string, filePaths []string) (*Checkpoint, error) {
	if len(filePaths) == 0 {
		return nil, errors.ValidationError("checkpoint requires at least one file")
	}

	checkpoint := &Checkpoint{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		CreatedAt: time.Now(),
		Files:     make(map[string]string, len(filePaths)),
	}

	for _, filePath := range filePaths {
		target := resolvePath(projectRoot, filePath)
		content, err := os.ReadFile(target)
		if err != nil {
			return nil, errors.FileSystemError(target, err)
		}
		checkpoint.Files[filePath] = string(content)
	}

	if err := e.saveCheckpoint(checkpoint); err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.checkpoints[checkpoint.ID] = checkpoint
	e.mu.Unlock()

	e.logger.Debug("Created checkpoint %s covering %d files", checkpoint.ID, len(checkpoint.Files))
	return checkpoint, nil
}

// RestoreCheckpoint writes every file in the checkpoint back to its
// snapshotted content. Restoration keeps going past individual failures and
// reports a per-file success map alongside the first error encountered.
func (e *Engine) RestoreCheckpoint(checkpointID, projectRoot string) (map[string]bool, error) {
	checkpoint, err := e.loadCheckpoint(checkpointID)
	if err != nil {
		return nil, err
	}

	restored := make(map[string]bool, len(checkpoint.Files))
	var firstErr error
	for filePath, content := range checkpoint.Files {
		target := resolvePath(projectRoot, filePath)
		if writeErr := os.WriteFile(target, []byte(content), fileModeOr(target, 0600)); writeErr != nil {
			restored[filePath] = false
			if firstErr == nil {
				firstErr = errors.FileSystemError(target, writeErr)
			}
			continue
		}
		restored[filePath] = true
	}

	e.logger.Info("Restored checkpoint %s (%d files)", checkpointID, len(restored))
	return restored, firstErr
}

// RollbackBatch undoes applied fixes by copying each result's backup over
// the fixed file and marking the successful history records rolled back.
// Results without applied fixes are skipped; a result that applied fixes
// without a backup cannot be rolled back and is reported as an error.
func (e *Engine) RollbackBatch(results []*ApplyResult, projectRoot string) error {
	var firstErr error

	for _, result := range results {
		if result == nil || result.Applied == 0 {
			continue
		}

		if result.BackupPath == "" {
			if firstErr == nil {
				firstErr = errors.NewError(errors.ErrorTypeFix).
					WithMessagef("no backup recorded for %s, cannot roll back", result.FilePath).
					WithSuggestion("Run fixes with backups enabled to allow rollback").
					Build()
			}
			continue
		}

		content, err := os.ReadFile(result.BackupPath)
		if err != nil {
			if firstErr == nil {
				firstErr = errors.FileSystemError(result.BackupPath, err)
			}
			continue
		}

		target := resolvePath(projectRoot, result.FilePath)
		if err := os.WriteFile(target, content, fileModeOr(target, 0600)); err != nil {
			if firstErr == nil {
				firstErr = errors.FileSystemError(target, err)
			}
			continue
		}

		for _, record := range result.Records {
			if !record.Success || record.RolledBack {
				continue
			}
			record.RolledBack = true
			if e.history != nil {
				if err := e.history.MarkRolledBack(record.ID); err != nil {
					e.logger.Warn("Failed to mark fix %s rolled back: %v", record.ID, err)
				}
			}
		}

		e.logger.Info("Rolled back %d fixes on %s", result.Applied, result.FilePath)
	}

	return firstErr
}

// loadCheckpoint fetches a checkpoint from memory, falling back to the
// persisted copy so rollback works across process restarts
func (e *Engine) loadCheckpoint(checkpointID string) (*Checkpoint, error) {
	e.mu.Lock()
	checkpoint, ok := e.checkpoints[checkpointID]
	e.mu.Unlock()
	if ok {
		return checkpoint, nil
	}

	path := filepath.Join(e.config.CheckpointDir, checkpointID+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewError(errors.ErrorTypeFix).
				WithMessagef("no checkpoint with id %s", checkpointID).
				Build()
		}
		return nil, errors.FileSystemError(path, err)
	}

	checkpoint = &Checkpoint{}
	if err := json.Unmarshal(data, checkpoint); err != nil {
		return nil, errors.NewError(errors.ErrorTypeFileSystem).
			WithMessagef("checkpoint file %s is corrupt", path).
			WithCause(err).
			Build()
	}
	return checkpoint, nil
}

// saveCheckpoint persists the snapshot durably so rollback survives a crash
func (e *Engine) saveCheckpoint(checkpoint *Checkpoint) error {
	if err := os.MkdirAll(e.config.CheckpointDir, 0750); err != nil {
		return errors.FileSystemError(e.config.CheckpointDir, err)
	}

	data, err := json.MarshalIndent(checkpoint, "", "  ")
	if err != nil {
		return errors.NewError(errors.ErrorTypeFix).
			WithMessage("failed to serialize checkpoint").
			WithCause(err).
			Build()
	}

	path := filepath.Join(e.config.CheckpointDir, checkpoint.ID+".json")
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return errors.FileSystemError(path, err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return errors.FileSystemError(path, err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return errors.FileSystemError(path, err)
	}
	return file.Close()
}
