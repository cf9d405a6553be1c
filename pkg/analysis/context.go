// Package analysis provides the per-file analysis model, the analyzer
// contract with caching and language gating, and rule-based quality issue
// detection for codesweep.
package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/codesweep/codesweep/pkg/errors"
)

// Context carries everything an analyzer needs to inspect a single file.
// It is constructed once per file per scan pass and treated as immutable:
// the language and content hash are derived at construction time.
type Context struct {
	ProjectID   string `json:"project_id"`
	FilePath    string `json:"file_path"`
	FileContent string `json:"file_content"`
	Language    string `json:"language"`
	FileHash    string `json:"file_hash"`
	ProjectRoot string `json:"project_root,omitempty"`
}

// NewContext creates an analysis context for in-memory file content
func NewContext(projectID, filePath, content string) *Context {
	return &Context{
		ProjectID:   projectID,
		FilePath:    filePath,
		FileContent: content,
		Language:    DetectLanguage(filePath),
		FileHash:    hashContent(content),
	}
}

// NewContextWithRoot creates an analysis context that remembers the project root
func NewContextWithRoot(projectID, projectRoot, filePath, content string) *Context {
	actx := NewContext(projectID, filePath, content)
	actx.ProjectRoot = projectRoot
	return actx
}

// LoadContext reads a file from disk and builds an analysis context for it
func LoadContext(projectID, projectRoot, filePath string) (*Context, error) {
	readPath := filePath
	if !filepath.IsAbs(readPath) && projectRoot != "" {
		readPath = filepath.Join(projectRoot, filePath)
	}

	// #nosec G304 - the path comes from a scan walk rooted at the project directory
	data, err := os.ReadFile(readPath)
	if err != nil {
		return nil, errors.FileSystemError(filePath, err)
	}

	return NewContextWithRoot(projectID, projectRoot, filePath, string(data)), nil
}

// Lines splits the file content into lines without altering line endings
func (c *Context) Lines() []string {
	return strings.Split(strings.ReplaceAll(c.FileContent, "\r\n", "\n"), "\n")
}

// LineCount returns the number of lines in the file content
func (c *Context) LineCount() int {
	return len(c.Lines())
}

func hashContent(content string) string {
	hasher := sha256.New()
	hasher.Write([]byte(content))
	return hex.EncodeToString(hasher.Sum(nil))
}
