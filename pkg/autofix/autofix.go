// Package autofix turns auto-fixable analysis issues into applied source
// changes. Fixers analyze issues into confidence-scored fixable units; the
// engine gates them against a safety level, applies them sequentially per
// file with durable backups, validates the result structurally and keeps an
// audit trail that supports rollback.
package autofix

import (
	"github.com/codesweep/codesweep/pkg/analysis"
)

// FixStatus tracks a fix through its lifecycle
type FixStatus int

const (
	// StatusDetected is an issue freshly handed to the engine
	StatusDetected FixStatus = iota

	// StatusAnalyzed has a fixer and a confidence score
	StatusAnalyzed

	// StatusAccepted cleared the active safety threshold
	StatusAccepted

	// StatusSkipped fell below the active safety threshold
	StatusSkipped

	// StatusApplied has been applied to the working copy
	StatusApplied

	// StatusValidated passed post-apply structural validation
	StatusValidated

	// StatusCommitted has been written out and recorded
	StatusCommitted

	// StatusRolledBack was reverted after a validation failure or rollback
	StatusRolledBack
)

// String returns a string representation of the fix status
func (s FixStatus) String() string {
	switch s {
	case StatusDetected:
		return "detected"
	case StatusAnalyzed:
		return "analyzed"
	case StatusAccepted:
		return "accepted"
	case StatusSkipped:
		return "skipped"
	case StatusApplied:
		return "applied"
	case StatusValidated:
		return "validated"
	case StatusCommitted:
		return "committed"
	case StatusRolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}

// SafetyLevel controls how much confidence a fix needs before it is applied
type SafetyLevel int

const (
	// SafetyConservative only applies fixes with very high confidence
	SafetyConservative SafetyLevel = iota

	// SafetyModerate applies fixes with reasonable confidence
	SafetyModerate

	// SafetyAggressive applies any fix that is more likely right than wrong
	SafetyAggressive
)

// Minimum confidence per safety level
const (
	ConservativeMinConfidence = 0.9
	ModerateMinConfidence     = 0.7
	AggressiveMinConfidence   = 0.5
)

// String returns a string representation of the safety level
func (s SafetyLevel) String() string {
	switch s {
	case SafetyConservative:
		return "conservative"
	case SafetyModerate:
		return "moderate"
	case SafetyAggressive:
		return "aggressive"
	default:
		return "unknown"
	}
}

// MinConfidence returns the minimum confidence a fix needs under this level
func (s SafetyLevel) MinConfidence() float64 {
	switch s {
	case SafetyModerate:
		return ModerateMinConfidence
	case SafetyAggressive:
		return AggressiveMinConfidence
	default:
		return ConservativeMinConfidence
	}
}

// ParseSafetyLevel maps a configuration string to a safety level
func ParseSafetyLevel(name string) SafetyLevel {
	switch name {
	case "moderate":
		return SafetyModerate
	case "aggressive":
		return SafetyAggressive
	default:
		return SafetyConservative
	}
}

// FixableIssue wraps an issue with everything needed to apply its fix
type FixableIssue struct {
	Issue           *analysis.Issue `json:"issue"`
	FixerName       string          `json:"fixer_name"`
	FixType         string          `json:"fix_type"`
	Confidence      float64         `json:"confidence"`
	FixDescription  string          `json:"fix_description"`
	OriginalContent string          `json:"-"`
	FixedContent    string          `json:"-"`
	StartLine       int             `json:"start_line"`
	EndLine         int             `json:"end_line"`
	RequiresBackup  bool            `json:"requires_backup"`
	Status          FixStatus       `json:"status"`
}

// Fixer produces and applies fixes for a class of issues. Fixers are
// queried in registration order; the first one whose CanFix accepts an
// issue owns it.
type Fixer interface {
	Name() string
	SupportsLanguage(language string) bool
	CanFix(issue *analysis.Issue) bool
	Analyze(issue *analysis.Issue, actx *analysis.Context) (*FixableIssue, error)
	Apply(fixable *FixableIssue, content string) (string, error)
}

// ApplyResult is the per-file outcome of one ApplyFixes call
type ApplyResult struct {
	FilePath     string       `json:"file_path"`
	Attempted    int          `json:"attempted"`
	Applied      int          `json:"applied"`
	Failed       int          `json:"failed"`
	Skipped      int          `json:"skipped"`
	FinalContent string       `json:"-"`
	BackupPath   string       `json:"backup_path,omitempty"`
	Success      bool         `json:"success"`
	Records      []*FixRecord `json:"records"`
}

// ValidationResult reports the structural safety checks run on a fix
type ValidationResult struct {
	IsSafe          bool     `json:"is_safe"`
	Confidence      float64  `json:"confidence"`
	ChecksPerformed []string `json:"checks_performed"`
	Reasons         []string `json:"reasons,omitempty"`
}
