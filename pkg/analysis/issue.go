package analysis

import (
	"time"

	"github.com/google/uuid"
)

// IssueType represents the category of a quality issue
type IssueType int

const (
	// IssueTypeStyle represents formatting and style issues
	IssueTypeStyle IssueType = iota

	// IssueTypeSecurity represents security vulnerabilities
	IssueTypeSecurity

	// IssueTypeComplexity represents complexity problems
	IssueTypeComplexity

	// IssueTypeTesting represents test-suite quality issues
	IssueTypeTesting

	// IssueTypeDocumentation represents missing or stale documentation
	IssueTypeDocumentation

	// IssueTypePerformance represents performance problems
	IssueTypePerformance

	// IssueTypeMaintainability represents long-term maintainability risks
	IssueTypeMaintainability

	// IssueTypeDuplication represents duplicated code
	IssueTypeDuplication

	// IssueTypeSyntax represents files that fail to parse
	IssueTypeSyntax
)

// String returns a string representation of the issue type
func (it IssueType) String() string {
	switch it {
	case IssueTypeStyle:
		return "style"
	case IssueTypeSecurity:
		return "security"
	case IssueTypeComplexity:
		return "complexity"
	case IssueTypeTesting:
		return "testing"
	case IssueTypeDocumentation:
		return "documentation"
	case IssueTypePerformance:
		return "performance"
	case IssueTypeMaintainability:
		return "maintainability"
	case IssueTypeDuplication:
		return "duplication"
	case IssueTypeSyntax:
		return "syntax"
	default:
		return "unknown"
	}
}

// Severity represents how serious a quality issue is
type Severity int

const (
	// SeverityLow represents cosmetic findings
	SeverityLow Severity = iota

	// SeverityMedium represents findings that should be addressed
	SeverityMedium

	// SeverityHigh represents findings that block conservative gates
	SeverityHigh

	// SeverityCritical represents findings that block every gate
	SeverityCritical
)

// String returns a string representation of the severity
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParseSeverity maps a severity name to its enum value, defaulting to medium
func ParseSeverity(name string) Severity {
	switch name {
	case "low", "info", "style", "minor":
		return SeverityLow
	case "medium", "warning", "moderate":
		return SeverityMedium
	case "high", "error", "major":
		return SeverityHigh
	case "critical", "fatal", "blocker":
		return SeverityCritical
	default:
		return SeverityMedium
	}
}

// IssueStatus tracks the lifecycle of an issue. Issues are never deleted,
// only transitioned between statuses.
type IssueStatus int

const (
	// StatusOpen represents an unresolved issue
	StatusOpen IssueStatus = iota

	// StatusResolved represents an issue fixed manually or automatically
	StatusResolved
)

// String returns a string representation of the issue status
func (s IssueStatus) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Issue represents a single quality finding attributed to one file in one project
type Issue struct {
	ID           string      `json:"id"`
	ProjectID    string      `json:"project_id"`
	FilePath     string      `json:"file_path"`
	LineNumber   int         `json:"line_number"`
	ColumnNumber int         `json:"column_number"`
	Type         IssueType   `json:"issue_type"`
	Severity     Severity    `json:"severity"`
	Category     string      `json:"category"`
	Description  string      `json:"description"`
	SuggestedFix string      `json:"suggested_fix,omitempty"`
	AutoFixable  bool        `json:"auto_fixable"`
	Status       IssueStatus `json:"status"`
	ResolvedBy   string      `json:"resolved_by,omitempty"`
	ResolvedAt   *time.Time  `json:"resolved_at,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// NewIssue creates an open issue with a fresh identifier. Project and file
// attribution are stamped when the issue is added to a Result.
func NewIssue(issueType IssueType, severity Severity, category, description string) *Issue {
	return &Issue{
		ID:          uuid.New().String(),
		Type:        issueType,
		Severity:    severity,
		Category:    category,
		Description: description,
		Status:      StatusOpen,
		CreatedAt:   time.Now(),
	}
}

// WithLocation sets the line and column the issue was found at
func (i *Issue) WithLocation(line, column int) *Issue {
	i.LineNumber = line
	i.ColumnNumber = column
	return i
}

// WithSuggestedFix attaches a human-readable remediation hint
func (i *Issue) WithSuggestedFix(fix string) *Issue {
	i.SuggestedFix = fix
	return i
}

// WithAutoFixable marks the issue as automatically remediable
func (i *Issue) WithAutoFixable(fixable bool) *Issue {
	i.AutoFixable = fixable
	return i
}

// Resolve transitions the issue to resolved, recording who resolved it and when
func (i *Issue) Resolve(resolvedBy string) {
	now := time.Now()
	i.Status = StatusResolved
	i.ResolvedBy = resolvedBy
	i.ResolvedAt = &now
}

// Reopen transitions a resolved issue back to open, clearing resolution metadata
func (i *Issue) Reopen() {
	i.Status = StatusOpen
	i.ResolvedBy = ""
	i.ResolvedAt = nil
}
