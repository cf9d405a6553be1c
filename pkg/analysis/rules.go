package analysis

import (
	"fmt"
	"regexp"
)

// Rule describes a single quality check. Line rules carry either a compiled
// Pattern or a Check function; structural rules (docstrings, syntax) carry
// neither and are evaluated by the detector's language-specific passes,
// which consult the rule only for its enabled flag and metadata.
type Rule struct {
	Name         string
	Type         IssueType
	Severity     Severity
	Description  string
	SuggestedFix string
	AutoFixable  bool
	Languages    []string // empty applies to every language
	Enabled      bool

	Pattern *regexp.Regexp
	Check   func(line string) bool
}

// AppliesTo reports whether the rule covers the given language
func (r *Rule) AppliesTo(language string) bool {
	if len(r.Languages) == 0 {
		return true
	}
	for _, lang := range r.Languages {
		if lang == language {
			return true
		}
	}
	return false
}

// IsLineRule reports whether the rule is evaluated per line
func (r *Rule) IsLineRule() bool {
	return r.Pattern != nil || r.Check != nil
}

// newIssueFromRule builds an issue carrying the rule's metadata
func newIssueFromRule(rule *Rule, line, column int) *Issue {
	issue := NewIssue(rule.Type, rule.Severity, rule.Name, rule.Description).
		WithLocation(line, column).
		WithAutoFixable(rule.AutoFixable)
	if rule.SuggestedFix != "" {
		issue.WithSuggestedFix(rule.SuggestedFix)
	}
	return issue
}

// Rule name constants. Categories on emitted issues use these names.
const (
	RuleLongLine           = "long_line"
	RuleTrailingWhitespace = "trailing_whitespace"
	RuleMultipleBlankLines = "multiple_blank_lines"
	RuleHardcodedPassword  = "hardcoded_password"
	RuleDangerousCall      = "dangerous_call"
	RuleMissingDocstring   = "missing_docstring"
	RuleMissingDocComment  = "missing_doc_comment"
	RuleUnsortedImports    = "unsorted_imports"
	RuleSyntaxError        = "syntax_error"
)

var (
	trailingWhitespacePattern = regexp.MustCompile(`[ \t]+$`)
	hardcodedSecretPattern    = regexp.MustCompile(`(?i)\b(password|passwd|pwd|secret|api_key|apikey|access_key|auth_token|token)\s*[:=]\s*["'][^"']+["']`)
	dangerousCallPattern      = regexp.MustCompile(`\beval\s*\(|\bexec\s*\(|\bos\.system\s*\(|\bsubprocess\.(?:call|run|Popen)\s*\([^)]*shell\s*=\s*True`)
)

// defaultRules builds the standard rule set for the given configuration
func defaultRules(config DetectorConfig) []*Rule {
	maxLineLength := config.MaxLineLength

	return []*Rule{
		{
			Name:        RuleLongLine,
			Type:        IssueTypeStyle,
			Severity:    SeverityLow,
			Description: fmt.Sprintf("Line exceeds %d characters", maxLineLength),
			SuggestedFix: fmt.Sprintf(
				"Break the line into shorter statements or wrap it under %d characters", maxLineLength),
			Enabled: true,
			Check: func(line string) bool {
				return len(line) > maxLineLength
			},
		},
		{
			Name:         RuleTrailingWhitespace,
			Type:         IssueTypeStyle,
			Severity:     SeverityLow,
			Description:  "Line has trailing whitespace",
			SuggestedFix: "Remove the trailing whitespace",
			AutoFixable:  true,
			Enabled:      true,
			Pattern:      trailingWhitespacePattern,
		},
		{
			Name:         RuleMultipleBlankLines,
			Type:         IssueTypeStyle,
			Severity:     SeverityLow,
			Description:  fmt.Sprintf("More than %d consecutive blank lines", config.MaxBlankRun),
			SuggestedFix: "Collapse the blank lines",
			AutoFixable:  true,
			Enabled:      true,
		},
		{
			Name:         RuleHardcodedPassword,
			Type:         IssueTypeSecurity,
			Severity:     SeverityHigh,
			Description:  "Hardcoded credential assigned to a variable",
			SuggestedFix: "Move the secret into an environment variable or secret store",
			Enabled:      true,
			Pattern:      hardcodedSecretPattern,
		},
		{
			Name:         RuleDangerousCall,
			Type:         IssueTypeSecurity,
			Severity:     SeverityCritical,
			Description:  "Dangerous dynamic execution call",
			SuggestedFix: "Avoid dynamic code execution; parse and validate the input instead",
			Enabled:      true,
			Pattern:      dangerousCallPattern,
		},
		{
			Name:         RuleMissingDocstring,
			Type:         IssueTypeDocumentation,
			Severity:     SeverityLow,
			Description:  "Definition is missing a docstring",
			SuggestedFix: "Add a docstring describing the behavior",
			Languages:    []string{LangPython},
			Enabled:      true,
		},
		{
			Name:         RuleMissingDocComment,
			Type:         IssueTypeDocumentation,
			Severity:     SeverityLow,
			Description:  "Exported declaration is missing a doc comment",
			SuggestedFix: "Add a doc comment starting with the declaration name",
			Languages:    []string{LangGo},
			Enabled:      true,
		},
		{
			Name:         RuleUnsortedImports,
			Type:         IssueTypeStyle,
			Severity:     SeverityLow,
			Description:  "Import statements are not grouped and sorted",
			SuggestedFix: "Order imports as stdlib, third-party, then local, alphabetically within each group",
			AutoFixable:  true,
			Languages:    []string{LangPython},
			Enabled:      true,
		},
		{
			Name:        RuleSyntaxError,
			Type:        IssueTypeSyntax,
			Severity:    SeverityCritical,
			Description: "File cannot be parsed",
			Enabled:     true,
		},
	}
}
