package autofix

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/codesweep/codesweep/internal/pysource"
	"github.com/codesweep/codesweep/pkg/analysis"
	"github.com/codesweep/codesweep/pkg/errors"
)

// trailingWhitespacePattern matches trailing spaces and tabs while keeping
// carriage returns in place
var trailingWhitespacePattern = regexp.MustCompile(`(?m)[ \t]+(\r?)$`)

// TrailingWhitespaceFixer strips trailing whitespace from every line. The
// transformation is deterministic, so confidence is 1.0 and no backup is
// needed.
type TrailingWhitespaceFixer struct{}

// NewTrailingWhitespaceFixer creates the trailing whitespace fixer
func NewTrailingWhitespaceFixer() *TrailingWhitespaceFixer {
	return &TrailingWhitespaceFixer{}
}

// Name implements Fixer
func (f *TrailingWhitespaceFixer) Name() string {
	return "trailing_whitespace_fixer"
}

// SupportsLanguage implements Fixer; whitespace is language-agnostic
func (f *TrailingWhitespaceFixer) SupportsLanguage(language string) bool {
	return true
}

// CanFix implements Fixer
func (f *TrailingWhitespaceFixer) CanFix(issue *analysis.Issue) bool {
	return issue.Category == analysis.RuleTrailingWhitespace
}

// Analyze implements Fixer
func (f *TrailingWhitespaceFixer) Analyze(issue *analysis.Issue, actx *analysis.Context) (*FixableIssue, error) {
	return &FixableIssue{
		Issue:          issue,
		FixerName:      f.Name(),
		FixType:        "whitespace_removal",
		Confidence:     1.0,
		FixDescription: "Remove trailing whitespace",
		StartLine:      issue.LineNumber,
		EndLine:        issue.LineNumber,
		RequiresBackup: false,
		Status:         StatusAnalyzed,
	}, nil
}

// Apply implements Fixer
func (f *TrailingWhitespaceFixer) Apply(fixable *FixableIssue, content string) (string, error) {
	return trailingWhitespacePattern.ReplaceAllString(content, "$1"), nil
}

// BlankLineFixer collapses runs of blank lines down to the configured
// maximum
type BlankLineFixer struct {
	maxBlankRun int
}

// NewBlankLineFixer creates a blank line fixer allowing maxBlankRun
// consecutive blank lines
func NewBlankLineFixer(maxBlankRun int) *BlankLineFixer {
	if maxBlankRun <= 0 {
		maxBlankRun = 2
	}
	return &BlankLineFixer{maxBlankRun: maxBlankRun}
}

// Name implements Fixer
func (f *BlankLineFixer) Name() string {
	return "blank_line_fixer"
}

// SupportsLanguage implements Fixer
func (f *BlankLineFixer) SupportsLanguage(language string) bool {
	return true
}

// CanFix implements Fixer
func (f *BlankLineFixer) CanFix(issue *analysis.Issue) bool {
	return issue.Category == analysis.RuleMultipleBlankLines
}

// Analyze implements Fixer
func (f *BlankLineFixer) Analyze(issue *analysis.Issue, actx *analysis.Context) (*FixableIssue, error) {
	return &FixableIssue{
		Issue:          issue,
		FixerName:      f.Name(),
		FixType:        "blank_line_collapse",
		Confidence:     0.9,
		FixDescription: fmt.Sprintf("Collapse blank line runs to at most %d", f.maxBlankRun),
		StartLine:      issue.LineNumber,
		EndLine:        issue.LineNumber,
		RequiresBackup: true,
		Status:         StatusAnalyzed,
	}, nil
}

// Apply implements Fixer
func (f *BlankLineFixer) Apply(fixable *FixableIssue, content string) (string, error) {
	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines))
	run := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			run++
			if run > f.maxBlankRun {
				continue
			}
		} else {
			run = 0
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n"), nil
}

// PythonImportFixer rewrites a contiguous top-level import block into
// canonical order: stdlib, third-party, local, alphabetical within groups
type PythonImportFixer struct {
	localPrefixes []string
}

// NewPythonImportFixer creates the import sorting fixer. localPrefixes marks
// project module prefixes as local imports.
func NewPythonImportFixer(localPrefixes []string) *PythonImportFixer {
	return &PythonImportFixer{localPrefixes: localPrefixes}
}

// Name implements Fixer
func (f *PythonImportFixer) Name() string {
	return "python_import_fixer"
}

// SupportsLanguage implements Fixer
func (f *PythonImportFixer) SupportsLanguage(language string) bool {
	return language == analysis.LangPython
}

// CanFix implements Fixer
func (f *PythonImportFixer) CanFix(issue *analysis.Issue) bool {
	return issue.Category == analysis.RuleUnsortedImports
}

// Analyze implements Fixer
func (f *PythonImportFixer) Analyze(issue *analysis.Issue, actx *analysis.Context) (*FixableIssue, error) {
	imports := pysource.ScanImports(actx.Lines(), f.localPrefixes)
	if len(imports) < 2 {
		return nil, errors.ValidationError("file has no import block to sort")
	}
	return &FixableIssue{
		Issue:          issue,
		FixerName:      f.Name(),
		FixType:        "import_sort",
		Confidence:     0.8,
		FixDescription: "Group and sort the top-level imports",
		StartLine:      imports[0].Line,
		EndLine:        imports[len(imports)-1].Line,
		RequiresBackup: true,
		Status:         StatusAnalyzed,
	}, nil
}

// Apply implements Fixer. The rewrite only proceeds when the imports form a
// contiguous block with nothing but blank lines between them; imports
// interleaved with code or comments are refused rather than risk dropping
// those lines.
func (f *PythonImportFixer) Apply(fixable *FixableIssue, content string) (string, error) {
	lines := strings.Split(content, "\n")
	imports := pysource.ScanImports(lines, f.localPrefixes)
	if len(imports) < 2 {
		return content, nil
	}

	first := imports[0].Line - 1
	last := imports[len(imports)-1].Line - 1
	importLines := make(map[int]bool, len(imports))
	for _, imp := range imports {
		importLines[imp.Line-1] = true
	}
	for i := first; i <= last; i++ {
		if importLines[i] {
			continue
		}
		if strings.TrimSpace(lines[i]) != "" {
			return "", errors.NewError(errors.ErrorTypeFix).
				WithMessage("import block is interleaved with other lines and cannot be sorted safely").
				WithContext("line", i+1).
				Build()
		}
	}

	block := pysource.RenderImportBlock(pysource.SortImports(imports))
	out := make([]string, 0, len(lines))
	out = append(out, lines[:first]...)
	out = append(out, block...)
	out = append(out, lines[last+1:]...)
	return strings.Join(out, "\n"), nil
}
