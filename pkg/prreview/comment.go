package prreview

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/codesweep/codesweep/pkg/analysis"
	"github.com/codesweep/codesweep/pkg/gate"
	"github.com/codesweep/codesweep/pkg/scanner"
)

var titleCaser = cases.Title(language.English)

// maxRecommendations caps how many findings the review comment calls out
const maxRecommendations = 3

// severityOrder fixes the rendering order of severity breakdowns
var severityOrder = []analysis.Severity{
	analysis.SeverityCritical,
	analysis.SeverityHigh,
	analysis.SeverityMedium,
	analysis.SeverityLow,
}

// renderComment builds the markdown review comment for one analysis
func renderComment(a *Analysis) string {
	sections := []string{summarySection(a)}
	if section := gateSection(a); section != "" {
		sections = append(sections, section)
	}
	if section := reviewSection(a); section != "" {
		sections = append(sections, section)
	}
	if section := fixSection(a); section != "" {
		sections = append(sections, section)
	}
	if section := recommendationSection(a); section != "" {
		sections = append(sections, section)
	}
	return strings.Join(sections, "\n\n")
}

func summarySection(a *Analysis) string {
	var summary strings.Builder

	summary.WriteString("## Code Quality Review\n\n")
	summary.WriteString(fmt.Sprintf("**Verdict**: %s %s\n", verdictIcon(a), titleCaser.String(a.Verdict())))
	summary.WriteString(fmt.Sprintf("**Quality gate**: `%s` (%s)\n", a.GateName, a.Evaluation.Result))
	summary.WriteString(fmt.Sprintf("**Branches**: `%s` into `%s`\n", a.HeadBranch, a.BaseBranch))

	issueLine := fmt.Sprintf("**Files analyzed**: %d, **issues found**: %d", a.Scan.FilesScanned, a.Scan.TotalIssues)
	if breakdown := severityBreakdown(a.Scan); breakdown != "" {
		issueLine += fmt.Sprintf(" (%s)", breakdown)
	}
	summary.WriteString(issueLine)

	return summary.String()
}

func verdictIcon(a *Analysis) string {
	switch {
	case a.Evaluation.Result == gate.Fail:
		return "❌"
	case a.NeedsManualReview:
		return "🔍"
	case a.Evaluation.Result == gate.ConditionalPass:
		return "⚠️"
	default:
		return "✅"
	}
}

// severityBreakdown lists the nonzero severity counts from worst to mildest
func severityBreakdown(scan *scanner.ScanResult) string {
	var parts []string
	for _, severity := range severityOrder {
		if n := scan.IssuesBySeverity[severity.String()]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, severity))
		}
	}
	return strings.Join(parts, ", ")
}

func gateSection(a *Analysis) string {
	if len(a.Evaluation.Reasons) == 0 {
		return ""
	}

	var section strings.Builder
	section.WriteString("### Gate findings\n\n")
	for _, reason := range a.Evaluation.Reasons {
		section.WriteString(fmt.Sprintf("- %s\n", reason))
	}
	return strings.TrimRight(section.String(), "\n")
}

func reviewSection(a *Analysis) string {
	if !a.NeedsManualReview {
		return ""
	}

	var section strings.Builder
	section.WriteString("### Manual review required\n\n")
	for _, reason := range a.ReviewReasons {
		section.WriteString(fmt.Sprintf("- %s\n", reason))
	}
	return strings.TrimRight(section.String(), "\n")
}

func fixSection(a *Analysis) string {
	if a.FixesApplied == 0 {
		return ""
	}

	var section strings.Builder
	section.WriteString("### Automatic fixes\n\n")
	section.WriteString(fmt.Sprintf("✅ Applied %d fixes to %d files:\n", a.FixesApplied, len(a.FixedFiles)))
	for _, file := range a.FixedFiles {
		section.WriteString(fmt.Sprintf("- `%s`\n", file))
	}
	return strings.TrimRight(section.String(), "\n")
}

func recommendationSection(a *Analysis) string {
	recommendations := topRecommendations(a.Scan.Issues, maxRecommendations)
	if len(recommendations) == 0 {
		return ""
	}

	var section strings.Builder
	section.WriteString("### Top recommendations\n\n")
	for _, recommendation := range recommendations {
		section.WriteString(fmt.Sprintf("- %s\n", recommendation))
	}
	return strings.TrimRight(section.String(), "\n")
}

// categoryGroup aggregates the open issues sharing one category
type categoryGroup struct {
	category string
	count    int
	worst    analysis.Severity
	sample   *analysis.Issue
}

// topRecommendations condenses the open issues into at most limit
// category-level remediation hints, worst categories first. Issues an
// auto-fix already resolved are not worth a reviewer's attention.
func topRecommendations(issues []*analysis.Issue, limit int) []string {
	groups := make(map[string]*categoryGroup)
	for _, issue := range issues {
		if issue.Status != analysis.StatusOpen {
			continue
		}
		group, exists := groups[issue.Category]
		if !exists {
			group = &categoryGroup{category: issue.Category, worst: issue.Severity, sample: issue}
			groups[issue.Category] = group
		}
		group.count++
		if issue.Severity > group.worst {
			group.worst = issue.Severity
			group.sample = issue
		}
	}

	ordered := make([]*categoryGroup, 0, len(groups))
	for _, group := range groups {
		ordered = append(ordered, group)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].worst != ordered[j].worst {
			return ordered[i].worst > ordered[j].worst
		}
		if ordered[i].count != ordered[j].count {
			return ordered[i].count > ordered[j].count
		}
		return ordered[i].category < ordered[j].category
	})
	if len(ordered) > limit {
		ordered = ordered[:limit]
	}

	recommendations := make([]string, 0, len(ordered))
	for _, group := range ordered {
		hint := group.sample.SuggestedFix
		if hint == "" {
			hint = group.sample.Description
		}
		occurrences := ""
		if group.count > 1 {
			occurrences = fmt.Sprintf(" (%d occurrences)", group.count)
		}
		recommendations = append(recommendations,
			fmt.Sprintf("**%s**%s: %s", categoryTitle(group.category), occurrences, hint))
	}
	return recommendations
}

// categoryTitle renders a rule category like hardcoded_password as a
// human-readable heading
func categoryTitle(category string) string {
	return titleCaser.String(strings.ReplaceAll(category, "_", " "))
}
