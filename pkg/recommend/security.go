package recommend

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/codesweep/codesweep/internal/pysource"
	"github.com/codesweep/codesweep/pkg/analysis"
)

// Security recommendation categories
const (
	CategoryDangerousCall          = "dangerous_call"
	CategoryHardcodedSecret        = "hardcoded_secret"
	CategoryMissingInputValidation = "missing_input_validation"
)

// securityPattern describes one regex-detectable weakness
type securityPattern struct {
	category    string
	pattern     *regexp.Regexp
	severity    analysis.Severity
	title       string
	description string
	remediation string
	cwe         string
	languages   []string
}

var securityPatterns = []securityPattern{
	{
		category:    CategoryDangerousCall,
		pattern:     regexp.MustCompile(`\beval\s*\(|\bexec\s*\(`),
		severity:    analysis.SeverityCritical,
		title:       "Remove dynamic code execution",
		description: "eval/exec executes arbitrary strings as code",
		remediation: "Replace dynamic execution with an explicit dispatch table or parser",
		cwe:         "CWE-95",
	},
	{
		category:    CategoryDangerousCall,
		pattern:     regexp.MustCompile(`\bos\.system\s*\(`),
		severity:    analysis.SeverityCritical,
		title:       "Replace os.system with a safer process API",
		description: "os.system runs its argument through the shell",
		remediation: "Use subprocess.run with an argument list and shell=False",
		cwe:         "CWE-78",
		languages:   []string{analysis.LangPython},
	},
	{
		category:    CategoryDangerousCall,
		pattern:     regexp.MustCompile(`\bsubprocess\.(?:call|run|Popen)\s*\([^)]*shell\s*=\s*True`),
		severity:    analysis.SeverityCritical,
		title:       "Disable shell interpretation in subprocess calls",
		description: "subprocess with shell=True interprets metacharacters in its input",
		remediation: "Pass the command as an argument list with shell=False",
		cwe:         "CWE-78",
		languages:   []string{analysis.LangPython},
	},
	{
		category:    CategoryHardcodedSecret,
		pattern:     regexp.MustCompile(`(?i)\b(password|passwd|pwd|secret|api_key|apikey|access_key|auth_token|token)\s*[:=]\s*["'][^"']+["']`),
		severity:    analysis.SeverityHigh,
		title:       "Move a hardcoded credential out of source",
		description: "A credential-like name is assigned a string literal",
		remediation: "Load secrets from the environment or a secret manager at runtime",
		cwe:         "CWE-798",
	},
}

// SecurityAnalyzer flags dangerous calls, hardcoded credentials and
// functions that accept untyped external input without validating it
type SecurityAnalyzer struct{}

// NewSecurityAnalyzer creates a security analyzer
func NewSecurityAnalyzer() *SecurityAnalyzer {
	return &SecurityAnalyzer{}
}

// Analyze inspects the context and returns security recommendations
func (sa *SecurityAnalyzer) Analyze(actx *analysis.Context) []*Recommendation {
	var recommendations []*Recommendation

	lines := actx.Lines()
	for i, line := range lines {
		for _, sp := range securityPatterns {
			if !sp.appliesTo(actx.Language) {
				continue
			}
			if !sp.pattern.MatchString(line) {
				continue
			}

			rec := newRecommendation(RecommendationSecurityFix, sp.category, sp.title,
				fmt.Sprintf("%s (line %d)", sp.description, i+1))
			rec.LineNumber = i + 1
			rec.Severity = sp.severity
			rec.ImpactScore = severityImpact(sp.severity)
			rec.EffortEstimate = "medium"
			rec.CodeSnippet = strings.TrimSpace(line)
			rec.Rationale = sp.remediation
			rec.References = []string{
				fmt.Sprintf("https://cwe.mitre.org/data/definitions/%s.html", strings.TrimPrefix(sp.cwe, "CWE-")),
			}
			rec.Tags = []string{"security", sp.cwe}
			recommendations = append(recommendations, rec)
		}
	}

	if actx.Language == analysis.LangPython {
		recommendations = append(recommendations, sa.findUnvalidatedInputs(lines)...)
	}

	return recommendations
}

func (sp securityPattern) appliesTo(language string) bool {
	if len(sp.languages) == 0 {
		return true
	}
	for _, lang := range sp.languages {
		if lang == language {
			return true
		}
	}
	return false
}

var validationMarkers = []string{
	"isinstance(",
	"assert ",
	"raise ",
	" is None",
	" is not None",
	"if not ",
	"ValueError",
	"TypeError",
}

// findUnvalidatedInputs flags Python functions that take parameters with
// neither type annotations nor any recognizable validation in the body
func (sa *SecurityAnalyzer) findUnvalidatedInputs(lines []string) []*Recommendation {
	var recommendations []*Recommendation

	for _, block := range pysource.ExtractBlocks(lines) {
		if block.Kind != pysource.KindFunction {
			continue
		}
		if block.ParamCount() == 0 || block.AnnotatedParams {
			continue
		}
		if strings.HasPrefix(block.Name, "_") {
			continue
		}
		if blockValidatesInput(lines, block) {
			continue
		}

		rec := newRecommendation(
			RecommendationSecurityFix,
			CategoryMissingInputValidation,
			fmt.Sprintf("Validate the inputs of %s", block.Name),
			fmt.Sprintf("Function %s accepts %d unannotated parameters and never checks them", block.Name, block.ParamCount()),
		)
		rec.LineNumber = block.StartLine
		rec.EndLine = block.EndLine
		rec.Severity = analysis.SeverityMedium
		rec.ImpactScore = severityImpact(analysis.SeverityMedium)
		rec.EffortEstimate = "low"
		rec.Rationale = "Add type annotations or explicit checks before using the parameters"
		rec.Tags = []string{"security", "input-validation"}
		recommendations = append(recommendations, rec)
	}

	return recommendations
}

func blockValidatesInput(lines []string, block pysource.Block) bool {
	for i := block.StartLine; i < block.EndLine && i < len(lines); i++ {
		code := stripLineComment(lines[i], "#")
		for _, marker := range validationMarkers {
			if strings.Contains(code, marker) {
				return true
			}
		}
	}
	return false
}

func severityImpact(severity analysis.Severity) float64 {
	switch severity {
	case analysis.SeverityCritical:
		return 10
	case analysis.SeverityHigh:
		return 8
	case analysis.SeverityMedium:
		return 5
	default:
		return 2
	}
}
