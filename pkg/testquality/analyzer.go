package testquality

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/codesweep/codesweep/pkg/analysis"
	"github.com/codesweep/codesweep/pkg/logger"
)

// AnalyzerName identifies the test quality analyzer
const AnalyzerName = "test_quality_analyzer"

// Issue categories produced by the analyzer
const (
	CategoryMissingAssertions   = "missing_assertions"
	CategoryExcessiveAssertions = "excessive_assertions"
	CategoryComplexTest         = "complex_test"
	CategoryMissingDocstring    = "missing_test_docstring"
	CategoryUnbalancedSetup     = "unbalanced_setup_teardown"
	CategoryNamingConvention    = "test_naming_convention"
	CategoryMissingTests        = "missing_tests"
)

// AnalyzerConfig bounds the per-test checks
type AnalyzerConfig struct {
	MaxAssertions int
	MaxComplexity int
}

// DefaultAnalyzerConfig returns the standard thresholds
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		MaxAssertions: 10,
		MaxComplexity: 3,
	}
}

// Analyzer inspects test files and reports test-quality issues
type Analyzer struct {
	config AnalyzerConfig
	logger *logger.Logger
}

// NewAnalyzer creates a test quality analyzer
func NewAnalyzer(config AnalyzerConfig) *Analyzer {
	if config.MaxAssertions == 0 {
		config.MaxAssertions = 10
	}
	if config.MaxComplexity == 0 {
		config.MaxComplexity = 3
	}
	return &Analyzer{
		config: config,
		logger: logger.GetLogger().WithPrefix("testquality"),
	}
}

// Name implements analysis.Analyzer
func (a *Analyzer) Name() string {
	return AnalyzerName
}

// AnalysisType implements analysis.Analyzer
func (a *Analyzer) AnalysisType() string {
	return "test_quality"
}

// SupportedLanguages implements analysis.Analyzer
func (a *Analyzer) SupportedLanguages() []string {
	return []string{analysis.LangGo, analysis.LangPython}
}

// IsTestFile reports whether the path names a test source file
func IsTestFile(filePath, language string) bool {
	base := filepath.Base(filePath)
	switch language {
	case analysis.LangGo:
		return strings.HasSuffix(base, "_test.go")
	case analysis.LangPython:
		if strings.HasPrefix(base, "test_") || strings.HasSuffix(base, "_test.py") {
			return true
		}
		normalized := filepath.ToSlash(filePath)
		return strings.Contains(normalized, "/tests/") && strings.HasSuffix(base, ".py")
	default:
		return false
	}
}

// Analyze extracts the file's test suite and converts weak spots into
// issues. Non-test files yield an empty successful result so the analyzer
// can sit in a pipeline without special casing.
func (a *Analyzer) Analyze(ctx context.Context, actx *analysis.Context) (*analysis.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := analysis.NewResult(AnalyzerName, "test_quality", actx)
	if !IsTestFile(actx.FilePath, actx.Language) {
		result.SetMetric("test_file", 0)
		return result, nil
	}

	suite := a.ExtractSuite(actx)
	for _, issue := range a.suiteIssues(suite) {
		result.AddIssue(issue)
	}

	result.SetMetric("test_file", 1)
	result.SetMetric("total_tests", float64(len(suite.Tests)))
	result.SetMetric("total_assertions", float64(suite.TotalAssertions()))
	result.SetMetric("average_complexity", suite.AverageComplexity())
	return result, nil
}

// ExtractSuite parses the test file into a TestSuite
func (a *Analyzer) ExtractSuite(actx *analysis.Context) *TestSuite {
	suite := &TestSuite{
		FilePath: actx.FilePath,
		Language: actx.Language,
	}
	switch actx.Language {
	case analysis.LangGo:
		a.extractGoSuite(actx, suite)
	case analysis.LangPython:
		a.extractPythonSuite(actx, suite)
	}

	hasSetup := len(suite.SetupMethods) > 0
	hasTeardown := len(suite.TeardownMethods) > 0
	for _, test := range suite.Tests {
		test.HasSetup = hasSetup
		test.HasTeardown = hasTeardown
	}
	return suite
}

var (
	goTestNamePattern     = regexp.MustCompile(`^(?:Test|Benchmark)[A-Z][A-Za-z0-9]*(?:_[A-Za-z0-9]+)*$`)
	pythonTestNamePattern = regexp.MustCompile(`^test_[a-z][a-z0-9]*(?:_[a-z0-9]+)*$`)
)

func (a *Analyzer) suiteIssues(suite *TestSuite) []*analysis.Issue {
	var issues []*analysis.Issue

	if len(suite.Tests) == 0 {
		issue := analysis.NewIssue(analysis.IssueTypeTesting, analysis.SeverityHigh,
			CategoryMissingTests, "Test file contains no test functions").
			WithLocation(1, 1).
			WithSuggestedFix("Add at least one test or remove the file from the test tree")
		return append(issues, issue)
	}

	for _, test := range suite.Tests {
		if test.Assertions == 0 {
			issues = append(issues, analysis.NewIssue(analysis.IssueTypeTesting, analysis.SeverityMedium,
				CategoryMissingAssertions,
				fmt.Sprintf("Test %s makes no assertions", test.Name)).
				WithLocation(test.LineNumber, 1).
				WithSuggestedFix("Assert on the observable outcome the test exists to protect"))
		} else if test.Assertions > a.config.MaxAssertions {
			issues = append(issues, analysis.NewIssue(analysis.IssueTypeTesting, analysis.SeverityLow,
				CategoryExcessiveAssertions,
				fmt.Sprintf("Test %s makes %d assertions, above the %d assertion limit", test.Name, test.Assertions, a.config.MaxAssertions)).
				WithLocation(test.LineNumber, 1).
				WithSuggestedFix("Split the scenario into focused tests with one behavior each"))
		}

		if test.Complexity > a.config.MaxComplexity {
			issues = append(issues, analysis.NewIssue(analysis.IssueTypeTesting, analysis.SeverityMedium,
				CategoryComplexTest,
				fmt.Sprintf("Test %s has cyclomatic complexity %d, above the %d limit", test.Name, test.Complexity, a.config.MaxComplexity)).
				WithLocation(test.LineNumber, 1).
				WithSuggestedFix("Flatten branches into table-driven cases or separate tests"))
		}

		if !test.HasDocstring {
			issues = append(issues, analysis.NewIssue(analysis.IssueTypeTesting, analysis.SeverityLow,
				CategoryMissingDocstring,
				fmt.Sprintf("Test %s has no doc comment describing the behavior under test", test.Name)).
				WithLocation(test.LineNumber, 1))
		}

		if !a.nameFollowsConvention(test.Name, suite.Language) {
			issues = append(issues, analysis.NewIssue(analysis.IssueTypeTesting, analysis.SeverityLow,
				CategoryNamingConvention,
				fmt.Sprintf("Test name %s does not follow the naming convention", test.Name)).
				WithLocation(test.LineNumber, 1).
				WithSuggestedFix("Name tests after the behavior they verify"))
		}
	}

	if len(suite.SetupMethods) > 0 && len(suite.TeardownMethods) == 0 {
		issues = append(issues, analysis.NewIssue(analysis.IssueTypeTesting, analysis.SeverityMedium,
			CategoryUnbalancedSetup,
			fmt.Sprintf("Suite defines setup (%s) but no teardown", strings.Join(suite.SetupMethods, ", "))).
			WithLocation(1, 1).
			WithSuggestedFix("Release resources in a matching teardown so tests stay isolated"))
	}

	return issues
}

func (a *Analyzer) nameFollowsConvention(name, language string) bool {
	switch language {
	case analysis.LangGo:
		return goTestNamePattern.MatchString(name)
	case analysis.LangPython:
		return pythonTestNamePattern.MatchString(name)
	default:
		return true
	}
}
