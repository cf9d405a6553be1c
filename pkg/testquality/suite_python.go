package testquality

import (
	"regexp"
	"strings"

	"github.com/codesweep/codesweep/internal/pysource"
	"github.com/codesweep/codesweep/pkg/analysis"
)

var pythonSetupNames = map[string]bool{
	"setUp":          true,
	"setUpClass":     true,
	"setUpModule":    true,
	"setup_method":   true,
	"setup_class":    true,
	"setup_module":   true,
	"setup_function": true,
}

var pythonTeardownNames = map[string]bool{
	"tearDown":          true,
	"tearDownClass":     true,
	"tearDownModule":    true,
	"teardown_method":   true,
	"teardown_class":    true,
	"teardown_module":   true,
	"teardown_function": true,
}

var (
	pythonAssertStmt = regexp.MustCompile(`^\s*assert\s`)
	pythonAssertCall = regexp.MustCompile(`(?i)\b(?:assert\w+|expect\w*|should\w*)\s*\(`)
	pythonRaisesCall = regexp.MustCompile(`\bpytest\.raises\s*\(`)
)

func (a *Analyzer) extractPythonSuite(actx *analysis.Context, suite *TestSuite) {
	lines := actx.Lines()

	for _, block := range pysource.ExtractBlocks(lines) {
		if block.Kind != pysource.KindFunction {
			continue
		}

		name := block.Name
		switch {
		case pythonSetupNames[name]:
			suite.SetupMethods = append(suite.SetupMethods, name)
		case pythonTeardownNames[name]:
			suite.TeardownMethods = append(suite.TeardownMethods, name)
		case hasFixtureDecorator(block):
			suite.Fixtures = append(suite.Fixtures, name)
		case isPythonTest(block):
			suite.Tests = append(suite.Tests, &TestFunction{
				Name:         name,
				FilePath:     actx.FilePath,
				LineNumber:   block.StartLine,
				EndLine:      block.EndLine,
				Type:         inferTestType(name, actx.FilePath),
				Assertions:   countPythonAssertions(lines, block),
				Complexity:   pythonComplexity(lines, block),
				HasDocstring: block.HasDocstring,
			})
		}
	}
}

func hasFixtureDecorator(block pysource.Block) bool {
	for _, decorator := range block.Decorators {
		if strings.Contains(decorator, "fixture") {
			return true
		}
	}
	return false
}

// isPythonTest accepts test_ named functions and functions carrying a
// parametrize decorator
func isPythonTest(block pysource.Block) bool {
	if strings.HasPrefix(block.Name, "test_") || block.Name == "test" {
		return true
	}
	for _, decorator := range block.Decorators {
		if strings.Contains(decorator, "parametrize") {
			return true
		}
	}
	return false
}

// countPythonAssertions counts assert statements, assert*/expect/should
// call patterns and pytest.raises context managers in the block body
func countPythonAssertions(lines []string, block pysource.Block) int {
	count := 0
	for i := block.StartLine; i < block.EndLine && i < len(lines); i++ {
		line := lines[i]
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}
		if pythonAssertStmt.MatchString(line) {
			count++
		}
		count += len(pythonAssertCall.FindAllString(line, -1))
		count += len(pythonRaisesCall.FindAllString(line, -1))
	}
	return count
}

func pythonComplexity(lines []string, block pysource.Block) int {
	start := block.StartLine
	end := block.EndLine
	if start >= end || start >= len(lines) {
		return 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	return pysource.CountComplexity(lines[start:end])
}
