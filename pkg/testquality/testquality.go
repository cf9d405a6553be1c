// Package testquality analyzes test source files: it extracts test
// functions and suites, scores assertion density and complexity, detects
// flaky and slow tests from historical run data, ingests coverage reports
// and aggregates everything into a quality report.
package testquality

import (
	"strings"
	"time"
)

// TestType classifies what a test exercises
type TestType int

const (
	// TestTypeUnit is a test of one unit in isolation
	TestTypeUnit TestType = iota

	// TestTypeIntegration is a test spanning multiple components
	TestTypeIntegration

	// TestTypePerformance is a benchmark or timing-sensitive test
	TestTypePerformance

	// TestTypeSecurity is a test of authentication or hardening behavior
	TestTypeSecurity

	// TestTypeFunctional is an end-to-end or scenario test
	TestTypeFunctional
)

// String returns a string representation of the test type
func (tt TestType) String() string {
	switch tt {
	case TestTypeUnit:
		return "unit"
	case TestTypeIntegration:
		return "integration"
	case TestTypePerformance:
		return "performance"
	case TestTypeSecurity:
		return "security"
	case TestTypeFunctional:
		return "functional"
	default:
		return "unknown"
	}
}

// inferTestType guesses the test type from name and path hints
func inferTestType(name, filePath string) TestType {
	lowered := strings.ToLower(name + " " + filePath)
	switch {
	case strings.Contains(lowered, "benchmark") || strings.Contains(lowered, "perf"):
		return TestTypePerformance
	case strings.Contains(lowered, "security") || strings.Contains(lowered, "auth"):
		return TestTypeSecurity
	case strings.Contains(lowered, "integration"):
		return TestTypeIntegration
	case strings.Contains(lowered, "e2e") || strings.Contains(lowered, "end_to_end") || strings.Contains(lowered, "functional"):
		return TestTypeFunctional
	default:
		return TestTypeUnit
	}
}

// TestFunction captures one test's statically derived properties
type TestFunction struct {
	Name         string   `json:"name"`
	FilePath     string   `json:"file_path"`
	LineNumber   int      `json:"line_number"`
	EndLine      int      `json:"end_line"`
	Type         TestType `json:"type"`
	Assertions   int      `json:"assertions"`
	Complexity   int      `json:"complexity"`
	HasDocstring bool     `json:"has_docstring"`
	HasSetup     bool     `json:"has_setup"`
	HasTeardown  bool     `json:"has_teardown"`
}

// TestSuite aggregates the test functions of one file
type TestSuite struct {
	FilePath        string          `json:"file_path"`
	Language        string          `json:"language"`
	Tests           []*TestFunction `json:"tests"`
	SetupMethods    []string        `json:"setup_methods,omitempty"`
	TeardownMethods []string        `json:"teardown_methods,omitempty"`
	Fixtures        []string        `json:"fixtures,omitempty"`
}

// TotalAssertions sums assertions across the suite
func (ts *TestSuite) TotalAssertions() int {
	total := 0
	for _, test := range ts.Tests {
		total += test.Assertions
	}
	return total
}

// AverageComplexity is the mean cyclomatic complexity of the suite's tests
func (ts *TestSuite) AverageComplexity() float64 {
	if len(ts.Tests) == 0 {
		return 0
	}
	total := 0
	for _, test := range ts.Tests {
		total += test.Complexity
	}
	return float64(total) / float64(len(ts.Tests))
}

// TestResult is one historical run of one test
type TestResult struct {
	TestFile      string        `json:"test_file"`
	TestName      string        `json:"test_name"`
	Passed        bool          `json:"passed"`
	ExecutionTime time.Duration `json:"execution_time"`
	ErrorMessage  string        `json:"error_message,omitempty"`
	RunAt         time.Time     `json:"run_at"`
}
