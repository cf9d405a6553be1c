package testquality

import (
	"fmt"
)

// DefaultFlakinessThreshold is the failure ratio above which a test is
// suspected flaky
const DefaultFlakinessThreshold = 0.1

// consistentFailureRatio marks the ratio at or beyond which a test is
// considered plainly broken rather than flaky
const consistentFailureRatio = 0.9

// failurePatternLength caps how much of each failure message is kept
const failurePatternLength = 100

// minFlakyRuns is the history size below which flakiness cannot be judged
const minFlakyRuns = 5

// FlakyTest describes a test whose outcome varies across runs of
// unchanged code
type FlakyTest struct {
	TestFile        string   `json:"test_file"`
	TestName        string   `json:"test_name"`
	TotalRuns       int      `json:"total_runs"`
	FailedRuns      int      `json:"failed_runs"`
	FlakinessScore  float64  `json:"flakiness_score"`
	FailurePatterns []string `json:"failure_patterns,omitempty"`
}

// FlakyDetector finds flaky tests in historical run data
type FlakyDetector struct {
	threshold float64
}

// NewFlakyDetector creates a detector; threshold 0 selects the default
func NewFlakyDetector(threshold float64) *FlakyDetector {
	if threshold == 0 {
		threshold = DefaultFlakinessThreshold
	}
	return &FlakyDetector{threshold: threshold}
}

// Detect groups the history by (file, test) and flags tests with at least
// five runs, at least one failure, and a failure ratio strictly between the
// threshold and 0.9. Tests failing at 0.9 or above are consistently broken,
// which is a different problem.
func (fd *FlakyDetector) Detect(history []TestResult) []FlakyTest {
	type group struct {
		file    string
		name    string
		results []TestResult
	}

	groups := make(map[string]*group)
	var order []string

	for _, result := range history {
		key := fmt.Sprintf("%s::%s", result.TestFile, result.TestName)
		g, ok := groups[key]
		if !ok {
			g = &group{file: result.TestFile, name: result.TestName}
			groups[key] = g
			order = append(order, key)
		}
		g.results = append(g.results, result)
	}

	var flaky []FlakyTest
	for _, key := range order {
		g := groups[key]
		total := len(g.results)
		if total < minFlakyRuns {
			continue
		}

		failed := 0
		var patterns []string
		seen := make(map[string]bool)
		for _, result := range g.results {
			if result.Passed {
				continue
			}
			failed++
			pattern := result.ErrorMessage
			if len(pattern) > failurePatternLength {
				pattern = pattern[:failurePatternLength]
			}
			if pattern != "" && !seen[pattern] {
				seen[pattern] = true
				patterns = append(patterns, pattern)
			}
		}
		if failed == 0 {
			continue
		}

		ratio := float64(failed) / float64(total)
		if ratio <= fd.threshold || ratio >= consistentFailureRatio {
			continue
		}

		flaky = append(flaky, FlakyTest{
			TestFile:        g.file,
			TestName:        g.name,
			TotalRuns:       total,
			FailedRuns:      failed,
			FlakinessScore:  ratio,
			FailurePatterns: patterns,
		})
	}

	return flaky
}
