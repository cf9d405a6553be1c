package testquality

import (
	"fmt"
	"time"
)

// Maintainability weighting: success rate and coverage carry equal weight,
// test volume adds a capped bonus and flakiness subtracts a capped penalty.
const (
	successRateWeight  = 0.4
	coverageWeight     = 0.4
	volumeBonusPerTest = 0.5
	volumeBonusCap     = 20.0
	flakyPenaltyCap    = 20.0
)

// TestQualityMetrics aggregates a test history, coverage data and the flaky
// test list into a single report
type TestQualityMetrics struct {
	TotalTests           int         `json:"total_tests"`
	TotalRuns            int         `json:"total_runs"`
	PassedRuns           int         `json:"passed_runs"`
	FailedRuns           int         `json:"failed_runs"`
	SuccessRate          float64     `json:"success_rate"`
	Coverage             float64     `json:"coverage"`
	FlakyTests           []FlakyTest `json:"flaky_tests,omitempty"`
	SlowTests            []SlowTest  `json:"slow_tests,omitempty"`
	MaintainabilityScore float64     `json:"maintainability_score"`
	GeneratedAt          time.Time   `json:"generated_at"`
}

// GenerateReport folds the run history, optional coverage data and the flaky
// list into quality metrics with a 0-100 maintainability score
func GenerateReport(history []TestResult, coverage *CoverageData, flaky []FlakyTest) *TestQualityMetrics {
	metrics := &TestQualityMetrics{
		FlakyTests:  flaky,
		GeneratedAt: time.Now(),
	}

	seen := make(map[string]bool)
	for _, result := range history {
		metrics.TotalRuns++
		if result.Passed {
			metrics.PassedRuns++
		} else {
			metrics.FailedRuns++
		}
		key := fmt.Sprintf("%s::%s", result.TestFile, result.TestName)
		if !seen[key] {
			seen[key] = true
			metrics.TotalTests++
		}
	}

	if metrics.TotalRuns > 0 {
		metrics.SuccessRate = float64(metrics.PassedRuns) / float64(metrics.TotalRuns) * 100
	}
	if coverage != nil {
		metrics.Coverage = coverage.Percent
	}
	metrics.SlowTests = AnalyzePerformance(history).SlowTests
	metrics.MaintainabilityScore = maintainabilityScore(metrics)

	return metrics
}

func maintainabilityScore(metrics *TestQualityMetrics) float64 {
	bonus := volumeBonusPerTest * float64(metrics.TotalTests)
	if bonus > volumeBonusCap {
		bonus = volumeBonusCap
	}

	penalty := 0.0
	if metrics.TotalTests > 0 {
		penalty = 100 * float64(len(metrics.FlakyTests)) / float64(metrics.TotalTests)
	}
	if penalty > flakyPenaltyCap {
		penalty = flakyPenaltyCap
	}

	score := successRateWeight*metrics.SuccessRate + coverageWeight*metrics.Coverage + bonus - penalty
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
