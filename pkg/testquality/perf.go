package testquality

import (
	"fmt"
	"sort"
	"time"
)

// SlowTestFloor is the flat threshold used when the sample population is
// too small for a stable percentile
const SlowTestFloor = 500 * time.Millisecond

// adaptiveSampleCount is the population size above which the p95 threshold
// takes over from the flat floor
const adaptiveSampleCount = 5

// PerformanceStats summarizes execution time samples
type PerformanceStats struct {
	Mean time.Duration `json:"mean"`
	Min  time.Duration `json:"min"`
	Max  time.Duration `json:"max"`
	P95  time.Duration `json:"p95"`
}

// SlowTest names a test whose mean run time exceeds the slow threshold
type SlowTest struct {
	TestFile string        `json:"test_file"`
	TestName string        `json:"test_name"`
	Mean     time.Duration `json:"mean"`
}

// PerformanceReport is the timing view over a test history
type PerformanceReport struct {
	Stats     PerformanceStats `json:"stats"`
	Threshold time.Duration    `json:"threshold"`
	Samples   int              `json:"samples"`
	SlowTests []SlowTest       `json:"slow_tests,omitempty"`
}

// ComputeStats returns mean, min, max and the 95th percentile of the
// samples using the nearest-rank method
func ComputeStats(samples []time.Duration) PerformanceStats {
	if len(samples) == 0 {
		return PerformanceStats{}
	}

	sorted := make([]time.Duration, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, sample := range sorted {
		total += sample
	}

	n := len(sorted)
	rank := (95*n + 99) / 100
	return PerformanceStats{
		Mean: total / time.Duration(n),
		Min:  sorted[0],
		Max:  sorted[n-1],
		P95:  sorted[rank-1],
	}
}

// AnalyzePerformance computes population stats over the history and flags
// tests whose mean run time exceeds max(p95, 500ms) when more than five
// samples exist, else a flat 500ms
func AnalyzePerformance(history []TestResult) *PerformanceReport {
	samples := make([]time.Duration, 0, len(history))
	for _, result := range history {
		samples = append(samples, result.ExecutionTime)
	}

	stats := ComputeStats(samples)
	threshold := SlowTestFloor
	if len(samples) > adaptiveSampleCount && stats.P95 > threshold {
		threshold = stats.P95
	}

	type aggregate struct {
		file  string
		name  string
		total time.Duration
		runs  int
	}
	perTest := make(map[string]*aggregate)
	var order []string

	for _, result := range history {
		key := fmt.Sprintf("%s::%s", result.TestFile, result.TestName)
		agg, ok := perTest[key]
		if !ok {
			agg = &aggregate{file: result.TestFile, name: result.TestName}
			perTest[key] = agg
			order = append(order, key)
		}
		agg.total += result.ExecutionTime
		agg.runs++
	}

	report := &PerformanceReport{
		Stats:     stats,
		Threshold: threshold,
		Samples:   len(samples),
	}
	for _, key := range order {
		agg := perTest[key]
		mean := agg.total / time.Duration(agg.runs)
		if mean > threshold {
			report.SlowTests = append(report.SlowTests, SlowTest{
				TestFile: agg.file,
				TestName: agg.name,
				Mean:     mean,
			})
		}
	}

	return report
}
