// Package metrics stores quality metric time series and computes trends
// over them. Scans and test quality reports feed the collector; report
// generators and dashboards read series and trends back out.
package metrics

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/codesweep/codesweep/pkg/analysis"
	"github.com/codesweep/codesweep/pkg/clock"
	"github.com/codesweep/codesweep/pkg/errors"
	"github.com/codesweep/codesweep/pkg/logger"
	"github.com/codesweep/codesweep/pkg/scanner"
	"github.com/codesweep/codesweep/pkg/testquality"
)

// Metric names recorded from scans and test quality reports
const (
	MetricTotalIssues          = "scan.total_issues"
	MetricFilesScanned         = "scan.files_scanned"
	MetricSeverityPrefix       = "scan.issues."
	MetricSuccessRate          = "tests.success_rate"
	MetricCoverage             = "tests.coverage"
	MetricMaintainabilityScore = "tests.maintainability_score"
)

// minTrendSamples is how many samples a trend needs before the slope means
// anything
const minTrendSamples = 2

// Sample is one recorded metric value
type Sample struct {
	Value      float64   `json:"value"`
	RecordedAt time.Time `json:"recorded_at"`
}

// TrendDirection classifies how a metric series is moving
type TrendDirection int

const (
	// TrendStable means the fitted change stays inside the stability band
	TrendStable TrendDirection = iota

	// TrendImproving means the metric is moving the way its orientation wants
	TrendImproving

	// TrendDegrading means the metric is moving against its orientation
	TrendDegrading
)

// String returns a string representation of the trend direction
func (d TrendDirection) String() string {
	switch d {
	case TrendStable:
		return "stable"
	case TrendImproving:
		return "improving"
	case TrendDegrading:
		return "degrading"
	default:
		return "unknown"
	}
}

// Trend is the least-squares fit over one metric series
type Trend struct {
	Metric    string         `json:"metric"`
	Direction TrendDirection `json:"direction"`
	Slope     float64        `json:"slope"`
	First     float64        `json:"first"`
	Last      float64        `json:"last"`
	Mean      float64        `json:"mean"`
	Samples   int            `json:"samples"`
}

// CollectorConfig controls series retention and trend classification
type CollectorConfig struct {
	// MaxSamples bounds every series; the oldest samples fall off
	MaxSamples int `json:"max_samples"`

	// StableBand is the fraction of the series mean the fitted change may
	// move without leaving the stable classification
	StableBand float64 `json:"stable_band"`

	// HigherIsBetter names the metrics where a rising value is an
	// improvement. Everything else is treated as a cost, like issue counts.
	HigherIsBetter map[string]bool `json:"higher_is_better"`
}

// DefaultCollectorConfig retains 1000 samples per series and knows the
// orientation of the built-in metric names
func DefaultCollectorConfig() CollectorConfig {
	return CollectorConfig{
		MaxSamples: 1000,
		StableBand: 0.05,
		HigherIsBetter: map[string]bool{
			MetricSuccessRate:          true,
			MetricCoverage:             true,
			MetricMaintainabilityScore: true,
		},
	}
}

// Collector stores bounded metric time series under a read-write lock
type Collector struct {
	config CollectorConfig
	series map[string][]Sample
	clock  clock.Clock
	logger *logger.Logger
	mu     sync.RWMutex
}

// NewCollector creates a collector with the real clock
func NewCollector(config CollectorConfig) *Collector {
	return NewCollectorWithClock(config, clock.NewRealClock())
}

// NewCollectorWithClock creates a collector with an injectable clock so
// tests control sample timestamps
func NewCollectorWithClock(config CollectorConfig, clk clock.Clock) *Collector {
	if config.MaxSamples <= 0 {
		config.MaxSamples = DefaultCollectorConfig().MaxSamples
	}
	if config.StableBand <= 0 {
		config.StableBand = DefaultCollectorConfig().StableBand
	}
	return &Collector{
		config: config,
		series: make(map[string][]Sample),
		clock:  clk,
		logger: logger.GetLogger().WithPrefix("metrics"),
	}
}

// Record appends a value to the metric's series, dropping the oldest sample
// once the series is full
func (c *Collector) Record(name string, value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	samples := append(c.series[name], Sample{Value: value, RecordedAt: c.clock.Now()})
	if len(samples) > c.config.MaxSamples {
		samples = samples[len(samples)-c.config.MaxSamples:]
	}
	c.series[name] = samples

	c.logger.Debug("recorded %s = %.3f (%d samples)", name, value, len(samples))
}

// RecordScan records the headline counters of one scan: total issues, files
// scanned, and a per-severity issue count. Absent severities record zero so
// the series stay aligned across scans.
func (c *Collector) RecordScan(scan *scanner.ScanResult) {
	c.Record(MetricTotalIssues, float64(scan.TotalIssues))
	c.Record(MetricFilesScanned, float64(scan.FilesScanned))
	for _, severity := range []analysis.Severity{
		analysis.SeverityCritical,
		analysis.SeverityHigh,
		analysis.SeverityMedium,
		analysis.SeverityLow,
	} {
		c.Record(MetricSeverityPrefix+severity.String(), float64(scan.IssuesBySeverity[severity.String()]))
	}
}

// RecordTestQuality records the aggregate figures of a test quality report
func (c *Collector) RecordTestQuality(report *testquality.TestQualityMetrics) {
	c.Record(MetricSuccessRate, report.SuccessRate)
	c.Record(MetricCoverage, report.Coverage)
	c.Record(MetricMaintainabilityScore, report.MaintainabilityScore)
}

// Series returns a copy of the metric's samples in recording order
func (c *Collector) Series(name string) ([]Sample, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	samples, exists := c.series[name]
	if !exists {
		return nil, errors.ValidationError("metric not found: " + name)
	}

	out := make([]Sample, len(samples))
	copy(out, samples)
	return out, nil
}

// Names returns the recorded metric names in sorted order
func (c *Collector) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.series))
	for name := range c.series {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Trend fits a least-squares line through the metric's series and classifies
// it as improving, degrading or stable. The fit runs over the sample index,
// so unevenly spaced recordings weigh equally.
func (c *Collector) Trend(name string) (*Trend, error) {
	samples, err := c.Series(name)
	if err != nil {
		return nil, err
	}
	if len(samples) < minTrendSamples {
		return nil, errors.ValidationError("metric needs at least 2 samples for a trend: " + name)
	}

	n := len(samples)
	meanX := float64(n-1) / 2
	meanY := 0.0
	for _, sample := range samples {
		meanY += sample.Value
	}
	meanY /= float64(n)

	var covXY, varX float64
	for i, sample := range samples {
		dx := float64(i) - meanX
		covXY += dx * (sample.Value - meanY)
		varX += dx * dx
	}
	slope := covXY / varX

	trend := &Trend{
		Metric:  name,
		Slope:   slope,
		First:   samples[0].Value,
		Last:    samples[n-1].Value,
		Mean:    meanY,
		Samples: n,
	}
	trend.Direction = c.classify(name, slope, meanY, n)
	return trend, nil
}

// classify turns the fitted slope into a direction. The change predicted
// over the whole window is compared against a band proportional to the
// series mean; changes inside the band count as stable.
func (c *Collector) classify(name string, slope, mean float64, n int) TrendDirection {
	totalChange := slope * float64(n-1)
	band := c.config.StableBand * math.Max(math.Abs(mean), 1)
	if math.Abs(totalChange) <= band {
		return TrendStable
	}
	if (totalChange > 0) == c.config.HigherIsBetter[name] {
		return TrendImproving
	}
	return TrendDegrading
}
