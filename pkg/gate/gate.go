// Package gate evaluates scan results against named quality gates. Gates
// share one evaluation procedure and differ only in their thresholds, so a
// stricter gate can never accept a scan a looser gate rejects.
package gate

import (
	"fmt"
	"sort"
	"time"

	"github.com/codesweep/codesweep/pkg/analysis"
	"github.com/codesweep/codesweep/pkg/logger"
	"github.com/codesweep/codesweep/pkg/scanner"
	"github.com/codesweep/codesweep/pkg/testquality"
)

// Result is the verdict of one gate evaluation
type Result int

const (
	// Pass means the scan met every gate criterion
	Pass Result = iota

	// ConditionalPass means the scan is acceptable once the flagged
	// auto-fixable issues are remediated
	ConditionalPass

	// Fail means the scan violated at least one blocking criterion
	Fail
)

// String returns a string representation of the result
func (r Result) String() string {
	switch r {
	case Pass:
		return "pass"
	case ConditionalPass:
		return "conditional_pass"
	case Fail:
		return "fail"
	default:
		return "unknown"
	}
}

// Built-in gate names
const (
	GateLenient  = "lenient"
	GateStandard = "standard"
	GateStrict   = "strict"
)

// Gate is a named quality policy
type Gate struct {
	Name string `json:"name"`

	// Maximum tolerated issue counts per severity
	MaxCritical int `json:"max_critical"`
	MaxHigh     int `json:"max_high"`
	MaxMedium   int `json:"max_medium"`
	MaxLow      int `json:"max_low"`

	// SecurityBypassable demotes security findings to a conditional pass
	// when every one of them is auto-fixable. Strict gates keep this off:
	// security issues always block them.
	SecurityBypassable bool `json:"security_bypassable"`

	// MinCoverage is the required overall line coverage percentage when
	// coverage data accompanies the evaluation. Zero disables the check.
	MinCoverage float64 `json:"min_coverage"`
}

// LenientGate tolerates a single critical and carries no coverage bar
func LenientGate() Gate {
	return Gate{
		Name:               GateLenient,
		MaxCritical:        1,
		MaxHigh:            5,
		MaxMedium:          20,
		MaxLow:             50,
		SecurityBypassable: true,
	}
}

// StandardGate is the default pre-commit policy
func StandardGate() Gate {
	return Gate{
		Name:               GateStandard,
		MaxCritical:        0,
		MaxHigh:            2,
		MaxMedium:          10,
		MaxLow:             30,
		SecurityBypassable: true,
		MinCoverage:        60,
	}
}

// StrictGate is the pre-push and CI policy: no criticals, no highs, and
// security issues are never bypassable
func StrictGate() Gate {
	return Gate{
		Name:        GateStrict,
		MaxCritical: 0,
		MaxHigh:     0,
		MaxMedium:   3,
		MaxLow:      10,
		MinCoverage: 80,
	}
}

// Evaluation is the outcome of checking one scan against one gate
type Evaluation struct {
	GateName    string    `json:"gate_name"`
	Result      Result    `json:"result"`
	Reasons     []string  `json:"reasons,omitempty"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// Evaluator evaluates scans against its registered gates
type Evaluator struct {
	gates  map[string]Gate
	logger *logger.Logger
}

// NewEvaluator creates an evaluator with the lenient, standard, and strict
// gates registered
func NewEvaluator() *Evaluator {
	e := &Evaluator{
		gates:  make(map[string]Gate),
		logger: logger.GetLogger().WithPrefix("gate"),
	}
	e.RegisterGate(LenientGate())
	e.RegisterGate(StandardGate())
	e.RegisterGate(StrictGate())
	return e
}

// RegisterGate adds or replaces a gate by name
func (e *Evaluator) RegisterGate(gate Gate) {
	e.gates[gate.Name] = gate
}

// GateNames returns the registered gate names in alphabetical order
func (e *Evaluator) GateNames() []string {
	names := make([]string, 0, len(e.gates))
	for name := range e.gates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Evaluate checks a scan result against the named gate. An unknown gate name
// fails the evaluation rather than erroring so CI callers always get a
// verdict. Coverage is optional; when supplied and the gate carries a
// minimum, falling short is a failing reason even if every severity check
// passes.
func (e *Evaluator) Evaluate(gateName string, scan *scanner.ScanResult, coverage *testquality.CoverageData) *Evaluation {
	evaluation := &Evaluation{
		GateName:    gateName,
		EvaluatedAt: time.Now(),
	}

	gate, ok := e.gates[gateName]
	if !ok {
		evaluation.Result = Fail
		evaluation.Reasons = []string{fmt.Sprintf("Unknown quality gate: %s", gateName)}
		return evaluation
	}

	if scan == nil {
		evaluation.Result = Fail
		evaluation.Reasons = []string{"No scan result to evaluate"}
		return evaluation
	}

	var failing, conditional []string

	severityChecks := []struct {
		label string
		count int
		max   int
	}{
		{"Critical", scan.IssuesBySeverity[analysis.SeverityCritical.String()], gate.MaxCritical},
		{"High severity", scan.IssuesBySeverity[analysis.SeverityHigh.String()], gate.MaxHigh},
		{"Medium severity", scan.IssuesBySeverity[analysis.SeverityMedium.String()], gate.MaxMedium},
		{"Low severity", scan.IssuesBySeverity[analysis.SeverityLow.String()], gate.MaxLow},
	}
	for _, check := range severityChecks {
		if check.count > check.max {
			failing = append(failing,
				fmt.Sprintf("%s issues found: %d (maximum %d)", check.label, check.count, check.max))
		}
	}

	if securityCount := scan.IssuesByType[analysis.IssueTypeSecurity.String()]; securityCount > 0 {
		if gate.SecurityBypassable && allSecurityAutoFixable(scan) {
			conditional = append(conditional,
				fmt.Sprintf("Security issues found: %d (all auto-fixable)", securityCount))
		} else {
			failing = append(failing,
				fmt.Sprintf("Security issues found: %d", securityCount))
		}
	}

	if coverage != nil && gate.MinCoverage > 0 && coverage.Percent < gate.MinCoverage {
		failing = append(failing,
			fmt.Sprintf("Coverage %.1f%% below required %.1f%%", coverage.Percent, gate.MinCoverage))
	}

	switch {
	case len(failing) > 0:
		evaluation.Result = Fail
		evaluation.Reasons = append(failing, conditional...)
	case len(conditional) > 0:
		evaluation.Result = ConditionalPass
		evaluation.Reasons = conditional
	default:
		evaluation.Result = Pass
	}

	e.logger.Debug("Gate %s evaluated %s (%d reasons)", gateName, evaluation.Result, len(evaluation.Reasons))
	return evaluation
}

// allSecurityAutoFixable reports whether every security issue in the scan is
// marked auto-fixable
func allSecurityAutoFixable(scan *scanner.ScanResult) bool {
	for _, issue := range scan.Issues {
		if issue.Type == analysis.IssueTypeSecurity && !issue.AutoFixable {
			return false
		}
	}
	return true
}
