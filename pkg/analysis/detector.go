package analysis

import (
	"context"
	"fmt"
	"sync"

	"github.com/codesweep/codesweep/pkg/logger"
)

// DetectorName identifies the rule-based quality issue detector
const DetectorName = "quality_issue_detector"

// DetectorConfig tunes the built-in rule set
type DetectorConfig struct {
	MaxLineLength int
	MaxBlankRun   int

	// LocalImportPrefixes marks Python module prefixes as project-local for
	// the import ordering rule
	LocalImportPrefixes []string
}

// DefaultDetectorConfig returns the standard detector thresholds
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		MaxLineLength: 88,
		MaxBlankRun:   2,
	}
}

// Detector is the rule-based quality issue scanner. A single pass combines
// per-line rules with language-specific structural checks (Go declarations
// via the AST, Python blocks via indentation scanning). Rule changes take
// effect on the next Analyze call.
type Detector struct {
	config DetectorConfig
	rules  map[string]*Rule
	order  []string
	mutex  sync.RWMutex
	logger *logger.Logger
}

// NewDetector creates a detector with the default rule set
func NewDetector(config DetectorConfig) *Detector {
	if config.MaxLineLength == 0 {
		config.MaxLineLength = 88
	}
	if config.MaxBlankRun == 0 {
		config.MaxBlankRun = 2
	}

	d := &Detector{
		config: config,
		rules:  make(map[string]*Rule),
		logger: logger.GetLogger().WithPrefix("detector"),
	}

	for _, rule := range defaultRules(config) {
		d.rules[rule.Name] = rule
		d.order = append(d.order, rule.Name)
	}

	return d
}

// Name implements Analyzer
func (d *Detector) Name() string {
	return DetectorName
}

// AnalysisType implements Analyzer
func (d *Detector) AnalysisType() string {
	return "quality"
}

// SupportedLanguages implements Analyzer. The detector accepts every
// language; rules narrow themselves per language.
func (d *Detector) SupportedLanguages() []string {
	return nil
}

// AddRule registers a rule, replacing any rule with the same name
func (d *Detector) AddRule(rule *Rule) {
	if rule == nil || rule.Name == "" {
		return
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	if _, exists := d.rules[rule.Name]; !exists {
		d.order = append(d.order, rule.Name)
	}
	d.rules[rule.Name] = rule
}

// EnableRule enables a rule by name
func (d *Detector) EnableRule(name string) bool {
	return d.setRuleEnabled(name, true)
}

// DisableRule disables a rule by name
func (d *Detector) DisableRule(name string) bool {
	return d.setRuleEnabled(name, false)
}

func (d *Detector) setRuleEnabled(name string, enabled bool) bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	rule, exists := d.rules[name]
	if !exists {
		return false
	}
	rule.Enabled = enabled
	return true
}

// RemoveRule removes a rule by name
func (d *Detector) RemoveRule(name string) bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if _, exists := d.rules[name]; !exists {
		return false
	}
	delete(d.rules, name)
	for i, ruleName := range d.order {
		if ruleName == name {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	return true
}

// RuleNames returns the registered rule names in registration order
func (d *Detector) RuleNames() []string {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	names := make([]string, len(d.order))
	copy(names, d.order)
	return names
}

// snapshotRules copies the enabled rules applicable to a language so a
// running analysis is not affected by concurrent rule mutation
func (d *Detector) snapshotRules(language string) []*Rule {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	var rules []*Rule
	for _, name := range d.order {
		rule := d.rules[name]
		if rule.Enabled && rule.AppliesTo(language) {
			rules = append(rules, rule)
		}
	}
	return rules
}

func (d *Detector) ruleFor(name string, language string) *Rule {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	rule, exists := d.rules[name]
	if !exists || !rule.Enabled || !rule.AppliesTo(language) {
		return nil
	}
	return rule
}

// Analyze implements Analyzer: runs the line rules and the structural pass
// for the context's language. Parse failures surface as a single critical
// syntax issue while the result itself still reports success.
func (d *Detector) Analyze(ctx context.Context, actx *Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := NewResult(DetectorName, "quality", actx)
	lines := actx.Lines()

	d.runLineRules(result, actx, lines)
	d.runBlankLineRule(result, actx, lines)

	switch actx.Language {
	case LangGo:
		d.analyzeGoSource(result, actx)
	case LangPython:
		d.analyzePythonSource(result, actx, lines)
	}

	result.SetMetric("total_lines", float64(len(lines)))
	result.SetMetric("issues_found", float64(len(result.Issues)))

	return result, nil
}

func (d *Detector) runLineRules(result *Result, actx *Context, lines []string) {
	rules := d.snapshotRules(actx.Language)

	for i, line := range lines {
		for _, rule := range rules {
			if !rule.IsLineRule() {
				continue
			}

			switch {
			case rule.Pattern != nil:
				if loc := rule.Pattern.FindStringIndex(line); loc != nil {
					result.AddIssue(newIssueFromRule(rule, i+1, loc[0]+1))
				}
			case rule.Check != nil:
				if rule.Check(line) {
					result.AddIssue(newIssueFromRule(rule, i+1, 1))
				}
			}
		}
	}
}

// runBlankLineRule flags each run of blank lines longer than the configured
// maximum, once per run
func (d *Detector) runBlankLineRule(result *Result, actx *Context, lines []string) {
	rule := d.ruleFor(RuleMultipleBlankLines, actx.Language)
	if rule == nil {
		return
	}

	run := 0
	for i, line := range lines {
		if isBlankLine(line) {
			run++
			if run == d.config.MaxBlankRun+1 {
				result.AddIssue(newIssueFromRule(rule, i+1, 1))
			}
			continue
		}
		run = 0
	}
}

func isBlankLine(line string) bool {
	for _, r := range line {
		if r != ' ' && r != '\t' && r != '\r' {
			return false
		}
	}
	return true
}

// addSyntaxIssue emits the single critical syntax finding for an unparsable
// file. The detector still reports success: it succeeded at detecting that
// the file cannot be parsed.
func (d *Detector) addSyntaxIssue(result *Result, actx *Context, line int, detail string) {
	rule := d.ruleFor(RuleSyntaxError, actx.Language)
	if rule == nil {
		return
	}

	issue := NewIssue(rule.Type, rule.Severity, rule.Name,
		fmt.Sprintf("File cannot be parsed: %s", detail)).
		WithLocation(line, 1)
	result.AddIssue(issue)
	result.SetMetric("parse_failed", 1)
}
