package autofix

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/codesweep/codesweep/pkg/analysis"
	"github.com/codesweep/codesweep/pkg/errors"
)

const defaultToolTimeout = 30 * time.Second

// ToolResult captures one external tool invocation
type ToolResult struct {
	Command  string        `json:"command"`
	Args     []string      `json:"args"`
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
}

// IsSuccess reports whether the tool exited cleanly
func (tr *ToolResult) IsSuccess() bool {
	return tr.ExitCode == 0
}

// ToolRunner executes external formatters with a bounded runtime. Content is
// piped through stdin and the result read from stdout, so the tools never
// touch the file directly.
type ToolRunner struct {
	timeout time.Duration
}

// NewToolRunner creates a runner with the default timeout
func NewToolRunner() *ToolRunner {
	return &ToolRunner{timeout: defaultToolTimeout}
}

// WithTimeout sets the per-invocation timeout
func (tr *ToolRunner) WithTimeout(timeout time.Duration) *ToolRunner {
	if timeout > 0 {
		tr.timeout = timeout
	}
	return tr
}

// RunInput pipes input through the command and returns the captured result.
// Stdout and stderr are kept separate because stdout carries the formatted
// content verbatim.
func (tr *ToolRunner) RunInput(ctx context.Context, input, command string, args ...string) (*ToolResult, error) {
	execCtx, cancel := context.WithTimeout(ctx, tr.timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, command, args...)
	cmd.Stdin = strings.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	result := &ToolResult{
		Command:  command,
		Args:     args,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: duration,
	}

	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitError.ExitCode()
		} else {
			result.ExitCode = -1
		}

		return result, errors.NewError(errors.ErrorTypeTool).
			WithMessagef("tool execution failed: %s", command).
			WithCause(err).
			WithSeverity(errors.SeverityMedium).
			WithRecoverable(true).
			WithContext("command", command).
			WithContext("args", args).
			WithContext("exit_code", result.ExitCode).
			WithContext("stderr", result.Stderr).
			WithContext("duration", duration.String()).
			Build()
	}

	return result, nil
}

// Probe reports whether the command is installed and runnable. Any exit code
// counts as available since some formatters exit non-zero for usage output.
func (tr *ToolRunner) Probe(ctx context.Context, command string, args ...string) bool {
	if _, err := exec.LookPath(command); err != nil {
		return false
	}

	execCtx, cancel := context.WithTimeout(ctx, tr.timeout)
	defer cancel()

	err := exec.CommandContext(execCtx, command, args...).Run()
	if err == nil {
		return true
	}
	if _, ok := err.(*exec.ExitError); ok {
		return execCtx.Err() == nil
	}
	return false
}

// ToolConfig describes one external formatter the engine can drive
type ToolConfig struct {
	Name       string        `json:"name"`
	Command    string        `json:"command"`
	Args       []string      `json:"args,omitempty"`
	ProbeArgs  []string      `json:"probe_args,omitempty"`
	Languages  []string      `json:"languages"`
	FixType    string        `json:"fix_type"`
	Confidence float64       `json:"confidence"`
	Timeout    time.Duration `json:"timeout,omitempty"`
}

// DefaultToolConfigs returns the formatters the engine knows how to drive
// out of the box. Each reads source from stdin and writes the formatted
// result to stdout. Confidence reflects how much of the file the tool may
// rewrite: gofmt is deterministic and official, the Python tools are
// progressively more invasive.
func DefaultToolConfigs() []ToolConfig {
	return []ToolConfig{
		{
			Name:       "gofmt",
			Command:    "gofmt",
			ProbeArgs:  []string{"-h"},
			Languages:  []string{"go"},
			FixType:    "go_format",
			Confidence: 0.9,
		},
		{
			Name:       "goimports",
			Command:    "goimports",
			ProbeArgs:  []string{"-h"},
			Languages:  []string{"go"},
			FixType:    "go_import_format",
			Confidence: 0.85,
		},
		{
			Name:       "black",
			Command:    "black",
			Args:       []string{"-q", "-"},
			ProbeArgs:  []string{"--version"},
			Languages:  []string{"python"},
			FixType:    "python_format",
			Confidence: 0.8,
		},
		{
			Name:       "isort",
			Command:    "isort",
			Args:       []string{"-"},
			ProbeArgs:  []string{"--version"},
			Languages:  []string{"python"},
			FixType:    "python_import_format",
			Confidence: 0.8,
		},
		{
			Name:       "autopep8",
			Command:    "autopep8",
			Args:       []string{"-"},
			ProbeArgs:  []string{"--version"},
			Languages:  []string{"python"},
			FixType:    "python_style_format",
			Confidence: 0.7,
		},
	}
}

// FormatterFixer drives an external formatter as a fixer. Availability is
// probed once on first use; an uninstalled tool simply reports that it
// cannot fix anything.
type FormatterFixer struct {
	config ToolConfig
	runner *ToolRunner

	probeOnce sync.Once
	available bool
}

// NewFormatterFixer wraps the tool described by config
func NewFormatterFixer(config ToolConfig) *FormatterFixer {
	return &FormatterFixer{
		config: config,
		runner: NewToolRunner().WithTimeout(config.Timeout),
	}
}

// Name implements Fixer
func (f *FormatterFixer) Name() string {
	return f.config.Name
}

// SupportsLanguage implements Fixer
func (f *FormatterFixer) SupportsLanguage(language string) bool {
	for _, lang := range f.config.Languages {
		if lang == language {
			return true
		}
	}
	return false
}

// Available reports whether the underlying tool is installed. The probe
// runs once per fixer and the answer is cached.
func (f *FormatterFixer) Available() bool {
	f.probeOnce.Do(func() {
		f.available = f.runner.Probe(context.Background(), f.config.Command, f.config.ProbeArgs...)
	})
	return f.available
}

// CanFix implements Fixer: formatters take on style issues when the tool
// is installed
func (f *FormatterFixer) CanFix(issue *analysis.Issue) bool {
	return issue.Type == analysis.IssueTypeStyle && f.Available()
}

// Analyze implements Fixer
func (f *FormatterFixer) Analyze(issue *analysis.Issue, actx *analysis.Context) (*FixableIssue, error) {
	return &FixableIssue{
		Issue:          issue,
		FixerName:      f.Name(),
		FixType:        f.config.FixType,
		Confidence:     f.config.Confidence,
		FixDescription: fmt.Sprintf("Reformat with %s", f.config.Command),
		StartLine:      1,
		EndLine:        len(actx.Lines()),
		RequiresBackup: true,
		Status:         StatusAnalyzed,
	}, nil
}

// Apply implements Fixer: the content is piped through the tool and the
// formatted stdout becomes the fix candidate
func (f *FormatterFixer) Apply(fixable *FixableIssue, content string) (string, error) {
	result, err := f.runner.RunInput(context.Background(), content, f.config.Command, f.config.Args...)
	if err != nil {
		return "", err
	}
	if result.Stdout == "" && strings.TrimSpace(content) != "" {
		return "", errors.ToolError(f.config.Command, fmt.Errorf("produced no output for non-empty input"))
	}
	return result.Stdout, nil
}
