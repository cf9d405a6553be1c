package autofix

import (
	"testing"

	"github.com/codesweep/codesweep/pkg/analysis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goOriginal = `package demo

import "fmt"

type Greeter struct{}

func (g *Greeter) Name() string {
	return "greeter"
}

func Greet() {
	fmt.Println("hi")
}
`

func validateFixture(t *testing.T, filePath, original, fixed string) *ValidationResult {
	t.Helper()
	engine := newTestEngine(t, SafetyModerate)
	fixable := &FixableIssue{
		OriginalContent: original,
		FixedContent:    fixed,
		Confidence:      0.8,
	}
	actx := analysis.NewContext("proj", filePath, original)
	return engine.ValidateFixSafety(fixable, actx)
}

func TestValidateGoFixAcceptsCosmeticChange(t *testing.T) {
	fixed := `package demo

import "fmt"

type Greeter struct{}

func (g *Greeter) Name() string {
	return "greeter"
}

// Greet prints a greeting
func Greet() {
	fmt.Println("hi")
}
`
	result := validateFixture(t, "demo.go", goOriginal, fixed)

	assert.True(t, result.IsSafe)
	assert.Equal(t, 0.8, result.Confidence)
	assert.Contains(t, result.ChecksPerformed, "go_parse")
	assert.Contains(t, result.ChecksPerformed, "go_imports_preserved")
	assert.Contains(t, result.ChecksPerformed, "go_declarations_preserved")
}

func TestValidateGoFixRejectsUnparsableContent(t *testing.T) {
	fixed := "package demo\n\nfunc Greet() {\n"

	result := validateFixture(t, "demo.go", goOriginal, fixed)

	require.False(t, result.IsSafe)
	assert.Equal(t, 0.0, result.Confidence)
	require.NotEmpty(t, result.Reasons)
	assert.Contains(t, result.Reasons[0], "does not parse")
}

func TestValidateGoFixRejectsRemovedImport(t *testing.T) {
	fixed := `package demo

type Greeter struct{}

func (g *Greeter) Name() string {
	return "greeter"
}

func Greet() {
}
`
	result := validateFixture(t, "demo.go", goOriginal, fixed)

	require.False(t, result.IsSafe)
	require.NotEmpty(t, result.Reasons)
	assert.Contains(t, result.Reasons[0], "removed import")
}

func TestValidateGoFixRejectsRemovedMethod(t *testing.T) {
	fixed := `package demo

import "fmt"

type Greeter struct{}

func Greet() {
	fmt.Println("hi")
}
`
	result := validateFixture(t, "demo.go", goOriginal, fixed)

	require.False(t, result.IsSafe)
	require.NotEmpty(t, result.Reasons)
	assert.Contains(t, result.Reasons[0], "Greeter.Name")
}

func TestValidateGoFixSkipsComparisonWhenOriginalBroken(t *testing.T) {
	original := "package demo\n\nfunc Greet() {\n"
	fixed := "package demo\n\nfunc Greet() {\n}\n"

	result := validateFixture(t, "demo.go", original, fixed)

	assert.True(t, result.IsSafe, "repairing an unparsable file only requires the fix to parse")
}

func TestValidatePythonFixAcceptsCosmeticChange(t *testing.T) {
	original := "import os \nx = 1  \n"
	fixed := "import os\nx = 1\n"

	result := validateFixture(t, "app.py", original, fixed)

	assert.True(t, result.IsSafe)
	assert.Equal(t, []string{
		"content_not_emptied",
		"python_balance",
		"python_imports_preserved",
	}, result.ChecksPerformed)
}

func TestValidatePythonFixRejectsUnbalancedContent(t *testing.T) {
	result := validateFixture(t, "app.py", "x = (1)\n", "x = (1\n")

	require.False(t, result.IsSafe)
	require.NotEmpty(t, result.Reasons)
	assert.Contains(t, result.Reasons[0], "unbalanced")
}

func TestValidatePythonFixRejectsRemovedImport(t *testing.T) {
	original := "import os\nimport sys\n\nx = 1\n"
	fixed := "import os\n\nx = 1\n"

	result := validateFixture(t, "app.py", original, fixed)

	require.False(t, result.IsSafe)
	require.NotEmpty(t, result.Reasons)
	assert.Contains(t, result.Reasons[0], "removed import statement")
	assert.Contains(t, result.Reasons[0], "import sys")
}

func TestValidateRejectsEmptiedFile(t *testing.T) {
	result := validateFixture(t, "app.py", "x = 1\n", "")

	require.False(t, result.IsSafe)
	require.NotEmpty(t, result.Reasons)
	assert.Contains(t, result.Reasons[0], "emptied")
	assert.Equal(t, []string{"content_not_emptied"}, result.ChecksPerformed)
}

func TestValidateUnknownLanguageOnlyChecksEmptiness(t *testing.T) {
	result := validateFixture(t, "notes.txt", "line one\n", "line 1\n")

	assert.True(t, result.IsSafe)
	assert.Equal(t, []string{"content_not_emptied"}, result.ChecksPerformed)
}
