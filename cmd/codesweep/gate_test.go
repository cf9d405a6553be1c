package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codesweep/codesweep/pkg/gate"
)

func TestGateCommand(t *testing.T) {
	t.Run("lenient gate passes a mostly clean project", func(t *testing.T) {
		dir := t.TempDir()
		writeProjectFile(t, dir, "app.py", "def main():\n    return 0\n")

		err := executeCommand(t, "gate", dir, "--gate", "lenient")
		assert.NoError(t, err)
	})

	t.Run("critical issue fails the strict gate", func(t *testing.T) {
		dir := t.TempDir()
		writeProjectFile(t, dir, "app.py",
			"def run(data):\n    return eval(data)\n")

		err := executeCommand(t, "gate", dir, "--gate", "strict")
		assert.ErrorIs(t, err, errGateFailed)
	})

	t.Run("unknown gate fails rather than erroring", func(t *testing.T) {
		dir := t.TempDir()
		writeProjectFile(t, dir, "app.py", "def main():\n    return 0\n")

		err := executeCommand(t, "gate", dir, "--gate", "platinum")
		assert.ErrorIs(t, err, errGateFailed)
	})

	t.Run("coverage below the gate minimum fails", func(t *testing.T) {
		dir := t.TempDir()
		writeProjectFile(t, dir, "app.py", "def main():\n    return 0\n")
		profile := writeProjectFile(t, dir, "cover.out",
			"mode: set\nexample.com/pkg/file.go:1.1,10.2 8 0\n")

		err := executeCommand(t, "gate", dir, "--gate", "standard", "--coverage", profile)
		assert.ErrorIs(t, err, errGateFailed)
	})

	t.Run("unreadable coverage file is a hard error", func(t *testing.T) {
		dir := t.TempDir()
		writeProjectFile(t, dir, "app.py", "def main():\n    return 0\n")

		err := executeCommand(t, "gate", dir, "--coverage", dir+"/missing.out")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, errGateFailed)
		assert.NotErrorIs(t, err, errConditionalPass)
	})
}

func TestPrintEvaluation(t *testing.T) {
	// Rendering must not panic for any verdict
	for _, result := range []gate.Result{gate.Pass, gate.ConditionalPass, gate.Fail} {
		printEvaluation(&gate.Evaluation{
			GateName: "standard",
			Result:   result,
			Reasons:  []string{"Critical issues found: 1 (maximum 0)"},
		}, 1)
	}
}

func TestGateCommandJSON(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, "app.py", "def run(data):\n    return eval(data)\n")

	err := executeCommand(t, "gate", dir, "--gate", "strict", "--json")
	assert.ErrorIs(t, err, errGateFailed)
}
