package analysis

import (
	"fmt"

	"github.com/codesweep/codesweep/internal/pysource"
)

// analyzePythonSource runs the structural Python checks: bracket balance as
// a parse proxy, then docstring presence on defs and classes and import
// ordering
func (d *Detector) analyzePythonSource(result *Result, actx *Context, lines []string) {
	if balanceErr := pysource.CheckBalance(lines); balanceErr != nil {
		d.addSyntaxIssue(result, actx, balanceErr.Line,
			fmt.Sprintf("unbalanced delimiter %q", string(balanceErr.Delimiter)))
		return
	}

	d.checkPythonDocstrings(result, actx, lines)
	d.checkPythonImports(result, actx, lines)
}

func (d *Detector) checkPythonDocstrings(result *Result, actx *Context, lines []string) {
	docRule := d.ruleFor(RuleMissingDocstring, actx.Language)
	if docRule == nil {
		return
	}

	for _, block := range pysource.ExtractBlocks(lines) {
		if block.HasDocstring {
			continue
		}
		// Dunder methods conventionally go undocumented
		if len(block.Name) > 4 && block.Name[:2] == "__" && block.Name[len(block.Name)-2:] == "__" {
			continue
		}

		issue := newIssueFromRule(docRule, block.StartLine, block.Indent+1)
		issue.Description = fmt.Sprintf("%s %s is missing a docstring", titleKind(block.Kind), block.Name)
		result.AddIssue(issue)
	}
}

// checkPythonImports flags the file once when its top-level imports are not
// in canonical group order
func (d *Detector) checkPythonImports(result *Result, actx *Context, lines []string) {
	rule := d.ruleFor(RuleUnsortedImports, actx.Language)
	if rule == nil {
		return
	}

	imports := pysource.ScanImports(lines, d.config.LocalImportPrefixes)
	if len(imports) < 2 || pysource.ImportsSorted(imports) {
		return
	}
	result.AddIssue(newIssueFromRule(rule, imports[0].Line, 1))
}

func titleKind(kind pysource.BlockKind) string {
	if kind == pysource.KindClass {
		return "Class"
	}
	return "Function"
}
