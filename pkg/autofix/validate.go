package autofix

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"

	"github.com/codesweep/codesweep/internal/pysource"
	"github.com/codesweep/codesweep/pkg/analysis"
)

// addCheck records that a validation check ran
func (v *ValidationResult) addCheck(name string) {
	v.ChecksPerformed = append(v.ChecksPerformed, name)
}

// reject marks the result unsafe with the given reason. Multiple rejections
// accumulate so the caller sees every violated property.
func (v *ValidationResult) reject(reason string) {
	v.IsSafe = false
	v.Confidence = 0
	v.Reasons = append(v.Reasons, reason)
}

// ValidateFixSafety checks that a fix left the file structurally intact
// before the engine advances the working copy. Go content must still parse
// and keep its imports and top-level declarations; Python content must keep
// balanced delimiters and its import statements. Languages without a
// structural checker only get the emptiness check.
func (e *Engine) ValidateFixSafety(fixable *FixableIssue, actx *analysis.Context) *ValidationResult {
	result := &ValidationResult{
		IsSafe:     true,
		Confidence: fixable.Confidence,
	}

	result.addCheck("content_not_emptied")
	if strings.TrimSpace(fixable.FixedContent) == "" && strings.TrimSpace(fixable.OriginalContent) != "" {
		result.reject("fix emptied a non-empty file")
		return result
	}

	switch actx.Language {
	case "go":
		e.validateGoFix(fixable, result)
	case "python":
		e.validatePythonFix(fixable, result)
	}

	return result
}

// validateGoFix reparses the fixed content and verifies that no import or
// top-level declaration from the original survives only on one side. When
// the original content itself does not parse, the structural comparison is
// skipped: parsing the fixed content is the strongest check available.
func (e *Engine) validateGoFix(fixable *FixableIssue, result *ValidationResult) {
	result.addCheck("go_parse")
	fixedFile, err := parser.ParseFile(token.NewFileSet(), "fixed.go", fixable.FixedContent, parser.ParseComments)
	if err != nil {
		result.reject(fmt.Sprintf("fixed content does not parse: %v", err))
		return
	}

	originalFile, err := parser.ParseFile(token.NewFileSet(), "original.go", fixable.OriginalContent, parser.ParseComments)
	if err != nil {
		return
	}

	result.addCheck("go_imports_preserved")
	fixedImports := goImportSet(fixedFile)
	for path := range goImportSet(originalFile) {
		if !fixedImports[path] {
			result.reject(fmt.Sprintf("fix removed import %s", path))
		}
	}

	result.addCheck("go_declarations_preserved")
	fixedDecls := goDeclSet(fixedFile)
	for name := range goDeclSet(originalFile) {
		if !fixedDecls[name] {
			result.reject(fmt.Sprintf("fix removed declaration %s", name))
		}
	}
}

// validatePythonFix checks delimiter balance on the fixed content and that
// every import statement from the original is still present
func (e *Engine) validatePythonFix(fixable *FixableIssue, result *ValidationResult) {
	result.addCheck("python_balance")
	fixedLines := contentLines(fixable.FixedContent)
	if balErr := pysource.CheckBalance(fixedLines); balErr != nil {
		result.reject(fmt.Sprintf("fixed content has unbalanced %q at line %d", balErr.Delimiter, balErr.Line))
		return
	}

	result.addCheck("python_imports_preserved")
	fixedImports := pythonImportSet(fixedLines)
	for stmt := range pythonImportSet(contentLines(fixable.OriginalContent)) {
		if !fixedImports[stmt] {
			result.reject(fmt.Sprintf("fix removed import statement %q", stmt))
		}
	}
}

// goImportSet collects the import paths of a parsed Go file
func goImportSet(file *ast.File) map[string]bool {
	imports := make(map[string]bool, len(file.Imports))
	for _, spec := range file.Imports {
		imports[spec.Path.Value] = true
	}
	return imports
}

// goDeclSet collects the names of top-level functions, methods, and types.
// Methods are keyed by receiver type so same-named methods on different
// types stay distinct.
func goDeclSet(file *ast.File) map[string]bool {
	decls := make(map[string]bool)
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			name := d.Name.Name
			if d.Recv != nil && len(d.Recv.List) > 0 {
				if recv := receiverTypeName(d.Recv.List[0].Type); recv != "" {
					name = recv + "." + name
				}
			}
			decls[name] = true
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				if typeSpec, ok := spec.(*ast.TypeSpec); ok {
					decls[typeSpec.Name.Name] = true
				}
			}
		}
	}
	return decls
}

// receiverTypeName unwraps pointer and generic receivers down to the type
// identifier
func receiverTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return receiverTypeName(t.X)
	case *ast.IndexExpr:
		return receiverTypeName(t.X)
	case *ast.IndexListExpr:
		return receiverTypeName(t.X)
	default:
		return ""
	}
}

// pythonImportSet collects the import statements of a Python source, keyed
// by their whitespace-trimmed text so cosmetic fixes do not register as
// removals
func pythonImportSet(lines []string) map[string]bool {
	imports := make(map[string]bool)
	for _, imp := range pysource.ScanImports(lines, nil) {
		imports[strings.TrimSpace(imp.Text)] = true
	}
	return imports
}

// contentLines splits file content into lines with CRLF endings normalized
func contentLines(content string) []string {
	return strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
}
