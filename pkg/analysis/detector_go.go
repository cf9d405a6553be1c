package analysis

import (
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
)

// analyzeGoSource runs the structural Go checks: parse validation and doc
// comments on exported declarations
func (d *Detector) analyzeGoSource(result *Result, actx *Context) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, actx.FilePath, actx.FileContent, parser.ParseComments)
	if err != nil {
		line := 1
		detail := err.Error()
		if errList, ok := err.(scanner.ErrorList); ok && len(errList) > 0 {
			line = errList[0].Pos.Line
			detail = errList[0].Msg
		}
		d.addSyntaxIssue(result, actx, line, detail)
		return
	}

	docRule := d.ruleFor(RuleMissingDocComment, actx.Language)
	if docRule == nil {
		return
	}

	for _, decl := range file.Decls {
		switch node := decl.(type) {
		case *ast.FuncDecl:
			if node.Name.IsExported() && node.Doc == nil {
				issue := newIssueFromRule(docRule, fset.Position(node.Pos()).Line, 1)
				issue.Description = "Exported function " + node.Name.Name + " is missing a doc comment"
				result.AddIssue(issue)
			}
		case *ast.GenDecl:
			if node.Tok != token.TYPE {
				continue
			}
			for _, spec := range node.Specs {
				typeSpec, ok := spec.(*ast.TypeSpec)
				if !ok || !typeSpec.Name.IsExported() {
					continue
				}
				if node.Doc == nil && typeSpec.Doc == nil {
					issue := newIssueFromRule(docRule, fset.Position(typeSpec.Pos()).Line, 1)
					issue.Description = "Exported type " + typeSpec.Name.Name + " is missing a doc comment"
					result.AddIssue(issue)
				}
			}
		}
	}
}
