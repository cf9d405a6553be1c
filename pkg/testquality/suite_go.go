package testquality

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strings"

	"github.com/codesweep/codesweep/pkg/analysis"
)

var goSetupNames = map[string]bool{
	"SetupTest":    true,
	"SetupSuite":   true,
	"SetupSubTest": true,
}

var goTeardownNames = map[string]bool{
	"TearDownTest":    true,
	"TearDownSuite":   true,
	"TearDownSubTest": true,
}

var goFailureMethods = map[string]bool{
	"Error":   true,
	"Errorf":  true,
	"Fatal":   true,
	"Fatalf":  true,
	"Fail":    true,
	"FailNow": true,
}

// goSuiteAssertMethods are testify helpers embedded into suite receivers,
// recognized on the conventional s/suite receiver names
var goSuiteAssertMethods = map[string]bool{
	"Equal":         true,
	"NotEqual":      true,
	"NoError":       true,
	"Error":         true,
	"ErrorIs":       true,
	"ErrorContains": true,
	"True":          true,
	"False":         true,
	"Nil":           true,
	"NotNil":        true,
	"Contains":      true,
	"NotContains":   true,
	"Len":           true,
	"Empty":         true,
	"NotEmpty":      true,
	"Zero":          true,
	"InDelta":       true,
}

func (a *Analyzer) extractGoSuite(actx *analysis.Context, suite *TestSuite) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, actx.FilePath, actx.FileContent, parser.ParseComments)
	if err != nil {
		a.logger.Debug("cannot parse %s: %v", actx.FilePath, err)
		return
	}

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		name := fn.Name.Name

		switch {
		case goSetupNames[name]:
			suite.SetupMethods = append(suite.SetupMethods, name)
			continue
		case goTeardownNames[name]:
			suite.TeardownMethods = append(suite.TeardownMethods, name)
			continue
		case name == "TestMain":
			// harness entry point, neither a test nor a fixture
			continue
		}

		if !strings.HasPrefix(name, "Test") && !strings.HasPrefix(name, "Benchmark") {
			continue
		}
		if fn.Body == nil {
			continue
		}
		if fn.Recv == nil && !hasTestingParam(fn.Type) {
			continue
		}
		if isSuiteRunner(fn.Body) {
			continue
		}

		testType := inferTestType(name, actx.FilePath)
		if strings.HasPrefix(name, "Benchmark") {
			testType = TestTypePerformance
		}

		suite.Tests = append(suite.Tests, &TestFunction{
			Name:         name,
			FilePath:     actx.FilePath,
			LineNumber:   fset.Position(fn.Pos()).Line,
			EndLine:      fset.Position(fn.End()).Line,
			Type:         testType,
			Assertions:   countGoAssertions(fn.Body),
			Complexity:   goComplexity(fn.Body),
			HasDocstring: fn.Doc != nil,
		})
	}
}

// hasTestingParam reports whether the function takes exactly one testing
// harness parameter (*testing.T, *testing.B, *testing.F or testing.TB)
func hasTestingParam(fnType *ast.FuncType) bool {
	if fnType.Params == nil || len(fnType.Params.List) != 1 {
		return false
	}
	switch t := fnType.Params.List[0].Type.(type) {
	case *ast.StarExpr:
		return isTestingSelector(t.X)
	case *ast.SelectorExpr:
		return isTestingSelector(t)
	default:
		return false
	}
}

func isTestingSelector(expr ast.Expr) bool {
	sel, ok := expr.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	pkg, ok := sel.X.(*ast.Ident)
	return ok && pkg.Name == "testing"
}

// isSuiteRunner reports whether the body does nothing but hand control to a
// testify suite. Such runners assert through the suite's own tests.
func isSuiteRunner(body *ast.BlockStmt) bool {
	if len(body.List) != 1 {
		return false
	}
	expr, ok := body.List[0].(*ast.ExprStmt)
	if !ok {
		return false
	}
	call, ok := expr.X.(*ast.CallExpr)
	if !ok {
		return false
	}
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	pkg, ok := sel.X.(*ast.Ident)
	return ok && pkg.Name == "suite" && sel.Sel.Name == "Run"
}

// countGoAssertions counts testify assert/require calls, t.Error and
// t.Fatal style failures, and Assert/Expect/Should prefixed method calls
func countGoAssertions(body *ast.BlockStmt) int {
	count := 0
	ast.Inspect(body, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok {
			return true
		}

		if pkg, ok := sel.X.(*ast.Ident); ok {
			if pkg.Name == "assert" || pkg.Name == "require" {
				count++
				return true
			}
			if (pkg.Name == "t" || pkg.Name == "b" || pkg.Name == "tb") && goFailureMethods[sel.Sel.Name] {
				count++
				return true
			}
			if (pkg.Name == "s" || pkg.Name == "suite") && goSuiteAssertMethods[sel.Sel.Name] {
				count++
				return true
			}
		}

		lowered := strings.ToLower(sel.Sel.Name)
		if strings.HasPrefix(lowered, "assert") || strings.HasPrefix(lowered, "expect") || strings.HasPrefix(lowered, "should") {
			count++
		}
		return true
	})
	return count
}

// goComplexity is 1 plus one for every branch, loop, switch clause, select
// clause and boolean operator
func goComplexity(body *ast.BlockStmt) int {
	complexity := 1
	ast.Inspect(body, func(n ast.Node) bool {
		switch node := n.(type) {
		case *ast.IfStmt, *ast.ForStmt, *ast.RangeStmt, *ast.CaseClause, *ast.CommClause:
			complexity++
		case *ast.BinaryExpr:
			if node.Op == token.LAND || node.Op == token.LOR {
				complexity++
			}
		}
		return true
	})
	return complexity
}
