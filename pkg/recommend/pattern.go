package recommend

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"regexp"

	"github.com/codesweep/codesweep/internal/pysource"
	"github.com/codesweep/codesweep/pkg/analysis"
)

// Pattern recommendation categories
const (
	CategoryLongFunction      = "long_function"
	CategoryGodClass          = "god_class"
	CategoryTooManyParameters = "too_many_parameters"
	CategoryComplexCondition  = "complex_condition"
)

// PatternThresholds bounds the structural checks
type PatternThresholds struct {
	MaxFunctionLines    int
	MaxClassMethods     int
	MaxParameters       int
	MaxBooleanOperators int
}

// PatternAnalyzer flags structural smells: oversized functions, classes that
// accumulate too many methods, bloated parameter lists and boolean
// conditions too dense to read
type PatternAnalyzer struct {
	thresholds PatternThresholds
}

// NewPatternAnalyzer creates a pattern analyzer with the given thresholds
func NewPatternAnalyzer(thresholds PatternThresholds) *PatternAnalyzer {
	return &PatternAnalyzer{thresholds: thresholds}
}

// Analyze inspects the context and returns structural recommendations
func (pa *PatternAnalyzer) Analyze(actx *analysis.Context) []*Recommendation {
	switch actx.Language {
	case analysis.LangGo:
		return pa.analyzeGo(actx)
	case analysis.LangPython:
		return pa.analyzePython(actx)
	default:
		return nil
	}
}

func (pa *PatternAnalyzer) analyzeGo(actx *analysis.Context) []*Recommendation {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, actx.FilePath, actx.FileContent, 0)
	if err != nil {
		return nil
	}

	var recommendations []*Recommendation
	methodCounts := make(map[string]int)
	methodFirstLine := make(map[string]int)

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}

		start := fset.Position(fn.Pos()).Line
		end := fset.Position(fn.End()).Line

		if span := end - start + 1; span > pa.thresholds.MaxFunctionLines {
			recommendations = append(recommendations,
				pa.longFunctionRecommendation(fn.Name.Name, start, end, span))
		}

		if params := countGoParams(fn.Type); params > pa.thresholds.MaxParameters {
			recommendations = append(recommendations,
				pa.tooManyParametersRecommendation(fn.Name.Name, start, params))
		}

		if fn.Recv != nil && len(fn.Recv.List) == 1 {
			name := receiverTypeName(fn.Recv.List[0].Type)
			if name != "" {
				methodCounts[name]++
				if _, seen := methodFirstLine[name]; !seen {
					methodFirstLine[name] = start
				}
			}
		}

		if fn.Body != nil {
			recommendations = append(recommendations, pa.goComplexConditions(fset, fn.Body)...)
		}
	}

	for name, count := range methodCounts {
		if count > pa.thresholds.MaxClassMethods {
			recommendations = append(recommendations,
				pa.godClassRecommendation(name, methodFirstLine[name], count))
		}
	}

	return recommendations
}

// countGoParams counts declared parameter names, so func(a, b int) counts 2
func countGoParams(fnType *ast.FuncType) int {
	if fnType.Params == nil {
		return 0
	}
	count := 0
	for _, field := range fnType.Params.List {
		if len(field.Names) == 0 {
			count++
			continue
		}
		count += len(field.Names)
	}
	return count
}

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

func (pa *PatternAnalyzer) goComplexConditions(fset *token.FileSet, body *ast.BlockStmt) []*Recommendation {
	var recommendations []*Recommendation

	ast.Inspect(body, func(n ast.Node) bool {
		var cond ast.Expr
		switch stmt := n.(type) {
		case *ast.IfStmt:
			cond = stmt.Cond
		case *ast.ForStmt:
			cond = stmt.Cond
		default:
			return true
		}
		if cond == nil {
			return true
		}

		operators := countBoolOperators(cond)
		if operators >= pa.thresholds.MaxBooleanOperators {
			recommendations = append(recommendations,
				pa.complexConditionRecommendation(fset.Position(cond.Pos()).Line, operators))
		}
		return true
	})

	return recommendations
}

func countBoolOperators(expr ast.Expr) int {
	count := 0
	ast.Inspect(expr, func(n ast.Node) bool {
		if bin, ok := n.(*ast.BinaryExpr); ok {
			if bin.Op == token.LAND || bin.Op == token.LOR {
				count++
			}
		}
		return true
	})
	return count
}

var (
	pythonConditionPattern = regexp.MustCompile(`^\s*(?:if|elif|while)\b`)
	pythonBoolOpPattern    = regexp.MustCompile(`\b(?:and|or)\b`)
)

func (pa *PatternAnalyzer) analyzePython(actx *analysis.Context) []*Recommendation {
	lines := actx.Lines()
	blocks := pysource.ExtractBlocks(lines)

	var recommendations []*Recommendation

	for _, block := range blocks {
		switch block.Kind {
		case pysource.KindFunction:
			if span := block.EndLine - block.StartLine + 1; span > pa.thresholds.MaxFunctionLines {
				recommendations = append(recommendations,
					pa.longFunctionRecommendation(block.Name, block.StartLine, block.EndLine, span))
			}
			if params := block.ParamCount(); params > pa.thresholds.MaxParameters {
				recommendations = append(recommendations,
					pa.tooManyParametersRecommendation(block.Name, block.StartLine, params))
			}
		case pysource.KindClass:
			if count := countDirectMethods(blocks, block); count > pa.thresholds.MaxClassMethods {
				recommendations = append(recommendations,
					pa.godClassRecommendation(block.Name, block.StartLine, count))
			}
		}
	}

	for i, line := range lines {
		if !pythonConditionPattern.MatchString(line) {
			continue
		}
		code := stripLineComment(line, "#")
		operators := len(pythonBoolOpPattern.FindAllString(code, -1))
		if operators >= pa.thresholds.MaxBooleanOperators {
			recommendations = append(recommendations,
				pa.complexConditionRecommendation(i+1, operators))
		}
	}

	return recommendations
}

// countDirectMethods counts functions defined one indentation level inside
// the class body, so nested helpers inside methods are not counted
func countDirectMethods(blocks []pysource.Block, class pysource.Block) int {
	minIndent := -1
	for _, b := range blocks {
		if b.Kind != pysource.KindFunction {
			continue
		}
		if b.StartLine <= class.StartLine || b.StartLine > class.EndLine || b.Indent <= class.Indent {
			continue
		}
		if minIndent == -1 || b.Indent < minIndent {
			minIndent = b.Indent
		}
	}
	if minIndent == -1 {
		return 0
	}

	count := 0
	for _, b := range blocks {
		if b.Kind == pysource.KindFunction &&
			b.StartLine > class.StartLine && b.StartLine <= class.EndLine &&
			b.Indent == minIndent {
			count++
		}
	}
	return count
}

func (pa *PatternAnalyzer) longFunctionRecommendation(name string, start, end, span int) *Recommendation {
	rec := newRecommendation(
		RecommendationPatternImprovement,
		CategoryLongFunction,
		fmt.Sprintf("Split up %s", name),
		fmt.Sprintf("Function %s spans %d lines, above the %d line limit", name, span, pa.thresholds.MaxFunctionLines),
	)
	rec.LineNumber = start
	rec.EndLine = end
	rec.Severity = analysis.SeverityMedium
	rec.ImpactScore = float64(span-pa.thresholds.MaxFunctionLines) / 10.0
	rec.EffortEstimate = "medium"
	rec.Rationale = "Extract cohesive sections into named helpers so each piece can be read and tested alone"
	rec.Tags = []string{"maintainability", "refactoring"}
	return rec
}

func (pa *PatternAnalyzer) godClassRecommendation(name string, line, methods int) *Recommendation {
	rec := newRecommendation(
		RecommendationPatternImprovement,
		CategoryGodClass,
		fmt.Sprintf("Break up %s", name),
		fmt.Sprintf("%s defines %d methods, above the %d method limit", name, methods, pa.thresholds.MaxClassMethods),
	)
	rec.LineNumber = line
	rec.Severity = analysis.SeverityMedium
	rec.ImpactScore = float64(methods - pa.thresholds.MaxClassMethods)
	rec.EffortEstimate = "high"
	rec.Rationale = "Group related methods into smaller types with a single responsibility each"
	rec.Tags = []string{"maintainability", "design"}
	return rec
}

func (pa *PatternAnalyzer) tooManyParametersRecommendation(name string, line, params int) *Recommendation {
	rec := newRecommendation(
		RecommendationPatternImprovement,
		CategoryTooManyParameters,
		fmt.Sprintf("Shrink the parameter list of %s", name),
		fmt.Sprintf("Function %s takes %d parameters, above the %d parameter limit", name, params, pa.thresholds.MaxParameters),
	)
	rec.LineNumber = line
	rec.Severity = analysis.SeverityLow
	rec.ImpactScore = float64(params - pa.thresholds.MaxParameters)
	rec.EffortEstimate = "low"
	rec.Rationale = "Bundle the parameters into a config or options struct"
	rec.Tags = []string{"maintainability", "api-design"}
	return rec
}

func (pa *PatternAnalyzer) complexConditionRecommendation(line, operators int) *Recommendation {
	rec := newRecommendation(
		RecommendationPatternImprovement,
		CategoryComplexCondition,
		"Name the parts of a dense condition",
		fmt.Sprintf("Condition on line %d chains %d boolean operators", line, operators),
	)
	rec.LineNumber = line
	rec.Severity = analysis.SeverityLow
	rec.ImpactScore = float64(operators)
	rec.EffortEstimate = "low"
	rec.Rationale = "Assign sub-expressions to named booleans or extract a predicate function"
	rec.Tags = []string{"maintainability", "readability"}
	return rec
}
