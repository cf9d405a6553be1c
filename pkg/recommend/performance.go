package recommend

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"regexp"
	"sort"
	"strings"

	"github.com/codesweep/codesweep/internal/pysource"
	"github.com/codesweep/codesweep/pkg/analysis"
)

// Performance recommendation categories
const (
	CategoryNestedLoops          = "nested_loops"
	CategoryComplexComprehension = "complex_comprehension"
	CategoryInvariantCall        = "invariant_call_in_loop"
)

// PerformanceAnalyzer flags code shapes that commonly dominate runtime:
// nested loops, overly dense comprehensions and identical calls repeated
// inside a loop body
type PerformanceAnalyzer struct{}

// NewPerformanceAnalyzer creates a performance analyzer
func NewPerformanceAnalyzer() *PerformanceAnalyzer {
	return &PerformanceAnalyzer{}
}

// Analyze inspects the context and returns performance recommendations
func (pa *PerformanceAnalyzer) Analyze(actx *analysis.Context) []*Recommendation {
	switch actx.Language {
	case analysis.LangGo:
		return pa.analyzeGo(actx)
	case analysis.LangPython:
		return pa.analyzePython(actx)
	default:
		return nil
	}
}

func (pa *PerformanceAnalyzer) analyzeGo(actx *analysis.Context) []*Recommendation {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, actx.FilePath, actx.FileContent, 0)
	if err != nil {
		return nil
	}

	lines := actx.Lines()
	var recommendations []*Recommendation

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Body == nil {
			continue
		}

		pa.walkGoLoops(fset, fn.Body, 0, func(loop ast.Stmt, body *ast.BlockStmt, depth int) {
			line := fset.Position(loop.Pos()).Line
			endLine := fset.Position(loop.End()).Line

			if depth >= 2 {
				recommendations = append(recommendations,
					pa.nestedLoopRecommendation(line, endLine, depth, snippetAt(lines, line)))
			}

			for _, finding := range repeatedGoCalls(body) {
				recommendations = append(recommendations,
					pa.invariantCallRecommendation(fset.Position(finding.pos).Line, finding.text, finding.count))
			}
		})
	}

	return recommendations
}

type goCallFinding struct {
	text  string
	count int
	pos   token.Pos
}

// repeatedGoCalls returns call expressions whose printed form occurs more
// than once directly inside the loop body, skipping nested loops so each
// repetition is attributed to the loop that owns it
func repeatedGoCalls(body *ast.BlockStmt) []goCallFinding {
	counts := make(map[string]*goCallFinding)

	ast.Inspect(body, func(n ast.Node) bool {
		switch n.(type) {
		case *ast.ForStmt, *ast.RangeStmt, *ast.FuncLit:
			return false
		}
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		text := types.ExprString(call)
		if existing, seen := counts[text]; seen {
			existing.count++
		} else {
			counts[text] = &goCallFinding{text: text, count: 1, pos: call.Pos()}
		}
		return true
	})

	var findings []goCallFinding
	for _, f := range counts {
		if f.count >= 2 {
			findings = append(findings, *f)
		}
	}
	sort.Slice(findings, func(i, j int) bool { return findings[i].pos < findings[j].pos })
	return findings
}

// walkGoLoops visits every for/range statement below node, reporting the
// nesting depth relative to the enclosing function
func (pa *PerformanceAnalyzer) walkGoLoops(fset *token.FileSet, node ast.Node, depth int, visit func(loop ast.Stmt, body *ast.BlockStmt, depth int)) {
	ast.Inspect(node, func(n ast.Node) bool {
		if n == node {
			return true
		}
		var body *ast.BlockStmt
		switch stmt := n.(type) {
		case *ast.ForStmt:
			body = stmt.Body
		case *ast.RangeStmt:
			body = stmt.Body
		default:
			return true
		}
		visit(n.(ast.Stmt), body, depth+1)
		pa.walkGoLoops(fset, body, depth+1, visit)
		return false
	})
}

var (
	comprehensionPattern = regexp.MustCompile(`[\[({][^][)(}{]*\bfor\b[^][)(}{]*\bin\b`)
	wordForPattern       = regexp.MustCompile(`\bfor\b`)
	wordIfPattern        = regexp.MustCompile(`\bif\b`)
	pythonCallPattern    = regexp.MustCompile(`\b[A-Za-z_][\w.]*\([^()]*\)`)
)

// loopSpan is the 1-based inclusive extent of a Python loop
type loopSpan struct {
	start  int
	end    int
	indent int
}

func (pa *PerformanceAnalyzer) analyzePython(actx *analysis.Context) []*Recommendation {
	lines := actx.Lines()
	var recommendations []*Recommendation

	var loops []loopSpan

	for i, line := range lines {
		if pythonLoopPattern.MatchString(line) {
			start := i + 1
			loops = append(loops, loopSpan{
				start:  start,
				end:    pysource.BlockEnd(lines, start),
				indent: pysource.IndentWidth(line),
			})
		}

		code := stripLineComment(line, "#")
		if comprehensionPattern.MatchString(code) {
			forCount := len(wordForPattern.FindAllString(code, -1))
			ifCount := len(wordIfPattern.FindAllString(code, -1))
			if forCount >= 2 || (forCount >= 1 && ifCount >= 2) {
				rec := newRecommendation(
					RecommendationPerformanceOptimization,
					CategoryComplexComprehension,
					"Simplify a dense comprehension",
					fmt.Sprintf("Comprehension on line %d packs %d for and %d if clauses into one expression", i+1, forCount, ifCount),
				)
				rec.LineNumber = i + 1
				rec.Severity = analysis.SeverityLow
				rec.ImpactScore = 2
				rec.EffortEstimate = "low"
				rec.CodeSnippet = strings.TrimSpace(line)
				rec.Rationale = "Split the expression into an explicit loop or intermediate generator for readability and profiling"
				rec.Tags = []string{"performance", "readability"}
				recommendations = append(recommendations, rec)
			}
		}
	}

	for i, outer := range loops {
		depth := 1
		for _, other := range loops[:i] {
			if outer.start > other.start && outer.start <= other.end && outer.indent > other.indent {
				depth++
			}
		}
		if depth >= 2 {
			recommendations = append(recommendations,
				pa.nestedLoopRecommendation(outer.start, outer.end, depth, snippetAt(lines, outer.start)))
		}

		counts := map[string]int{}
		firstLine := map[string]int{}
		for lineIdx := outer.start; lineIdx < outer.end && lineIdx < len(lines); lineIdx++ {
			code := stripLineComment(lines[lineIdx], "#")
			if insideNestedLoop(loops, i, lineIdx+1) {
				continue
			}
			for _, call := range pythonCallPattern.FindAllString(code, -1) {
				normalized := strings.Join(strings.Fields(call), "")
				counts[normalized]++
				if _, seen := firstLine[normalized]; !seen {
					firstLine[normalized] = lineIdx + 1
				}
			}
		}

		repeated := make([]string, 0, len(counts))
		for call, count := range counts {
			if count >= 2 {
				repeated = append(repeated, call)
			}
		}
		sort.Slice(repeated, func(a, b int) bool { return firstLine[repeated[a]] < firstLine[repeated[b]] })
		for _, call := range repeated {
			recommendations = append(recommendations,
				pa.invariantCallRecommendation(firstLine[call], call, counts[call]))
		}
	}

	return recommendations
}

// insideNestedLoop reports whether the 1-based line belongs to a loop nested
// inside loops[outerIdx]
func insideNestedLoop(loops []loopSpan, outerIdx, line int) bool {
	outer := loops[outerIdx]
	for j, inner := range loops {
		if j == outerIdx {
			continue
		}
		if inner.start > outer.start && inner.end <= outer.end &&
			line >= inner.start && line <= inner.end {
			return true
		}
	}
	return false
}

func (pa *PerformanceAnalyzer) nestedLoopRecommendation(line, endLine, depth int, snippet string) *Recommendation {
	rec := newRecommendation(
		RecommendationPerformanceOptimization,
		CategoryNestedLoops,
		"Reduce loop nesting",
		fmt.Sprintf("Loop on line %d is nested %d levels deep; the combined iteration count grows multiplicatively", line, depth),
	)
	rec.LineNumber = line
	rec.EndLine = endLine
	rec.Severity = analysis.SeverityMedium
	rec.ImpactScore = float64(depth) * 2
	rec.EffortEstimate = "medium"
	rec.CodeSnippet = snippet
	rec.Rationale = "Consider precomputing a lookup table or restructuring so the inner work runs once per element"
	rec.Tags = []string{"performance", "complexity"}
	return rec
}

func (pa *PerformanceAnalyzer) invariantCallRecommendation(line int, call string, count int) *Recommendation {
	rec := newRecommendation(
		RecommendationPerformanceOptimization,
		CategoryInvariantCall,
		"Hoist a repeated call out of the loop",
		fmt.Sprintf("Call %s appears %d times inside the loop body starting near line %d", call, count, line),
	)
	rec.LineNumber = line
	rec.Severity = analysis.SeverityMedium
	rec.ImpactScore = float64(count)
	rec.EffortEstimate = "low"
	rec.Rationale = "If the call result does not change between iterations, compute it once before the loop"
	rec.Tags = []string{"performance", "loops"}
	return rec
}

func snippetAt(lines []string, line int) string {
	if line < 1 || line > len(lines) {
		return ""
	}
	return strings.TrimSpace(lines[line-1])
}
