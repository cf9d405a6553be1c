package recommend

import (
	"crypto/sha256"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"regexp"
	"sort"
	"strings"

	"github.com/codesweep/codesweep/internal/pysource"
	"github.com/codesweep/codesweep/pkg/analysis"
)

// CategoryDuplicateCode labels duplicate code recommendations
const CategoryDuplicateCode = "duplicate_code"

// CodePattern is a normalized region of code eligible for duplicate
// comparison. Comments, blank lines and whitespace differences are erased
// before hashing so that trivially reformatted copies still collide.
type CodePattern struct {
	Hash      string `json:"hash"`
	Kind      string `json:"kind"` // function, class or block
	Name      string `json:"name"`
	FilePath  string `json:"file_path"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	LineCount int    `json:"line_count"`

	normalized []string
}

// DuplicateBlock groups patterns whose normalized forms match or exceed the
// similarity threshold
type DuplicateBlock struct {
	Hash       string         `json:"hash"`
	Similarity float64        `json:"similarity"`
	Patterns   []*CodePattern `json:"patterns"`
}

// DuplicateCodeDetector finds repeated code regions within a file
type DuplicateCodeDetector struct {
	minLines      int
	minSimilarity float64
}

// NewDuplicateCodeDetector creates a detector that ignores regions shorter
// than minLines and reports groups at or above minSimilarity
func NewDuplicateCodeDetector(minLines int, minSimilarity float64) *DuplicateCodeDetector {
	return &DuplicateCodeDetector{
		minLines:      minLines,
		minSimilarity: minSimilarity,
	}
}

// Detect extracts patterns from the context and converts duplicate groups
// into recommendations
func (d *DuplicateCodeDetector) Detect(actx *analysis.Context) []*Recommendation {
	patterns := d.ExtractPatterns(actx)
	blocks := d.FindDuplicates(patterns)

	var recommendations []*Recommendation
	for _, block := range blocks {
		first := block.Patterns[0]
		locations := make([]string, 0, len(block.Patterns))
		for _, p := range block.Patterns {
			locations = append(locations, fmt.Sprintf("lines %d-%d", p.StartLine, p.EndLine))
		}

		sameness := "the same"
		if block.Similarity < 1 {
			sameness = fmt.Sprintf("a %.0f%% similar", block.Similarity*100)
		}
		rec := newRecommendation(
			RecommendationDuplicateRemoval,
			CategoryDuplicateCode,
			fmt.Sprintf("Extract duplicated %s into a shared helper", first.Kind),
			fmt.Sprintf("Found %d copies of %s %d-line %s (%s)",
				len(block.Patterns), sameness, first.LineCount, first.Kind, strings.Join(locations, ", ")),
		)
		rec.LineNumber = first.StartLine
		rec.EndLine = first.EndLine
		rec.Severity = analysis.SeverityMedium
		rec.ImpactScore = duplicateImpact(block)
		rec.EffortEstimate = "medium"
		rec.Rationale = "Duplicated logic drifts apart over time; extract it so fixes land in one place"
		rec.Tags = []string{"duplication", "refactoring"}
		recommendations = append(recommendations, rec)
	}

	return recommendations
}

// ExtractPatterns builds the comparable code regions for the context's
// language. Unsupported languages yield no patterns.
func (d *DuplicateCodeDetector) ExtractPatterns(actx *analysis.Context) []*CodePattern {
	switch actx.Language {
	case analysis.LangGo:
		return d.extractGoPatterns(actx)
	case analysis.LangPython:
		return d.extractPythonPatterns(actx)
	default:
		return nil
	}
}

// FindDuplicates groups the patterns into duplicate blocks. Identical
// normalized forms group by hash with similarity 1.0; remaining patterns are
// compared pairwise and grouped when their line overlap reaches the
// configured threshold.
func (d *DuplicateCodeDetector) FindDuplicates(patterns []*CodePattern) []*DuplicateBlock {
	byHash := make(map[string][]*CodePattern)
	for _, p := range patterns {
		byHash[p.Hash] = append(byHash[p.Hash], p)
	}

	var blocks []*DuplicateBlock
	var singles []*CodePattern
	for _, group := range byHash {
		if len(group) < 2 {
			singles = append(singles, group...)
			continue
		}
		sort.Slice(group, func(i, j int) bool { return group[i].StartLine < group[j].StartLine })
		blocks = append(blocks, &DuplicateBlock{
			Hash:       group[0].Hash,
			Similarity: 1.0,
			Patterns:   group,
		})
	}

	blocks = append(blocks, d.findNearDuplicates(singles)...)
	blocks = dropShadowedBlocks(blocks)

	sort.Slice(blocks, func(i, j int) bool {
		return blocks[i].Patterns[0].StartLine < blocks[j].Patterns[0].StartLine
	})
	return blocks
}

// dropShadowedBlocks removes groups whose every occurrence sits inside an
// occurrence of another group, so a duplicated loop inside a duplicated
// function is reported once at the function level
func dropShadowedBlocks(blocks []*DuplicateBlock) []*DuplicateBlock {
	kept := blocks[:0]
	for _, b := range blocks {
		shadowed := false
		for _, a := range blocks {
			if a == b {
				continue
			}
			if blockShadows(a, b) {
				shadowed = true
				break
			}
		}
		if !shadowed {
			kept = append(kept, b)
		}
	}
	return kept
}

func blockShadows(a, b *DuplicateBlock) bool {
	if len(a.Patterns) < len(b.Patterns) {
		return false
	}
	for _, inner := range b.Patterns {
		contained := false
		for _, outer := range a.Patterns {
			if outer != inner && inner.StartLine >= outer.StartLine && inner.EndLine <= outer.EndLine {
				contained = true
				break
			}
		}
		if !contained {
			return false
		}
	}
	return true
}

// findNearDuplicates groups patterns whose normalized lines overlap at or
// above the similarity threshold without being byte-identical
func (d *DuplicateCodeDetector) findNearDuplicates(patterns []*CodePattern) []*DuplicateBlock {
	if d.minSimilarity > 1.0 || len(patterns) < 2 {
		return nil
	}

	sort.Slice(patterns, func(i, j int) bool { return patterns[i].StartLine < patterns[j].StartLine })

	var blocks []*DuplicateBlock
	grouped := make(map[*CodePattern]bool)

	for i, seed := range patterns {
		if grouped[seed] {
			continue
		}

		group := []*CodePattern{seed}
		worst := 1.0
		for _, candidate := range patterns[i+1:] {
			if grouped[candidate] || candidate.Kind != seed.Kind {
				continue
			}
			score := lineSimilarity(seed.normalized, candidate.normalized)
			if score >= d.minSimilarity {
				group = append(group, candidate)
				if score < worst {
					worst = score
				}
			}
		}

		if len(group) < 2 {
			continue
		}
		for _, p := range group {
			grouped[p] = true
		}
		blocks = append(blocks, &DuplicateBlock{
			Hash:       seed.Hash,
			Similarity: worst,
			Patterns:   group,
		})
	}

	return blocks
}

// lineSimilarity scores two normalized line sequences as twice the longest
// common subsequence over the combined length, 1.0 meaning identical
func lineSimilarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}

	common := prev[len(b)]
	return 2 * float64(common) / float64(len(a)+len(b))
}

func duplicateImpact(block *DuplicateBlock) float64 {
	impact := float64(block.Patterns[0].LineCount*(len(block.Patterns)-1)) / 10.0
	if impact > 10 {
		impact = 10
	}
	return impact
}

func (d *DuplicateCodeDetector) extractGoPatterns(actx *analysis.Context) []*CodePattern {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, actx.FilePath, actx.FileContent, parser.ParseComments)
	if err != nil {
		return nil
	}

	lines := actx.Lines()
	var patterns []*CodePattern

	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Body == nil {
			continue
		}

		start := fset.Position(fn.Pos()).Line
		end := fset.Position(fn.End()).Line
		bodyStart := fset.Position(fn.Body.Lbrace).Line + 1
		if p := d.buildPattern("function", fn.Name.Name, actx.FilePath, lines, start, end, bodyStart, "//"); p != nil {
			patterns = append(patterns, p)
		}

		ast.Inspect(fn.Body, func(n ast.Node) bool {
			var body *ast.BlockStmt
			switch stmt := n.(type) {
			case *ast.ForStmt:
				body = stmt.Body
			case *ast.RangeStmt:
				body = stmt.Body
			default:
				return true
			}
			start := fset.Position(n.Pos()).Line
			end := fset.Position(body.End()).Line
			if p := d.buildPattern("block", fmt.Sprintf("%s loop at line %d", fn.Name.Name, start), actx.FilePath, lines, start, end, start, "//"); p != nil {
				patterns = append(patterns, p)
			}
			return true
		})
	}

	return patterns
}

var pythonLoopPattern = regexp.MustCompile(`^\s*(?:async\s+)?(?:for|while)\b.*:`)

func (d *DuplicateCodeDetector) extractPythonPatterns(actx *analysis.Context) []*CodePattern {
	lines := actx.Lines()
	var patterns []*CodePattern

	for _, block := range pysource.ExtractBlocks(lines) {
		kind := "function"
		if block.Kind == pysource.KindClass {
			kind = "class"
		}
		if p := d.buildPattern(kind, block.Name, actx.FilePath, lines, block.StartLine, block.EndLine, block.StartLine+1, "#"); p != nil {
			patterns = append(patterns, p)
		}
	}

	for i, line := range lines {
		if !pythonLoopPattern.MatchString(line) {
			continue
		}
		start := i + 1
		end := pysource.BlockEnd(lines, start)
		if p := d.buildPattern("block", fmt.Sprintf("loop at line %d", start), actx.FilePath, lines, start, end, start, "#"); p != nil {
			patterns = append(patterns, p)
		}
	}

	return patterns
}

// buildPattern normalizes the 1-based inclusive line range and hashes it.
// For functions and classes bodyStart skips the signature so renamed copies
// still collide. Regions with fewer than minLines meaningful lines are
// skipped.
func (d *DuplicateCodeDetector) buildPattern(kind, name, filePath string, lines []string, startLine, endLine, bodyStart int, commentMarker string) *CodePattern {
	if startLine < 1 || endLine > len(lines) || startLine > endLine {
		return nil
	}
	if bodyStart < startLine {
		bodyStart = startLine
	}
	if bodyStart > endLine {
		return nil
	}

	var normalized []string
	for _, line := range lines[bodyStart-1 : endLine] {
		code := stripLineComment(line, commentMarker)
		fields := strings.Fields(code)
		if len(fields) == 0 {
			continue
		}
		normalized = append(normalized, strings.Join(fields, " "))
	}

	if len(normalized) < d.minLines {
		return nil
	}

	sum := sha256.Sum256([]byte(strings.Join(normalized, "\n")))
	return &CodePattern{
		Hash:       fmt.Sprintf("%x", sum)[:16],
		Kind:       kind,
		Name:       name,
		FilePath:   filePath,
		StartLine:  startLine,
		EndLine:    endLine,
		LineCount:  len(normalized),
		normalized: normalized,
	}
}

// stripLineComment removes a trailing line comment, ignoring markers that
// appear inside single or double quoted strings
func stripLineComment(line, marker string) string {
	var quote byte
	for i := 0; i+len(marker) <= len(line); i++ {
		c := line[i]
		if quote != 0 {
			if c == '\\' {
				i++
				continue
			}
			if c == quote {
				quote = 0
			}
			continue
		}
		if c == '"' || c == '\'' || c == '`' {
			quote = c
			continue
		}
		if strings.HasPrefix(line[i:], marker) {
			return line[:i]
		}
	}
	return line
}
