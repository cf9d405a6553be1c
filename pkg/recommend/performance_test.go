package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesweep/codesweep/pkg/analysis"
)

func recommendationsByCategory(recs []*Recommendation) map[string][]*Recommendation {
	byCategory := make(map[string][]*Recommendation)
	for _, rec := range recs {
		byCategory[rec.Category] = append(byCategory[rec.Category], rec)
	}
	return byCategory
}

func TestPerformanceAnalyzerPython(t *testing.T) {
	source := `def process(matrix):
    results = []
    for row in matrix:
        for cell in row:
            value = transform(cell) + transform(cell)
            results.append(value)
    pairs = [x * y for x in results for y in results if x != y]
    return pairs
`
	analyzer := NewPerformanceAnalyzer()
	recs := analyzer.Analyze(analysis.NewContext("proj", "sample.py", source))
	byCategory := recommendationsByCategory(recs)

	nested := byCategory[CategoryNestedLoops]
	require.Len(t, nested, 1)
	assert.Equal(t, 4, nested[0].LineNumber)
	assert.Equal(t, analysis.SeverityMedium, nested[0].Severity)

	invariant := byCategory[CategoryInvariantCall]
	require.Len(t, invariant, 1)
	assert.Equal(t, 5, invariant[0].LineNumber)
	assert.Contains(t, invariant[0].Description, "transform(cell)")
	assert.Contains(t, invariant[0].Description, "2 times")

	comprehension := byCategory[CategoryComplexComprehension]
	require.Len(t, comprehension, 1)
	assert.Equal(t, 7, comprehension[0].LineNumber)
	assert.Equal(t, analysis.SeverityLow, comprehension[0].Severity)
}

func TestPerformanceAnalyzerGoNestedLoops(t *testing.T) {
	source := `package sample

func pairs(items []int) int {
	count := 0
	for i := range items {
		for j := range items {
			if items[i] == items[j] {
				count++
			}
		}
	}
	return count
}
`
	analyzer := NewPerformanceAnalyzer()
	recs := analyzer.Analyze(analysis.NewContext("proj", "sample.go", source))

	require.Len(t, recs, 1)
	assert.Equal(t, CategoryNestedLoops, recs[0].Category)
	assert.Equal(t, 6, recs[0].LineNumber)
	assert.Contains(t, recs[0].Description, "2 levels")
}

func TestPerformanceAnalyzerGoRepeatedCalls(t *testing.T) {
	source := `package sample

import "strings"

func shout(words []string, tag string) []string {
	var out []string
	for _, w := range words {
		out = append(out, strings.ToUpper(tag)+w)
		out = append(out, strings.ToUpper(tag))
	}
	return out
}
`
	analyzer := NewPerformanceAnalyzer()
	recs := analyzer.Analyze(analysis.NewContext("proj", "sample.go", source))

	require.Len(t, recs, 1)
	assert.Equal(t, CategoryInvariantCall, recs[0].Category)
	assert.Contains(t, recs[0].Description, "strings.ToUpper(tag)")
}

func TestPerformanceAnalyzerSingleLoopClean(t *testing.T) {
	source := `def total(values):
    acc = 0
    for v in values:
        acc += v
    return acc
`
	analyzer := NewPerformanceAnalyzer()
	assert.Empty(t, analyzer.Analyze(analysis.NewContext("proj", "sample.py", source)))
}

func TestPerformanceAnalyzerSimpleComprehensionClean(t *testing.T) {
	source := `def evens(values):
    return [v for v in values if v % 2 == 0]
`
	analyzer := NewPerformanceAnalyzer()
	assert.Empty(t, analyzer.Analyze(analysis.NewContext("proj", "sample.py", source)))
}

func TestPerformanceAnalyzerUnsupportedLanguage(t *testing.T) {
	analyzer := NewPerformanceAnalyzer()
	assert.Empty(t, analyzer.Analyze(analysis.NewContext("proj", "query.sql", "SELECT 1;")))
}
