package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesweep/codesweep/pkg/analysis"
)

func TestPatternAnalyzerPython(t *testing.T) {
	source := `class Hub:
    def a(self):
        return 1

    def b(self):
        return 2

    def c(self):
        return 3

def wide(a, b, c):
    return a + b + c

def long_one(x):
    y = x + 1
    z = y * 2
    w = z - 3
    return w

def pick(p, q):
    if p and q and p > q:
        return p
    return q
`
	analyzer := NewPatternAnalyzer(PatternThresholds{
		MaxFunctionLines:    4,
		MaxClassMethods:     2,
		MaxParameters:       2,
		MaxBooleanOperators: 2,
	})
	recs := analyzer.Analyze(analysis.NewContext("proj", "sample.py", source))
	byCategory := recommendationsByCategory(recs)

	godClass := byCategory[CategoryGodClass]
	require.Len(t, godClass, 1)
	assert.Equal(t, 1, godClass[0].LineNumber)
	assert.Contains(t, godClass[0].Description, "Hub")
	assert.Contains(t, godClass[0].Description, "3 methods")

	params := byCategory[CategoryTooManyParameters]
	require.Len(t, params, 1)
	assert.Contains(t, params[0].Description, "wide")
	assert.Contains(t, params[0].Description, "3 parameters")

	long := byCategory[CategoryLongFunction]
	require.Len(t, long, 1)
	assert.Contains(t, long[0].Description, "long_one")

	condition := byCategory[CategoryComplexCondition]
	require.Len(t, condition, 1)
	assert.Equal(t, 21, condition[0].LineNumber)
}

func TestPatternAnalyzerGo(t *testing.T) {
	source := `package sample

type store struct{}

func (s *store) Get() int { return 1 }
func (s *store) Put() int { return 2 }
func (s *store) Del() int { return 3 }

func heavy(a, b, c int) int {
	if a > 0 && b > 0 && c > 0 {
		return a
	}
	return b
}
`
	analyzer := NewPatternAnalyzer(PatternThresholds{
		MaxFunctionLines:    6,
		MaxClassMethods:     2,
		MaxParameters:       2,
		MaxBooleanOperators: 2,
	})
	recs := analyzer.Analyze(analysis.NewContext("proj", "sample.go", source))
	byCategory := recommendationsByCategory(recs)

	godClass := byCategory[CategoryGodClass]
	require.Len(t, godClass, 1)
	assert.Contains(t, godClass[0].Description, "store")

	params := byCategory[CategoryTooManyParameters]
	require.Len(t, params, 1)
	assert.Contains(t, params[0].Description, "heavy")

	condition := byCategory[CategoryComplexCondition]
	require.Len(t, condition, 1)
	assert.Equal(t, 10, condition[0].LineNumber)

	assert.Empty(t, byCategory[CategoryLongFunction])
}

func TestPatternAnalyzerGroupedGoParams(t *testing.T) {
	source := `package sample

func blend(a, b, c int, scale float64) int {
	return int(float64(a+b+c) * scale)
}
`
	analyzer := NewPatternAnalyzer(PatternThresholds{
		MaxFunctionLines:    50,
		MaxClassMethods:     20,
		MaxParameters:       3,
		MaxBooleanOperators: 4,
	})
	recs := analyzer.Analyze(analysis.NewContext("proj", "sample.go", source))

	require.Len(t, recs, 1)
	assert.Equal(t, CategoryTooManyParameters, recs[0].Category)
	assert.Contains(t, recs[0].Description, "4 parameters")
}

func TestPatternAnalyzerNestedHelpersNotMethods(t *testing.T) {
	source := `class Small:
    def outer(self):
        def inner_a():
            return 1
        def inner_b():
            return 2
        def inner_c():
            return 3
        return inner_a() + inner_b() + inner_c()
`
	analyzer := NewPatternAnalyzer(PatternThresholds{
		MaxFunctionLines:    50,
		MaxClassMethods:     2,
		MaxParameters:       6,
		MaxBooleanOperators: 4,
	})
	recs := analyzer.Analyze(analysis.NewContext("proj", "sample.py", source))
	byCategory := recommendationsByCategory(recs)
	assert.Empty(t, byCategory[CategoryGodClass])
}

func TestPatternAnalyzerCleanSourceQuiet(t *testing.T) {
	source := `package sample

func add(a, b int) int {
	return a + b
}
`
	analyzer := NewPatternAnalyzer(PatternThresholds{
		MaxFunctionLines:    50,
		MaxClassMethods:     20,
		MaxParameters:       6,
		MaxBooleanOperators: 4,
	})
	assert.Empty(t, analyzer.Analyze(analysis.NewContext("proj", "sample.go", source)))
}
