// Package recommend provides the recommendation engine: duplicate code
// detection, performance and security analysis, and design pattern checks
// that turn findings into actionable recommendations and quality issues.
package recommend

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codesweep/codesweep/pkg/analysis"
	"github.com/codesweep/codesweep/pkg/logger"
)

// EngineName identifies the recommendation engine analyzer
const EngineName = "recommendation_engine"

// maxSuggestions caps how many recommendation titles surface as suggestions
const maxSuggestions = 10

// RecommendationType represents the category of a recommendation
type RecommendationType int

const (
	// RecommendationDuplicateRemoval suggests extracting duplicated code
	RecommendationDuplicateRemoval RecommendationType = iota

	// RecommendationPerformanceOptimization suggests a performance improvement
	RecommendationPerformanceOptimization

	// RecommendationSecurityFix suggests remediating a security weakness
	RecommendationSecurityFix

	// RecommendationPatternImprovement suggests a structural cleanup
	RecommendationPatternImprovement
)

// String returns a string representation of the recommendation type
func (rt RecommendationType) String() string {
	switch rt {
	case RecommendationDuplicateRemoval:
		return "duplicate_removal"
	case RecommendationPerformanceOptimization:
		return "performance_optimization"
	case RecommendationSecurityFix:
		return "security_fix"
	case RecommendationPatternImprovement:
		return "pattern_improvement"
	default:
		return "unknown"
	}
}

// IssueType maps the recommendation type onto the issue taxonomy
func (rt RecommendationType) IssueType() analysis.IssueType {
	switch rt {
	case RecommendationDuplicateRemoval:
		return analysis.IssueTypeDuplication
	case RecommendationPerformanceOptimization:
		return analysis.IssueTypePerformance
	case RecommendationSecurityFix:
		return analysis.IssueTypeSecurity
	case RecommendationPatternImprovement:
		return analysis.IssueTypeMaintainability
	default:
		return analysis.IssueTypeMaintainability
	}
}

// Recommendation is a single improvement proposal tied to a location
type Recommendation struct {
	ID             string             `json:"id"`
	Type           RecommendationType `json:"type"`
	Category       string             `json:"category"`
	Title          string             `json:"title"`
	Description    string             `json:"description"`
	FilePath       string             `json:"file_path"`
	LineNumber     int                `json:"line_number"`
	EndLine        int                `json:"end_line,omitempty"`
	Severity       analysis.Severity  `json:"severity"`
	ImpactScore    float64            `json:"impact_score"`
	EffortEstimate string             `json:"effort_estimate"`
	CodeSnippet    string             `json:"code_snippet,omitempty"`
	SuggestedCode  string             `json:"suggested_code,omitempty"`
	Rationale      string             `json:"rationale,omitempty"`
	References     []string           `json:"references,omitempty"`
	Tags           []string           `json:"tags,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}

func newRecommendation(recType RecommendationType, category, title, description string) *Recommendation {
	return &Recommendation{
		ID:          uuid.New().String(),
		Type:        recType,
		Category:    category,
		Title:       title,
		Description: description,
		CreatedAt:   time.Now(),
	}
}

// EngineConfig controls which sub-analyzers run and their thresholds
type EngineConfig struct {
	EnableDuplicateDetection  bool
	EnablePerformanceAnalysis bool
	EnableSecurityAnalysis    bool
	EnablePatternAnalysis     bool

	MinDuplicateLines   int
	MinSimilarity       float64
	MaxFunctionLines    int
	MaxClassMethods     int
	MaxParameters       int
	MaxBooleanOperators int
}

// DefaultEngineConfig returns the standard engine settings with every
// sub-analyzer enabled
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		EnableDuplicateDetection:  true,
		EnablePerformanceAnalysis: true,
		EnableSecurityAnalysis:    true,
		EnablePatternAnalysis:     true,
		MinDuplicateLines:         6,
		MinSimilarity:             0.85,
		MaxFunctionLines:          50,
		MaxClassMethods:           20,
		MaxParameters:             6,
		MaxBooleanOperators:       4,
	}
}

// Engine composes the duplicate, performance, security and pattern
// analyzers into one analysis.Analyzer. Sub-analyzers run concurrently;
// their output is sorted so identical input always yields identical output.
type Engine struct {
	config      EngineConfig
	duplicates  *DuplicateCodeDetector
	performance *PerformanceAnalyzer
	security    *SecurityAnalyzer
	patterns    *PatternAnalyzer
	logger      *logger.Logger
}

// NewEngine creates a recommendation engine from the configuration
func NewEngine(config EngineConfig) *Engine {
	if config.MinDuplicateLines == 0 {
		config.MinDuplicateLines = 6
	}
	if config.MinSimilarity == 0 {
		config.MinSimilarity = 0.85
	}
	if config.MaxFunctionLines == 0 {
		config.MaxFunctionLines = 50
	}
	if config.MaxClassMethods == 0 {
		config.MaxClassMethods = 20
	}
	if config.MaxParameters == 0 {
		config.MaxParameters = 6
	}
	if config.MaxBooleanOperators == 0 {
		config.MaxBooleanOperators = 4
	}

	engine := &Engine{
		config: config,
		logger: logger.GetLogger().WithPrefix("recommend"),
	}

	if config.EnableDuplicateDetection {
		engine.duplicates = NewDuplicateCodeDetector(config.MinDuplicateLines, config.MinSimilarity)
	}
	if config.EnablePerformanceAnalysis {
		engine.performance = NewPerformanceAnalyzer()
	}
	if config.EnableSecurityAnalysis {
		engine.security = NewSecurityAnalyzer()
	}
	if config.EnablePatternAnalysis {
		engine.patterns = NewPatternAnalyzer(PatternThresholds{
			MaxFunctionLines:    config.MaxFunctionLines,
			MaxClassMethods:     config.MaxClassMethods,
			MaxParameters:       config.MaxParameters,
			MaxBooleanOperators: config.MaxBooleanOperators,
		})
	}

	return engine
}

// Name implements analysis.Analyzer
func (e *Engine) Name() string {
	return EngineName
}

// AnalysisType implements analysis.Analyzer
func (e *Engine) AnalysisType() string {
	return "recommendation"
}

// SupportedLanguages implements analysis.Analyzer
func (e *Engine) SupportedLanguages() []string {
	return []string{analysis.LangGo, analysis.LangPython}
}

// Analyze runs every enabled sub-analyzer over the context and converts
// the combined recommendations into issues. Sub-analyzer failures degrade
// to an empty contribution rather than failing the whole analysis.
func (e *Engine) Analyze(ctx context.Context, actx *analysis.Context) (*analysis.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := analysis.NewResult(EngineName, "recommendation", actx)
	recommendations := e.Recommend(actx)

	counts := map[RecommendationType]int{}
	for _, rec := range recommendations {
		counts[rec.Type]++
		result.AddIssue(recommendationToIssue(rec))
	}

	for i, rec := range recommendations {
		if i == maxSuggestions {
			break
		}
		result.AddSuggestion(rec.Title)
	}

	result.SetMetric("total_recommendations", float64(len(recommendations)))
	result.SetMetric("duplicate_recommendations", float64(counts[RecommendationDuplicateRemoval]))
	result.SetMetric("performance_recommendations", float64(counts[RecommendationPerformanceOptimization]))
	result.SetMetric("security_recommendations", float64(counts[RecommendationSecurityFix]))
	result.SetMetric("pattern_recommendations", float64(counts[RecommendationPatternImprovement]))

	return result, nil
}

// Recommend runs the sub-analyzers concurrently and returns their combined
// recommendations in a deterministic order
func (e *Engine) Recommend(actx *analysis.Context) []*Recommendation {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var recommendations []*Recommendation

	collect := func(name string, run func(*analysis.Context) []*Recommendation) {
		defer wg.Done()
		defer func() {
			if recovered := recover(); recovered != nil {
				e.logger.Error("%s analyzer panicked on %s: %v", name, actx.FilePath, recovered)
			}
		}()

		found := run(actx)
		mu.Lock()
		recommendations = append(recommendations, found...)
		mu.Unlock()
	}

	if e.duplicates != nil {
		wg.Add(1)
		go collect("duplicate", e.duplicates.Detect)
	}
	if e.performance != nil {
		wg.Add(1)
		go collect("performance", e.performance.Analyze)
	}
	if e.security != nil {
		wg.Add(1)
		go collect("security", e.security.Analyze)
	}
	if e.patterns != nil {
		wg.Add(1)
		go collect("pattern", e.patterns.Analyze)
	}

	wg.Wait()

	sort.SliceStable(recommendations, func(i, j int) bool {
		a, b := recommendations[i], recommendations[j]
		if a.LineNumber != b.LineNumber {
			return a.LineNumber < b.LineNumber
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.Title < b.Title
	})

	for _, rec := range recommendations {
		rec.FilePath = actx.FilePath
	}

	return recommendations
}

func recommendationToIssue(rec *Recommendation) *analysis.Issue {
	issue := analysis.NewIssue(rec.Type.IssueType(), rec.Severity, rec.Category, rec.Description).
		WithLocation(rec.LineNumber, 1)
	if rec.SuggestedCode != "" {
		issue.WithSuggestedFix(rec.SuggestedCode)
	} else if rec.Rationale != "" {
		issue.WithSuggestedFix(rec.Rationale)
	}
	return issue
}
