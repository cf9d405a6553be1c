package analysis

import (
	"context"

	"github.com/codesweep/codesweep/pkg/logger"
)

// Pipeline runs an ordered set of analyzers over one context. Analyzers
// that do not support the context's language are skipped; individual
// analyzer failures are carried in their results and never stop the rest
// of the pipeline.
type Pipeline struct {
	runners []*Runner
	cache   *ResultCache
	config  RunnerConfig
	logger  *logger.Logger
}

// NewPipeline creates a pipeline with a shared in-memory result cache
func NewPipeline(config RunnerConfig) *Pipeline {
	return NewPipelineWithCache(config, NewResultCache(config.CacheExpiration))
}

// NewPipelineWithCache creates a pipeline around an existing result cache
func NewPipelineWithCache(config RunnerConfig, cache *ResultCache) *Pipeline {
	return &Pipeline{
		cache:  cache,
		config: config,
		logger: logger.GetLogger().WithPrefix("pipeline"),
	}
}

// Register appends an analyzer to the pipeline in execution order
func (p *Pipeline) Register(analyzer Analyzer) {
	p.runners = append(p.runners, NewRunner(analyzer, p.cache, p.config))
}

// AnalyzerNames returns the registered analyzer names in execution order
func (p *Pipeline) AnalyzerNames() []string {
	names := make([]string, 0, len(p.runners))
	for _, runner := range p.runners {
		names = append(names, runner.Analyzer().Name())
	}
	return names
}

// Cache exposes the shared result cache
func (p *Pipeline) Cache() *ResultCache {
	return p.cache
}

// Run executes every analyzer that supports the context's language and
// returns their results in registration order
func (p *Pipeline) Run(ctx context.Context, actx *Context) []*Result {
	results := make([]*Result, 0, len(p.runners))

	for _, runner := range p.runners {
		if ctx.Err() != nil {
			p.logger.Warn("pipeline canceled while analyzing %s", actx.FilePath)
			break
		}
		if !runner.Supports(actx.Language) {
			continue
		}
		results = append(results, runner.Run(ctx, actx))
	}

	return results
}

// RunMerged executes the pipeline and folds all results into one
func (p *Pipeline) RunMerged(ctx context.Context, actx *Context) *Result {
	merged := NewResult("pipeline", "combined", actx)
	for _, result := range p.Run(ctx, actx) {
		merged.Merge(result)
	}
	return merged
}
