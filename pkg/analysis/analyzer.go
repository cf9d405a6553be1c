package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/codesweep/codesweep/pkg/logger"
)

// Analyzer is the contract every analysis component implements. Analyze
// returns an error only for infrastructure faults; findings and per-file
// failures travel inside the Result.
type Analyzer interface {
	Name() string
	AnalysisType() string

	// SupportedLanguages lists the languages the analyzer understands.
	// An empty list means the analyzer accepts every language.
	SupportedLanguages() []string

	Analyze(ctx context.Context, actx *Context) (*Result, error)
}

// RunnerConfig controls the behavior shared by all analyzer invocations
type RunnerConfig struct {
	UseCache        bool
	CacheExpiration time.Duration
	Timeout         time.Duration
}

// DefaultRunnerConfig returns the standard runner settings
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		UseCache:        true,
		CacheExpiration: 30 * time.Minute,
		Timeout:         30 * time.Second,
	}
}

// Runner wraps an Analyzer with the cross-cutting behavior the scan pipeline
// relies on: language gating, result caching keyed by (analyzer, path,
// content hash), execution timing, and panic/error capture. Errors never
// escape Run; they are folded into a failed Result.
type Runner struct {
	analyzer Analyzer
	cache    *ResultCache
	config   RunnerConfig
	logger   *logger.Logger
}

// NewRunner creates a runner around an analyzer with a shared result cache
func NewRunner(analyzer Analyzer, cache *ResultCache, config RunnerConfig) *Runner {
	if config.CacheExpiration == 0 {
		config.CacheExpiration = 30 * time.Minute
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &Runner{
		analyzer: analyzer,
		cache:    cache,
		config:   config,
		logger:   logger.GetLogger().WithPrefix("runner"),
	}
}

// Analyzer returns the wrapped analyzer
func (r *Runner) Analyzer() Analyzer {
	return r.analyzer
}

// Supports reports whether the wrapped analyzer understands the language
func (r *Runner) Supports(language string) bool {
	supported := r.analyzer.SupportedLanguages()
	if len(supported) == 0 {
		return true
	}
	for _, lang := range supported {
		if lang == language {
			return true
		}
	}
	return false
}

// Run executes the analyzer against the context. Unsupported languages,
// analyzer errors, and panics all produce a failed Result rather than an
// error so one file can never abort a whole scan.
func (r *Runner) Run(ctx context.Context, actx *Context) (result *Result) {
	started := time.Now()

	defer func() {
		if recovered := recover(); recovered != nil {
			r.logger.Error("analyzer %s panicked on %s: %v", r.analyzer.Name(), actx.FilePath, recovered)
			result = NewFailedResult(r.analyzer.Name(), r.analyzer.AnalysisType(), actx,
				fmt.Sprintf("analyzer panic: %v", recovered))
			result.ExecutionTime = time.Since(started)
		}
	}()

	if !r.Supports(actx.Language) {
		result = NewFailedResult(r.analyzer.Name(), r.analyzer.AnalysisType(), actx,
			fmt.Sprintf("language not supported: %s", actx.Language))
		result.ExecutionTime = time.Since(started)
		return result
	}

	if r.config.UseCache && r.cache != nil {
		if cached := r.cache.Get(r.analyzer.Name(), actx); cached != nil {
			r.logger.Debug("cache hit for %s on %s", r.analyzer.Name(), actx.FilePath)
			return cached
		}
	}

	runCtx := ctx
	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}

	analyzed, err := r.analyzer.Analyze(runCtx, actx)
	if err != nil {
		r.logger.Warn("analyzer %s failed on %s: %v", r.analyzer.Name(), actx.FilePath, err)
		result = NewFailedResult(r.analyzer.Name(), r.analyzer.AnalysisType(), actx, err.Error())
		result.ExecutionTime = time.Since(started)
		return result
	}
	if analyzed == nil {
		result = NewFailedResult(r.analyzer.Name(), r.analyzer.AnalysisType(), actx,
			"analyzer returned no result")
		result.ExecutionTime = time.Since(started)
		return result
	}

	analyzed.ExecutionTime = time.Since(started)

	// Successful results are always written back so a later run with
	// caching enabled can reuse them.
	if r.cache != nil && analyzed.Success {
		r.cache.Set(r.analyzer.Name(), actx, analyzed)
	}

	return analyzed
}
