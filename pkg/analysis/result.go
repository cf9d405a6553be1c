package analysis

import "time"

// Result is the uniform envelope every analyzer returns. Failures are
// carried as values (Success=false plus ErrorMessage) so a single broken
// file never aborts a scan.
type Result struct {
	AnalyzerName  string             `json:"analyzer_name"`
	AnalysisType  string             `json:"analysis_type"`
	Context       *Context           `json:"context,omitempty"`
	Success       bool               `json:"success"`
	ErrorMessage  string             `json:"error_message,omitempty"`
	Issues        []*Issue           `json:"issues"`
	Metrics       map[string]float64 `json:"metrics"`
	Suggestions   []string           `json:"suggestions"`
	ExecutionTime time.Duration      `json:"execution_time"`
}

// NewResult creates an empty successful result for the given analyzer and context
func NewResult(analyzerName, analysisType string, actx *Context) *Result {
	return &Result{
		AnalyzerName: analyzerName,
		AnalysisType: analysisType,
		Context:      actx,
		Success:      true,
		Issues:       []*Issue{},
		Metrics:      make(map[string]float64),
		Suggestions:  []string{},
	}
}

// NewFailedResult creates a failed result carrying the error message
func NewFailedResult(analyzerName, analysisType string, actx *Context, errorMessage string) *Result {
	result := NewResult(analyzerName, analysisType, actx)
	result.Success = false
	result.ErrorMessage = errorMessage
	return result
}

// AddIssue appends an issue, stamping it with the context's project and file
// attribution. Every issue belongs to exactly one (project, file) pair.
func (r *Result) AddIssue(issue *Issue) {
	if issue == nil {
		return
	}
	if r.Context != nil {
		issue.ProjectID = r.Context.ProjectID
		issue.FilePath = r.Context.FilePath
	}
	r.Issues = append(r.Issues, issue)
}

// AddSuggestion appends a free-form improvement suggestion
func (r *Result) AddSuggestion(suggestion string) {
	if suggestion == "" {
		return
	}
	r.Suggestions = append(r.Suggestions, suggestion)
}

// SetMetric records a named numeric observation
func (r *Result) SetMetric(name string, value float64) {
	if r.Metrics == nil {
		r.Metrics = make(map[string]float64)
	}
	r.Metrics[name] = value
}

// Merge folds another result into this one: issues and suggestions are
// concatenated, metrics are overlaid, execution times are summed, and a
// failure on either side marks the merged result failed.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}

	r.Issues = append(r.Issues, other.Issues...)
	r.Suggestions = append(r.Suggestions, other.Suggestions...)

	for name, value := range other.Metrics {
		r.SetMetric(name, value)
	}

	r.ExecutionTime += other.ExecutionTime

	if !other.Success {
		r.Success = false
		if r.ErrorMessage == "" {
			r.ErrorMessage = other.ErrorMessage
		} else if other.ErrorMessage != "" {
			r.ErrorMessage = r.ErrorMessage + "; " + other.ErrorMessage
		}
	}
}

// IssueCountBySeverity aggregates issue counts keyed by severity
func (r *Result) IssueCountBySeverity() map[Severity]int {
	counts := make(map[Severity]int)
	for _, issue := range r.Issues {
		counts[issue.Severity]++
	}
	return counts
}

// IssueCountByType aggregates issue counts keyed by issue type
func (r *Result) IssueCountByType() map[IssueType]int {
	counts := make(map[IssueType]int)
	for _, issue := range r.Issues {
		counts[issue.Type]++
	}
	return counts
}
