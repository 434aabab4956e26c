// Package quality evaluates generation results before they are committed.
//
// Gates are pure with respect to workspace state: they inspect the result
// object, never live files, so evaluation is repeatable. The engine only
// depends on the Gate interface; callers substitute static-analysis,
// schema-validation, or test-execution gates without engine changes.
package quality

import (
	"fmt"
	"strings"

	"github.com/weftworks/weft/pkg/models"
)

// Gate is the pluggable evaluator applied to a task's output.
type Gate interface {
	Evaluate(result *models.GenerationResult) models.QualityCheckResult
}

// AlwaysPass is the default gate: every result passes with a full score.
type AlwaysPass struct{}

// Evaluate implements Gate.
func (AlwaysPass) Evaluate(result *models.GenerationResult) models.QualityCheckResult {
	return models.QualityCheckResult{
		TaskID: result.TaskID,
		Passed: true,
		Score:  1.0,
	}
}

// Threshold is a structural gate: it scores the result object and fails
// it below the configured threshold or on any blocking issue.
type Threshold struct {
	// MinScore is the minimum passing score in [0, 1].
	MinScore float64
}

// NewThreshold creates a Threshold gate with the given minimum score.
func NewThreshold(minScore float64) *Threshold {
	return &Threshold{MinScore: minScore}
}

// Evaluate implements Gate. Scoring starts from 1.0 and deducts for
// structural defects; empty output and duplicate paths are blocking.
func (g *Threshold) Evaluate(result *models.GenerationResult) models.QualityCheckResult {
	qc := models.QualityCheckResult{TaskID: result.TaskID, Score: 1.0}

	if len(result.Files) == 0 {
		qc.Issues = append(qc.Issues, models.QualityIssue{
			Severity: models.SeverityBlocking,
			Message:  "result contains no files",
		})
	}

	seen := make(map[string]bool, len(result.Files))
	for _, f := range result.Files {
		if strings.TrimSpace(f.Content) == "" {
			qc.Issues = append(qc.Issues, models.QualityIssue{
				Severity: models.SeverityBlocking,
				Message:  "empty file content",
				Path:     f.Path,
			})
		}
		if seen[f.Path] {
			qc.Issues = append(qc.Issues, models.QualityIssue{
				Severity: models.SeverityBlocking,
				Message:  "duplicate output path",
				Path:     f.Path,
			})
		}
		seen[f.Path] = true
	}

	for _, w := range result.Warnings {
		qc.Issues = append(qc.Issues, models.QualityIssue{
			Severity: models.SeverityWarning,
			Message:  w,
		})
		qc.Score -= 0.1
	}
	if qc.Score < 0 {
		qc.Score = 0
	}

	qc.Passed = qc.Score >= g.MinScore && !qc.Blocking()
	return qc
}

// Issues renders a QualityCheckResult's findings as short strings, used
// in failure messages.
func Issues(qc models.QualityCheckResult) []string {
	out := make([]string, 0, len(qc.Issues))
	for _, issue := range qc.Issues {
		if issue.Path != "" {
			out = append(out, fmt.Sprintf("%s: %s (%s)", issue.Severity, issue.Message, issue.Path))
		} else {
			out = append(out, fmt.Sprintf("%s: %s", issue.Severity, issue.Message))
		}
	}
	return out
}
