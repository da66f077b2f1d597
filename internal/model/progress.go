// internal/model/progress.go
package model

import (
	"math"
	"slices"
)

// Progress tracks module completion for one user's active learning path.
// Completion is by module index into LearningPath.Modules; the backend
// recomputes OverallProgress on every update, so the value produced by
// MarkCompleted only ever travels in a request payload and is never cached.
type Progress struct {
	Username         string  `json:"username"`
	CompletedModules []int   `json:"completedModules"`
	CurrentModule    int     `json:"currentModule"`
	OverallProgress  float64 `json:"overallProgress"`
	TotalModules     int     `json:"totalModules"`
}

// IsCompleted reports whether the module at idx has been completed.
func (p Progress) IsCompleted(idx int) bool {
	return slices.Contains(p.CompletedModules, idx)
}

// Done reports whether every module is completed.
func (p Progress) Done() bool {
	return p.TotalModules > 0 && len(p.CompletedModules) >= p.TotalModules
}

// MarkCompleted returns a copy of the progress with idx added to the
// completed set. Indices are only ever added, never removed. Marking an
// already-completed module returns the receiver unchanged.
func (p Progress) MarkCompleted(idx int) Progress {
	if p.IsCompleted(idx) {
		return p
	}
	next := p
	next.CompletedModules = append(slices.Clone(p.CompletedModules), idx)
	next.CurrentModule = idx + 1
	next.OverallProgress = Percent(len(next.CompletedModules), next.TotalModules)
	return next
}

// Percent computes a completion percentage, rounded, clamped to [0,100].
func Percent(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	pct := math.Round(100 * float64(completed) / float64(total))
	return math.Min(pct, 100)
}
