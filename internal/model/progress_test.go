package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkCompletedRecomputesPercent(t *testing.T) {
	p := Progress{Username: "alice", TotalModules: 3}

	p = p.MarkCompleted(0)
	assert.Equal(t, []int{0}, p.CompletedModules)
	assert.Equal(t, 1, p.CurrentModule)
	assert.InDelta(t, 33, p.OverallProgress, 0.001)

	p = p.MarkCompleted(1)
	assert.InDelta(t, 67, p.OverallProgress, 0.001)

	p = p.MarkCompleted(2)
	assert.InDelta(t, 100, p.OverallProgress, 0.001)
	assert.True(t, p.Done())
}

func TestMarkCompletedIsMonotonicAndIdempotent(t *testing.T) {
	p := Progress{TotalModules: 4, CompletedModules: []int{1}}

	again := p.MarkCompleted(1)
	assert.Equal(t, p, again, "re-completing a module must not change anything")

	next := p.MarkCompleted(3)
	assert.Len(t, next.CompletedModules, 2)
	// The original value is untouched; MarkCompleted copies.
	assert.Equal(t, []int{1}, p.CompletedModules)
}

func TestPercentEdgeCases(t *testing.T) {
	assert.Equal(t, 0.0, Percent(3, 0), "zero total must not divide")
	assert.Equal(t, 0.0, Percent(0, 5))
	assert.Equal(t, 100.0, Percent(7, 5), "overflow clamps to 100")
}
