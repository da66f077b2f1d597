package reconcile

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kindrove/pathway/internal/api"
	"github.com/kindrove/pathway/internal/cache"
	"github.com/kindrove/pathway/internal/model"
)

func newReconciler(t *testing.T) *Reconciler {
	t.Helper()
	store, err := cache.New(t.TempDir())
	require.NoError(t, err)
	return New(store, zap.NewNop())
}

func remoteOK(p model.Progress) func(context.Context) (model.Progress, error) {
	return func(context.Context) (model.Progress, error) { return p, nil }
}

func remoteErr(kind api.Kind) func(context.Context) (model.Progress, error) {
	return func(context.Context) (model.Progress, error) {
		return model.Progress{}, &api.Error{Kind: kind, Status: statusFor(kind), Message: "remote says no"}
	}
}

func statusFor(kind api.Kind) int {
	switch kind {
	case api.KindNotFound:
		return http.StatusNotFound
	case api.KindUnauthorized:
		return http.StatusUnauthorized
	case api.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func TestFetchWritesThroughOnSuccess(t *testing.T) {
	r := newReconciler(t)
	p := model.Progress{Username: "alice", CompletedModules: []int{0, 1}, TotalModules: 4, OverallProgress: 50}

	res := Fetch(context.Background(), r, ResourceProgress, "alice", remoteOK(p))
	require.Equal(t, StatusFresh, res.Status)
	assert.Equal(t, p, res.Value)

	// Write-through consistency: the returned value equals what was cached.
	var cached model.Progress
	_, err := r.store.GetJSON("progress:alice", "progress_alice", &cached)
	require.NoError(t, err)
	assert.Equal(t, p, cached)
}

func TestFetchSuccessOverridesOlderCache(t *testing.T) {
	r := newReconciler(t)
	stale := model.Progress{Username: "alice", TotalModules: 4, OverallProgress: 25}
	require.NoError(t, Put(r, ResourceProgress, "alice", stale))

	fresh := model.Progress{Username: "alice", TotalModules: 4, OverallProgress: 75}
	res := Fetch(context.Background(), r, ResourceProgress, "alice", remoteOK(fresh))
	require.Equal(t, StatusFresh, res.Status)
	assert.Equal(t, fresh, res.Value, "cache never overrides a successful remote read")
}

func TestFetchStaleFallbackOnTransportFailure(t *testing.T) {
	r := newReconciler(t)
	cachedCopy := model.Progress{Username: "alice", CompletedModules: []int{0}, TotalModules: 3}
	require.NoError(t, Put(r, ResourceProgress, "alice", cachedCopy))

	res := Fetch(context.Background(), r, ResourceProgress, "alice", remoteErr(api.KindTransport))
	require.Equal(t, StatusStale, res.Status)
	assert.Equal(t, cachedCopy, res.Value)
	assert.False(t, res.WrittenAt.IsZero())
	assert.Error(t, res.Err, "stale results still carry the remote error")
}

func TestFetchStaleFallbackOnAuthFailures(t *testing.T) {
	for _, kind := range []api.Kind{api.KindUnauthorized, api.KindForbidden} {
		t.Run(kind.String(), func(t *testing.T) {
			r := newReconciler(t)
			cachedCopy := model.Progress{Username: "alice", TotalModules: 5}
			require.NoError(t, Put(r, ResourceProgress, "alice", cachedCopy))

			res := Fetch(context.Background(), r, ResourceProgress, "alice", remoteErr(kind))
			assert.Equal(t, StatusStale, res.Status)
			assert.Equal(t, cachedCopy, res.Value)
		})
	}
}

func TestFetchNotFoundIsAbsentRegardlessOfCache(t *testing.T) {
	r := newReconciler(t)
	require.NoError(t, Put(r, ResourceProgress, "alice", model.Progress{Username: "alice", TotalModules: 3}))

	res := Fetch(context.Background(), r, ResourceProgress, "alice", remoteErr(api.KindNotFound))
	assert.Equal(t, StatusAbsent, res.Status)
	assert.Zero(t, res.Value, "404 is authoritative; the cache is not consulted")
	assert.NoError(t, res.Err)
}

func TestFetchFailedWhenNoCache(t *testing.T) {
	r := newReconciler(t)
	res := Fetch(context.Background(), r, ResourceProgress, "alice", remoteErr(api.KindTransport))
	assert.Equal(t, StatusFailed, res.Status)
	assert.Error(t, res.Err)
}

func TestFetchIsIdempotent(t *testing.T) {
	r := newReconciler(t)
	p := model.Progress{Username: "alice", CompletedModules: []int{2}, TotalModules: 3}

	first := Fetch(context.Background(), r, ResourceProgress, "alice", remoteOK(p))
	second := Fetch(context.Background(), r, ResourceProgress, "alice", remoteOK(p))
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.Value, second.Value)
}

func TestOverlappingFetchesLastWriterWins(t *testing.T) {
	r := newReconciler(t)
	a := model.Progress{Username: "alice", OverallProgress: 10, TotalModules: 10}
	b := model.Progress{Username: "alice", OverallProgress: 20, TotalModules: 10}

	// Two in-flight reads for the same key resolving out of order: the
	// later write-through determines the cached value.
	_ = Fetch(context.Background(), r, ResourceProgress, "alice", remoteOK(a))
	_ = Fetch(context.Background(), r, ResourceProgress, "alice", remoteOK(b))

	var cached model.Progress
	_, err := r.store.GetJSON("progress:alice", "progress_alice", &cached)
	require.NoError(t, err)
	assert.Equal(t, b, cached)
}

func TestMutateCachesServerCopyNotPayload(t *testing.T) {
	r := newReconciler(t)

	// The server recomputes OverallProgress; the submitted payload carries a
	// client-side estimate that must never be cached.
	serverCopy := model.Progress{Username: "alice", CompletedModules: []int{0}, TotalModules: 3, OverallProgress: 33}
	got, err := Mutate(context.Background(), r, ResourceProgress, "alice", remoteOK(serverCopy))
	require.NoError(t, err)
	assert.Equal(t, serverCopy, got)

	var cached model.Progress
	_, err = r.store.GetJSON("progress:alice", "progress_alice", &cached)
	require.NoError(t, err)
	assert.Equal(t, serverCopy, cached)
}

func TestMutateFailureLeavesCacheUntouched(t *testing.T) {
	r := newReconciler(t)
	before := model.Progress{Username: "alice", CompletedModules: []int{0}, TotalModules: 3}
	require.NoError(t, Put(r, ResourceProgress, "alice", before))

	_, err := Mutate(context.Background(), r, ResourceProgress, "alice", remoteErr(api.KindTransport))
	require.Error(t, err)

	var cached model.Progress
	_, gerr := r.store.GetJSON("progress:alice", "progress_alice", &cached)
	require.NoError(t, gerr)
	assert.Equal(t, before, cached, "no optimistic commit, nothing to roll back")
}

func TestInvalidateDropsEntry(t *testing.T) {
	r := newReconciler(t)
	require.NoError(t, Put(r, ResourceLearningPath, "alice", model.LearningPath{Title: "Java"}))
	require.NoError(t, r.Invalidate(ResourceLearningPath, "alice"))

	res := Fetch(context.Background(), r, ResourceLearningPath, "alice",
		func(context.Context) (model.LearningPath, error) {
			return model.LearningPath{}, &api.Error{Kind: api.KindTransport, Message: "down"}
		})
	assert.Equal(t, StatusFailed, res.Status)
}
