// internal/reconcile/reconciler.go
//
// The Reconciler keeps a UI-visible resource consistent across two sources
// of truth, the remote API and the local cache, under partial failure. The
// web client repeated this try-remote-catch-fall-back dance inline in every
// screen; here it lives once, and gets tested once.
//
// Policy, per fetch:
//   - remote success always wins and is written through to the cache
//   - 404 is an authoritative negative: return Absent, never the cache
//   - transport/auth failures fall back to the cache, tagged Stale
//   - no cache either: Failed, carrying the remote error
//
// Per mutate:
//   - success caches the server-returned copy, never the submitted payload
//   - failure leaves the cache untouched; there is no optimistic commit and
//     therefore nothing to roll back

package reconcile

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kindrove/pathway/internal/api"
	"github.com/kindrove/pathway/internal/cache"
)

// Resource kinds. The derived cache keys (progress_alice,
// learningPath_alice) match the layout the web client keeps in
// localStorage, so a cache written by one survives a client swap.
const (
	ResourceProgress     = "progress"
	ResourceLearningPath = "learningPath"
)

// Status is the client-visible freshness of a fetched resource. Terminal
// per fetch call; the next fetch starts over from Unknown.
type Status int

const (
	StatusUnknown Status = iota
	StatusFresh          // remote answered; cache updated
	StatusStale          // remote failed; serving the cached copy
	StatusAbsent         // remote says the resource does not exist
	StatusFailed         // remote failed and there is no cached copy
)

func (s Status) String() string {
	switch s {
	case StatusFresh:
		return "fresh"
	case StatusStale:
		return "stale"
	case StatusAbsent:
		return "absent"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the outcome of one Fetch.
type Result[T any] struct {
	Status Status
	Value  T

	// WrittenAt is when the stale copy was cached; zero unless StatusStale.
	WrittenAt time.Time

	// Err is the remote error; set for StatusFailed, and for StatusStale so
	// callers can still report why the data may be outdated.
	Err error
}

// Reconciler mediates between the remote client and the local cache.
type Reconciler struct {
	store *cache.Store
	log   *zap.Logger
}

// New builds a Reconciler over the given cache store.
func New(store *cache.Store, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{store: store, log: log}
}

// Key derives the cache namespace and key for a resource owned by username.
func Key(kind, username string) (namespace, key string) {
	return kind + ":" + username, kind + "_" + username
}

// Fetch performs one remote read and reconciles the outcome with the cache.
// One round trip, no retries, no polling. Write-through is last-writer-wins:
// overlapping fetches for the same key are all semantically equivalent reads,
// so whichever lands last is as good as any.
func Fetch[T any](ctx context.Context, r *Reconciler, kind, username string, remote func(context.Context) (T, error)) Result[T] {
	ns, key := Key(kind, username)

	value, err := remote(ctx)
	if err == nil {
		if werr := r.store.Set(ns, key, value); werr != nil {
			// The caller still gets fresh data; only the fallback copy is at risk.
			r.log.Warn("write-through failed", zap.String("key", key), zap.Error(werr))
		}
		return Result[T]{Status: StatusFresh, Value: value}
	}

	if api.KindOf(err) == api.KindNotFound {
		// Authoritative absence. Deliberately does not consult the cache:
		// a 404 means any cached copy is an artifact of a deleted resource.
		return Result[T]{Status: StatusAbsent}
	}

	var cached T
	writtenAt, cerr := r.store.GetJSON(ns, key, &cached)
	if cerr != nil {
		return Result[T]{Status: StatusFailed, Err: err}
	}
	r.log.Info("serving stale cache",
		zap.String("key", key),
		zap.Time("written_at", writtenAt),
		zap.String("remote_error", api.KindOf(err).String()))
	return Result[T]{Status: StatusStale, Value: cached, WrittenAt: writtenAt, Err: err}
}

// Mutate performs one remote write. On success the server-returned
// representation is written through (the server recomputes derived fields,
// so the submitted payload is never cached) and returned. On failure the
// cache is untouched and the caller's in-memory draft stays editable.
func Mutate[T any](ctx context.Context, r *Reconciler, kind, username string, remote func(context.Context) (T, error)) (T, error) {
	value, err := remote(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	ns, key := Key(kind, username)
	if werr := r.store.Set(ns, key, value); werr != nil {
		r.log.Warn("write-through failed", zap.String("key", key), zap.Error(werr))
	}
	return value, nil
}

// Put writes a server-produced value through to the cache without a remote
// call. Used when one response carries another resource's authoritative copy
// (a quiz submission returns the new learning path).
func Put[T any](r *Reconciler, kind, username string, value T) error {
	ns, key := Key(kind, username)
	return r.store.Set(ns, key, value)
}

// Invalidate drops the cached copy of a resource, for mutations whose
// server response is the resource's disappearance (path deletion).
func (r *Reconciler) Invalidate(kind, username string) error {
	ns, key := Key(kind, username)
	return r.store.Delete(ns, key)
}
