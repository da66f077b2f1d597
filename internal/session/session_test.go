package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kindrove/pathway/internal/api"
	"github.com/kindrove/pathway/internal/cache"
	"github.com/kindrove/pathway/internal/model"
)

func newFixture(t *testing.T, handler http.Handler) (*Session, *cache.Store) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	store, err := cache.New(t.TempDir())
	require.NoError(t, err)
	client := api.New(srv.URL, 2*time.Second, zap.NewNop())
	return New(client, store, zap.NewNop()), store
}

func loginHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			_ = json.NewEncoder(w).Encode(model.Identity{Username: "alice", Role: "USER", Token: "tok-abc"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func TestLoginPersistsIdentity(t *testing.T) {
	s, store := newFixture(t, loginHandler())

	require.NoError(t, s.Login(context.Background(), "alice", "secret"))
	id, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "alice", id.Username)
	assert.Equal(t, "tok-abc", s.Token())

	var token string
	_, err := store.GetJSON("identity", "token", &token)
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", token)

	var persisted model.Identity
	_, err = store.GetJSON("identity", "user", &persisted)
	require.NoError(t, err)
	assert.Empty(t, persisted.Token, "user entry must not duplicate the token")
}

func TestLoginValidationBlocksBeforeNetwork(t *testing.T) {
	calls := 0
	s, _ := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ }))

	err := s.Login(context.Background(), "", "secret")
	assert.True(t, api.IsValidation(err))
	err = s.Login(context.Background(), "alice", "")
	assert.True(t, api.IsValidation(err))
	assert.Zero(t, calls, "validation failures never reach the network")
}

func TestRegisterPasswordMismatch(t *testing.T) {
	calls := 0
	s, _ := newFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ }))

	err := s.Register(context.Background(), "alice", "secret1", "secret2")
	require.True(t, api.IsValidation(err))
	assert.Contains(t, err.Error(), "do not match")
	assert.Zero(t, calls)
}

func TestLogoutClearsOnlyIdentity(t *testing.T) {
	s, store := newFixture(t, loginHandler())
	require.NoError(t, s.Login(context.Background(), "alice", "secret"))

	// A cached learning path from this user's earlier session.
	require.NoError(t, store.Set("learningPath:alice", "learningPath_alice", model.LearningPath{Title: "Java Path"}))

	s.Logout()
	_, ok := s.Current()
	assert.False(t, ok)
	_, err := store.Get("identity", "token")
	assert.ErrorIs(t, err, cache.ErrMiss)

	var lp model.LearningPath
	_, err = store.GetJSON("learningPath:alice", "learningPath_alice", &lp)
	require.NoError(t, err, "per-user caches survive logout by design")
	assert.Equal(t, "Java Path", lp.Title)
}

func TestResumeAfterRestart(t *testing.T) {
	s, store := newFixture(t, loginHandler())
	require.NoError(t, s.Login(context.Background(), "alice", "secret"))

	// A fresh session over the same store stands in for a process restart.
	client := api.New("http://127.0.0.1:0", time.Second, zap.NewNop())
	restarted := New(client, store, zap.NewNop())
	require.True(t, restarted.Resume())
	id, ok := restarted.Current()
	require.True(t, ok)
	assert.Equal(t, "alice", id.Username)
	assert.Equal(t, "tok-abc", restarted.Token())
}

func TestResumeWithNothingPersisted(t *testing.T) {
	store, err := cache.New(t.TempDir())
	require.NoError(t, err)
	s := New(api.New("http://127.0.0.1:0", time.Second, zap.NewNop()), store, zap.NewNop())
	assert.False(t, s.Resume())
}

func TestUnauthorizedTearsSessionDown(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			_ = json.NewEncoder(w).Encode(model.Identity{Username: "alice", Role: "USER", Token: "tok"})
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store, err := cache.New(t.TempDir())
	require.NoError(t, err)
	client := api.New(srv.URL, 2*time.Second, zap.NewNop())
	s := New(client, store, zap.NewNop())

	require.NoError(t, s.Login(context.Background(), "alice", "secret"))
	_, err = client.Progress(context.Background(), "alice")
	require.True(t, api.IsUnauthorized(err))

	_, ok := s.Current()
	assert.False(t, ok, "401 outside /auth/ clears the identity")
	assert.True(t, s.Expired())
	_, gerr := store.Get("identity", "token")
	assert.ErrorIs(t, gerr, cache.ErrMiss)
}

func TestTokenExpiredPeek(t *testing.T) {
	makeToken := func(exp time.Time) string {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "alice",
			"exp": exp.Unix(),
		})
		signed, err := tok.SignedString([]byte("test-key"))
		require.NoError(t, err)
		return signed
	}

	store, err := cache.New(t.TempDir())
	require.NoError(t, err)
	s := New(api.New("http://127.0.0.1:0", time.Second, zap.NewNop()), store, zap.NewNop())

	s.adopt(model.Identity{Username: "alice", Role: "USER", Token: makeToken(time.Now().Add(time.Hour))})
	assert.False(t, s.TokenExpired())

	s.adopt(model.Identity{Username: "alice", Role: "USER", Token: makeToken(time.Now().Add(-time.Hour))})
	assert.True(t, s.TokenExpired())

	// Opaque (non-JWT) tokens count as live; only the backend can judge them.
	s.adopt(model.Identity{Username: "alice", Role: "USER", Token: "opaque-token"})
	assert.False(t, s.TokenExpired())
}
