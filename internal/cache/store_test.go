package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestSetGetRoundTrip(t *testing.T) {
	s := newStore(t)
	type doc struct {
		Title string `json:"title"`
		Hours int    `json:"hours"`
	}

	require.NoError(t, s.Set("learningPath:alice", "learningPath_alice", doc{"Java Path", 40}))

	var got doc
	writtenAt, err := s.GetJSON("learningPath:alice", "learningPath_alice", &got)
	require.NoError(t, err)
	assert.Equal(t, doc{"Java Path", 40}, got)
	assert.False(t, writtenAt.IsZero())
}

func TestGetMiss(t *testing.T) {
	s := newStore(t)
	_, err := s.Get("progress:alice", "progress_alice")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestLastWriterWins(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Set("progress:alice", "progress_alice", map[string]int{"v": 1}))
	require.NoError(t, s.Set("progress:alice", "progress_alice", map[string]int{"v": 2}))

	var got map[string]int
	_, err := s.GetJSON("progress:alice", "progress_alice", &got)
	require.NoError(t, err)
	assert.Equal(t, 2, got["v"])
}

func TestNamespaceIsolation(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Set("progress:alice", "progress_alice", "a"))
	require.NoError(t, s.Set("progress:bob", "progress_bob", "b"))

	var got string
	_, err := s.GetJSON("progress:alice", "progress_alice", &got)
	require.NoError(t, err)
	assert.Equal(t, "a", got)

	_, err = s.Get("progress:alice", "progress_bob")
	assert.ErrorIs(t, err, ErrMiss, "keys do not leak across namespaces")
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Set("identity", "token", "tok"))
	require.NoError(t, s.Delete("identity", "token"))
	require.NoError(t, s.Delete("identity", "token"))
	_, err := s.Get("identity", "token")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestCorruptEntryReadsAsMiss(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set("progress:alice", "progress_alice", "ok"))

	path := filepath.Join(dir, "progress-alice", "progress_alice.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err = s.Get("progress:alice", "progress_alice")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestSanitizeKeepsEntriesInsideStateDir(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set("progress:../evil", "progress_../../escape", "x"))

	err = filepath.Walk(dir, func(path string, _ os.FileInfo, err error) error {
		require.NoError(t, err)
		rel, relErr := filepath.Rel(dir, path)
		require.NoError(t, relErr)
		assert.False(t, strings.HasPrefix(rel, ".."), "entry escaped the state dir: %s", path)
		return nil
	})
	require.NoError(t, err)
}
