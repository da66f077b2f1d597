// internal/cache/store.go
//
// A durable key-value store playing the role browser localStorage played in
// the web client: small JSON documents that survive restarts and are
// namespaced per signed-in user. One file per entry under
// ~/.pathway/state/, written atomically so a crash never leaves a torn
// document. There is no TTL and no eviction; staleness is bounded only by
// the next successful remote call.

package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrMiss is returned by Get when no entry exists for the key.
var ErrMiss = errors.New("cache: miss")

// Entry is a stored value plus the moment it was written. WrittenAt lets the
// UI show how old stale data is; it is not an expiry.
type Entry struct {
	Value     json.RawMessage `json:"value"`
	WrittenAt time.Time       `json:"writtenAt"`
}

// Store is a file-backed namespaced KV store.
type Store struct {
	dir string
}

// New opens (creating if needed) a store rooted at dir.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: ensure state dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Get returns the entry for (namespace, key), or ErrMiss.
func (s *Store) Get(namespace, key string) (Entry, error) {
	data, err := os.ReadFile(s.path(namespace, key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Entry{}, ErrMiss
		}
		return Entry{}, fmt.Errorf("cache: read %s/%s: %w", namespace, key, err)
	}
	var ent Entry
	if err := json.Unmarshal(data, &ent); err != nil {
		// A corrupt entry is indistinguishable from a miss for callers;
		// the next write-through repairs it.
		return Entry{}, ErrMiss
	}
	return ent, nil
}

// GetJSON unmarshals the entry's value into out and reports the write time.
func (s *Store) GetJSON(namespace, key string, out any) (time.Time, error) {
	ent, err := s.Get(namespace, key)
	if err != nil {
		return time.Time{}, err
	}
	if err := json.Unmarshal(ent.Value, out); err != nil {
		return time.Time{}, ErrMiss
	}
	return ent.WrittenAt, nil
}

// Set writes value under (namespace, key), overwriting any previous entry.
// Last writer wins.
func (s *Store) Set(namespace, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode %s/%s: %w", namespace, key, err)
	}
	ent := Entry{Value: raw, WrittenAt: time.Now().UTC()}
	data, err := json.Marshal(ent)
	if err != nil {
		return fmt.Errorf("cache: encode entry %s/%s: %w", namespace, key, err)
	}

	path := s.path(namespace, key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cache: ensure namespace dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("cache: temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("cache: write %s/%s: %w", namespace, key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("cache: close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("cache: commit %s/%s: %w", namespace, key, err)
	}
	return nil
}

// Delete removes the entry for (namespace, key). Deleting a missing entry
// is not an error.
func (s *Store) Delete(namespace, key string) error {
	err := os.Remove(s.path(namespace, key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cache: delete %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (s *Store) path(namespace, key string) string {
	return filepath.Join(s.dir, sanitize(namespace), sanitize(key)+".json")
}

// sanitize keeps keys filesystem-safe. Usernames come from the backend, but
// a path separator in one must not let an entry escape the state dir.
func sanitize(part string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", "..", "_", ":", "-")
	cleaned := replacer.Replace(part)
	if cleaned == "" {
		cleaned = "_"
	}
	return cleaned
}
