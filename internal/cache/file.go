package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileStore keeps one JSON file per key in a directory.
type FileStore struct {
	dir string
	ttl time.Duration
}

// NewFileStore creates a FileStore rooted at dir.
func NewFileStore(dir string, ttl time.Duration) *FileStore {
	return &FileStore{dir: dir, ttl: ttl}
}

// Dir returns the directory backing the store.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FileStore) Get(_ context.Context, key string, dst any) bool {
	if Disabled() {
		return false
	}
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return false
	}
	return decodeEntry(data, s.ttl, dst)
}

func (s *FileStore) Put(_ context.Context, key string, v any) {
	if Disabled() {
		return
	}
	data, err := encodeEntry(v, time.Now())
	if err != nil {
		return
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return
	}

	// Write temp then rename so readers never see a partial file.
	path := s.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		_ = os.Remove(tmp)
		return
	}
	_ = os.Rename(tmp, path)
}

func (s *FileStore) Delete(_ context.Context, key string) {
	_ = os.Remove(s.path(key))
}

// Clear removes cache files from the directory. Only files matching the key
// scheme are touched.
func (s *FileStore) Clear(_ context.Context) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if filepath.Ext(name) != ".json" || !isKey(strings.TrimSuffix(name, ".json")) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
