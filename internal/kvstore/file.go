package kvstore

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// FileStore persists each key as a JSON document in a data directory
type FileStore struct {
	dir string
}

// NewFileStore creates a file-backed store rooted at dir. The directory
// is created on demand; if that fails every operation degrades to a
// no-op instead of failing later calls.
func NewFileStore(dir string) *FileStore {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Debug().Err(err).Str("dir", dir).Msg("storage directory unavailable")
	}
	return &FileStore{dir: dir}
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Get decodes the stored JSON value into out
func (s *FileStore) Get(key string, out any) bool {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("discarding corrupt stored value")
		return false
	}
	return true
}

// Set stores the JSON encoding of value under key
func (s *FileStore) Set(key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Debug().Err(err).Str("key", key).Msg("value not serializable")
		return
	}
	if err := os.WriteFile(s.path(key), data, 0o644); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("write failed, continuing without persistence")
	}
}

// Delete removes the key
func (s *FileStore) Delete(key string) {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		log.Debug().Err(err).Str("key", key).Msg("delete failed")
	}
}
