package kvstore

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const kvSchema = `CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value BLOB NOT NULL
)`

// SQLiteStore persists keys in a single-file sqlite database
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if _, err := db.Exec(kvSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize kv table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Get decodes the stored JSON value into out
func (s *SQLiteStore) Get(key string, out any) bool {
	var data []byte
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&data)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Debug().Err(err).Str("key", key).Msg("kv read failed")
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("discarding corrupt stored value")
		return false
	}
	return true
}

// Set stores the JSON encoding of value under key
func (s *SQLiteStore) Set(key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Debug().Err(err).Str("key", key).Msg("value not serializable")
		return
	}
	_, err = s.db.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, data,
	)
	if err != nil {
		log.Debug().Err(err).Str("key", key).Msg("kv write failed, continuing without persistence")
	}
}

// Delete removes the key
func (s *SQLiteStore) Delete(key string) {
	if _, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("kv delete failed")
	}
}

// Close releases the underlying database handle
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
