package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	json "github.com/goccy/go-json"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"wayfarer/internal/storage/interfaces"
)

// SqliteStore keeps documents as json blobs in a single table, one row per
// collection/key pair. Writes go through a read-modify-write cycle guarded
// by a mutex; sqlite itself only ever sees whole-document upserts.
type SqliteStore struct {
	db *sql.DB
	mu sync.Mutex
}

func NewSqliteStore(path string) (*SqliteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite storage requires a database path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %s: %w", pragma, err)
		}
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			key        TEXT NOT NULL,
			data       BLOB NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (collection, key)
		)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create documents table: %w", err)
	}

	return &SqliteStore{db: db}, nil
}

func (s *SqliteStore) GetDocument(ctx context.Context, collection, key string) (interfaces.Document, error) {
	if err := validateRef(collection, key); err != nil {
		return interfaces.Document{}, err
	}
	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM documents WHERE collection = ? AND key = ?",
		collection, key,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return interfaces.Document{}, nil
	}
	if err != nil {
		return interfaces.Document{}, err
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return interfaces.Document{}, fmt.Errorf("corrupt document %s/%s: %w", collection, key, err)
	}
	return interfaces.Document{Exists: true, Data: doc}, nil
}

func (s *SqliteStore) SetDocument(ctx context.Context, collection, key string, data map[string]interface{}, merge bool) error {
	if err := validateRef(collection, key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !merge {
		return s.upsert(ctx, collection, key, data)
	}
	doc, err := s.GetDocument(ctx, collection, key)
	if err != nil {
		return err
	}
	return s.upsert(ctx, collection, key, deepMerge(doc.Data, deepCopyMap(data)))
}

func (s *SqliteStore) UpdateField(ctx context.Context, collection, key, path string, value interface{}) error {
	if err := validateRef(collection, key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.GetDocument(ctx, collection, key)
	if err != nil {
		return err
	}
	updated := doc.Data
	if updated == nil {
		updated = make(map[string]interface{})
	}
	if err := setPath(updated, path, value); err != nil {
		return err
	}
	return s.upsert(ctx, collection, key, updated)
}

func (s *SqliteStore) AppendToArray(ctx context.Context, collection, key, field string, values ...interface{}) error {
	if err := validateRef(collection, key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.GetDocument(ctx, collection, key)
	if err != nil {
		return err
	}
	updated := doc.Data
	if updated == nil {
		updated = make(map[string]interface{})
	}
	appendValues(updated, field, values)
	return s.upsert(ctx, collection, key, updated)
}

func (s *SqliteStore) DeleteDocument(ctx context.Context, collection, key string) error {
	if err := validateRef(collection, key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM documents WHERE collection = ? AND key = ?",
		collection, key,
	)
	return err
}

// Persist is a no-op: sqlite commits on every statement.
func (s *SqliteStore) Persist() error {
	return nil
}

func (s *SqliteStore) Close() error {
	return s.db.Close()
}

func (s *SqliteStore) upsert(ctx context.Context, collection, key string, doc map[string]interface{}) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, key, data, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (collection, key)
		DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		collection, key, data, time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}
