// file: internal/database/sqlite_store.go
// version: 1.2.0
// guid: 7a9b1c3d-5e7f-4a8b-9c0d-2e4f6a8b0c2d

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/absmeta/metadata-server/internal/requestctx"
)

// SQLiteStore implements CacheStore on a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the cache database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	store := &SQLiteStore{db: db}

	if err := store.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return store, nil
}

// createTables bootstraps both cache namespaces. Additive columns are the
// only supported schema evolution.
func (s *SQLiteStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS search_cache (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		provider_id TEXT NOT NULL,
		title TEXT NOT NULL,
		author TEXT,
		params_hash TEXT NOT NULL,
		response TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		UNIQUE(provider_id, title, author, params_hash)
	);

	CREATE INDEX IF NOT EXISTS idx_search_cache_lookup
		ON search_cache(provider_id, title, author, params_hash);

	CREATE TABLE IF NOT EXISTS book_cache (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		provider_id TEXT NOT NULL,
		book_id TEXT NOT NULL,
		metadata TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		UNIQUE(provider_id, book_id)
	);

	CREATE INDEX IF NOT EXISTS idx_book_cache_lookup
		ON book_cache(provider_id, book_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// GetSearchCache returns the stored payload for the search key, or a miss
// when absent or when the request context carries the bypass flag.
func (s *SQLiteStore) GetSearchCache(ctx context.Context, providerID, title string, author *string, paramsHash string) (string, bool, error) {
	if requestctx.SkipCache(ctx) {
		return "", false, nil
	}

	var payload string
	err := s.db.QueryRow(
		`SELECT response FROM search_cache
		 WHERE provider_id = ? AND title = ? AND author IS ? AND params_hash = ?`,
		providerID, title, author, paramsHash,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read search cache: %w", err)
	}
	return payload, true, nil
}

// SetSearchCache upserts the payload under the search key, stamping the
// current time. Last write wins.
func (s *SQLiteStore) SetSearchCache(providerID, title string, author *string, paramsHash, payload string) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO search_cache (provider_id, title, author, params_hash, response, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		providerID, title, author, paramsHash, payload, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to write search cache: %w", err)
	}
	return nil
}

// GetBookCache returns the stored payload for a single-item lookup.
func (s *SQLiteStore) GetBookCache(ctx context.Context, providerID, bookID string) (string, bool, error) {
	if requestctx.SkipCache(ctx) {
		return "", false, nil
	}

	var payload string
	err := s.db.QueryRow(
		`SELECT metadata FROM book_cache WHERE provider_id = ? AND book_id = ?`,
		providerID, bookID,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read book cache: %w", err)
	}
	return payload, true, nil
}

// SetBookCache upserts the payload under (provider, bookID).
func (s *SQLiteStore) SetBookCache(providerID, bookID, payload string) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO book_cache (provider_id, book_id, metadata, created_at)
		 VALUES (?, ?, ?, ?)`,
		providerID, bookID, payload, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to write book cache: %w", err)
	}
	return nil
}

// ClearCache deletes both namespaces for one provider, or everything when
// providerID is empty.
func (s *SQLiteStore) ClearCache(providerID string) error {
	if providerID != "" {
		if _, err := s.db.Exec(`DELETE FROM search_cache WHERE provider_id = ?`, providerID); err != nil {
			return fmt.Errorf("failed to clear search cache: %w", err)
		}
		if _, err := s.db.Exec(`DELETE FROM book_cache WHERE provider_id = ?`, providerID); err != nil {
			return fmt.Errorf("failed to clear book cache: %w", err)
		}
		return nil
	}

	if _, err := s.db.Exec(`DELETE FROM search_cache`); err != nil {
		return fmt.Errorf("failed to clear search cache: %w", err)
	}
	if _, err := s.db.Exec(`DELETE FROM book_cache`); err != nil {
		return fmt.Errorf("failed to clear book cache: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
