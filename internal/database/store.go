// file: internal/database/store.go
// version: 1.1.0
// guid: 9c0d2e4f-6a8b-4c1d-9e3f-5a7b9c1d3e5f

package database

import (
	"context"
	"fmt"
)

// CacheStore is the persistent key-value layer memoizing provider results.
// It holds two independent namespaces: search results keyed by
// (provider, title, author, paramsHash) and single-item lookups keyed by
// (provider, bookID). Payloads are opaque serialized documents owned by the
// writer; a set with an existing key fully replaces the prior value and
// timestamp.
//
// Reads honor the request-scoped bypass flag (requestctx) and report a miss
// while it is active. Writes are never affected by the flag.
type CacheStore interface {
	GetSearchCache(ctx context.Context, providerID, title string, author *string, paramsHash string) (string, bool, error)
	SetSearchCache(providerID, title string, author *string, paramsHash, payload string) error

	GetBookCache(ctx context.Context, providerID, bookID string) (string, bool, error)
	SetBookCache(providerID, bookID, payload string) error

	// ClearCache deletes both namespaces for one provider id, or everything
	// when providerID is empty.
	ClearCache(providerID string) error

	Close() error
}

// Global store instance
var GlobalStore CacheStore

// InitializeStore opens the cache store backend named by dbType. PebbleDB is
// the default; SQLite is the portable single-file alternative.
func InitializeStore(dbType, path string) error {
	var err error

	switch dbType {
	case "sqlite", "sqlite3":
		GlobalStore, err = NewSQLiteStore(path)
		if err != nil {
			return fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
	case "pebble", "":
		GlobalStore, err = NewPebbleStore(path)
		if err != nil {
			return fmt.Errorf("failed to initialize PebbleDB store: %w", err)
		}
	default:
		return fmt.Errorf("unsupported database type: %s (supported: pebble, sqlite)", dbType)
	}

	return nil
}

// CloseStore closes the global store.
func CloseStore() error {
	if GlobalStore != nil {
		return GlobalStore.Close()
	}
	return nil
}
