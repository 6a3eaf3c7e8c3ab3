// file: internal/database/pebble_store.go
// version: 1.1.0
// guid: 4b6c8d0e-2f4a-4b6c-8d9e-1f3a5b7c9d1e

package database

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble/v2"

	"github.com/absmeta/metadata-server/internal/requestctx"
)

// PebbleStore implements CacheStore on PebbleDB (LSM key-value store).
//
// Key Schema:
// - search:<provider_id>:<search key digest> -> cacheRow JSON
// - book:<provider_id>:<book_id>             -> cacheRow JSON
//
// The search key digest hashes (title, author, paramsHash) so arbitrary
// titles never collide with the key separator. Per-provider clears iterate
// the provider's key prefix in both namespaces.
type PebbleStore struct {
	db *pebble.DB
}

// cacheRow is the stored value: the opaque payload plus its write timestamp.
type cacheRow struct {
	Payload   string `json:"payload"`
	CreatedAt int64  `json:"created_at"`
}

// NewPebbleStore opens (creating if needed) the cache database at path.
func NewPebbleStore(path string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open PebbleDB: %w", err)
	}
	return &PebbleStore{db: db}, nil
}

func searchKey(providerID, title string, author *string, paramsHash string) []byte {
	a := "\x00" // distinct from the empty string so author=nil and author="" differ
	if author != nil {
		a = *author
	}
	digest := sha256.Sum256([]byte(title + "\x1f" + a + "\x1f" + paramsHash))
	return []byte(fmt.Sprintf("search:%s:%x", providerID, digest))
}

func bookKey(providerID, bookID string) []byte {
	return []byte(fmt.Sprintf("book:%s:%s", providerID, bookID))
}

func (p *PebbleStore) get(ctx context.Context, key []byte) (string, bool, error) {
	if requestctx.SkipCache(ctx) {
		return "", false, nil
	}

	value, closer, err := p.db.Get(key)
	if err == pebble.ErrNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read cache key: %w", err)
	}
	defer closer.Close()

	var row cacheRow
	if err := json.Unmarshal(value, &row); err != nil {
		// A row we cannot decode is as good as absent.
		return "", false, nil
	}
	return row.Payload, true, nil
}

func (p *PebbleStore) set(key []byte, payload string) error {
	row := cacheRow{Payload: payload, CreatedAt: time.Now().UnixMilli()}
	value, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to encode cache row: %w", err)
	}
	if err := p.db.Set(key, value, pebble.Sync); err != nil {
		return fmt.Errorf("failed to write cache key: %w", err)
	}
	return nil
}

// GetSearchCache returns the stored payload for the search key, or a miss
// when absent or when the request context carries the bypass flag.
func (p *PebbleStore) GetSearchCache(ctx context.Context, providerID, title string, author *string, paramsHash string) (string, bool, error) {
	return p.get(ctx, searchKey(providerID, title, author, paramsHash))
}

// SetSearchCache upserts the payload under the search key. Last write wins.
func (p *PebbleStore) SetSearchCache(providerID, title string, author *string, paramsHash, payload string) error {
	return p.set(searchKey(providerID, title, author, paramsHash), payload)
}

// GetBookCache returns the stored payload for a single-item lookup.
func (p *PebbleStore) GetBookCache(ctx context.Context, providerID, bookID string) (string, bool, error) {
	return p.get(ctx, bookKey(providerID, bookID))
}

// SetBookCache upserts the payload under (provider, bookID).
func (p *PebbleStore) SetBookCache(providerID, bookID, payload string) error {
	return p.set(bookKey(providerID, bookID), payload)
}

// ClearCache deletes both namespaces for one provider, or everything when
// providerID is empty.
func (p *PebbleStore) ClearCache(providerID string) error {
	prefixes := []string{"search:", "book:"}
	for _, ns := range prefixes {
		prefix := ns
		if providerID != "" {
			prefix = ns + providerID + ":"
		}
		if err := p.deletePrefix(prefix); err != nil {
			return err
		}
	}
	return nil
}

func (p *PebbleStore) deletePrefix(prefix string) error {
	lower := []byte(prefix)
	upper := upperBound(lower)

	iter, err := p.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return fmt.Errorf("failed to open cache iterator: %w", err)
	}
	defer iter.Close()

	batch := p.db.NewBatch()
	for iter.First(); iter.Valid(); iter.Next() {
		key := append([]byte(nil), iter.Key()...)
		if err := batch.Delete(key, nil); err != nil {
			batch.Close()
			return fmt.Errorf("failed to delete cache key: %w", err)
		}
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("failed to commit cache clear: %w", err)
	}
	return nil
}

// upperBound returns the smallest key greater than every key with the given
// prefix.
func upperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil // prefix is all 0xff, no upper bound
}

// Close closes the underlying database.
func (p *PebbleStore) Close() error {
	return p.db.Close()
}
