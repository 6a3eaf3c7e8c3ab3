// file: cmd/commands_test.go
// version: 2.0.0
// guid: 6f5b7d78-11d8-4c1a-a150-96d2c4a1a885

package cmd

import (
	"path/filepath"
	"testing"

	"github.com/cockroachdb/pebble/v2"

	"github.com/absmeta/metadata-server/internal/config"
)

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{
		"serve":       false,
		"docs":        false,
		"cache-clear": false,
		"diagnostics": false,
	}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestTruncateString(t *testing.T) {
	if got := truncateString("short", 10); got != "short" {
		t.Fatalf("expected passthrough, got %q", got)
	}
	if got := truncateString("0123456789abc", 10); got != "0123456789..." {
		t.Fatalf("expected truncation, got %q", got)
	}
}

func TestDiagnosticsQueryRejectsBadLimit(t *testing.T) {
	if err := runDiagnosticsQuery(0, "search:"); err == nil {
		t.Fatal("expected error for non-positive limit")
	}
}

func seedCacheDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.pebble")
	db, err := pebble.Open(path, &pebble.Options{FormatMajorVersion: pebble.FormatNewest})
	if err != nil {
		t.Fatalf("failed to open pebble: %v", err)
	}
	defer db.Close()

	valid := []byte(`{"payload":"[]","createdAt":1}`)
	if err := db.Set([]byte("search:demo:aaaa"), valid, pebble.Sync); err != nil {
		t.Fatal(err)
	}
	if err := db.Set([]byte("book:demo:42"), []byte("not json"), pebble.Sync); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCleanupCorruptRows(t *testing.T) {
	path := seedCacheDB(t)

	prev := config.AppConfig
	defer func() { config.AppConfig = prev }()
	config.AppConfig.DatabaseType = "pebble"
	config.AppConfig.DatabasePath = path

	// Dry run leaves everything in place.
	if err := runCleanupCorruptRows(true, true); err != nil {
		t.Fatalf("dry run failed: %v", err)
	}
	if n := countKeys(t, path); n != 2 {
		t.Fatalf("dry run deleted rows, %d remain", n)
	}

	if err := runCleanupCorruptRows(true, false); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if n := countKeys(t, path); n != 1 {
		t.Fatalf("expected 1 surviving row, got %d", n)
	}
}

func TestCleanupRejectsSQLite(t *testing.T) {
	prev := config.AppConfig
	defer func() { config.AppConfig = prev }()
	config.AppConfig.DatabaseType = "sqlite"

	if err := runCleanupCorruptRows(true, true); err == nil {
		t.Fatal("expected error for sqlite backend")
	}
}

func countKeys(t *testing.T, path string) int {
	t.Helper()
	db, err := pebble.Open(path, &pebble.Options{FormatMajorVersion: pebble.FormatNewest})
	if err != nil {
		t.Fatalf("failed to reopen pebble: %v", err)
	}
	defer db.Close()

	iter, err := db.NewIter(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer iter.Close()

	count := 0
	for ok := iter.First(); ok && iter.Valid(); ok = iter.Next() {
		count++
	}
	return count
}
