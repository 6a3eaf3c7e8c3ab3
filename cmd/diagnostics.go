// file: cmd/diagnostics.go
// version: 2.0.0
// guid: c8f6a0d4-2a8b-48cf-9d08-02cc9915d9fc

package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/pebble/v2"
	"github.com/spf13/cobra"

	"github.com/absmeta/metadata-server/internal/config"
)

var (
	diagnosticsCmd = &cobra.Command{
		Use:   "diagnostics",
		Short: "Debugging and cleanup helpers",
		Long:  "Diagnostic utilities for inspecting and repairing the cache database.",
	}

	cleanupCmd = &cobra.Command{
		Use:   "cleanup-corrupt",
		Short: "Remove cache rows whose payload no longer decodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("yes")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			return runCleanupCorruptRows(force, dryRun)
		},
	}

	queryCmd = &cobra.Command{
		Use:   "query",
		Short: "Inspect stored cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			prefix, _ := cmd.Flags().GetString("prefix")
			return runDiagnosticsQuery(limit, prefix)
		},
	}
)

func init() {
	cleanupCmd.Flags().Bool("yes", false, "Skip confirmation prompt")
	cleanupCmd.Flags().Bool("dry-run", false, "List corrupt rows without deleting")

	queryCmd.Flags().Int("limit", 5, "Number of entries to display")
	queryCmd.Flags().String("prefix", "search:", "Key prefix to inspect (search: or book:)")

	diagnosticsCmd.AddCommand(cleanupCmd)
	diagnosticsCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(diagnosticsCmd)
}

// openRawPebble opens the cache database directly. Only valid for the
// pebble backend; the server must not be running against the same path.
func openRawPebble() (*pebble.DB, error) {
	if config.AppConfig.DatabaseType != "pebble" {
		return nil, fmt.Errorf("raw inspection is only available for Pebble databases")
	}
	db, err := pebble.Open(config.AppConfig.DatabasePath, &pebble.Options{
		FormatMajorVersion: pebble.FormatNewest,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open Pebble database: %w", err)
	}
	return db, nil
}

func runDiagnosticsQuery(limit int, prefix string) error {
	if limit <= 0 {
		return errors.New("limit must be positive")
	}

	db, err := openRawPebble()
	if err != nil {
		return err
	}
	defer db.Close()

	iterOpts := &pebble.IterOptions{}
	if prefix != "" {
		iterOpts.LowerBound = []byte(prefix)
		iterOpts.UpperBound = append([]byte(prefix), 0xFF)
	}

	iter, err := db.NewIter(iterOpts)
	if err != nil {
		return fmt.Errorf("failed to create iterator: %w", err)
	}
	defer iter.Close()

	count := 0
	for ok := iter.First(); ok && iter.Valid(); ok = iter.Next() {
		fmt.Printf("Key: %s\n", string(iter.Key()))
		val := iter.Value()
		fmt.Printf("Value length: %d bytes\n", len(val))
		fmt.Printf("Value preview: %s\n", truncateString(string(val), 500))
		fmt.Println("---")

		count++
		if count >= limit {
			break
		}
	}

	if err := iter.Error(); err != nil {
		return fmt.Errorf("iterator error: %w", err)
	}

	if count == 0 {
		fmt.Println("No keys matched the requested prefix.")
	}

	return nil
}

func runCleanupCorruptRows(force, dryRun bool) error {
	db, err := openRawPebble()
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Printf("Inspecting cache rows in %s\n", config.AppConfig.DatabasePath)

	var corrupt []string
	for _, prefix := range []string{"search:", "book:"} {
		iter, err := db.NewIter(&pebble.IterOptions{
			LowerBound: []byte(prefix),
			UpperBound: append([]byte(prefix), 0xFF),
		})
		if err != nil {
			return fmt.Errorf("failed to create iterator: %w", err)
		}
		for ok := iter.First(); ok && iter.Valid(); ok = iter.Next() {
			if !json.Valid(iter.Value()) {
				corrupt = append(corrupt, string(iter.Key()))
			}
		}
		if err := iter.Error(); err != nil {
			iter.Close()
			return fmt.Errorf("iterator error: %w", err)
		}
		iter.Close()
	}

	if len(corrupt) == 0 {
		fmt.Println("No corrupt cache rows detected.")
		return nil
	}

	fmt.Printf("Found %d corrupt rows:\n", len(corrupt))
	for i, key := range corrupt {
		fmt.Printf("%2d. %s\n", i+1, key)
	}

	if dryRun {
		fmt.Println("Dry run enabled; no deletions were performed.")
		return nil
	}

	if !force {
		confirmed, err := promptYesNo(fmt.Sprintf("Delete %d rows", len(corrupt)))
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Aborted. No rows deleted.")
			return nil
		}
	}

	deleted := 0
	for _, key := range corrupt {
		if err := db.Delete([]byte(key), pebble.Sync); err != nil {
			fmt.Printf("Failed to delete %s: %v\n", key, err)
			continue
		}
		deleted++
	}

	fmt.Printf("Deleted %d corrupt rows. They will repopulate on the next search.\n", deleted)
	return nil
}

func promptYesNo(action string) (bool, error) {
	fmt.Printf("%s? Type 'yes' to confirm: ", action)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false, err
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "yes", nil
}

func truncateString(in string, max int) string {
	if len(in) <= max {
		return in
	}
	return in[:max] + "..."
}
