package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSnapshotMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_platform_snapshots.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS platform_snapshots",
		"PRIMARY KEY (sku, platform)",
		"CHECK (units_available >= 0)",
		"CHECK (units_reserved >= 0)",
		"captured_at TIMESTAMPTZ NOT NULL",
		"DROP TABLE IF EXISTS platform_snapshots",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestSourcesMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_inventory_sources.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS inventory_sources",
		"sku VARCHAR(128) PRIMARY KEY",
		"primary_platform VARCHAR(32) NOT NULL",
		"DROP TABLE IF EXISTS inventory_sources",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration file matches %q", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
