package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCreateSQLMigrationScaffoldsValidFile(t *testing.T) {
	dir := t.TempDir()

	path, err := CreateSQLMigration(dir, "Add Snapshot Index!")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasSuffix(path, "_add_snapshot_index.sql") {
		t.Errorf("unexpected filename: %s", path)
	}

	// The scaffold must immediately pass the boot-time validator.
	if err := ValidateDir(dir); err != nil {
		t.Errorf("validate: %v", err)
	}

	if _, err := CreateSQLMigration(dir, ""); err == nil {
		t.Error("empty name must be rejected")
	}
}

func TestValidateDirRejectsBadFilenames(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "001_init.sql")
	if err := os.WriteFile(bad, []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := ValidateDir(dir); err == nil {
		t.Error("short version prefix must be rejected")
	}
}
