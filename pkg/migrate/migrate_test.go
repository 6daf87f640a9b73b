package migrate

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/arcay3dlabs/storefront/pkg/db"
	"github.com/arcay3dlabs/storefront/pkg/db/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestStorageEntriesMigrationContainsSchema(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_storage_entries.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no storage_entries migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS storage_entries",
		"key        VARCHAR(191) PRIMARY KEY",
		"DROP TABLE IF EXISTS storage_entries",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestValidateDirAcceptsRepoMigrations(t *testing.T) {
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("ValidateDir returned error: %v", err)
	}
}

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	path, err := CreateSQLMigration(dir, "Add Order Index!", now)
	if err != nil {
		t.Fatalf("CreateSQLMigration returned error: %v", err)
	}
	if filepath.Base(path) != "20260302100000_add_order_index.sql" {
		t.Fatalf("unexpected migration path %s", path)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("generated migration should validate: %v", err)
	}
	if _, err := CreateSQLMigration(dir, "!!!", now.Add(time.Second)); err == nil {
		t.Fatal("expected empty sanitized name to fail")
	}
	if _, err := CreateSQLMigration(dir, "other", now); err == nil {
		t.Fatal("expected reused version to fail")
	}
}

func TestEmbeddedMigrationsValidate(t *testing.T) {
	fsys, err := Source("")
	if err != nil {
		t.Fatalf("Source returned error: %v", err)
	}
	if err := Validate(fsys); err != nil {
		t.Fatalf("embedded migrations should validate: %v", err)
	}
	if _, err := fs.Stat(fsys, "20260301120000_create_storage_entries.sql"); err != nil {
		t.Fatalf("expected storage_entries migration in embedded set: %v", err)
	}
}

func TestValidateRejectsDownBeforeUp(t *testing.T) {
	fsys := fstest.MapFS{
		"20260101000000_swap.sql": {Data: []byte("-- +goose Down\n-- +goose Up\n")},
	}
	if err := Validate(fsys); err == nil {
		t.Fatal("expected misordered annotations to fail")
	}
}

func TestSourceRejectsMissingDir(t *testing.T) {
	if _, err := Source(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected missing dir to fail")
	}
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected invalid filename to fail")
	}
}

func TestAutoMigrateModelsCreatesStorageEntries(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:TestAutoMigrateModels?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	client := db.FromGorm(conn)
	if err := AutoMigrateModels(context.Background(), client); err != nil {
		t.Fatalf("AutoMigrateModels returned error: %v", err)
	}
	if !conn.Migrator().HasTable(&models.StorageEntry{}) {
		t.Fatal("expected storage_entries table to exist")
	}
}
