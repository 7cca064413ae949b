package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hpungsan/globs/internal/config"
	_ "modernc.org/sqlite"
)

// Init opens baseDir/globs.db, creating baseDir and its exports directory
// when missing, and brings the schema up to CurrentSchemaVersion. Tests pass
// t.TempDir() as baseDir.
func Init(baseDir string) (*sql.DB, error) {
	for _, dir := range []string{baseDir, filepath.Join(baseDir, "exports")} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
		// Best-effort: MkdirAll leaves existing directories alone.
		_ = os.Chmod(dir, 0700)
	}

	// Pragmas in the DSN apply to every pooled connection.
	dbPath := filepath.Join(baseDir, "globs.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	_ = os.Chmod(dbPath, 0600)
	return db, nil
}

// ConfigurePool applies the pool limits set in cfg. Zero leaves the
// database/sql default in place.
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrations[i] moves the schema from version i to i+1.
var migrations = []string{
	`
	CREATE TABLE IF NOT EXISTS documents (
	  id          TEXT PRIMARY KEY,
	  name_raw    TEXT NOT NULL,
	  name_norm   TEXT NOT NULL,
	  title       TEXT,
	  data_json   TEXT NOT NULL,
	  node_count  INTEGER NOT NULL,
	  glob_count  INTEGER NOT NULL,
	  created_at  INTEGER NOT NULL,
	  updated_at  INTEGER NOT NULL,
	  deleted_at  INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_documents_updated
	ON documents(updated_at DESC)
	WHERE deleted_at IS NULL;

	CREATE UNIQUE INDEX IF NOT EXISTS idx_documents_name_norm
	ON documents(name_norm)
	WHERE deleted_at IS NULL;

	CREATE INDEX IF NOT EXISTS idx_documents_deleted
	ON documents(deleted_at)
	WHERE deleted_at IS NOT NULL;
	`,
	`
	ALTER TABLE documents ADD COLUMN version INTEGER NOT NULL DEFAULT 1;
	`,
}

// CurrentSchemaVersion is the schema version after every migration has run.
var CurrentSchemaVersion = len(migrations)

// migrate runs each pending migration in its own transaction, bumping
// user_version inside the same transaction.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	for v := version; v < len(migrations); v++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("migration %d failed: %w", v+1, err)
		}
		if _, err := tx.Exec(migrations[v]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", v+1, err)
		}
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version=%d", v+1)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", v+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d failed: %w", v+1, err)
		}
	}
	return nil
}

func verifyWALMode(db *sql.DB) error {
	var mode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&mode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if mode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", mode)
	}
	return nil
}

// GetUserVersion returns the schema version stored in user_version.
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion overwrites user_version.
func SetUserVersion(db *sql.DB, version int) error {
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version)); err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
