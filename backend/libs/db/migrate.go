package db

import (
	"context"
	"crypto/md5"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrationLockKey serializes concurrent service start-ups against the same database.
const migrationLockKey = 0x65766368

// Migration represents a single migration file
type Migration struct {
	Version  string
	Filename string
	Content  string
	Checksum string
}

// MigrationRunner applies embedded schema migrations.
type MigrationRunner struct {
	db *sql.DB
	fs fs.FS
}

// NewMigrationRunner creates a runner over the embedded migrations.
func NewMigrationRunner(db *sql.DB) *MigrationRunner {
	return &MigrationRunner{db: db, fs: migrationsFS}
}

// Migrate applies all pending migrations, each in its own transaction.
func (mr *MigrationRunner) Migrate(ctx context.Context) error {
	conn, err := mr.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("db: acquire conn: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", migrationLockKey); err != nil {
		return fmt.Errorf("db: migration lock: %w", err)
	}
	defer conn.ExecContext(context.Background(), "SELECT pg_advisory_unlock($1)", migrationLockKey)

	const createTable = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			checksum TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := conn.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("db: create migrations table: %w", err)
	}

	migrations, err := LoadMigrations(mr.fs)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if err := applyMigration(ctx, conn, m); err != nil {
			return fmt.Errorf("db: apply migration %s: %w", m.Version, err)
		}
	}
	return nil
}

// LoadMigrations reads migrations/*.sql from fsys sorted by version prefix.
func LoadMigrations(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, "migrations")
	if err != nil {
		return nil, fmt.Errorf("db: read migrations: %w", err)
	}

	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		content, err := fs.ReadFile(fsys, path.Join("migrations", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("db: read migration %s: %w", entry.Name(), err)
		}
		migrations = append(migrations, Migration{
			Version:  strings.SplitN(entry.Name(), "_", 2)[0],
			Filename: entry.Name(),
			Content:  string(content),
			Checksum: fmt.Sprintf("%x", md5.Sum(content)),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

func applyMigration(ctx context.Context, conn *sql.Conn, m Migration) error {
	var existing string
	err := conn.QueryRowContext(ctx, "SELECT checksum FROM schema_migrations WHERE version = $1", m.Version).Scan(&existing)
	if err == nil {
		if existing != m.Checksum {
			return fmt.Errorf("checksum mismatch: recorded %s, file %s", existing, m.Checksum)
		}
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, m.Content); err != nil {
		tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version, checksum) VALUES ($1, $2)", m.Version, m.Checksum); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
