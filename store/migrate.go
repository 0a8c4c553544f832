package store

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/leeineian/luvibot/sys"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// migrateUp applies the embedded migrations for dialect ("sqlite" or
// "postgres") to databaseURL. The migrate instance opens and closes its own
// connection.
func migrateUp(dialect, databaseURL string) error {
	dir, err := fs.Sub(migrationsFS, "migrations/"+dialect)
	if err != nil {
		return fmt.Errorf("failed to access %s migrations: %w", dialect, err)
	}
	src, err := iofs.New(dir, ".")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			sys.LogWarn("Failed to close migration instance: %v %v", srcErr, dbErr)
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	if v, dirty, err := m.Version(); err == nil {
		sys.LogDatabase(sys.MsgDatabaseSchemaVersion, dialect, v, dirty)
	}
	return nil
}

// sqliteMigrationURL points the sqlite3 migrate driver at a database file.
func sqliteMigrationURL(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	path = filepath.ToSlash(path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "sqlite3://" + path
}

// postgresMigrationURL rewrites a postgres:// URL for the pgx/v5 driver.
func postgresMigrationURL(url string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(url, scheme); ok {
			return "pgx5://" + rest
		}
	}
	return url
}
