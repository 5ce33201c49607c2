package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/atinyakov/shorty/internal/storage"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS url_mappings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	original_url TEXT NOT NULL UNIQUE,
	short_code TEXT NOT NULL UNIQUE,
	created_at DATETIME NOT NULL,
	clicks INTEGER NOT NULL DEFAULT 0
);`

var sqliteDialect = dialect{
	name:       "sqlite",
	findByURL:  "SELECT " + mappingColumns + " FROM url_mappings WHERE original_url = ?;",
	findByCode: "SELECT " + mappingColumns + " FROM url_mappings WHERE short_code = ?;",
	insert:     "INSERT INTO url_mappings(original_url, short_code, created_at) VALUES (?, ?, ?) RETURNING " + mappingColumns + ";",
	increment:  "UPDATE url_mappings SET clicks = clicks + 1 WHERE short_code = ? RETURNING " + mappingColumns + ";",
	classify:   classifySQLite,
}

// InitSQLite opens (creating if needed) the database file at path and
// creates the schema. SQLite allows one writer at a time, so the pool is
// limited to a single connection.
func InitSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0770); err != nil {
		return nil, err
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	return db, nil
}

func NewSQLite(db *sql.DB, logger *zap.Logger) *URLRepository {
	return newRepository(db, sqliteDialect, logger)
}

func classifySQLite(err error) error {
	var sqlErr *sqlite.Error
	if !errors.As(err, &sqlErr) || sqlErr.Code() != sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return err
	}

	// "UNIQUE constraint failed: url_mappings.short_code"
	msg := sqlErr.Error()
	switch {
	case strings.Contains(msg, "short_code"):
		return storage.ErrCodeCollision
	case strings.Contains(msg, "original_url"):
		return storage.ErrDuplicateURL
	}

	return err
}
