package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/atinyakov/shorty/internal/storage"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS url_mappings (
	id BIGSERIAL PRIMARY KEY,
	original_url TEXT NOT NULL UNIQUE,
	short_code VARCHAR(32) NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	clicks BIGINT NOT NULL DEFAULT 0
);`

var postgresDialect = dialect{
	name:       "postgres",
	findByURL:  "SELECT " + mappingColumns + " FROM url_mappings WHERE original_url = $1;",
	findByCode: "SELECT " + mappingColumns + " FROM url_mappings WHERE short_code = $1;",
	insert:     "INSERT INTO url_mappings(original_url, short_code, created_at) VALUES ($1, $2, $3) RETURNING " + mappingColumns + ";",
	increment:  "UPDATE url_mappings SET clicks = clicks + 1 WHERE short_code = $1 RETURNING " + mappingColumns + ";",
	classify:   classifyPostgres,
}

// InitPostgres opens dsn with the pgx driver and creates the schema.
func InitPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres schema: %w", err)
	}

	return db, nil
}

func NewPostgres(db *sql.DB, logger *zap.Logger) *URLRepository {
	return newRepository(db, postgresDialect, logger)
}

func classifyPostgres(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return err
	}

	switch {
	case strings.Contains(pgErr.ConstraintName, "short_code"):
		return storage.ErrCodeCollision
	case strings.Contains(pgErr.ConstraintName, "original_url"):
		return storage.ErrDuplicateURL
	}

	return err
}
