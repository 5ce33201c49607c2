// Package repository implements the mapping store on SQL databases.
// PostgreSQL and SQLite share one implementation and differ only in
// placeholder syntax and in how a unique violation is reported.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/shorty/internal/storage"
)

const mappingColumns = "id, original_url, short_code, created_at, clicks"

// dialect carries the per-database SQL text and error mapping.
type dialect struct {
	name       string
	findByURL  string
	findByCode string
	insert     string
	increment  string
	// classify maps a driver error from insert onto the storage error
	// taxonomy, or returns it unchanged.
	classify func(error) error
}

type URLRepository struct {
	db      *sql.DB
	dialect dialect
	logger  *zap.Logger
	now     func() time.Time
}

func newRepository(db *sql.DB, d dialect, logger *zap.Logger) *URLRepository {
	return &URLRepository{
		db:      db,
		dialect: d,
		logger:  logger,
		now:     time.Now,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMapping(row rowScanner) (*storage.URLMapping, error) {
	var m storage.URLMapping
	if err := row.Scan(&m.ID, &m.OriginalURL, &m.ShortCode, &m.CreatedAt, &m.Clicks); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	m.CreatedAt = m.CreatedAt.UTC()

	return &m, nil
}

func (r *URLRepository) FindByURL(ctx context.Context, originalURL string) (*storage.URLMapping, error) {
	return scanMapping(r.db.QueryRowContext(ctx, r.dialect.findByURL, originalURL))
}

func (r *URLRepository) FindByCode(ctx context.Context, code string) (*storage.URLMapping, error) {
	return scanMapping(r.db.QueryRowContext(ctx, r.dialect.findByCode, code))
}

func (r *URLRepository) TryCreate(ctx context.Context, originalURL, code string) (*storage.URLMapping, error) {
	var created *storage.URLMapping

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, r.dialect.insert, originalURL, code, r.now().UTC())

		m, err := scanMapping(row)
		if err != nil {
			return r.dialect.classify(err)
		}
		created = m

		return nil
	})
	if err != nil {
		if !errors.Is(err, storage.ErrCodeCollision) && !errors.Is(err, storage.ErrDuplicateURL) {
			r.logger.Error("insert mapping failed", zap.String("db", r.dialect.name), zap.Error(err))
		}
		return nil, err
	}

	return created, nil
}

// IncrementClicks is a single UPDATE ... RETURNING, so the database
// serializes concurrent increments of the same row.
func (r *URLRepository) IncrementClicks(ctx context.Context, code string) (*storage.URLMapping, error) {
	return scanMapping(r.db.QueryRowContext(ctx, r.dialect.increment, code))
}

func (r *URLRepository) PingContext(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *URLRepository) Close() error {
	return r.db.Close()
}

// withTx runs fn in a transaction. The transaction is rolled back on every
// exit path unless the commit succeeded.
func (r *URLRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			r.logger.Warn("rollback failed", zap.Error(err))
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true

	return nil
}
