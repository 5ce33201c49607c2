package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atinyakov/shorty/internal/storage"
)

var mappingCols = []string{"id", "original_url", "short_code", "created_at", "clicks"}

// Helper to set up a mock DB and repository
func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *URLRepository) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewPostgres(db, zap.NewNop())
	return db, mock, repo
}

func TestTryCreate(t *testing.T) {
	_, mock, repo := setupMockDB(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return created }

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO url_mappings\(original_url, short_code, created_at\) VALUES \(\$1, \$2, \$3\) RETURNING`).
		WithArgs("https://example.com", "abc123", created).
		WillReturnRows(sqlmock.NewRows(mappingCols).
			AddRow(int64(7), "https://example.com", "abc123", created, int64(0)))
	mock.ExpectCommit()

	result, err := repo.TryCreate(context.Background(), "https://example.com", "abc123")

	require.NoError(t, err)
	assert.Equal(t, int64(7), result.ID)
	assert.Equal(t, "abc123", result.ShortCode)
	assert.Equal(t, created, result.CreatedAt)
	assert.Zero(t, result.Clicks)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTryCreate_UniqueViolations(t *testing.T) {
	tests := []struct {
		name       string
		constraint string
		want       error
	}{
		{name: "code collision", constraint: "url_mappings_short_code_key", want: storage.ErrCodeCollision},
		{name: "duplicate url", constraint: "url_mappings_original_url_key", want: storage.ErrDuplicateURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, mock, repo := setupMockDB(t)

			mock.ExpectBegin()
			mock.ExpectQuery(`INSERT INTO url_mappings`).
				WithArgs("https://example.com", "abc123", sqlmock.AnyArg()).
				WillReturnError(&pgconn.PgError{
					Code:           pgerrcode.UniqueViolation,
					ConstraintName: tt.constraint,
				})
			mock.ExpectRollback()

			_, err := repo.TryCreate(context.Background(), "https://example.com", "abc123")

			require.ErrorIs(t, err, tt.want)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestTryCreate_OtherErrorRollsBack(t *testing.T) {
	_, mock, repo := setupMockDB(t)
	dbErr := &pgconn.PgError{Code: pgerrcode.NotNullViolation}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO url_mappings`).WillReturnError(dbErr)
	mock.ExpectRollback()

	_, err := repo.TryCreate(context.Background(), "https://example.com", "abc123")

	require.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, storage.ErrCodeCollision)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTryCreate_CommitFailure(t *testing.T) {
	_, mock, repo := setupMockDB(t)
	commitErr := errors.New("connection reset")

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO url_mappings`).
		WillReturnRows(sqlmock.NewRows(mappingCols).
			AddRow(int64(1), "https://example.com", "abc123", time.Now(), int64(0)))
	mock.ExpectCommit().WillReturnError(commitErr)

	result, err := repo.TryCreate(context.Background(), "https://example.com", "abc123")

	require.ErrorIs(t, err, commitErr)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTryCreate_BeginFailure(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	_, err := repo.TryCreate(context.Background(), "https://example.com", "abc123")

	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByCode(t *testing.T) {
	_, mock, repo := setupMockDB(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, original_url, short_code, created_at, clicks FROM url_mappings WHERE short_code = \$1;`).
		WithArgs("abc123").
		WillReturnRows(sqlmock.NewRows(mappingCols).
			AddRow(int64(3), "https://example.com", "abc123", created, int64(42)))

	result, err := repo.FindByCode(context.Background(), "abc123")

	require.NoError(t, err)
	assert.Equal(t, "https://example.com", result.OriginalURL)
	assert.Equal(t, int64(42), result.Clicks)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByURL_NotFound(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	mock.ExpectQuery(`SELECT .* FROM url_mappings WHERE original_url = \$1;`).
		WithArgs("https://missing.example.com").
		WillReturnRows(sqlmock.NewRows(mappingCols))

	_, err := repo.FindByURL(context.Background(), "https://missing.example.com")

	require.ErrorIs(t, err, storage.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementClicks(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	mock.ExpectQuery(`UPDATE url_mappings SET clicks = clicks \+ 1 WHERE short_code = \$1 RETURNING`).
		WithArgs("abc123").
		WillReturnRows(sqlmock.NewRows(mappingCols).
			AddRow(int64(3), "https://example.com", "abc123", time.Now(), int64(5)))

	result, err := repo.IncrementClicks(context.Background(), "abc123")

	require.NoError(t, err)
	assert.Equal(t, int64(5), result.Clicks)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementClicks_NotFound(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	mock.ExpectQuery(`UPDATE url_mappings SET clicks = clicks \+ 1`).
		WithArgs("nope00").
		WillReturnRows(sqlmock.NewRows(mappingCols))

	_, err := repo.IncrementClicks(context.Background(), "nope00")

	require.ErrorIs(t, err, storage.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPingContext(t *testing.T) {
	_, mock, repo := setupMockDB(t)

	mock.ExpectPing()
	require.NoError(t, repo.PingContext(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("down"))
	require.Error(t, repo.PingContext(context.Background()))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassifyPostgres_PassesThrough(t *testing.T) {
	plain := errors.New("boom")
	assert.Same(t, plain, classifyPostgres(plain))

	other := &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "something_else"}
	assert.ErrorIs(t, classifyPostgres(other), other)
}
