package storage_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/shorty/internal/storage"
)

// mappingStore is the method set every backend in this package provides.
type mappingStore interface {
	FindByURL(context.Context, string) (*storage.URLMapping, error)
	FindByCode(context.Context, string) (*storage.URLMapping, error)
	TryCreate(context.Context, string, string) (*storage.URLMapping, error)
	IncrementClicks(context.Context, string) (*storage.URLMapping, error)
	PingContext(context.Context) error
	Close() error
}

func runStoreContract(t *testing.T, newStore func(t *testing.T) mappingStore) {
	t.Run("create and find", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		created, err := s.TryCreate(ctx, "https://example.com", "abc123")
		require.NoError(t, err)
		assert.Positive(t, created.ID)
		assert.Equal(t, "https://example.com", created.OriginalURL)
		assert.Equal(t, "abc123", created.ShortCode)
		assert.Zero(t, created.Clicks)
		assert.False(t, created.CreatedAt.IsZero())

		byCode, err := s.FindByCode(ctx, "abc123")
		require.NoError(t, err)
		assert.Equal(t, created.ID, byCode.ID)
		assert.Equal(t, created.OriginalURL, byCode.OriginalURL)

		byURL, err := s.FindByURL(ctx, "https://example.com")
		require.NoError(t, err)
		assert.Equal(t, "abc123", byURL.ShortCode)
	})

	t.Run("ids are not reused", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		a, err := s.TryCreate(ctx, "https://a.example.com", "aaaaaa")
		require.NoError(t, err)
		b, err := s.TryCreate(ctx, "https://b.example.com", "bbbbbb")
		require.NoError(t, err)

		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("not found", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.FindByCode(ctx, "nope00")
		require.ErrorIs(t, err, storage.ErrNotFound)

		_, err = s.FindByURL(ctx, "https://missing.example.com")
		require.ErrorIs(t, err, storage.ErrNotFound)

		_, err = s.IncrementClicks(ctx, "nope00")
		require.ErrorIs(t, err, storage.ErrNotFound)

		_, err = s.FindByCode(ctx, "nope00")
		require.ErrorIs(t, err, storage.ErrNotFound, "increment must not create a row")
	})

	t.Run("code collision", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.TryCreate(ctx, "https://one.example.com", "same00")
		require.NoError(t, err)

		_, err = s.TryCreate(ctx, "https://two.example.com", "same00")
		require.ErrorIs(t, err, storage.ErrCodeCollision)

		_, err = s.FindByURL(ctx, "https://two.example.com")
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("duplicate url", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.TryCreate(ctx, "https://dup.example.com", "first0")
		require.NoError(t, err)

		_, err = s.TryCreate(ctx, "https://dup.example.com", "secnd0")
		require.ErrorIs(t, err, storage.ErrDuplicateURL)

		_, err = s.FindByCode(ctx, "secnd0")
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("increment", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.TryCreate(ctx, "https://count.example.com", "cnt000")
		require.NoError(t, err)

		for i := int64(1); i <= 3; i++ {
			rec, err := s.IncrementClicks(ctx, "cnt000")
			require.NoError(t, err)
			assert.Equal(t, i, rec.Clicks)
			assert.Equal(t, "https://count.example.com", rec.OriginalURL)
		}
	})

	t.Run("concurrent increments are not lost", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.TryCreate(ctx, "https://hot.example.com", "hot000")
		require.NoError(t, err)

		const workers, perWorker = 8, 25
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < perWorker; i++ {
					_, err := s.IncrementClicks(ctx, "hot000")
					assert.NoError(t, err)
				}
			}()
		}
		wg.Wait()

		rec, err := s.FindByCode(ctx, "hot000")
		require.NoError(t, err)
		assert.Equal(t, int64(workers*perWorker), rec.Clicks)
	})

	t.Run("concurrent creates of one code", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		const racers = 10
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			winners int
		)
		for i := 0; i < racers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := s.TryCreate(ctx, fmt.Sprintf("https://race%d.example.com", i), "race00")
				if err == nil {
					mu.Lock()
					winners++
					mu.Unlock()
					return
				}
				assert.ErrorIs(t, err, storage.ErrCodeCollision)
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 1, winners)
	})

	t.Run("ping", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.PingContext(context.Background()))
	})
}
