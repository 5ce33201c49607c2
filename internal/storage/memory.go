package storage

import (
	"context"
	"sync"
	"time"
)

// MemoryStorage keeps mappings in process memory. All operations hold one
// mutex, which makes create and increment atomic.
type MemoryStorage struct {
	mu     sync.RWMutex
	byCode map[string]*URLMapping
	byURL  map[string]string
	lastID int64
	now    func() time.Time
}

func CreateMemoryStorage() (*MemoryStorage, error) {
	return &MemoryStorage{
		byCode: make(map[string]*URLMapping),
		byURL:  make(map[string]string),
		now:    time.Now,
	}, nil
}

func (m *MemoryStorage) FindByURL(_ context.Context, originalURL string) (*URLMapping, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	code, ok := m.byURL[originalURL]
	if !ok {
		return nil, ErrNotFound
	}

	return m.copyOf(code), nil
}

func (m *MemoryStorage) FindByCode(_ context.Context, code string) (*URLMapping, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.byCode[code]; !ok {
		return nil, ErrNotFound
	}

	return m.copyOf(code), nil
}

func (m *MemoryStorage) TryCreate(_ context.Context, originalURL, code string) (*URLMapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkFree(originalURL, code); err != nil {
		return nil, err
	}

	m.insert(URLMapping{
		ID:          m.lastID + 1,
		OriginalURL: originalURL,
		ShortCode:   code,
		CreatedAt:   m.now().UTC(),
	})

	return m.copyOf(code), nil
}

func (m *MemoryStorage) IncrementClicks(_ context.Context, code string) (*URLMapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.byCode[code]
	if !ok {
		return nil, ErrNotFound
	}
	rec.Clicks++

	return m.copyOf(code), nil
}

func (m *MemoryStorage) PingContext(context.Context) error {
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}

// checkFree must be called with the write lock held.
func (m *MemoryStorage) checkFree(originalURL, code string) error {
	if _, taken := m.byCode[code]; taken {
		return ErrCodeCollision
	}
	if _, taken := m.byURL[originalURL]; taken {
		return ErrDuplicateURL
	}

	return nil
}

// insert must be called with the write lock held.
func (m *MemoryStorage) insert(rec URLMapping) {
	m.byCode[rec.ShortCode] = &rec
	m.byURL[rec.OriginalURL] = rec.ShortCode
	if rec.ID > m.lastID {
		m.lastID = rec.ID
	}
}

func (m *MemoryStorage) copyOf(code string) *URLMapping {
	rec := *m.byCode[code]
	return &rec
}
