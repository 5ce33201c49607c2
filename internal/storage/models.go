// Package storage holds the URL mapping model, the store error taxonomy and
// the non-SQL mapping stores (memory, append-only file and Redis).
package storage

import (
	"errors"
	"time"
)

// URLMapping is one shortened URL.
type URLMapping struct {
	ID          int64     `json:"id"`
	OriginalURL string    `json:"original_url"`
	ShortCode   string    `json:"short_code"`
	CreatedAt   time.Time `json:"created_at"`
	Clicks      int64     `json:"clicks"`
}

var (
	// ErrNotFound means no mapping matched the lookup.
	ErrNotFound = errors.New("not found")
	// ErrCodeCollision means the short code is already held by another mapping.
	ErrCodeCollision = errors.New("short code already exists")
	// ErrDuplicateURL means the original URL already has a mapping.
	ErrDuplicateURL = errors.New("original url already exists")
)
