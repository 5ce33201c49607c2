package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	opCreate = "create"
	opClick  = "click"
)

// logEntry is one line of the storage file.
type logEntry struct {
	Op          string    `json:"op"`
	ID          int64     `json:"id,omitempty"`
	OriginalURL string    `json:"original_url,omitempty"`
	ShortCode   string    `json:"short_code"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// FileStorage is an append-only JSON lines log replayed into memory on
// open. Every mutation is written and synced before it is applied, so a
// successful call is on disk.
type FileStorage struct {
	mu     sync.Mutex
	mem    *MemoryStorage
	file   *os.File
	logger *zap.Logger
}

func NewFileStorage(p string, logger *zap.Logger) (*FileStorage, error) {
	if err := os.MkdirAll(filepath.Dir(p), 0770); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(p, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0660)
	if err != nil {
		return nil, err
	}

	mem, _ := CreateMemoryStorage()
	fs := &FileStorage{
		mem:    mem,
		file:   file,
		logger: logger,
	}

	if err := fs.replay(); err != nil {
		file.Close()
		return nil, err
	}

	return fs, nil
}

func (fs *FileStorage) FindByURL(ctx context.Context, originalURL string) (*URLMapping, error) {
	return fs.mem.FindByURL(ctx, originalURL)
}

func (fs *FileStorage) FindByCode(ctx context.Context, code string) (*URLMapping, error) {
	return fs.mem.FindByCode(ctx, code)
}

func (fs *FileStorage) TryCreate(_ context.Context, originalURL, code string) (*URLMapping, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.mem.mu.Lock()
	defer fs.mem.mu.Unlock()

	if err := fs.mem.checkFree(originalURL, code); err != nil {
		return nil, err
	}

	rec := URLMapping{
		ID:          fs.mem.lastID + 1,
		OriginalURL: originalURL,
		ShortCode:   code,
		CreatedAt:   fs.mem.now().UTC(),
	}

	err := fs.write(logEntry{
		Op:          opCreate,
		ID:          rec.ID,
		OriginalURL: rec.OriginalURL,
		ShortCode:   rec.ShortCode,
		CreatedAt:   rec.CreatedAt,
	})
	if err != nil {
		return nil, err
	}

	fs.mem.insert(rec)

	return fs.mem.copyOf(code), nil
}

func (fs *FileStorage) IncrementClicks(_ context.Context, code string) (*URLMapping, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.mem.mu.Lock()
	defer fs.mem.mu.Unlock()

	rec, ok := fs.mem.byCode[code]
	if !ok {
		return nil, ErrNotFound
	}

	if err := fs.write(logEntry{Op: opClick, ShortCode: code}); err != nil {
		return nil, err
	}
	rec.Clicks++

	return fs.mem.copyOf(code), nil
}

func (fs *FileStorage) PingContext(context.Context) error {
	_, err := fs.file.Stat()
	return err
}

func (fs *FileStorage) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	return fs.file.Close()
}

// write must be called with fs.mu held.
func (fs *FileStorage) write(e logEntry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}

	if _, err := fs.file.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("append to storage file: %w", err)
	}

	if err := fs.file.Sync(); err != nil {
		return fmt.Errorf("sync storage file: %w", err)
	}

	return nil
}

func (fs *FileStorage) replay() error {
	if _, err := fs.file.Seek(0, io.SeekStart); err != nil {
		return err
	}

	var creates, clicks int

	scanner := bufio.NewScanner(fs.file)
	for scanner.Scan() {
		var e logEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return fmt.Errorf("failed to parse JSON line: %w", err)
		}

		switch e.Op {
		case opCreate:
			fs.mem.insert(URLMapping{
				ID:          e.ID,
				OriginalURL: e.OriginalURL,
				ShortCode:   e.ShortCode,
				CreatedAt:   e.CreatedAt,
			})
			creates++
		case opClick:
			if rec, ok := fs.mem.byCode[e.ShortCode]; ok {
				rec.Clicks++
				clicks++
			}
		default:
			fs.logger.Warn("skipping unknown storage entry", zap.String("op", e.Op))
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}

	fs.logger.Info("storage file loaded",
		zap.String("path", fs.file.Name()),
		zap.Int("mappings", creates),
		zap.Int("clicks", clicks),
	)

	return nil
}
