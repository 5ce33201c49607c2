package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKeyPrefix = "shorty:"

// createScript inserts a mapping only when both the code and the URL are
// free. KEYS: code hash, url index, id sequence. ARGV: url, code, created_at.
var createScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return -1
end
if redis.call("EXISTS", KEYS[2]) == 1 then
	return -2
end
local id = redis.call("INCR", KEYS[3])
redis.call("HSET", KEYS[1], "id", id, "original_url", ARGV[1], "short_code", ARGV[2], "created_at", ARGV[3], "clicks", 0)
redis.call("SET", KEYS[2], ARGV[2])
return id
`)

// incrementScript bumps the counter of an existing mapping and returns the
// updated hash. KEYS: code hash.
var incrementScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return false
end
redis.call("HINCRBY", KEYS[1], "clicks", 1)
return redis.call("HGETALL", KEYS[1])
`)

// RedisStorage keeps each mapping in a hash keyed by short code plus a
// string index from original URL to code. Creation and increments run as
// Lua scripts, so each is a single atomic step on the server.
type RedisStorage struct {
	client *redis.Client
	logger *zap.Logger
	now    func() time.Time
}

func NewRedisStorage(client *redis.Client, logger *zap.Logger) *RedisStorage {
	return &RedisStorage{
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

// OpenRedis connects to addr and checks the connection.
func OpenRedis(ctx context.Context, addr string, logger *zap.Logger) (*RedisStorage, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return NewRedisStorage(client, logger), nil
}

func codeKey(code string) string {
	return redisKeyPrefix + "code:" + code
}

func urlKey(originalURL string) string {
	return redisKeyPrefix + "url:" + originalURL
}

func seqKey() string {
	return redisKeyPrefix + "seq"
}

func (r *RedisStorage) FindByURL(ctx context.Context, originalURL string) (*URLMapping, error) {
	code, err := r.client.Get(ctx, urlKey(originalURL)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return r.FindByCode(ctx, code)
}

func (r *RedisStorage) FindByCode(ctx context.Context, code string) (*URLMapping, error) {
	fields, err := r.client.HGetAll(ctx, codeKey(code)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}

	return mappingFromHash(fields)
}

func (r *RedisStorage) TryCreate(ctx context.Context, originalURL, code string) (*URLMapping, error) {
	createdAt := r.now().UTC()

	id, err := createScript.Run(ctx, r.client,
		[]string{codeKey(code), urlKey(originalURL), seqKey()},
		originalURL, code, createdAt.Format(time.RFC3339Nano),
	).Int64()
	if err != nil {
		return nil, err
	}

	switch id {
	case -1:
		return nil, ErrCodeCollision
	case -2:
		return nil, ErrDuplicateURL
	}

	return &URLMapping{
		ID:          id,
		OriginalURL: originalURL,
		ShortCode:   code,
		CreatedAt:   createdAt,
	}, nil
}

func (r *RedisStorage) IncrementClicks(ctx context.Context, code string) (*URLMapping, error) {
	res, err := incrementScript.Run(ctx, r.client, []string{codeKey(code)}).StringSlice()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	fields := make(map[string]string, len(res)/2)
	for i := 0; i+1 < len(res); i += 2 {
		fields[res[i]] = res[i+1]
	}

	return mappingFromHash(fields)
}

func (r *RedisStorage) PingContext(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStorage) Close() error {
	return r.client.Close()
}

func mappingFromHash(fields map[string]string) (*URLMapping, error) {
	id, err := strconv.ParseInt(fields["id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad id in redis hash: %w", err)
	}

	clicks, err := strconv.ParseInt(fields["clicks"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad clicks in redis hash: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return nil, fmt.Errorf("bad created_at in redis hash: %w", err)
	}

	return &URLMapping{
		ID:          id,
		OriginalURL: fields["original_url"],
		ShortCode:   fields["short_code"],
		CreatedAt:   createdAt,
		Clicks:      clicks,
	}, nil
}
