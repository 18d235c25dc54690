package channels

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// ListStore mendefinisikan operasi list minimal di shared store.
// Push menambahkan ke ekor list, Range membaca seluruh isi tanpa menghapus,
// Trim membuang n elemen pertama (suffix yang masuk bersamaan tetap aman).
type ListStore interface {
	Push(ctx context.Context, key string, value string) error
	Range(ctx context.Context, key string) ([]string, error)
	Trim(ctx context.Context, key string, n int64) error
}

type redisStore struct {
	client *redis.Client
}

// NewRedisStore membungkus go-redis client sebagai ListStore
func NewRedisStore(client *redis.Client) ListStore {
	return &redisStore{client: client}
}

func (r *redisStore) Push(ctx context.Context, key string, value string) error {
	return r.client.RPush(ctx, key, value).Err()
}

func (r *redisStore) Range(ctx context.Context, key string) ([]string, error) {
	return r.client.LRange(ctx, key, 0, -1).Result()
}

func (r *redisStore) Trim(ctx context.Context, key string, n int64) error {
	if n <= 0 {
		return nil
	}
	// LTRIM key n -1 menyisakan elemen dari index n ke akhir
	return r.client.LTrim(ctx, key, n, -1).Err()
}
