package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Recent tracks members by their last access time in a redis sorted set.
type Recent struct {
	client *redis.Client
	key    string
}

func NewRecent(client *redis.Client, key string) *Recent {
	return &Recent{
		client: client,
		key:    key,
	}
}

func (r *Recent) Touch(ctx context.Context, member string, at time.Time) error {
	return r.client.ZAdd(ctx, r.key, redis.Z{
		Score:  float64(at.Unix()),
		Member: member,
	}).Err()
}

// Since returns at most limit members accessed at or after t, most recent first.
func (r *Recent) Since(ctx context.Context, t time.Time, limit int64) ([]string, error) {
	return r.client.ZRevRangeByScore(ctx, r.key, &redis.ZRangeBy{
		Min:   strconv.FormatInt(t.Unix(), 10),
		Max:   "+inf",
		Count: limit,
	}).Result()
}

// Trim drops members last accessed before t.
func (r *Recent) Trim(ctx context.Context, t time.Time) (int64, error) {
	return r.client.ZRemRangeByScore(ctx, r.key, "-inf", "("+strconv.FormatInt(t.Unix(), 10)).Result()
}
