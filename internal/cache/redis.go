package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/oggyb/campusmatch/internal/config"
	"github.com/redis/go-redis/v9"
)

// LikeCountTTL bounds how long a liked-you counter survives without access.
const LikeCountTTL = time.Hour

const roomChannelPrefix = "chat:room:"

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

func (c *RedisCache) Del(ctx context.Context, keys ...string) error {
	return c.Client.Del(ctx, keys...).Err()
}

// KeyForLikeCount generates the Redis key for a user's liked-you counter.
func (c *RedisCache) KeyForLikeCount(email string) string {
	return fmt.Sprintf("likes:count:%s", email)
}

// GetLikeCount returns the cached counter. ok is false on a cache miss.
// A hit refreshes the TTL since the user is active.
func (c *RedisCache) GetLikeCount(ctx context.Context, email string) (count uint64, ok bool, err error) {
	key := c.KeyForLikeCount(email)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	_ = c.Client.Expire(ctx, key, LikeCountTTL).Err()
	return n, true, nil
}

// SetLikeCount stores the counter with a fresh TTL.
func (c *RedisCache) SetLikeCount(ctx context.Context, email string, count uint64) error {
	return c.Client.Set(ctx, c.KeyForLikeCount(email), strconv.FormatUint(count, 10), LikeCountTTL).Err()
}

// incrIfExists bumps KEYS[1] and refreshes its TTL (ARGV[1] seconds) only when
// the key is present. Returns 1 when bumped.
var incrIfExists = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return 0
end
redis.call("INCR", KEYS[1])
redis.call("EXPIRE", KEYS[1], ARGV[1])
return 1
`)

// IncrLikeCount bumps an existing counter. A missing key stays missing so the
// next read recounts from the database instead of trusting a partial value.
// The check and the bump run as one script, so a concurrent expiry or
// invalidation can never leave a counter that starts from zero.
func (c *RedisCache) IncrLikeCount(ctx context.Context, email string) error {
	ttl := int64(LikeCountTTL / time.Second)
	return incrIfExists.Run(ctx, c.Client, []string{c.KeyForLikeCount(email)}, ttl).Err()
}

// InvalidateLikeCounts drops the counters of the given users.
func (c *RedisCache) InvalidateLikeCounts(ctx context.Context, emails ...string) error {
	keys := make([]string, 0, len(emails))
	for _, e := range emails {
		keys = append(keys, c.KeyForLikeCount(e))
	}
	if len(keys) == 0 {
		return nil
	}
	return c.Del(ctx, keys...)
}

// RoomChannel is the pub/sub channel that carries frames for a chat room.
func RoomChannel(roomID string) string {
	return roomChannelPrefix + roomID
}

// PublishRoom publishes a frame to every process subscribed to the room pattern.
func (c *RedisCache) PublishRoom(ctx context.Context, roomID string, payload []byte) error {
	return c.Client.Publish(ctx, RoomChannel(roomID), payload).Err()
}

// SubscribeRooms delivers every room frame to onMessage until ctx is done.
// The subscription is confirmed before SubscribeRooms returns.
func (c *RedisCache) SubscribeRooms(ctx context.Context, onMessage func(roomID string, payload []byte)) error {
	sub := c.Client.PSubscribe(ctx, roomChannelPrefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				onMessage(msg.Channel[len(roomChannelPrefix):], []byte(msg.Payload))
			}
		}
	}()
	return nil
}
