package gate

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "voterlookup:ratelimit:"

// slidingWindow prunes, counts and conditionally records in one script.
// Scripts execute atomically in Redis, so two concurrent calls can never
// both observe quota-1 and both admit.
//
// KEYS[1] window key; ARGV: cutoff (ms), quota, now (ms), member, ttl (ms).
var slidingWindow = redis.NewScript(`
redis.call("ZREMRANGEBYSCORE", KEYS[1], "0", ARGV[1])
if redis.call("ZCARD", KEYS[1]) >= tonumber(ARGV[2]) then
	return 0
end
redis.call("ZADD", KEYS[1], ARGV[3], ARGV[4])
redis.call("PEXPIRE", KEYS[1], ARGV[5])
return 1
`)

// RedisWindow is a sliding-window limiter backed by a Redis sorted set per
// identity, for deployments running more than one instance. Members are
// scored by request time; pruning, counting and recording happen in one
// atomic script so the quota holds across instances.
//
// The limiter fails open: when Redis is unreachable the request is admitted
// and the error logged, so a cache outage degrades to unlimited rather than
// denying service.
type RedisWindow struct {
	client *redis.Client
	quota  int
	window time.Duration
}

// NewRedisWindow creates a Redis-backed limiter with the same quota/window
// semantics as MemoryWindow.
func NewRedisWindow(client *redis.Client, quota int, window time.Duration) *RedisWindow {
	return &RedisWindow{client: client, quota: quota, window: window}
}

func (w *RedisWindow) Allow(ctx context.Context, identity string) Decision {
	key := redisKeyPrefix + identity
	now := time.Now()

	admitted, err := slidingWindow.Run(ctx, w.client, []string{key},
		strconv.FormatInt(now.Add(-w.window).UnixMilli(), 10),
		w.quota,
		strconv.FormatInt(now.UnixMilli(), 10),
		uuid.NewString(),
		w.window.Milliseconds(),
	).Int64()
	if err != nil {
		slog.Warn("rate window: redis unavailable, admitting", "error", err)
		return Decision{Allowed: true}
	}

	if admitted == 0 {
		return Decision{Allowed: false, RetryAfter: w.window}
	}
	return Decision{Allowed: true}
}
