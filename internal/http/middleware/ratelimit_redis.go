package middleware

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript counts a hit and returns the count for the current
// window. A counter found without an expiry is given one, so a failed
// PEXPIRE cannot lock a key out forever.
const fixedWindowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 or redis.call("PTTL", KEYS[1]) < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`

const rateLimitKeyPrefix = "ratelimit:"

// RedisLimiter is a fixed-window limiter shared by every server instance.
// It fails open when Redis is unreachable or slower than opTimeout.
type RedisLimiter struct {
	client    *redis.Client
	script    *redis.Script
	opTimeout time.Duration
	logger    *slog.Logger
}

func NewRedisLimiter(client *redis.Client, opTimeout time.Duration, logger *slog.Logger) *RedisLimiter {
	if client == nil {
		return nil
	}
	if opTimeout <= 0 {
		opTimeout = 250 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLimiter{
		client:    client,
		script:    redis.NewScript(fixedWindowScript),
		opTimeout: opTimeout,
		logger:    logger,
	}
}

// windowKey scopes a counter to its limit and window, matching the bucket
// identity MemoryLimiter uses.
func windowKey(key string, limit int, window time.Duration) string {
	return rateLimitKeyPrefix + key + "|" + strconv.Itoa(limit) + "|" + window.String()
}

func (l *RedisLimiter) Allow(key string, limit int, window time.Duration) bool {
	if l == nil || key == "" || limit <= 0 || window <= 0 {
		return true
	}
	windowMillis := max(window.Milliseconds(), 1)
	ctx, cancel := context.WithTimeout(context.Background(), l.opTimeout)
	defer cancel()
	count, err := l.script.Run(ctx, l.client, []string{windowKey(key, limit, window)}, windowMillis).Int64()
	if err != nil {
		l.logger.Warn("rate limiter unavailable, allowing request", slog.String("key", key), slog.Any("error", err))
		return true
	}
	return count <= int64(limit)
}
