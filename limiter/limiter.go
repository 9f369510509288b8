package limiter

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultWindow replaces a window that is zero or negative.
const DefaultWindow = time.Minute

// Strategy decides whether one more hit on key fits in limit per window.
type Strategy interface {
	Allow(ctx context.Context, rdb *redis.Client, key string, limit int, window time.Duration) (bool, error)
}

type Manager struct {
	rdb      *redis.Client
	strategy Strategy
	prefix   string
}

func NewManager(rdb *redis.Client, strategy Strategy) *Manager {
	return &Manager{
		rdb:      rdb,
		strategy: strategy,
		prefix:   "limiter:",
	}
}

// NewStrategy maps a config name to a strategy; unknown names get the fixed window.
func NewStrategy(name string) Strategy {
	switch name {
	case "token_bucket", "tokenBucket":
		return &TokenBucketStrategy{now: time.Now}
	default:
		return &FixedWindowStrategy{}
	}
}

func (m *Manager) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if window <= 0 {
		window = DefaultWindow
	}
	return m.strategy.Allow(ctx, m.rdb, m.prefix+key, limit, window)
}

// FixedWindowStrategy counts hits per key and resets the counter every window.
type FixedWindowStrategy struct{}

const fixedWindowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[2])
end
if current > tonumber(ARGV[1]) then
	return 0
end
return 1
`

func (s *FixedWindowStrategy) Allow(ctx context.Context, rdb *redis.Client, key string, limit int, window time.Duration) (bool, error) {
	seconds := int(window.Seconds())
	if seconds < 1 {
		seconds = 1
	}

	result, err := rdb.Eval(ctx, fixedWindowScript, []string{key}, limit, seconds).Int()
	if err != nil {
		return false, err
	}
	return result == 1, nil
}

// TokenBucketStrategy refills limit tokens per window and lets bursts up to limit.
type TokenBucketStrategy struct {
	now func() time.Time
}

const tokenBucketScript = `
local capacity = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local info = redis.call("HMGET", KEYS[1], "tokens", "last_time")
local tokens = tonumber(info[1])
local last_time = tonumber(info[2])

if tokens == nil then
	tokens = capacity
	last_time = now
end

local delta = math.max(0, now - last_time)
tokens = math.min(capacity, tokens + delta * rate)

if tokens >= 1 then
	tokens = tokens - 1
	redis.call("HSET", KEYS[1], "tokens", tostring(tokens), "last_time", tostring(now))
	redis.call("EXPIRE", KEYS[1], ARGV[4])
	return 1
end
return 0
`

func (s *TokenBucketStrategy) Allow(ctx context.Context, rdb *redis.Client, key string, limit int, window time.Duration) (bool, error) {
	if window <= 0 {
		window = DefaultWindow
	}
	rate := float64(limit) / window.Seconds()
	if rate <= 0 {
		rate = 1
	}

	now := time.Now
	if s.now != nil {
		now = s.now
	}

	ttl := int(window.Seconds()) * 2
	if ttl < 60 {
		ttl = 60
	}

	result, err := rdb.Eval(ctx, tokenBucketScript, []string{key}, limit, rate, now().Unix(), ttl).Int()
	if err != nil {
		return false, err
	}
	return result == 1, nil
}
