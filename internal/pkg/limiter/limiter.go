package limiter

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type ILimiter interface {
	Allow(ctx context.Context, key string) bool
}

// RedisClient 介面定義, 方便測試替換
type RedisClient interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

/*
SlideWindowLimiter redis滑動窗口限流器
報價端點共用, 多實例部署時限流狀態集中在redis
redis不可用時放行, 限流只是保護上游報價商, 不是安全邊界
*/
type SlideWindowLimiter struct {
	client RedisClient
	limit  int
	window time.Duration
	prefix string
}

func NewSlideWindowLimiter(client RedisClient, prefix string, limit int, window time.Duration) *SlideWindowLimiter {
	return &SlideWindowLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: prefix,
	}
}

var _ ILimiter = (*SlideWindowLimiter)(nil)

func (l *SlideWindowLimiter) Allow(ctx context.Context, key string) bool {
	luaScript := `
		local key = KEYS[1]
		local now = tonumber(ARGV[1])
		local window = tonumber(ARGV[2])
		local limit = tonumber(ARGV[3])

		-- 移除窗口外的紀錄
		redis.call('ZREMRANGEBYSCORE', key, 0, now - window)

		local count = redis.call('ZCARD', key)
		if count >= limit then
			return 0
		end

		redis.call('ZADD', key, now, now)
		redis.call('PEXPIRE', key, window)
		return 1
	`

	result, err := l.client.Eval(
		ctx,
		luaScript,
		[]string{l.prefix + ":" + key},
		time.Now().UnixNano(),
		l.window.Nanoseconds(),
		l.limit,
	).Int64()
	if err != nil {
		return true
	}

	return result == 1
}
