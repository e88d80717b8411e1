package redis_repo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrSessionNotFound = errors.New("session not found")
)

// ISessionRepository refresh token的redis儲存
// token id -> user id, TTL到期自動失效, 登出時主動刪除
type ISessionRepository interface {
	CreateSession(ctx context.Context, tokenID string, userID uint, ttl time.Duration) error
	GetSessionUserID(ctx context.Context, tokenID string) (uint, error)
	DeleteSession(ctx context.Context, tokenID string) error
}

type SessionRedisRepo struct {
	client *redis.Client
	prefix string
}

func NewSessionRepo(client *redis.Client, prefix string) *SessionRedisRepo {
	return &SessionRedisRepo{client: client, prefix: prefix}
}

var _ ISessionRepository = (*SessionRedisRepo)(nil)

func (s *SessionRedisRepo) sessionKey(tokenID string) string {
	return fmt.Sprintf("%s:session:%s", s.prefix, tokenID)
}

func (s *SessionRedisRepo) CreateSession(ctx context.Context, tokenID string, userID uint, ttl time.Duration) error {
	return s.client.Set(ctx, s.sessionKey(tokenID), userID, ttl).Err()
}

func (s *SessionRedisRepo) GetSessionUserID(ctx context.Context, tokenID string) (uint, error) {
	val, err := s.client.Get(ctx, s.sessionKey(tokenID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrSessionNotFound
		}
		return 0, err
	}

	userID, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(userID), nil
}

func (s *SessionRedisRepo) DeleteSession(ctx context.Context, tokenID string) error {
	return s.client.Del(ctx, s.sessionKey(tokenID)).Err()
}
