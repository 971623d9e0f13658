package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zedemy/zedemy/backend/go-services/internal/apperr"
)

// RedisRepository stores sessions as JSON under "<prefix><refreshToken>"
// with a TTL matching the session expiry.
type RedisRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisRepository(client *redis.Client, prefix string) *RedisRepository {
	if prefix == "" {
		prefix = "zedemy:session:"
	}
	return &RedisRepository{client: client, prefix: prefix}
}

func (r *RedisRepository) key(refresh string) string {
	return r.prefix + refresh
}

func (r *RedisRepository) Create(ctx context.Context, s *Session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return apperr.Encoding("encode session", err)
	}
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}
	return apperr.Upstream("store session", r.client.Set(ctx, r.key(s.RefreshToken), b, ttl).Err())
}

func (r *RedisRepository) GetByRefresh(ctx context.Context, refresh string) (*Session, error) {
	b, err := r.client.Get(ctx, r.key(refresh)).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("session: %w", apperr.ErrNotFound)
	}
	if err != nil {
		return nil, apperr.Upstream("load session", err)
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, apperr.Encoding("decode session", err)
	}
	return &s, nil
}

func (r *RedisRepository) DeleteByRefresh(ctx context.Context, refresh string) error {
	return apperr.Upstream("delete session", r.client.Del(ctx, r.key(refresh)).Err())
}

// Blacklist remembers revoked access tokens until they would have expired.
// A nil client disables it.
type Blacklist struct {
	client *redis.Client
}

func NewBlacklist(client *redis.Client) *Blacklist {
	return &Blacklist{client: client}
}

func blacklistKey(token string) string { return "zedemy:blacklist:access:" + token }

// Revoke stores token for ttl. Tokens past their expiry are skipped.
func (b *Blacklist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if b == nil || b.client == nil || ttl <= 0 {
		return nil
	}
	return apperr.Upstream("blacklist token", b.client.Set(ctx, blacklistKey(token), "1", ttl).Err())
}

func (b *Blacklist) IsRevoked(ctx context.Context, token string) (bool, error) {
	if b == nil || b.client == nil {
		return false, nil
	}
	n, err := b.client.Exists(ctx, blacklistKey(token)).Result()
	if err != nil {
		return false, apperr.Upstream("check blacklist", err)
	}
	return n > 0, nil
}
