package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/commission-dashboard/sales-api/internal/core/domain"
	"github.com/commission-dashboard/sales-api/internal/core/ports"
)

const defaultCacheTTL = 10 * time.Minute

// TokenCache sits in front of a TokenRepository and keeps key lookups in Redis.
// Key format: auth:token:<key>
//
// Only FindByKey is served from the cache and read or write failures fall
// back to the store. Delete is the exception: it fails when the entry cannot
// be evicted, leaving the store untouched, so a revoked key is never served
// from a stale cache entry.
type TokenCache struct {
	next   ports.TokenRepository
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

var _ ports.TokenRepository = (*TokenCache)(nil)

func NewTokenCache(next ports.TokenRepository, client *redis.Client, ttl time.Duration, log zerolog.Logger) *TokenCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &TokenCache{next: next, client: client, ttl: ttl, log: log}
}

type cachedToken struct {
	Key       string    `json:"key"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (c *TokenCache) FindByKey(ctx context.Context, key string) (*domain.Token, error) {
	raw, err := c.client.Get(ctx, c.cacheKey(key)).Bytes()
	switch {
	case err == nil:
		var ct cachedToken
		if jerr := json.Unmarshal(raw, &ct); jerr == nil {
			return &domain.Token{Key: ct.Key, UserID: ct.UserID, CreatedAt: ct.CreatedAt}, nil
		}
		c.log.Warn().Str("cache_key", c.cacheKey(key)).Msg("discarding unreadable cached token")
	case !errors.Is(err, redis.Nil):
		c.log.Warn().Err(err).Msg("token cache read failed")
	}

	tok, err := c.next.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	c.store(ctx, tok)
	return tok, nil
}

func (c *TokenCache) FindByUser(ctx context.Context, userID string) (*domain.Token, error) {
	return c.next.FindByUser(ctx, userID)
}

func (c *TokenCache) Create(ctx context.Context, token *domain.Token) error {
	if err := c.next.Create(ctx, token); err != nil {
		return err
	}
	c.store(ctx, token)
	return nil
}

func (c *TokenCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.cacheKey(key)).Err(); err != nil {
		return fmt.Errorf("evict token: %w", err)
	}
	return c.next.Delete(ctx, key)
}

func (c *TokenCache) store(ctx context.Context, tok *domain.Token) {
	b, err := json.Marshal(cachedToken{Key: tok.Key, UserID: tok.UserID, CreatedAt: tok.CreatedAt})
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.cacheKey(tok.Key), b, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Msg("token cache write failed")
	}
}

func (c *TokenCache) cacheKey(key string) string {
	return "auth:token:" + key
}
