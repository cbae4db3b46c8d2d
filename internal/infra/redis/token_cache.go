package redis

import (
	"context"
	"time"
)

// TokenCache stores the mobile-money bearer token until near expiry so every
// privileged provider call does not burn an OAuth round trip (the provider
// rate-limits token grants).
type TokenCache struct {
	client RedisClient
	margin time.Duration
}

func NewTokenCache(client RedisClient, margin time.Duration) *TokenCache {
	if margin <= 0 {
		margin = time.Minute
	}
	return &TokenCache{client: client, margin: margin}
}

func (c *TokenCache) key(clientID string) string { return "momo_token:" + clientID }

// Get returns the cached token or "" on miss. Cache errors degrade to a miss:
// a dead cache must not block payment traffic.
func (c *TokenCache) Get(ctx context.Context, clientID string) string {
	tok, err := c.client.Get(ctx, c.key(clientID))
	if err != nil {
		return ""
	}
	return tok
}

func (c *TokenCache) Put(ctx context.Context, clientID, token string, expiresIn time.Duration) {
	ttl := expiresIn - c.margin
	if ttl <= 0 {
		return // too short-lived to be worth caching
	}
	_ = c.client.Set(ctx, c.key(clientID), token, ttl)
}
