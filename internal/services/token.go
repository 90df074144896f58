package services

import (
	"time"

	"github.com/karlseguin/ccache/v3"
	"golang.org/x/oauth2"
)

const defaultTokenSkew = 30 * time.Second

// TokenCache holds client-credentials tokens across fetches, keyed by client id.
//
// A token enters on first exchange and leaves when it is within skew of expiry or
// when [TokenCache.Invalidate] is called after an authentication failure.
type TokenCache struct {
	cache *ccache.Cache[*oauth2.Token]
	skew  time.Duration
}

// NewTokenCache creates a cache that evicts tokens skew before their expiry.
func NewTokenCache(skew time.Duration) *TokenCache {
	if skew <= 0 {
		skew = defaultTokenSkew
	}
	return &TokenCache{
		cache: ccache.New(ccache.Configure[*oauth2.Token]().MaxSize(16)),
		skew:  skew,
	}
}

// Get returns the cached token for key, or nil.
func (c *TokenCache) Get(key string) *oauth2.Token {
	item := c.cache.Get(key)
	if item == nil || item.Expired() {
		return nil
	}
	return item.Value()
}

// Set stores tok for key. Tokens without a usable lifetime are not stored.
func (c *TokenCache) Set(key string, tok *oauth2.Token) {
	if tok == nil || tok.Expiry.IsZero() {
		return
	}
	ttl := time.Until(tok.Expiry) - c.skew
	if ttl <= 0 {
		return
	}
	c.cache.Set(key, tok, ttl)
}

// Invalidate drops the token for key.
func (c *TokenCache) Invalidate(key string) {
	c.cache.Delete(key)
}

// Stop releases the cache's background worker.
func (c *TokenCache) Stop() {
	c.cache.Stop()
}
