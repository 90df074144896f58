package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestTokenCache(t *testing.T) {
	t.Run("Set And Get", func(t *testing.T) {
		c := NewTokenCache(time.Second)
		defer c.Stop()

		assert.Nil(t, c.Get("client"))

		c.Set("client", &oauth2.Token{AccessToken: "abc", Expiry: time.Now().Add(time.Hour)})
		tok := c.Get("client")
		require.NotNil(t, tok)
		assert.Equal(t, "abc", tok.AccessToken)
	})

	t.Run("Skips Tokens Inside Skew", func(t *testing.T) {
		c := NewTokenCache(time.Minute)
		defer c.Stop()

		c.Set("client", &oauth2.Token{AccessToken: "abc", Expiry: time.Now().Add(30 * time.Second)})
		assert.Nil(t, c.Get("client"))
	})

	t.Run("Skips Tokens Without Expiry", func(t *testing.T) {
		c := NewTokenCache(0)
		defer c.Stop()

		c.Set("client", &oauth2.Token{AccessToken: "abc"})
		c.Set("other", nil)
		assert.Nil(t, c.Get("client"))
		assert.Nil(t, c.Get("other"))
	})

	t.Run("Invalidate", func(t *testing.T) {
		c := NewTokenCache(time.Second)
		defer c.Stop()

		c.Set("client", &oauth2.Token{AccessToken: "abc", Expiry: time.Now().Add(time.Hour)})
		c.Invalidate("client")
		assert.Nil(t, c.Get("client"))
	})
}
