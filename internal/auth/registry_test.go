package auth

import (
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRevocationRegistry_RegisterAndRevoke(t *testing.T) {
	r := NewRevocationRegistry()

	assert.False(t, r.IsActive("u1", "tok-a"))

	r.Register("u1", "tok-a")
	assert.True(t, r.IsActive("u1", "tok-a"))
	assert.Equal(t, 1, r.Count("u1"))

	assert.True(t, r.Revoke("u1", "tok-a"))
	assert.False(t, r.IsActive("u1", "tok-a"))
	assert.False(t, r.Revoke("u1", "tok-a"), "second revoke has nothing to remove")
	assert.Equal(t, 0, r.Count("u1"))
}

func TestRevocationRegistry_RegisterIsIdempotent(t *testing.T) {
	r := NewRevocationRegistry()

	r.Register("u1", "tok-a")
	r.Register("u1", "tok-a")

	assert.Equal(t, 1, r.Count("u1"))
	assert.True(t, r.Revoke("u1", "tok-a"))
	assert.False(t, r.IsActive("u1", "tok-a"))
}

func TestRevocationRegistry_ScopedByUser(t *testing.T) {
	r := NewRevocationRegistry()
	r.Register("u1", "tok-a")

	assert.False(t, r.IsActive("u2", "tok-a"))
	assert.False(t, r.Revoke("u2", "tok-a"))
	assert.True(t, r.IsActive("u1", "tok-a"))
}

func TestRevocationRegistry_RevokeAll(t *testing.T) {
	r := NewRevocationRegistry()
	r.Register("u1", "tok-a")
	r.Register("u1", "tok-b")
	r.Register("u2", "tok-c")

	assert.Equal(t, 2, r.RevokeAll("u1"))
	assert.False(t, r.IsActive("u1", "tok-a"))
	assert.False(t, r.IsActive("u1", "tok-b"))
	assert.True(t, r.IsActive("u2", "tok-c"))
	assert.Equal(t, 0, r.RevokeAll("u1"))
}

func TestRevocationRegistry_Reset(t *testing.T) {
	r := NewRevocationRegistry()
	r.Register("u1", "tok-a")
	r.Register("u2", "tok-b")

	r.Reset()

	assert.False(t, r.IsActive("u1", "tok-a"))
	assert.False(t, r.IsActive("u2", "tok-b"))
}

func TestRevocationRegistry_GaugeSumsAcrossRegistries(t *testing.T) {
	base := testutil.ToFloat64(activeRefreshTokens)
	a, b := NewRevocationRegistry(), NewRevocationRegistry()

	a.Register("u1", "tok-a")
	a.Register("u1", "tok-a")
	a.Register("u1", "tok-b")
	b.Register("u2", "tok-c")
	assert.Equal(t, base+3, testutil.ToFloat64(activeRefreshTokens))

	b.Reset()
	assert.Equal(t, base+2, testutil.ToFloat64(activeRefreshTokens), "reset only removes its own tokens")

	a.Revoke("u1", "tok-a")
	a.Revoke("u1", "tok-a")
	assert.Equal(t, base+1, testutil.ToFloat64(activeRefreshTokens))

	a.RevokeAll("u1")
	assert.Equal(t, base, testutil.ToFloat64(activeRefreshTokens))
}

func TestRevocationRegistry_StoresDigestsOnly(t *testing.T) {
	r := NewRevocationRegistry()
	r.Register("u1", "plaintext-token")

	for digest := range r.tokens["u1"] {
		assert.NotContains(t, digest, "plaintext-token")
		assert.Len(t, digest, 64)
	}
}

func TestRevocationRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRevocationRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("u%d", i%5)
			token := fmt.Sprintf("tok-%d", i)
			r.Register(user, token)
			_ = r.IsActive(user, token)
			if i%2 == 0 {
				r.Revoke(user, token)
			}
		}(i)
	}
	wg.Wait()

	total := 0
	for i := 0; i < 5; i++ {
		total += r.Count(fmt.Sprintf("u%d", i))
	}
	assert.Equal(t, 25, total)
}
