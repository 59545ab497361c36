package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// RevocationRegistry is the process-local authority over which refresh
// tokens are currently honourable, keyed by user ID. Only SHA-256 digests
// of tokens are kept. State is lost on restart, which revokes every
// outstanding refresh token.
type RevocationRegistry struct {
	mu     sync.RWMutex
	tokens map[string]map[string]struct{}
	total  int // this registry's share of activeRefreshTokens
}

// NewRevocationRegistry returns an empty registry.
func NewRevocationRegistry() *RevocationRegistry {
	return &RevocationRegistry{tokens: make(map[string]map[string]struct{})}
}

// Register records token as valid for userID.
func (r *RevocationRegistry) Register(userID, token string) {
	digest := tokenDigest(token)

	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.tokens[userID]
	if !ok {
		set = make(map[string]struct{})
		r.tokens[userID] = set
	}
	if _, exists := set[digest]; !exists {
		set[digest] = struct{}{}
		r.total++
		activeRefreshTokens.Inc()
	}
}

// IsActive reports whether token is registered for userID.
func (r *RevocationRegistry) IsActive(userID, token string) bool {
	digest := tokenDigest(token)

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.tokens[userID][digest]
	return ok
}

// Revoke removes token from userID's set and reports whether it was present.
func (r *RevocationRegistry) Revoke(userID, token string) bool {
	digest := tokenDigest(token)

	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.tokens[userID]
	if !ok {
		return false
	}
	if _, ok := set[digest]; !ok {
		return false
	}
	delete(set, digest)
	if len(set) == 0 {
		delete(r.tokens, userID)
	}
	r.total--
	activeRefreshTokens.Dec()
	return true
}

// RevokeAll drops every token registered for userID and returns how many
// were removed.
func (r *RevocationRegistry) RevokeAll(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.tokens[userID])
	delete(r.tokens, userID)
	r.total -= n
	activeRefreshTokens.Sub(float64(n))
	return n
}

// Count returns the number of tokens registered for userID.
func (r *RevocationRegistry) Count(userID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tokens[userID])
}

// Reset empties the registry.
func (r *RevocationRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tokens = make(map[string]map[string]struct{})
	activeRefreshTokens.Sub(float64(r.total))
	r.total = 0
}

func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
