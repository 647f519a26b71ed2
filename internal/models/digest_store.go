package models

import (
	"strings"
	"sync"
)

// NoDigestSentinel is returned for sessions that have no digest yet.
// Callers treat it as "nothing to carry over", never as content.
const NoDigestSentinel = "No conversation summary available yet."

const (
	digestSeparator = " | "
	excerptRunes    = 100
)

// DigestStore keeps a rolling per-session digest of what was talked about.
// The digest is a bounded append-only tail: every update re-trims it to the
// configured rune capacity, keeping the most recent suffix.
type DigestStore struct {
	mu       sync.RWMutex
	digests  map[string]map[string]string
	capacity int
}

func NewDigestStore(capacity int) *DigestStore {
	if capacity <= 0 {
		capacity = 1000
	}
	return &DigestStore{
		digests:  make(map[string]map[string]string),
		capacity: capacity,
	}
}

// UpdateDigest folds one turn into the session digest. Empty message and
// response both contribute nothing and leave the digest untouched.
func (d *DigestStore) UpdateDigest(userID, sessionID string, turn ConversationTurn) {
	parts := make([]string, 0, 2)
	if turn.Message != "" {
		parts = append(parts, "User asked about: "+excerpt(turn.Message)+"...")
	}
	if turn.Response != "" {
		parts = append(parts, "Companion responded about: "+excerpt(turn.Response)+"...")
	}
	if len(parts) == 0 {
		return
	}
	update := strings.Join(parts, digestSeparator)

	d.mu.Lock()
	defer d.mu.Unlock()
	userDigests := d.digests[userID]
	if userDigests == nil {
		userDigests = make(map[string]string)
		d.digests[userID] = userDigests
	}
	if current := userDigests[sessionID]; current != "" {
		update = current + digestSeparator + update
	}
	if runes := []rune(update); len(runes) > d.capacity {
		update = string(runes[len(runes)-d.capacity:])
	}
	userDigests[sessionID] = update
}

// GetDigest returns the session digest, or the sentinel when none exists.
func (d *DigestStore) GetDigest(userID, sessionID string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if digest := d.digests[userID][sessionID]; digest != "" {
		return digest
	}
	return NoDigestSentinel
}

func (d *DigestStore) ClearDigest(userID, sessionID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	userDigests := d.digests[userID]
	delete(userDigests, sessionID)
	if len(userDigests) == 0 {
		delete(d.digests, userID)
	}
}

// AllDigests returns a copy of every digest a user currently has.
func (d *DigestStore) AllDigests(userID string) map[string]string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]string, len(d.digests[userID]))
	for sessionID, digest := range d.digests[userID] {
		out[sessionID] = digest
	}
	return out
}

func excerpt(s string) string {
	runes := []rune(s)
	if len(runes) > excerptRunes {
		runes = runes[:excerptRunes]
	}
	return string(runes)
}
