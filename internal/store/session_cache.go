package store

import (
	"sync"

	"github.com/rahul01879/chat-app/internal/domain"
)

// MemoryCache holds recovery entries for the life of the process. Room
// keys cached here let a user rejoin after a dropped connection without
// pasting the locator again; nothing ever reaches disk.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]domain.RecoveryEntry
}

var _ domain.SessionCache = (*MemoryCache)(nil)

// NewMemoryCache returns an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]domain.RecoveryEntry)}
}

// Remember stores or refreshes the entry for its room.
func (c *MemoryCache) Remember(entry domain.RecoveryEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[entry.RoomID] = entry
}

// Lookup returns the entry for roomID if one is cached.
func (c *MemoryCache) Lookup(roomID string) (domain.RecoveryEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[roomID]
	return entry, ok
}

// Forget drops the entry for roomID.
func (c *MemoryCache) Forget(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, roomID)
}

// Clear drops every entry. Called on logout.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]domain.RecoveryEntry)
}
