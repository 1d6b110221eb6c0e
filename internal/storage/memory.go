// Package storage holds the client-side copy of the user's current pizza.
package storage

import (
	"sync"

	"github.com/hammamikhairi/pizzatimer/internal/domain"
	"github.com/hammamikhairi/pizzatimer/internal/logger"
)

// SessionCache keeps the last known server state of the current pizza.
// Safe for concurrent access.
//
// An invalidated session stays readable so the UI keeps showing it until a
// fetch lands; Stale reports that the copy may no longer match the server.
type SessionCache struct {
	mu      sync.RWMutex
	current *domain.ActiveSession
	stale   bool
	log     *logger.Logger
}

// NewSessionCache creates an empty cache.
func NewSessionCache(log *logger.Logger) *SessionCache {
	return &SessionCache{log: log}
}

// SetCurrent records a freshly fetched current pizza and clears the stale
// mark. nil means the server has none.
func (c *SessionCache) SetCurrent(session *domain.ActiveSession) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = session
	c.stale = false
	if session == nil {
		c.log.Debug("no current session")
		return
	}
	c.log.Debug("caching session %s (status=%s, steps=%d)", session.ID, session.Status, len(session.Steps))
}

// Current returns the current pizza, if known.
func (c *SessionCache) Current() (*domain.ActiveSession, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current, c.current != nil
}

// Invalidate marks the session as owed a refetch. Ids other than the
// current one are ignored.
func (c *SessionCache) Invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil || c.current.ID != id {
		return
	}
	c.stale = true
	c.log.Debug("invalidated session %s", id)
}

// Stale reports whether the current session was invalidated and no fetch
// has replaced it since.
func (c *SessionCache) Stale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stale
}
