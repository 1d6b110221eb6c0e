package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/pizzatimer/internal/domain"
	"github.com/hammamikhairi/pizzatimer/internal/logger"
)

func TestSessionCacheCurrent(t *testing.T) {
	c := NewSessionCache(logger.New(logger.LevelOff, nil))

	_, ok := c.Current()
	assert.False(t, ok)

	c.SetCurrent(&domain.ActiveSession{ID: "pz-1", Name: "Friday Neapolitan", Status: domain.SessionInProgress})
	cur, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, "Friday Neapolitan", cur.Name)

	c.SetCurrent(nil)
	_, ok = c.Current()
	assert.False(t, ok)
}

func TestSessionCacheInvalidateKeepsData(t *testing.T) {
	c := NewSessionCache(logger.New(logger.LevelOff, nil))
	c.SetCurrent(&domain.ActiveSession{ID: "pz-1", Status: domain.SessionInProgress})
	assert.False(t, c.Stale())

	c.Invalidate("pz-1")
	assert.True(t, c.Stale())

	cur, ok := c.Current()
	require.True(t, ok, "stale data stays visible until the refetch lands")
	assert.Equal(t, domain.SessionInProgress, cur.Status)

	c.SetCurrent(&domain.ActiveSession{ID: "pz-1", Status: domain.SessionPaused})
	assert.False(t, c.Stale(), "a fetch clears the mark")
}

func TestSessionCacheInvalidateOtherID(t *testing.T) {
	c := NewSessionCache(logger.New(logger.LevelOff, nil))

	c.Invalidate("pz-1")
	assert.False(t, c.Stale(), "nothing cached")

	c.SetCurrent(&domain.ActiveSession{ID: "pz-1"})
	c.Invalidate("pz-2")
	assert.False(t, c.Stale())
}
