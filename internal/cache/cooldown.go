package cache

import (
	"fmt"
	"time"
)

// CooldownStore tracks per-subject action cooldowns with a shared keyed expiry
// so multiple instances observe the same cooldown state.
type CooldownStore struct {
	cache *Cache
}

// NewCooldownStore creates a cooldown store on top of the Redis cache
func NewCooldownStore(c *Cache) *CooldownStore {
	return &CooldownStore{cache: c}
}

// Allow reports whether an action of the given kind may fire for the subject.
// The first caller within a window wins; subsequent calls return false until
// the window expires. With the cache disabled every call is allowed.
func (s *CooldownStore) Allow(kind, subjectID string, window time.Duration) (bool, error) {
	if s.cache == nil || s.cache.client == nil {
		return true, nil
	}
	key := s.cache.namespaceKey(fmt.Sprintf("cooldown:%s:%s", kind, subjectID))
	return s.cache.client.SetNX(s.cache.ctx, key, time.Now().Unix(), window).Result()
}

// Clear removes an active cooldown
func (s *CooldownStore) Clear(kind, subjectID string) error {
	if s.cache == nil || s.cache.client == nil {
		return nil
	}
	key := s.cache.namespaceKey(fmt.Sprintf("cooldown:%s:%s", kind, subjectID))
	return s.cache.client.Del(s.cache.ctx, key).Err()
}
