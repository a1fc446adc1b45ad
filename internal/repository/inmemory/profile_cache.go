package inmemory

import (
	"sync"
	"time"

	userdomain "water-app-go/internal/domain/user"
)

type ProfileCache struct {
	mu    sync.RWMutex
	items map[string]profileItem
	now   func() time.Time
}

type profileItem struct {
	value     userdomain.Profile
	expiresAt time.Time
}

func NewProfileCache() *ProfileCache {
	return &ProfileCache{
		items: make(map[string]profileItem),
		now:   time.Now,
	}
}

func (c *ProfileCache) Get(userID string) (userdomain.Profile, bool) {
	now := c.now()

	c.mu.RLock()
	item, ok := c.items[userID]
	c.mu.RUnlock()
	if !ok {
		return userdomain.Profile{}, false
	}

	if !item.expiresAt.After(now) {
		c.mu.Lock()
		item, ok = c.items[userID]
		if ok && !item.expiresAt.After(now) {
			delete(c.items, userID)
		}
		c.mu.Unlock()
		return userdomain.Profile{}, false
	}
	return item.value, true
}

func (c *ProfileCache) Set(profile userdomain.Profile, ttl time.Duration) {
	if ttl <= 0 {
		c.Delete(profile.UserID)
		return
	}

	c.mu.Lock()
	c.items[profile.UserID] = profileItem{value: profile, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
}

func (c *ProfileCache) Delete(userID string) {
	c.mu.Lock()
	delete(c.items, userID)
	c.mu.Unlock()
}

func (c *ProfileCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
