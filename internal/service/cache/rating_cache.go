package cache

import (
	"container/list"
	"sync"
	"time"

	"MomentumPull/internal/domain/models"
	"MomentumPull/internal/domain/repository"
)

type entry struct {
	key string
	v   *models.Analysis
	exp time.Time
}

// RatingCache is an in-memory freshness cache bounded to maxSize entries.
// When full, the entry that was put longest ago is evicted.
type RatingCache struct {
	mu      sync.RWMutex
	m       map[string]*list.Element
	order   *list.List
	ttl     time.Duration
	maxSize int
	clock   repository.Clock
}

func NewRatingCache(opts ...Option) *RatingCache {
	o := buildOptions(opts)
	return &RatingCache{
		m:       make(map[string]*list.Element),
		order:   list.New(),
		ttl:     o.ttl,
		maxSize: o.maxSize,
		clock:   o.clock,
	}
}

func (c *RatingCache) Get(key models.SignalKey) (*models.Analysis, bool) {
	k := key.String()
	now := c.clock.Now()

	c.mu.RLock()
	el, ok := c.m[k]
	var e *entry
	if ok {
		e = el.Value.(*entry)
	}
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !now.Before(e.exp) {
		c.mu.Lock()
		// re-check: a concurrent Put may have refreshed it
		if cur, still := c.m[k]; still && cur == el {
			c.order.Remove(el)
			delete(c.m, k)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.v, true
}

func (c *RatingCache) Put(key models.SignalKey, a *models.Analysis) {
	if a == nil {
		return
	}
	k := key.String()
	e := &entry{key: k, v: a, exp: c.clock.Now().Add(c.ttl)}

	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.m[k]; ok {
		el.Value = e
		c.order.MoveToBack(el)
		return
	}
	for c.order.Len() >= c.maxSize {
		oldest := c.order.Front()
		c.order.Remove(oldest)
		delete(c.m, oldest.Value.(*entry).key)
	}
	c.m[k] = c.order.PushBack(e)
}

// Len returns the number of stored entries, expired ones included.
func (c *RatingCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.order.Len()
}
