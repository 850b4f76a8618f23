package cache

import (
	"container/list"
	"sync"
	"time"
)

// MemoryCache is an in-process LRU cache with per-entry TTL and a
// background eviction sweep, grounded on the teacher's
// orchestration.LRUCache/SimpleCache pair collapsed into one type (this
// module has no need for the two-tier split the teacher keeps for its
// routing-cache specifically).
type MemoryCache struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	order    *list.List
	stopCh   chan struct{}
}

type cacheEntry struct {
	key       string
	value     []byte
	text      string
	expiresAt time.Time
}

// NewMemoryCache builds a cache holding at most capacity entries, sweeping
// expired entries every cleanupInterval.
func NewMemoryCache(capacity int, cleanupInterval time.Duration) *MemoryCache {
	c := &MemoryCache{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		order:    list.New(),
		stopCh:   make(chan struct{}),
	}
	go c.cleanupLoop(cleanupInterval)
	return c
}

func (c *MemoryCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.evictExpired()
		case <-c.stopCh:
			return
		}
	}
}

// Close stops the background sweep goroutine.
func (c *MemoryCache) Close() { close(c.stopCh) }

func (c *MemoryCache) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for el := c.order.Front(); el != nil; {
		next := el.Next()
		entry := el.Value.(*cacheEntry)
		if now.After(entry.expiresAt) {
			c.order.Remove(el)
			delete(c.items, entry.key)
		}
		el = next
	}
}

func (c *MemoryCache) get(key string) (*cacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	entry := el.Value.(*cacheEntry)
	if time.Now().After(entry.expiresAt) {
		c.order.Remove(el)
		delete(c.items, key)
		return nil, false
	}
	c.order.MoveToFront(el)
	return entry, true
}

func (c *MemoryCache) put(key string, entry *cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.order.MoveToFront(el)
		el.Value = entry
		return
	}
	el := c.order.PushFront(entry)
	c.items[key] = el
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheEntry).key)
	}
}

func (c *MemoryCache) GetWorkflow(topic, context, optionsKey string) ([]byte, bool) {
	entry, ok := c.get(WorkflowKey(topic, context, optionsKey))
	if !ok {
		return nil, false
	}
	return entry.value, true
}

func (c *MemoryCache) PutWorkflow(topic, context, optionsKey string, result []byte, ttl time.Duration) {
	key := WorkflowKey(topic, context, optionsKey)
	c.put(key, &cacheEntry{key: key, value: result, expiresAt: time.Now().Add(ttl)})
}

func (c *MemoryCache) GetAgent(agent, promptKey string) (string, bool) {
	entry, ok := c.get(AgentKey(agent, promptKey))
	if !ok {
		return "", false
	}
	return entry.text, true
}

func (c *MemoryCache) PutAgent(agent, promptKey, text string, ttl time.Duration) {
	key := AgentKey(agent, promptKey)
	c.put(key, &cacheEntry{key: key, text: text, expiresAt: time.Now().Add(ttl)})
}

// Invalidate drops any key equal to pattern. The in-memory cache only
// supports exact-match invalidation; prefix/glob invalidation is a
// RedisCache-only feature (SCAN-backed).
func (c *MemoryCache) Invalidate(pattern string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[pattern]; ok {
		c.order.Remove(el)
		delete(c.items, pattern)
	}
}

func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element)
	c.order.Init()
}

var _ Cache = (*MemoryCache)(nil)
