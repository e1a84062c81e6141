package service

import (
	"sync"
	"time"

	"mediqa/internal/domain"
)

// resultCache ограниченный кэш результатов поиска с TTL.
// Вытеснение строго FIFO по порядку вставки: попадание в кэш позицию
// ключа не обновляет. Это наблюдаемое поведение, закреплено тестом.
type resultCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	entries map[string]cacheEntry
	order   []string
}

type cacheEntry struct {
	results  []domain.SearchResult
	storedAt time.Time
}

func newResultCache(maxSize int, ttl time.Duration) *resultCache {
	return &resultCache{
		ttl:     ttl,
		maxSize: maxSize,
		entries: make(map[string]cacheEntry),
	}
}

// get возвращает сохранённую выдачу как есть, без пересчёта
func (c *resultCache) get(key string, now time.Time) ([]domain.SearchResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if now.Sub(e.storedAt) >= c.ttl {
		// expired entries are misses; the slot is reclaimed on the next put
		return nil, false
	}
	return e.results, true
}

func (c *resultCache) put(key string, results []domain.SearchResult, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; exists {
		// перезапись значения не меняет позицию ключа в очереди
		c.entries[key] = cacheEntry{results: results, storedAt: now}
		return
	}
	if len(c.order) >= c.maxSize {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = cacheEntry{results: results, storedAt: now}
	c.order = append(c.order, key)
}

func (c *resultCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// contains ключ присутствует (без учёта TTL); используется в тестах вытеснения
func (c *resultCache) contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}
