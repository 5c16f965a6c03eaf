package textsearch

import (
	"crypto/sha256"
	"sync"
)

// DefaultCacheCapacity holds one index per supported form
const DefaultCacheCapacity = 16

// Cache keeps built indexes by template content, least recently used
// evicted first. Indexes are read-only once built, so one may serve
// concurrent renders.
type Cache struct {
	mutex    sync.Mutex
	capacity int
	items    map[[sha256.Size]byte]*cacheNode
	head     *cacheNode // Most recently used
	tail     *cacheNode // Least recently used
	hits     int64
	misses   int64
}

type cacheNode struct {
	key   [sha256.Size]byte
	index *Index
	prev  *cacheNode
	next  *cacheNode
}

// CacheStats reports cache effectiveness
type CacheStats struct {
	Hits   int64
	Misses int64
	Size   int
}

// NewCache creates a cache holding up to capacity indexes
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	c := &Cache{
		capacity: capacity,
		items:    make(map[[sha256.Size]byte]*cacheNode),
		head:     &cacheNode{},
		tail:     &cacheNode{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Index returns the index of data, building it on a miss. Build errors
// are not cached.
func (c *Cache) Index(data []byte) (*Index, error) {
	key := sha256.Sum256(data)

	c.mutex.Lock()
	if node, ok := c.items[key]; ok {
		c.moveToFront(node)
		c.hits++
		c.mutex.Unlock()
		return node.index, nil
	}
	c.misses++
	c.mutex.Unlock()

	ix, err := NewIndex(data)
	if err != nil {
		return nil, err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	if node, ok := c.items[key]; ok {
		// built concurrently by another caller
		c.moveToFront(node)
		return node.index, nil
	}
	node := &cacheNode{key: key, index: ix}
	c.addToFront(node)
	c.items[key] = node
	if len(c.items) > c.capacity {
		lru := c.tail.prev
		c.removeNode(lru)
		delete(c.items, lru.key)
	}
	return ix, nil
}

// Stats returns hit and miss counts
func (c *Cache) Stats() CacheStats {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return CacheStats{Hits: c.hits, Misses: c.misses, Size: len(c.items)}
}

func (c *Cache) moveToFront(node *cacheNode) {
	c.removeNode(node)
	c.addToFront(node)
}

func (c *Cache) addToFront(node *cacheNode) {
	node.prev = c.head
	node.next = c.head.next
	c.head.next.prev = node
	c.head.next = node
}

func (c *Cache) removeNode(node *cacheNode) {
	node.prev.next = node.next
	node.next.prev = node.prev
}
