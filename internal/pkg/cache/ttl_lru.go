package cache

import (
	"container/list"
	"sync"
	"time"
)

/*
TTLCache 容量受限的 LRU + TTL 快取
  - TTL從寫入時起算, 讀取不會延長
  - 過期條目在Get視為miss, 但在被LRU淘汰前仍保留, 供GetStale在上游限流時回傳舊資料
  - 條目寫入後不可變, 更新一律整個替換
*/
type TTLCache[V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	ll       *list.List // front = 最近使用
	items    map[string]*list.Element
	now      func() time.Time
}

type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
}

type Option[V any] func(*TTLCache[V])

// WithNow 供測試注入時鐘
func WithNow[V any](now func() time.Time) Option[V] {
	return func(c *TTLCache[V]) {
		c.now = now
	}
}

func New[V any](capacity int, ttl time.Duration, opts ...Option[V]) *TTLCache[V] {
	c := &TTLCache[V]{
		capacity: capacity,
		ttl:      ttl,
		ll:       list.New(),
		items:    make(map[string]*list.Element),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get 回傳未過期的條目, 並更新LRU順位
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.items[key]
	if !ok {
		return zero, false
	}
	ent := el.Value.(*entry[V])
	if c.now().After(ent.expiresAt) {
		// 保留條目供GetStale使用
		return zero, false
	}
	c.ll.MoveToFront(el)
	return ent.value, true
}

// GetStale 即使已過期也回傳最近一次的值, 上游429時的降級路徑
func (c *TTLCache[V]) GetStale(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.items[key]
	if !ok {
		return zero, false
	}
	return el.Value.(*entry[V]).value, true
}

func (c *TTLCache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value = &entry[V]{key: key, value: value, expiresAt: c.now().Add(c.ttl)}
		c.ll.MoveToFront(el)
		return
	}

	el := c.ll.PushFront(&entry[V]{key: key, value: value, expiresAt: c.now().Add(c.ttl)})
	c.items[key] = el

	if c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.items, oldest.Value.(*entry[V]).key)
		}
	}
}

func (c *TTLCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
