package rendering

import (
	"time"

	"github.com/SscSPs/securities_registry/internal/core/ports"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache holds rendered documents, bounded by entry count and age.
type Cache struct {
	lru *expirable.LRU[string, []byte]
}

var _ ports.DocumentCache = (*Cache)(nil)

// NewCache creates a cache of at most size entries, each kept for ttl.
func NewCache(size int, ttl time.Duration) *Cache {
	return &Cache{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (c *Cache) Get(key string) ([]byte, bool) {
	return c.lru.Get(key)
}

func (c *Cache) Add(key string, doc []byte) {
	c.lru.Add(key, doc)
}

func (c *Cache) Len() int {
	return c.lru.Len()
}
