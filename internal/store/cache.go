package store

import (
	"sync"

	"wisefido-vitals/internal/models"
)

// Cache 最近一次有效数据（进程生命周期内有效，从不清空）
type Cache struct {
	mu   sync.RWMutex
	last models.Reading
}

// NewCache 以默认 Reading 初始化
func NewCache() *Cache {
	return &Cache{last: models.DefaultReading()}
}

func (c *Cache) Get() models.Reading {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

func (c *Cache) Set(r models.Reading) {
	c.mu.Lock()
	c.last = r
	c.mu.Unlock()
}
