// Package keycache 提供程序函数的证明/验证密钥缓存
//
// 🎯 **职责**：按 (programID, functionID) 保存密钥对，供后续调用复用，
// 避免重复执行代价高昂的密钥合成。
//
// ⚠️ **保留策略**：没有 TTL/LRU 等隐式淘汰，保留与否完全由调用方决定
// （调用时的 cache 标志以及显式 Evict/Clear）。
package keycache

import (
	"fmt"
	"sort"
	"sync"

	"github.com/weisyn/recordjoin/internal/core/infrastructure/metrics"
	"github.com/weisyn/recordjoin/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/recordjoin/pkg/types"
)

// PersistentStore 可选的持久化层（写穿透）
type PersistentStore interface {
	Load(key string) (*types.KeyPair, bool, error)
	Save(key string, kp *types.KeyPair) error
	Delete(key string) error
	Clear() error
	Close() error
}

// Cache 密钥缓存
type Cache struct {
	logger  log.Logger
	store   PersistentStore
	mu      sync.RWMutex
	entries map[string]*types.KeyPair
}

// New 创建密钥缓存；store 为 nil 时只使用内存
func New(logger log.Logger, store PersistentStore) *Cache {
	return &Cache{
		logger:  logger,
		store:   store,
		entries: make(map[string]*types.KeyPair),
	}
}

// CacheKey 缓存键
func CacheKey(programID, functionID string) string {
	return fmt.Sprintf("%s/%s", programID, functionID)
}

// Get 查询密钥对；内存未命中时回落到持久化层，命中后回填内存
func (c *Cache) Get(programID, functionID string) (*types.KeyPair, bool) {
	key := CacheKey(programID, functionID)

	c.mu.RLock()
	kp, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		metrics.RecordKeyCacheLookup("hit")
		return kp, true
	}

	if c.store != nil {
		stored, found, err := c.store.Load(key)
		if err != nil {
			c.logger.Warnf("读取持久化密钥失败: key=%s, err=%v", key, err)
		} else if found {
			c.mu.Lock()
			if existing, ok := c.entries[key]; ok {
				stored = existing
			} else {
				c.entries[key] = stored
			}
			c.mu.Unlock()
			metrics.RecordKeyCacheLookup("disk_hit")
			return stored, true
		}
	}

	metrics.RecordKeyCacheLookup("miss")
	return nil, false
}

// Put 保存密钥对（覆盖已有条目）
func (c *Cache) Put(programID, functionID string, kp *types.KeyPair) {
	if kp == nil || kp.ProvingKey == nil || kp.VerifyingKey == nil {
		return
	}
	key := CacheKey(programID, functionID)

	c.mu.Lock()
	c.entries[key] = kp
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Save(key, kp); err != nil {
			c.logger.Warnf("写入持久化密钥失败: key=%s, err=%v", key, err)
		}
	}
	c.logger.Debugf("密钥已缓存: %s", key)
}

// Evict 删除密钥对
func (c *Cache) Evict(programID, functionID string) {
	key := CacheKey(programID, functionID)

	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Delete(key); err != nil {
			c.logger.Warnf("删除持久化密钥失败: key=%s, err=%v", key, err)
		}
	}
}

// Contains 是否存在密钥对（仅内存层，不触发磁盘读取）
func (c *Cache) Contains(programID, functionID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[CacheKey(programID, functionID)]
	return ok
}

// Clear 清空全部密钥
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*types.KeyPair)
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Clear(); err != nil {
			c.logger.Warnf("清空持久化密钥失败: %v", err)
		}
	}
}

// Len 内存中的条目数
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Keys 内存中的全部缓存键（排序）
func (c *Cache) Keys() []string {
	c.mu.RLock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	c.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Close 关闭持久化层
func (c *Cache) Close() error {
	if c.store == nil {
		return nil
	}
	return c.store.Close()
}
