// Package store 提供已组装交易的存储实现（内存 / Redis）
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/allegro/bigcache/v3"

	txiface "github.com/weisyn/recordjoin/pkg/interfaces/tx"
	"github.com/weisyn/recordjoin/pkg/types"
)

const (
	// 未设置过期时间时使用的生命周期窗口
	foreverLifeWindow = 100 * 365 * 24 * time.Hour

	memoryShards       = 16
	memoryMaxEntries   = 1024
	memoryMaxEntrySize = 4096
)

// MemoryStore 内存版交易存储
//
// 🎯 基于 BigCache，交易以 JSON 编码保存，Get 返回解码后的副本。
// ⚠️ 进程重启后数据丢失；ttl 到期的交易在后台清理时移除。
type MemoryStore struct {
	cache *bigcache.BigCache
}

var _ txiface.Store = (*MemoryStore)(nil)

// NewMemoryStore 创建内存版交易存储；ttl<=0 表示不过期
func NewMemoryStore(ttl time.Duration) (*MemoryStore, error) {
	lifeWindow := ttl
	cleanWindow := time.Minute
	if ttl <= 0 {
		lifeWindow = foreverLifeWindow
		cleanWindow = 0
	}
	config := bigcache.DefaultConfig(lifeWindow)
	config.Shards = memoryShards
	config.MaxEntriesInWindow = memoryMaxEntries
	config.MaxEntrySize = memoryMaxEntrySize
	config.CleanWindow = cleanWindow
	config.Verbose = false

	cache, err := bigcache.New(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("create memory tx store: %w", err)
	}
	return &MemoryStore{cache: cache}, nil
}

// Save 保存交易
func (s *MemoryStore) Save(ctx context.Context, tx *types.Transaction) error {
	if tx == nil || tx.ID == "" {
		return fmt.Errorf("transaction id cannot be empty")
	}
	data, err := types.MarshalTransaction(tx)
	if err != nil {
		return err
	}
	return s.cache.Set(tx.ID, data)
}

// Get 读取交易
func (s *MemoryStore) Get(ctx context.Context, id string) (*types.Transaction, error) {
	data, err := s.cache.Get(id)
	if err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			return nil, fmt.Errorf("%w: %s", txiface.ErrTransactionNotFound, id)
		}
		return nil, err
	}
	return types.UnmarshalTransaction(data)
}

// Delete 删除交易
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := s.cache.Delete(id); err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			return fmt.Errorf("%w: %s", txiface.ErrTransactionNotFound, id)
		}
		return err
	}
	return nil
}

// List 列出交易 ID（排序后返回）
func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, s.cache.Len())
	it := s.cache.Iterator()
	for it.SetNext() {
		entry, err := it.Value()
		if err != nil {
			continue
		}
		ids = append(ids, entry.Key())
	}
	sort.Strings(ids)
	return ids, nil
}

// Close 停止后台清理并释放缓存
func (s *MemoryStore) Close() error {
	return s.cache.Close()
}
