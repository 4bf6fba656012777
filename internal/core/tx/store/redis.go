package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	txiface "github.com/weisyn/recordjoin/pkg/interfaces/tx"
	"github.com/weisyn/recordjoin/pkg/types"
)

// RedisStore Redis 版交易存储
//
// 🎯 **存储格式**：
//   - Key：{keyPrefix}{txID}
//   - Value：JSON 编码的交易
//   - TTL：配置的过期时间（0 表示不过期）
type RedisStore struct {
	client    redisClient
	keyPrefix string
	ttl       time.Duration
}

var _ txiface.Store = (*RedisStore)(nil)

// NewRedisStore 创建 Redis 版交易存储并检查连通性
func NewRedisStore(client redisClient, keyPrefix string, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix, ttl: ttl}, nil
}

func (s *RedisStore) buildKey(id string) string {
	return s.keyPrefix + id
}

// Save 保存交易
func (s *RedisStore) Save(ctx context.Context, tx *types.Transaction) error {
	if tx == nil || tx.ID == "" {
		return fmt.Errorf("transaction id cannot be empty")
	}
	data, err := types.MarshalTransaction(tx)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %w", err)
	}
	if err := s.client.Set(ctx, s.buildKey(tx.ID), data, s.ttl); err != nil {
		return fmt.Errorf("failed to save transaction to Redis: %w", err)
	}
	return nil
}

// Get 读取交易
func (s *RedisStore) Get(ctx context.Context, id string) (*types.Transaction, error) {
	data, err := s.client.Get(ctx, s.buildKey(id))
	if errors.Is(err, errKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", txiface.ErrTransactionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read transaction from Redis: %w", err)
	}
	return types.UnmarshalTransaction(data)
}

// Delete 删除交易
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, s.buildKey(id))
	if err != nil {
		return fmt.Errorf("failed to delete transaction from Redis: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", txiface.ErrTransactionNotFound, id)
	}
	return nil
}

// List 列出交易 ID
func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	keys, err := s.client.Scan(ctx, s.keyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions from Redis: %w", err)
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		if id := strings.TrimPrefix(k, s.keyPrefix); id != "" && id != k {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Close 关闭连接
func (s *RedisStore) Close() error {
	return s.client.Close()
}
