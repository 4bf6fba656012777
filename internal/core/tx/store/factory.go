package store

import (
	"fmt"

	txstoreconfig "github.com/weisyn/recordjoin/internal/config/txstore"
	"github.com/weisyn/recordjoin/pkg/interfaces/infrastructure/log"
	txiface "github.com/weisyn/recordjoin/pkg/interfaces/tx"
)

// New 按配置创建交易存储
func New(options *txstoreconfig.TxStoreOptions, logger log.Logger) (txiface.Store, error) {
	if options == nil {
		return NewMemoryStore(0)
	}
	if options.Backend == txstoreconfig.BackendMemory {
		logger.Debugf("使用内存交易存储: ttl=%v", options.TTL)
		return NewMemoryStore(options.TTL)
	}
	if options.Backend != txstoreconfig.BackendRedis {
		return nil, fmt.Errorf("unknown txstore backend %q", options.Backend)
	}

	client, err := newGoRedisClient(options.RedisAddr, options.RedisDB)
	if err != nil {
		return nil, err
	}
	store, err := NewRedisStore(client, options.KeyPrefix, options.TTL)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	logger.Infof("使用 Redis 交易存储: %s/%d", options.RedisAddr, options.RedisDB)
	return store, nil
}
