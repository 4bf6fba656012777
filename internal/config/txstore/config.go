// Package txstore 提供交易存储配置
package txstore

import (
	"time"

	"github.com/weisyn/recordjoin/pkg/types"
)

// 存储后端
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// TxStoreOptions 交易存储配置选项
type TxStoreOptions struct {
	Backend   string        `json:"backend"`    // memory | redis
	RedisAddr string        `json:"redis_addr"` // Redis 地址
	RedisDB   int           `json:"redis_db"`   // Redis DB
	KeyPrefix string        `json:"key_prefix"` // 键前缀
	TTL       time.Duration `json:"ttl"`        // 过期时间，0 表示不过期
}

// Config 交易存储配置实现
type Config struct {
	options *TxStoreOptions
}

// New 创建交易存储配置
func New(userConfig *types.UserTxStoreConfig) *Config {
	options := &TxStoreOptions{
		Backend:   defaultBackend,
		RedisAddr: defaultRedisAddr,
		RedisDB:   defaultRedisDB,
		KeyPrefix: defaultKeyPrefix,
		TTL:       defaultTTL,
	}
	if userConfig != nil {
		if userConfig.Backend != nil && (*userConfig.Backend == BackendMemory || *userConfig.Backend == BackendRedis) {
			options.Backend = *userConfig.Backend
		}
		if userConfig.RedisAddr != nil && *userConfig.RedisAddr != "" {
			options.RedisAddr = *userConfig.RedisAddr
		}
		if userConfig.RedisDB != nil {
			options.RedisDB = *userConfig.RedisDB
		}
		if userConfig.KeyPrefix != nil {
			options.KeyPrefix = *userConfig.KeyPrefix
		}
		if userConfig.TTLHours != nil && *userConfig.TTLHours >= 0 {
			options.TTL = time.Duration(*userConfig.TTLHours) * time.Hour
		}
	}
	return &Config{options: options}
}

// GetOptions 获取完整配置选项
func (c *Config) GetOptions() *TxStoreOptions {
	return c.options
}
