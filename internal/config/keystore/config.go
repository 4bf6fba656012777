// Package keystore 提供持久化密钥库配置
package keystore

import (
	"github.com/weisyn/recordjoin/pkg/types"
)

// KeyStoreOptions 密钥库配置选项
type KeyStoreOptions struct {
	Path     string `json:"path"`     // badger 数据目录，留空表示只用内存缓存
	Compress bool   `json:"compress"` // 是否使用 snappy 压缩
}

// Config 密钥库配置实现
type Config struct {
	options *KeyStoreOptions
}

// New 创建密钥库配置
func New(userConfig *types.UserKeyStoreConfig) *Config {
	options := &KeyStoreOptions{
		Path:     defaultPath,
		Compress: defaultCompress,
	}
	if userConfig != nil {
		if userConfig.Path != nil {
			options.Path = *userConfig.Path
		}
		if userConfig.Compress != nil {
			options.Compress = *userConfig.Compress
		}
	}
	return &Config{options: options}
}

// GetOptions 获取完整配置选项
func (c *Config) GetOptions() *KeyStoreOptions {
	return c.options
}

// Enabled 是否启用持久化
func (c *Config) Enabled() bool {
	return c.options.Path != ""
}
