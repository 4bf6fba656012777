// Package node 提供远程账本节点的连接配置
package node

import (
	"strings"
	"time"

	"github.com/weisyn/recordjoin/pkg/types"
)

// NodeOptions 节点配置选项
type NodeOptions struct {
	URL        string        `json:"url"`         // 节点 REST 地址
	Timeout    time.Duration `json:"timeout"`     // 单次请求超时
	ListenAddr string        `json:"listen_addr"` // 开发节点监听地址
}

// Config 节点配置实现
type Config struct {
	options *NodeOptions
}

// New 创建节点配置
func New(userConfig *types.UserNodeConfig) *Config {
	options := &NodeOptions{
		URL:        defaultNodeURL,
		Timeout:    defaultTimeout,
		ListenAddr: defaultListenAddr,
	}
	if userConfig != nil {
		if userConfig.URL != nil && strings.TrimSpace(*userConfig.URL) != "" {
			options.URL = strings.TrimRight(strings.TrimSpace(*userConfig.URL), "/")
		}
		if userConfig.TimeoutSeconds != nil && *userConfig.TimeoutSeconds > 0 {
			options.Timeout = time.Duration(*userConfig.TimeoutSeconds) * time.Second
		}
		if userConfig.ListenAddr != nil && *userConfig.ListenAddr != "" {
			options.ListenAddr = *userConfig.ListenAddr
		}
	}
	return &Config{options: options}
}

// GetOptions 获取完整配置选项
func (c *Config) GetOptions() *NodeOptions {
	return c.options
}
