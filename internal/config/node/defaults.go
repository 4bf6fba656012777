package node

import "time"

const (
	// defaultNodeURL 默认节点地址（本地开发节点）
	defaultNodeURL = "http://127.0.0.1:3030"

	// defaultTimeout 单次请求超时
	defaultTimeout = 30 * time.Second

	// defaultListenAddr 开发节点默认监听地址
	defaultListenAddr = "127.0.0.1:3030"
)
