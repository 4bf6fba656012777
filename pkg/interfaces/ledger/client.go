// Package ledger 定义远程账本节点的访问接口
//
// 🎯 **定位**：InclusionResolver 通过这里的接口获取状态根与 Merkle 路径。
// 实现需要把失败归类为 txerrors.ErrNetwork（连接、超时、5xx、响应无法解码）
// 或 txerrors.ErrStaleState（状态根已变化、承诺未知、序列号已花费）。
package ledger

import (
	"context"

	"github.com/weisyn/recordjoin/pkg/types"
)

// Client 账本节点客户端
type Client interface {
	// StateRoot 查询当前状态根
	StateRoot(ctx context.Context) (*types.StateRootInfo, error)

	// Inclusion 查询承诺的 Merkle 路径
	Inclusion(ctx context.Context, query *types.InclusionQuery) (*types.InclusionProof, error)
}

// ClientFactory 按节点地址创建客户端
type ClientFactory func(nodeURL string) Client
