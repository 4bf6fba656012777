// Package tx 定义已组装交易的存储接口
package tx

import (
	"context"
	"errors"

	"github.com/weisyn/recordjoin/pkg/types"
)

// ErrTransactionNotFound 交易不存在
var ErrTransactionNotFound = errors.New("transaction not found")

// Store 已组装交易存储
//
// 🎯 **用途**：Join 产出的交易由调用方负责广播，存储让 CLI 与调用方
// 可以在之后按 ID 取回交易。实现有内存版与 Redis 版。
type Store interface {
	// Save 保存交易（同 ID 覆盖）
	Save(ctx context.Context, tx *types.Transaction) error

	// Get 按 ID 读取交易，不存在时返回 ErrTransactionNotFound
	Get(ctx context.Context, id string) (*types.Transaction, error)

	// Delete 删除交易，不存在时返回 ErrTransactionNotFound
	Delete(ctx context.Context, id string) error

	// List 列出全部交易 ID（排序）
	List(ctx context.Context) ([]string, error)

	// Close 释放资源
	Close() error
}
