// Package config 配置提供者接口
//
// 各配置段在 internal/config/<段名> 下合并默认值，这里只暴露合并后的选项。
package config

import (
	keystoreconfig "github.com/weisyn/recordjoin/internal/config/keystore"
	logconfig "github.com/weisyn/recordjoin/internal/config/log"
	nodeconfig "github.com/weisyn/recordjoin/internal/config/node"
	proverconfig "github.com/weisyn/recordjoin/internal/config/prover"
	txstoreconfig "github.com/weisyn/recordjoin/internal/config/txstore"
	"github.com/weisyn/recordjoin/pkg/types"
)

// Provider 配置提供者接口
type Provider interface {
	// GetLog 获取日志配置
	GetLog() *logconfig.LogOptions

	// GetProver 获取证明后端配置
	GetProver() *proverconfig.ProverOptions

	// GetNode 获取远程节点配置
	GetNode() *nodeconfig.NodeOptions

	// GetKeyStore 获取持久化密钥库配置
	GetKeyStore() *keystoreconfig.KeyStoreOptions

	// GetTxStore 获取交易存储配置
	GetTxStore() *txstoreconfig.TxStoreOptions

	// GetAppConfig 获取原始应用配置
	GetAppConfig() *types.AppConfig
}
