package config

import (
	"github.com/weisyn/recordjoin/internal/config/keystore"
	"github.com/weisyn/recordjoin/internal/config/log"
	"github.com/weisyn/recordjoin/internal/config/node"
	"github.com/weisyn/recordjoin/internal/config/prover"
	"github.com/weisyn/recordjoin/internal/config/txstore"
	"github.com/weisyn/recordjoin/pkg/interfaces/config"
	"github.com/weisyn/recordjoin/pkg/types"
)

// Provider 实现配置提供者接口
type Provider struct {
	appConfig *types.AppConfig
}

// NewProvider 创建配置提供者
func NewProvider(appConfig *types.AppConfig) config.Provider {
	if appConfig == nil {
		appConfig = &types.AppConfig{}
	}
	return &Provider{
		appConfig: appConfig,
	}
}

// GetLog 获取日志配置
func (p *Provider) GetLog() *log.LogOptions {
	// log.New 会处理默认值应用和用户配置覆盖
	return log.New(p.appConfig.Log).GetOptions()
}

// GetProver 获取证明后端配置
func (p *Provider) GetProver() *prover.ProverOptions {
	return prover.New(p.appConfig.Prover).GetOptions()
}

// GetNode 获取远程节点配置
func (p *Provider) GetNode() *node.NodeOptions {
	return node.New(p.appConfig.Node).GetOptions()
}

// GetKeyStore 获取密钥库配置
//
// 未显式配置路径但设置了 data_dir 时，密钥库落在 <data_dir>/keys。
func (p *Provider) GetKeyStore() *keystore.KeyStoreOptions {
	options := keystore.New(p.appConfig.KeyStore).GetOptions()
	if options.Path == "" && p.appConfig.DataDir != nil && *p.appConfig.DataDir != "" &&
		(p.appConfig.KeyStore == nil || p.appConfig.KeyStore.Path == nil) {
		options.Path = *p.appConfig.DataDir + "/keys"
	}
	return options
}

// GetTxStore 获取交易存储配置
func (p *Provider) GetTxStore() *txstore.TxStoreOptions {
	return txstore.New(p.appConfig.TxStore).GetOptions()
}

// GetAppConfig 获取原始应用配置
func (p *Provider) GetAppConfig() *types.AppConfig {
	return p.appConfig
}
