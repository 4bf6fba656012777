// Package config 加载 JSON 配置文件并按配置段提供合并默认值后的选项
package config

import (
	"go.uber.org/fx"

	keystoreconfig "github.com/weisyn/recordjoin/internal/config/keystore"
	nodeconfig "github.com/weisyn/recordjoin/internal/config/node"
	proverconfig "github.com/weisyn/recordjoin/internal/config/prover"
	txstoreconfig "github.com/weisyn/recordjoin/internal/config/txstore"
	"github.com/weisyn/recordjoin/pkg/interfaces/config"
	"github.com/weisyn/recordjoin/pkg/types"
)

// ModuleParams 配置模块依赖；未提供应用配置时全部使用默认值
type ModuleParams struct {
	fx.In

	AppConfig *types.AppConfig `optional:"true"`
}

// Module 配置 fx 模块
//
// 除 Provider 外，各配置段的选项也单独注入，组件只依赖自己需要的段。
func Module() fx.Option {
	return fx.Module("config",
		fx.Provide(
			func(p ModuleParams) config.Provider { return NewProvider(p.AppConfig) },
			func(p config.Provider) *proverconfig.ProverOptions { return p.GetProver() },
			func(p config.Provider) *nodeconfig.NodeOptions { return p.GetNode() },
			func(p config.Provider) *keystoreconfig.KeyStoreOptions { return p.GetKeyStore() },
			func(p config.Provider) *txstoreconfig.TxStoreOptions { return p.GetTxStore() },
		),
	)
}
