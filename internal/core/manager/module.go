package manager

import (
	"context"

	"go.uber.org/fx"

	eventimpl "github.com/weisyn/recordjoin/internal/core/infrastructure/event"
	logimpl "github.com/weisyn/recordjoin/internal/core/infrastructure/log"
	"github.com/weisyn/recordjoin/internal/core/keycache"
	ledgerimpl "github.com/weisyn/recordjoin/internal/core/ledger"
	txstore "github.com/weisyn/recordjoin/internal/core/tx/store"
	"github.com/weisyn/recordjoin/internal/core/zkproof"
	"github.com/weisyn/recordjoin/pkg/interfaces/config"
	"github.com/weisyn/recordjoin/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/recordjoin/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/recordjoin/pkg/interfaces/ledger"
	"github.com/weisyn/recordjoin/pkg/interfaces/prover"
	txiface "github.com/weisyn/recordjoin/pkg/interfaces/tx"
)

// ModuleParams 管理器模块依赖
type ModuleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Provider  config.Provider
	Logger    log.Logger
}

// ModuleOutput 管理器模块输出
type ModuleOutput struct {
	fx.Out

	Backend  prover.Backend
	Keys     *keycache.Cache
	Store    txiface.Store
	EventBus event.EventBus
	Clients  ledger.ClientFactory
	Manager  *ProgramManager
}

// Module 返回管理器模块
func Module() fx.Option {
	return fx.Module("manager",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 按配置组装证明后端、密钥缓存、交易存储与管理器
func ProvideServices(params ModuleParams) (ModuleOutput, error) {
	logger := logimpl.NewModuleLogger(params.Logger, "manager")
	nodeOptions := params.Provider.GetNode()

	backend := zkproof.NewGroth16Backend(logimpl.NewModuleLogger(params.Logger, "zkproof"), params.Provider.GetProver())

	var persistent keycache.PersistentStore
	if ks := params.Provider.GetKeyStore(); ks.Path != "" {
		bs, err := keycache.NewBadgerStore(ks, logimpl.NewModuleLogger(params.Logger, "keystore"))
		if err != nil {
			return ModuleOutput{}, err
		}
		persistent = bs
	}
	keys := keycache.New(logimpl.NewModuleLogger(params.Logger, "keycache"), persistent)

	store, err := txstore.New(params.Provider.GetTxStore(), logimpl.NewModuleLogger(params.Logger, "txstore"))
	if err != nil {
		_ = keys.Close()
		return ModuleOutput{}, err
	}

	bus := eventimpl.New()
	clients := ledgerimpl.NewClientFactory(nodeOptions.Timeout, logimpl.NewModuleLogger(params.Logger, "ledger"))

	pm := NewProgramManager(backend, keys, clients, logger,
		WithStore(store),
		WithEventBus(bus),
		WithDefaultNodeURL(nodeOptions.URL),
	)

	params.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			bus.WaitAsync()
			storeErr := store.Close()
			if err := keys.Close(); err != nil {
				return err
			}
			return storeErr
		},
	})

	return ModuleOutput{
		Backend:  backend,
		Keys:     keys,
		Store:    store,
		EventBus: bus,
		Clients:  clients,
		Manager:  pm,
	}, nil
}
