// Package app 组装应用的依赖注入容器
//
// 🏗️ **模块层次**：config → log → manager（证明后端、密钥缓存、交易存储、事件总线）
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/fx"

	config "github.com/weisyn/recordjoin/internal/config"
	logimpl "github.com/weisyn/recordjoin/internal/core/infrastructure/log"
	"github.com/weisyn/recordjoin/internal/core/manager"
	configiface "github.com/weisyn/recordjoin/pkg/interfaces/config"
	"github.com/weisyn/recordjoin/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/recordjoin/pkg/interfaces/infrastructure/log"
	txiface "github.com/weisyn/recordjoin/pkg/interfaces/tx"
	"github.com/weisyn/recordjoin/pkg/types"
)

// 启动与停止超时
const (
	startTimeout = 30 * time.Second
	stopTimeout  = 15 * time.Second
)

// App 已启动的应用
type App struct {
	fxApp *fx.App

	Provider configiface.Provider
	Logger   log.Logger
	Manager  *manager.ProgramManager
	Store    txiface.Store
	EventBus event.EventBus
}

// New 加载配置并启动依赖注入容器
func New(opts ...Option) (*App, error) {
	o := newOptions(opts...)

	appConfig := o.appConfig
	if appConfig == nil {
		var err error
		appConfig, err = config.LoadAppConfig(o.configFilePath)
		if err != nil {
			return nil, err
		}
	}
	o.apply(appConfig)

	a := &App{}
	a.fxApp = fx.New(
		fx.NopLogger,
		fx.Provide(func() *types.AppConfig { return appConfig }),
		config.Module(),
		logimpl.Module(),
		manager.Module(),
		fx.Populate(&a.Provider, &a.Logger, &a.Manager, &a.Store, &a.EventBus),
	)
	if err := a.fxApp.Err(); err != nil {
		return nil, fmt.Errorf("初始化应用失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()
	if err := a.fxApp.Start(ctx); err != nil {
		return nil, fmt.Errorf("启动应用失败: %w", err)
	}
	return a, nil
}

// Stop 停止应用并释放资源
func (a *App) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return a.fxApp.Stop(ctx)
}
