package log

import (
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	logconfig "github.com/weisyn/recordjoin/internal/config/log"
	"github.com/weisyn/recordjoin/pkg/interfaces/config"
	logiface "github.com/weisyn/recordjoin/pkg/interfaces/infrastructure/log"
)

// ModuleParams 日志模块依赖
type ModuleParams struct {
	fx.In

	Provider config.Provider
}

// ModuleOutput 日志模块输出
type ModuleOutput struct {
	fx.Out

	Logger    logiface.Logger
	ZapLogger *zap.Logger // 供 HTTP 中间件等需要原生字段 API 的组件使用
}

// Module 日志 fx 模块
func Module() fx.Option {
	return fx.Module("log", fx.Provide(ProvideServices))
}

// ProvideServices 按 log 配置段创建日志记录器
func ProvideServices(params ModuleParams) (ModuleOutput, error) {
	logger, err := New(logconfig.New(params.Provider.GetLog()))
	if err != nil {
		return ModuleOutput{}, fmt.Errorf("创建日志记录器失败: %w", err)
	}
	return ModuleOutput{Logger: logger, ZapLogger: logger.GetZapLogger()}, nil
}

// NewModuleLogger 带 module 字段的子记录器；base 为 nil 时返回 Nop
func NewModuleLogger(base logiface.Logger, module string) logiface.Logger {
	if base == nil {
		return NewNop()
	}
	return base.With("module", module)
}
