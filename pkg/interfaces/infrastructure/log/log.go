// Package log 定义 recordjoin 的日志记录接口
//
// 🎯 **定位**：编排层（manager、执行、包含性解析、费用组装）只依赖这里的
// Logger 接口；zap 实现位于 internal/core/infrastructure/log，测试中使用
// internal/testutil 的 MockLogger。
package log

import "go.uber.org/zap"

// Logger 日志记录器
//
// f 后缀方法接受格式化参数；With 的参数按 key, value 成对出现。
type Logger interface {
	Debug(msg string)
	Debugf(format string, args ...interface{})
	Info(msg string)
	Infof(format string, args ...interface{})
	Warn(msg string)
	Warnf(format string, args ...interface{})
	Error(msg string)
	Errorf(format string, args ...interface{})

	// Fatal 记录后退出进程，仅 CLI 入口使用
	Fatal(msg string)
	Fatalf(format string, args ...interface{})

	// With 返回附加了结构化字段的子 Logger
	With(args ...interface{}) Logger

	// Sync 刷新缓冲区（应用停止时调用）
	Sync() error

	// GetZapLogger 底层 zap 实例，供需要原生字段 API 的中间件使用
	GetZapLogger() *zap.Logger
}
