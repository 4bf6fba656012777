// Package log 基于 zap 的日志实现
//
// 控制台输出使用彩色 console 编码，文件输出使用 JSON 编码并由 lumberjack 轮转。
// CLI 场景下默认只写 stderr，避免干扰 --output json 的标准输出。
package log

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	logconfig "github.com/weisyn/recordjoin/internal/config/log"
	logiface "github.com/weisyn/recordjoin/pkg/interfaces/infrastructure/log"
)

// Logger zap 日志记录器
type Logger struct {
	zapLogger *zap.Logger
	sugar     *zap.SugaredLogger
}

var _ logiface.Logger = (*Logger)(nil)

// New 按配置创建日志记录器
func New(config *logconfig.Config) (logiface.Logger, error) {
	return newWithConsole(config, zapcore.AddSync(os.Stderr))
}

// newWithConsole 控制台输出可替换（测试用）
func newWithConsole(config *logconfig.Config, console zapcore.WriteSyncer) (logiface.Logger, error) {
	level := zap.NewAtomicLevelAt(config.GetZapLevel())

	var cores []zapcore.Core
	if config.IsConsoleEnabled() {
		cores = append(cores, zapcore.NewCore(config.CreateConsoleEncoder(), console, level))
	}
	if path := config.GetFilePath(); path != "" {
		writer, err := rotatingFile(path, config)
		if err != nil {
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(config.CreateFileEncoder(), writer, level))
	}

	var opts []zap.Option
	if config.IsCallerEnabled() {
		// 跳过本包的封装层
		opts = append(opts, zap.AddCaller(), zap.AddCallerSkip(1))
	}
	if config.IsStacktraceEnabled() {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}
	return wrap(zap.New(zapcore.NewTee(cores...), opts...)), nil
}

// rotatingFile 日志文件写入器（lumberjack 轮转）
func rotatingFile(path string, config *logconfig.Config) (zapcore.WriteSyncer, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("解析日志路径失败: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o700); err != nil {
		return nil, fmt.Errorf("创建日志目录失败: %w", err)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   abs,
		MaxSize:    config.GetMaxSize(),
		MaxBackups: config.GetMaxBackups(),
		MaxAge:     config.GetMaxAge(),
		Compress:   config.IsCompressionEnabled(),
	}), nil
}

// NewNop 丢弃所有输出的日志记录器
func NewNop() logiface.Logger {
	return wrap(zap.NewNop())
}

func wrap(z *zap.Logger) *Logger {
	return &Logger{zapLogger: z, sugar: z.Sugar()}
}

// kvFields 把 key, value 成对参数转换为 zap 字段；落单的末尾参数被丢弃
func kvFields(args ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		fields = append(fields, zap.Any(key, args[i+1]))
	}
	return fields
}

func (l *Logger) Debug(msg string)                          { l.sugar.Debug(msg) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }
func (l *Logger) Info(msg string)                           { l.sugar.Info(msg) }
func (l *Logger) Infof(format string, args ...interface{})  { l.sugar.Infof(format, args...) }
func (l *Logger) Warn(msg string)                           { l.sugar.Warn(msg) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.sugar.Warnf(format, args...) }
func (l *Logger) Error(msg string)                          { l.sugar.Error(msg) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }
func (l *Logger) Fatal(msg string)                          { l.sugar.Fatal(msg) }
func (l *Logger) Fatalf(format string, args ...interface{}) { l.sugar.Fatalf(format, args...) }

// With 返回附加字段后的子记录器
func (l *Logger) With(args ...interface{}) logiface.Logger {
	return wrap(l.zapLogger.With(kvFields(args...)...))
}

// Sync 刷新缓冲区
func (l *Logger) Sync() error { return l.zapLogger.Sync() }

// GetZapLogger 底层 zap 实例
func (l *Logger) GetZapLogger() *zap.Logger { return l.zapLogger }
