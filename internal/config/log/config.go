package log

import (
	"go.uber.org/zap/zapcore"

	logiface "github.com/weisyn/recordjoin/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/recordjoin/pkg/types"
)

// LogOptions 日志配置选项
type LogOptions struct {
	Level     string `json:"level"`      // debug | info | warn | error | fatal
	ToConsole bool   `json:"to_console"` // 输出到 stderr
	FilePath  string `json:"file_path"`  // 留空表示不写文件

	// lumberjack 轮转参数
	MaxSize    int  `json:"max_size"`
	MaxBackups int  `json:"max_backups"`
	MaxAge     int  `json:"max_age"`
	Compress   bool `json:"compress"`

	EnableCaller     bool `json:"enable_caller"`
	EnableStacktrace bool `json:"enable_stacktrace"`
}

// Config 日志配置
type Config struct {
	options *LogOptions
}

// New 创建日志配置
//
// userConfig 可以是 *types.UserLogConfig（配置文件）或 *LogOptions（代码直接构造）。
// 前者只覆盖文件中出现的字段，后者整体替换默认值。
func New(userConfig interface{}) *Config {
	options := &LogOptions{
		Level:            defaultLogLevel,
		ToConsole:        defaultToConsole,
		FilePath:         defaultFilePath,
		MaxSize:          defaultMaxSize,
		MaxBackups:       defaultMaxBackups,
		MaxAge:           defaultMaxAge,
		Compress:         defaultCompress,
		EnableCaller:     defaultEnableCaller,
		EnableStacktrace: defaultEnableStacktrace,
	}

	switch cfg := userConfig.(type) {
	case *types.UserLogConfig:
		if cfg != nil {
			if cfg.Level != nil {
				options.Level = *cfg.Level
			}
			if cfg.FilePath != nil {
				// 写文件时不再重复输出到控制台
				options.FilePath = *cfg.FilePath
				options.ToConsole = false
			}
		}
	case *LogOptions:
		if cfg != nil {
			*options = *cfg
			if options.Level == "" {
				options.Level = defaultLogLevel
			}
		}
	}
	return &Config{options: options}
}

// GetOptions 完整配置选项
func (c *Config) GetOptions() *LogOptions { return c.options }

// GetZapLevel 解析后的 zap 级别；无法识别的名称按 info 处理
func (c *Config) GetZapLevel() zapcore.Level {
	name, err := logiface.ParseLevel(c.options.Level)
	if err != nil {
		return zapcore.InfoLevel
	}
	level, err := zapcore.ParseLevel(string(name))
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

func (c *Config) IsConsoleEnabled() bool     { return c.options.ToConsole }
func (c *Config) GetFilePath() string        { return c.options.FilePath }
func (c *Config) GetMaxSize() int            { return c.options.MaxSize }
func (c *Config) GetMaxBackups() int         { return c.options.MaxBackups }
func (c *Config) GetMaxAge() int             { return c.options.MaxAge }
func (c *Config) IsCompressionEnabled() bool { return c.options.Compress }
func (c *Config) IsCallerEnabled() bool      { return c.options.EnableCaller }
func (c *Config) IsStacktraceEnabled() bool  { return c.options.EnableStacktrace }

// encoderConfig 两种编码器共用的字段名
func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// CreateFileEncoder 文件使用 JSON 编码
func (c *Config) CreateFileEncoder() zapcore.Encoder {
	ec := encoderConfig()
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.EncodeLevel = zapcore.LowercaseLevelEncoder
	return zapcore.NewJSONEncoder(ec)
}

// CreateConsoleEncoder 控制台使用彩色文本编码
func (c *Config) CreateConsoleEncoder() zapcore.Encoder {
	ec := encoderConfig()
	ec.EncodeTime = zapcore.TimeEncoderOfLayout(consoleTimeLayout)
	ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(ec)
}
