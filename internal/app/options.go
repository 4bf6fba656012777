package app

import (
	"github.com/weisyn/recordjoin/pkg/types"
)

// Option 应用程序选项函数类型
type Option func(*options)

// options 应用程序选项
type options struct {
	// 配置文件路径
	configFilePath string

	// 代码直接提供的配置（优先级高于配置文件）
	appConfig *types.AppConfig

	// 命令行覆盖项
	logLevel *string
	nodeURL  *string
}

// WithConfigFile 设置配置文件路径
func WithConfigFile(configPath string) Option {
	return func(o *options) {
		o.configFilePath = configPath
	}
}

// WithAppConfig 直接提供应用配置
func WithAppConfig(appConfig *types.AppConfig) Option {
	return func(o *options) {
		o.appConfig = appConfig
	}
}

// WithLogLevel 覆盖日志级别
func WithLogLevel(level string) Option {
	return func(o *options) {
		if level != "" {
			o.logLevel = &level
		}
	}
}

// WithNodeURL 覆盖默认节点地址
func WithNodeURL(url string) Option {
	return func(o *options) {
		if url != "" {
			o.nodeURL = &url
		}
	}
}

func newOptions(opts ...Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// apply 把命令行覆盖项合并进配置
func (o *options) apply(appConfig *types.AppConfig) {
	if o.logLevel != nil {
		if appConfig.Log == nil {
			appConfig.Log = &types.UserLogConfig{}
		}
		appConfig.Log.Level = o.logLevel
	}
	if o.nodeURL != nil {
		if appConfig.Node == nil {
			appConfig.Node = &types.UserNodeConfig{}
		}
		appConfig.Node.URL = o.nodeURL
	}
}
