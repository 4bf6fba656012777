// Package configs 内嵌默认配置模板
package configs

import _ "embed"

// 默认配置模板，字段与 types.AppConfig 一一对应
//
//go:embed recordjoin.json
var defaultConfig []byte

// DefaultConfig 返回默认配置模板的副本
func DefaultConfig() []byte {
	out := make([]byte, len(defaultConfig))
	copy(out, defaultConfig)
	return out
}
