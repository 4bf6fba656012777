package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/weisyn/recordjoin/pkg/types"
)

// ParseAppConfig 解析 JSON 配置内容
//
// 🔧 零值陷阱处理：用户配置全部是指针字段，
// nil 表示未设置（使用默认值），&value 表示显式设置（即使是零值也采用）。
func ParseAppConfig(data []byte) (*types.AppConfig, error) {
	var appConfig types.AppConfig
	if err := json.Unmarshal(data, &appConfig); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}
	return &appConfig, nil
}

// LoadAppConfig 从配置文件加载配置；path 为空或文件不存在时返回空配置（全部使用默认值）
func LoadAppConfig(path string) (*types.AppConfig, error) {
	if path == "" {
		return &types.AppConfig{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &types.AppConfig{}, nil
		}
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	return ParseAppConfig(data)
}
