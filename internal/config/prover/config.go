// Package prover 提供证明后端配置
package prover

import (
	"github.com/weisyn/recordjoin/pkg/types"
)

// ProverOptions 证明后端配置选项
type ProverOptions struct {
	MerkleDepth   int  `json:"merkle_depth"`    // 承诺树深度
	SilenceGnark  bool `json:"silence_gnark"`   // 是否静默 gnark 内部日志
	VerifyOnProve bool `json:"verify_on_prove"` // 生成证明后是否立即本地验证
}

// Config 证明后端配置实现
type Config struct {
	options *ProverOptions
}

// New 创建证明后端配置
func New(userConfig *types.UserProverConfig) *Config {
	options := &ProverOptions{
		MerkleDepth:   defaultMerkleDepth,
		SilenceGnark:  defaultSilenceGnark,
		VerifyOnProve: defaultVerifyOnProve,
	}
	if userConfig != nil {
		if userConfig.MerkleDepth != nil && *userConfig.MerkleDepth > 0 && *userConfig.MerkleDepth <= maxMerkleDepth {
			options.MerkleDepth = *userConfig.MerkleDepth
		}
		if userConfig.SilenceGnark != nil {
			options.SilenceGnark = *userConfig.SilenceGnark
		}
		if userConfig.VerifyOnProve != nil {
			options.VerifyOnProve = *userConfig.VerifyOnProve
		}
	}
	return &Config{options: options}
}

// GetOptions 获取完整配置选项
func (c *Config) GetOptions() *ProverOptions {
	return c.options
}
