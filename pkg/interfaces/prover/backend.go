// Package prover 定义证明后端接口
//
// 🎯 **定位**：编排层只依赖这里的调用契约，具体证明系统（Groth16/BN254）
// 由 internal/core/zkproof 提供。测试中可以包装真实后端统计调用次数。
package prover

import (
	"time"

	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"

	"github.com/weisyn/recordjoin/pkg/types"
)

// ProveResult 证明生成结果
type ProveResult struct {
	Proof           []byte        // 序列化的 Groth16 证明
	PublicWitness   []byte        // 序列化的公开见证
	ConstraintCount int           // 约束数量
	Duration        time.Duration // 证明耗时
}

// Backend 证明后端
type Backend interface {
	// Compile 将电路编译为约束系统
	Compile(circuit frontend.Circuit) (constraint.ConstraintSystem, error)

	// Synthesize 为约束系统合成证明/验证密钥（可信设置）
	Synthesize(ccs constraint.ConstraintSystem) (*types.KeyPair, error)

	// Prove 使用证明密钥为完整赋值生成证明
	Prove(ccs constraint.ConstraintSystem, keys *types.KeyPair, assignment frontend.Circuit) (*ProveResult, error)

	// Verify 使用验证密钥和公开赋值验证证明
	Verify(vk []byte, proof []byte, publicAssignment frontend.Circuit) error
}
