// Package fee 生成交易的费用执行
//
// 🎯 **职责**：在与主执行相同的进程上下文中调用内置 credits/fee 函数，
// 并把费用执行的包含性证明固定在主执行的状态根上。费用执行每笔交易新生成，
// 密钥则与普通执行一样遵循 提供 → 缓存 → 合成 的优先级。
package fee

import (
	"context"

	"github.com/weisyn/recordjoin/internal/core/execution"
	"github.com/weisyn/recordjoin/internal/core/inclusion"
	"github.com/weisyn/recordjoin/internal/core/process"
	"github.com/weisyn/recordjoin/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/recordjoin/pkg/txerrors"
	"github.com/weisyn/recordjoin/pkg/types"
)

// Request 费用请求
type Request struct {
	SigningKey   *types.PrivateKey
	FeeRecord    *types.Record
	Microcredits uint64
	NodeURL      string
	Keys         types.KeyOption
	Cache        bool
	// PinRoot 主执行的状态根，为空时不固定
	PinRoot string
}

// Assembler 费用组装器
type Assembler struct {
	invoker  *execution.Invoker
	resolver *inclusion.Resolver
	logger   log.Logger
}

// NewAssembler 创建费用组装器
func NewAssembler(invoker *execution.Invoker, resolver *inclusion.Resolver, logger log.Logger) *Assembler {
	return &Assembler{invoker: invoker, resolver: resolver, logger: logger}
}

// Build 执行并解析费用函数
//
// 失败时错误带有 execute:credits/fee 或 resolve:credits/fee 阶段标注，错误类别原样透传。
func (a *Assembler) Build(ctx context.Context, proc *process.Context, req *Request) (*types.FeeArtifact, error) {
	executeStage := txerrors.ExecuteStage(process.CreditsProgram, process.FunctionFee)
	resolveStage := txerrors.ResolveStage(process.CreditsProgram, process.FunctionFee)

	res, err := a.invoker.Invoke(ctx, proc, &execution.Request{
		ProgramSource: process.CreditsSource,
		Function:      process.FunctionFee,
		Inputs:        []types.Input{types.RecordInput(req.FeeRecord), types.U64Input(req.Microcredits)},
		SigningKey:    req.SigningKey,
		Keys:          req.Keys,
		Cache:         req.Cache,
	})
	if err != nil {
		return nil, txerrors.AtStage(executeStage, err)
	}

	var opts []inclusion.Option
	if req.PinRoot != "" {
		opts = append(opts, inclusion.PinStateRoot(req.PinRoot))
	}
	resolved, err := a.resolver.Resolve(ctx, proc, res.Witness, res.Artifact, req.NodeURL, opts...)
	if err != nil {
		return nil, txerrors.AtStage(resolveStage, err)
	}

	a.logger.Debugf("费用执行完成: fee=%d, transition=%s", req.Microcredits, res.Artifact.TransitionID)
	return &types.FeeArtifact{Resolved: resolved, Microcredits: req.Microcredits}, nil
}
