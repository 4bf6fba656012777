// Package inclusion 为执行产物附加账本包含性证明
//
// 🎯 **职责**：向节点查询当前状态根及被花费记录承诺的 Merkle 路径，
// 在本地逐条校验路径后生成 InclusionProof。这是流程中唯一访问网络的组件。
//
// ⚠️ **错误分类**（不做重试，由调用方决定是否整体重试）：
//   - ErrNetwork：连接失败、超时、5xx、响应无法解码
//   - ErrStaleState：状态根已变化、序列号已花费、承诺未知、路径本地校验失败
package inclusion

import (
	"context"
	"errors"
	"fmt"

	"github.com/weisyn/recordjoin/internal/core/infrastructure/metrics"
	"github.com/weisyn/recordjoin/internal/core/process"
	"github.com/weisyn/recordjoin/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/recordjoin/pkg/interfaces/ledger"
	"github.com/weisyn/recordjoin/pkg/txerrors"
	"github.com/weisyn/recordjoin/pkg/types"
	"github.com/weisyn/recordjoin/pkg/utils/field"
)

// Option 解析选项
type Option func(*options)

type options struct {
	pinRoot string
}

// PinStateRoot 要求节点在指定状态根上应答
func PinStateRoot(root string) Option {
	return func(o *options) { o.pinRoot = root }
}

// Resolver 包含性证明解析器
type Resolver struct {
	logger  log.Logger
	clients ledger.ClientFactory
}

// NewResolver 创建解析器
func NewResolver(logger log.Logger, clients ledger.ClientFactory) *Resolver {
	return &Resolver{logger: logger, clients: clients}
}

// Resolve 解析执行产物的包含性证明
func (r *Resolver) Resolve(
	ctx context.Context,
	proc *process.Context,
	witness *types.InclusionWitness,
	artifact *types.ExecutionArtifact,
	nodeURL string,
	opts ...Option,
) (*types.ResolvedExecution, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkWitness(proc, witness, artifact); err != nil {
		return nil, err
	}

	client := r.clients(nodeURL)
	proof, err := client.Inclusion(ctx, &types.InclusionQuery{
		Commitments:   witness.Commitments,
		SerialNumbers: witness.SerialNumbers,
		StateRoot:     o.pinRoot,
	})
	if err != nil {
		return nil, r.classify(err)
	}

	if o.pinRoot != "" && proof.StateRoot != o.pinRoot {
		metrics.RecordInclusion("stale")
		return nil, txerrors.WrapStaleStateError(fmt.Sprintf("node answered at %s, pinned %s", proof.StateRoot, o.pinRoot))
	}
	if err := VerifyProof(witness.Commitments, proof); err != nil {
		metrics.RecordInclusion("stale")
		return nil, err
	}

	metrics.RecordInclusion("success")
	r.logger.Infof("包含性证明已解析: %s/%s, 状态根=%s, 高度=%d, 路径数=%d",
		artifact.ProgramID, artifact.Function, proof.StateRoot, proof.Height, len(proof.Paths))

	return &types.ResolvedExecution{Execution: artifact, Inclusion: proof}, nil
}

func checkWitness(proc *process.Context, witness *types.InclusionWitness, artifact *types.ExecutionArtifact) error {
	if witness == nil || artifact == nil {
		return txerrors.WrapAssemblyError("missing witness or artifact")
	}
	if artifact.ProcessID != proc.ID() {
		return txerrors.WrapAssemblyError(fmt.Sprintf("artifact from process %s resolved in process %s", artifact.ProcessID, proc.ID()))
	}
	if len(witness.Commitments) != len(artifact.Inputs) || len(witness.SerialNumbers) != len(artifact.Inputs) {
		return txerrors.WrapAssemblyError("witness does not match artifact inputs")
	}
	for i, in := range artifact.Inputs {
		if witness.Commitments[i] != in.Commitment || witness.SerialNumbers[i] != in.SerialNumber {
			return txerrors.WrapAssemblyError(fmt.Sprintf("witness entry %d does not match artifact input", i))
		}
	}
	return nil
}

// classify 将客户端错误归类为网络错误或状态过期
func (r *Resolver) classify(err error) error {
	switch {
	case errors.Is(err, txerrors.ErrStaleState):
		metrics.RecordInclusion("stale")
		return err
	case errors.Is(err, txerrors.ErrNetwork):
		metrics.RecordInclusion("network")
		return err
	default:
		metrics.RecordInclusion("network")
		return txerrors.WrapNetworkError("inclusion", err)
	}
}

// VerifyProof 本地校验每个承诺的 Merkle 路径
func VerifyProof(commitments []string, proof *types.InclusionProof) error {
	if proof == nil {
		return txerrors.WrapStaleStateError("missing inclusion proof")
	}
	if len(proof.Paths) != len(commitments) {
		return txerrors.WrapStaleStateError(fmt.Sprintf("expected %d paths, got %d", len(commitments), len(proof.Paths)))
	}
	root, err := field.FromHex(proof.StateRoot)
	if err != nil {
		return txerrors.WrapStaleStateError(fmt.Sprintf("invalid state root: %v", err))
	}
	for i, path := range proof.Paths {
		if path.Commitment != commitments[i] {
			return txerrors.WrapStaleStateError(fmt.Sprintf("path %d is for %s, want %s", i, path.Commitment, commitments[i]))
		}
		leaf, err := field.FromHex(path.Commitment)
		if err != nil {
			return txerrors.WrapStaleStateError(fmt.Sprintf("path %d: invalid commitment: %v", i, err))
		}
		if len(path.Siblings) == 0 || len(path.Siblings) > field.MaxMerkleDepth {
			return txerrors.WrapStaleStateError(fmt.Sprintf("path %d: invalid depth %d", i, len(path.Siblings)))
		}
		siblings := make([]field.Element, len(path.Siblings))
		for j, s := range path.Siblings {
			if siblings[j], err = field.FromHex(s); err != nil {
				return txerrors.WrapStaleStateError(fmt.Sprintf("path %d: invalid sibling %d: %v", i, j, err))
			}
		}
		if !field.VerifyPath(leaf, path.Index, siblings, root) {
			return txerrors.WrapStaleStateError(fmt.Sprintf("path %d does not lead to state root", i))
		}
	}
	return nil
}
