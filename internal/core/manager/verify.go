package manager

import (
	"fmt"

	"github.com/weisyn/recordjoin/internal/core/execution"
	"github.com/weisyn/recordjoin/internal/core/inclusion"
	"github.com/weisyn/recordjoin/internal/core/process"
	"github.com/weisyn/recordjoin/internal/core/tx/assembler"
	"github.com/weisyn/recordjoin/internal/core/zkproof"
	"github.com/weisyn/recordjoin/pkg/txerrors"
	"github.com/weisyn/recordjoin/pkg/types"
)

// VerifyTransaction 离线校验已组装的交易
//
// 校验顺序：签名 → 主执行证明与包含性路径 → 费用证明、路径与金额。
// 不访问节点，只能说明交易在其引用的状态根上自洽。
//
// ⚠️ 证明使用交易自带的验证密钥校验。密钥缓存中已有该函数的密钥时，
// 还要求交易的验证密钥哈希与缓存一致（ErrExecution），否则只证明交易自洽，
// 不能说明证明出自受信任的密钥。
func (pm *ProgramManager) VerifyTransaction(tx *types.Transaction) error {
	if tx == nil {
		return txerrors.WrapAssemblyError("nil transaction")
	}
	if err := assembler.VerifySignature(tx); err != nil {
		return err
	}
	if _, err := pm.proc.Load(process.CreditsSource); err != nil {
		return fmt.Errorf("%w: load program: %w", txerrors.ErrExecution, err)
	}

	if err := pm.verifyResolved(tx.Execution); err != nil {
		return err
	}
	if tx.Fee == nil {
		return nil
	}
	if err := pm.verifyResolved(tx.Fee.Resolved); err != nil {
		return err
	}
	fee, err := zkproof.FeeFromPublicInputs(tx.Fee.Resolved.Execution.PublicInputs)
	if err != nil {
		return txerrors.WrapExecutionError(process.CreditsProgram, process.FunctionFee, err)
	}
	if fee != tx.Fee.Microcredits {
		return txerrors.WrapAssemblyError(fmt.Sprintf("fee artifact proves %d but declares %d", fee, tx.Fee.Microcredits))
	}
	return nil
}

func (pm *ProgramManager) verifyResolved(resolved *types.ResolvedExecution) error {
	if resolved == nil || resolved.Execution == nil {
		return txerrors.WrapAssemblyError("execution is not resolved")
	}
	if err := pm.checkTrustedKey(resolved.Execution); err != nil {
		return err
	}
	if err := execution.Verify(pm.proc, resolved.Execution); err != nil {
		return err
	}
	commitments := make([]string, len(resolved.Execution.Inputs))
	for i, in := range resolved.Execution.Inputs {
		commitments[i] = in.Commitment
	}
	return inclusion.VerifyProof(commitments, resolved.Inclusion)
}

// checkTrustedKey 缓存中有该函数的密钥时，产物必须由同一对密钥生成
func (pm *ProgramManager) checkTrustedKey(artifact *types.ExecutionArtifact) error {
	trusted, ok := pm.keys.Get(artifact.ProgramID, artifact.Function)
	if !ok {
		return nil
	}
	hash, err := trusted.VerifyingKeyHash()
	if err != nil {
		return txerrors.WrapExecutionError(artifact.ProgramID, artifact.Function, err)
	}
	if hash != artifact.VKHash {
		return txerrors.WrapExecutionError(artifact.ProgramID, artifact.Function,
			fmt.Errorf("verifying key %s is not the cached key %s", artifact.VKHash, hash))
	}
	return nil
}
