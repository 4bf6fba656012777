package execution

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/weisyn/recordjoin/internal/core/process"
	"github.com/weisyn/recordjoin/pkg/txerrors"
	"github.com/weisyn/recordjoin/pkg/types"
)

// Verify 重新验证执行产物的证明
//
// 校验顺序：验证密钥哈希 → transition id → Groth16 证明。
func Verify(proc *process.Context, artifact *types.ExecutionArtifact) error {
	if artifact == nil {
		return fmt.Errorf("%w: nil artifact", txerrors.ErrExecution)
	}
	wrap := func(err error) error {
		return txerrors.WrapExecutionError(artifact.ProgramID, artifact.Function, err)
	}

	sum := blake2b.Sum256(artifact.VerifyingKey)
	if hex.EncodeToString(sum[:]) != artifact.VKHash {
		return wrap(fmt.Errorf("verifying key hash mismatch"))
	}
	if transitionID(artifact.ProgramID, artifact.Function, artifact.Proof, artifact.PublicInputs) != artifact.TransitionID {
		return wrap(fmt.Errorf("transition id mismatch"))
	}

	fn, err := proc.Function(artifact.ProgramID, artifact.Function)
	if err != nil {
		return wrap(err)
	}
	public, err := fn.Circuit.PublicAssignment(artifact.PublicInputs)
	if err != nil {
		return wrap(err)
	}
	if err := proc.Backend().Verify(artifact.VerifyingKey, artifact.Proof, public); err != nil {
		return wrap(err)
	}
	return nil
}
