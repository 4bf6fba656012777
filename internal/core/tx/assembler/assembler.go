// Package assembler 将已解析的执行与费用组装为签名交易
//
// 组装是纯计算：校验一致性、计算交易 ID、用签名私钥签署 ID 摘要。
// 任何不一致都返回 ErrAssembly，不会产出部分交易。
package assembler

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"

	"github.com/weisyn/recordjoin/pkg/txerrors"
	"github.com/weisyn/recordjoin/pkg/types"
)

// 域分隔标签
const digestDomain = "recordjoin.tx.v1"

// Assemble 组装交易
func Assemble(exec *types.ResolvedExecution, fee *types.FeeArtifact, signingKey *types.PrivateKey) (*types.Transaction, error) {
	if err := check(exec, fee); err != nil {
		return nil, err
	}
	if signingKey == nil {
		return nil, txerrors.WrapAssemblyError("signing key is required")
	}

	digest := Digest(exec, fee)
	sig, err := signingKey.Sign(digest)
	if err != nil {
		return nil, txerrors.WrapAssemblyError(fmt.Sprintf("sign transaction: %v", err))
	}
	return &types.Transaction{
		ID:        base58.Encode(digest),
		Execution: exec,
		Fee:       fee,
		Signer:    signingKey.PublicKeyHex(),
		Signature: hex.EncodeToString(sig),
	}, nil
}

func check(exec *types.ResolvedExecution, fee *types.FeeArtifact) error {
	if exec == nil || exec.Execution == nil || exec.Inclusion == nil {
		return txerrors.WrapAssemblyError("execution is not resolved")
	}
	consumed := make(map[string]string)
	for _, in := range exec.Execution.Inputs {
		if _, dup := consumed[in.SerialNumber]; dup {
			return txerrors.WrapAssemblyError(fmt.Sprintf("serial number %s consumed twice by the execution", in.SerialNumber))
		}
		consumed[in.SerialNumber] = "execution"
	}
	if fee == nil {
		return nil
	}

	if fee.Resolved == nil || fee.Resolved.Execution == nil || fee.Resolved.Inclusion == nil {
		return txerrors.WrapAssemblyError("fee is not resolved")
	}
	if fee.Resolved.Execution.ProcessID != exec.Execution.ProcessID {
		return txerrors.WrapAssemblyError(fmt.Sprintf("process mismatch: execution %s, fee %s",
			exec.Execution.ProcessID, fee.Resolved.Execution.ProcessID))
	}
	if fee.Resolved.Inclusion.StateRoot != exec.Inclusion.StateRoot {
		return txerrors.WrapAssemblyError(fmt.Sprintf("state root mismatch: execution %s, fee %s",
			exec.Inclusion.StateRoot, fee.Resolved.Inclusion.StateRoot))
	}
	for _, in := range fee.Resolved.Execution.Inputs {
		if _, dup := consumed[in.SerialNumber]; dup {
			return txerrors.WrapAssemblyError(fmt.Sprintf("record %s consumed by both execution and fee", in.Commitment))
		}
		consumed[in.SerialNumber] = "fee"
	}
	return nil
}

// Digest 交易摘要：blake2b-256(域标签 | transition ids | 状态根 | 费用)
func Digest(exec *types.ResolvedExecution, fee *types.FeeArtifact) []byte {
	h, _ := blake2b.New256(nil)
	writeField := func(s string) {
		var l [4]byte
		binary.BigEndian.PutUint32(l[:], uint32(len(s)))
		h.Write(l[:])
		h.Write([]byte(s))
	}

	writeField(digestDomain)
	writeField(exec.Execution.TransitionID)
	writeField(exec.Inclusion.StateRoot)
	if fee != nil {
		writeField(fee.Resolved.Execution.TransitionID)
		var amount [8]byte
		binary.BigEndian.PutUint64(amount[:], fee.Microcredits)
		h.Write(amount[:])
	}
	return h.Sum(nil)
}

// VerifySignature 校验交易 ID 与签名
func VerifySignature(tx *types.Transaction) error {
	if err := check(tx.Execution, tx.Fee); err != nil {
		return err
	}
	digest := Digest(tx.Execution, tx.Fee)
	if base58.Encode(digest) != tx.ID {
		return txerrors.WrapAssemblyError("transaction id does not match contents")
	}
	sig, err := tx.SignatureBytes()
	if err != nil {
		return txerrors.WrapAssemblyError(err.Error())
	}
	if !types.VerifySignature(tx.Signer, digest, sig) {
		return txerrors.WrapAssemblyError("invalid signature")
	}
	return nil
}
