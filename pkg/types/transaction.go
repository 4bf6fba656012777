// Package types provides transaction definitions.
package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Transaction 已组装的交易
//
// 组装完成后不可变，所有权交给调用方（广播不在本模块范围内）。
// Signature 是签名私钥对交易 ID 摘要的 secp256k1 签名。
type Transaction struct {
	ID        string             `json:"id"`
	Execution *ResolvedExecution `json:"execution"`
	Fee       *FeeArtifact       `json:"fee,omitempty"`
	Signer    string             `json:"signer"`
	Signature string             `json:"signature"`
}

// SignatureBytes 解码签名
func (tx *Transaction) SignatureBytes() ([]byte, error) {
	sig, err := hex.DecodeString(tx.Signature)
	if err != nil {
		return nil, fmt.Errorf("decode signature: %w", err)
	}
	return sig, nil
}

// Consumed 交易花费的全部序列号
func (tx *Transaction) Consumed() []string {
	var out []string
	if tx.Execution != nil && tx.Execution.Execution != nil {
		for _, in := range tx.Execution.Execution.Inputs {
			out = append(out, in.SerialNumber)
		}
	}
	if tx.Fee != nil && tx.Fee.Resolved != nil && tx.Fee.Resolved.Execution != nil {
		for _, in := range tx.Fee.Resolved.Execution.Inputs {
			out = append(out, in.SerialNumber)
		}
	}
	return out
}

// Outputs 交易产生的全部输出记录（合并结果与费用找零）
func (tx *Transaction) Outputs() []*Record {
	var out []*Record
	if tx.Execution != nil && tx.Execution.Execution != nil {
		out = append(out, tx.Execution.Execution.Outputs...)
	}
	if tx.Fee != nil && tx.Fee.Resolved != nil && tx.Fee.Resolved.Execution != nil {
		out = append(out, tx.Fee.Resolved.Execution.Outputs...)
	}
	return out
}

// MarshalTransaction 交易 JSON 编码
func MarshalTransaction(tx *Transaction) ([]byte, error) {
	return json.Marshal(tx)
}

// UnmarshalTransaction 交易 JSON 解码
func UnmarshalTransaction(data []byte) (*Transaction, error) {
	var tx Transaction
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}
	return &tx, nil
}
