// Package types provides execution artifact definitions.
package types

import "time"

// ConsumedInput 被花费的输入（公开序列号 + 承诺）
type ConsumedInput struct {
	SerialNumber string `json:"serial_number"`
	Commitment   string `json:"commitment"`
}

// ExecutionArtifact 程序函数的执行产物
//
// 由 ExecutionInvoker 产出，InclusionResolver 消费。证明字节与公开见证
// 都是 gnark 的二进制编码，验证时配合 VerifyingKey 使用。
type ExecutionArtifact struct {
	ProcessID     string          `json:"process_id"`
	ProgramID     string          `json:"program_id"`
	Function      string          `json:"function"`
	TransitionID  string          `json:"transition_id"`
	Inputs        []ConsumedInput `json:"inputs"`
	Outputs       []*Record       `json:"outputs"`
	PublicInputs  []string        `json:"public_inputs"`
	Proof         []byte          `json:"proof"`
	PublicWitness []byte          `json:"public_witness"`
	VerifyingKey  []byte          `json:"verifying_key"`
	VKHash        string          `json:"vk_hash"`
}

// InclusionWitness 尚未解析的包含性见证：需要在账本中定位的承诺及其序列号
type InclusionWitness struct {
	Commitments   []string `json:"commitments"`
	SerialNumbers []string `json:"serial_numbers"`
}

// MerklePath 单个承诺的 Merkle 路径
type MerklePath struct {
	Commitment string   `json:"commitment"`
	Index      uint64   `json:"index"`
	Siblings   []string `json:"siblings"`
}

// InclusionProof 账本包含性证明
type InclusionProof struct {
	StateRoot string       `json:"state_root"`
	Height    uint64       `json:"height"`
	Paths     []MerklePath `json:"paths"`
}

// ResolvedExecution 附带包含性证明的执行
type ResolvedExecution struct {
	Execution *ExecutionArtifact `json:"execution"`
	Inclusion *InclusionProof    `json:"inclusion"`
}

// FeeArtifact 费用执行（每笔交易新生成，不做缓存）
type FeeArtifact struct {
	Resolved     *ResolvedExecution `json:"resolved"`
	Microcredits uint64             `json:"microcredits"`
}

// ConsumedResources 执行消耗统计
type ConsumedResources struct {
	ConstraintCount int           `json:"constraint_count"`
	ProvingTime     time.Duration `json:"proving_time"`
	KeysSynthesized bool          `json:"keys_synthesized"`
	KeySource       string        `json:"key_source"` // supplied | cache | synthesized
}
