// Package zkproof 记录 join / 费用电路及其 Groth16 (BN254) 证明后端
package zkproof

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"
)

// 电路类别
const (
	CircuitJoin = "join"
	CircuitFee  = "fee"
)

// valueBits 记录金额的位宽（microcredits 为 uint64）
const valueBits = 64

// hashVars 电路内 MiMC(v1, v2, ...)
//
// 每次哈希使用新的 hasher，与 pkg/utils/field.Hash 的链外计算一一对应。
func hashVars(api frontend.API, vars ...frontend.Variable) (frontend.Variable, error) {
	h, err := mimc.NewMiMC(api)
	if err != nil {
		return nil, err
	}
	h.Write(vars...)
	return h.Sum(), nil
}

// ==================== 记录合并电路 ====================

// JoinCircuit 记录合并电路
//
// 🎯 **验证目标**：
//   - 两条输入记录都属于 sk 的持有者（owner = MiMC(sk)）
//   - 公开的承诺与序列号由私有的记录内容正确导出
//   - 输出记录金额 = 输入金额之和，且不溢出 64 位
type JoinCircuit struct {
	// 公开输入
	Commitments      [2]frontend.Variable `gnark:",public"`
	SerialNumbers    [2]frontend.Variable `gnark:",public"`
	OutputCommitment frontend.Variable    `gnark:",public"`

	// 私有输入
	SecretKey   frontend.Variable
	Amounts     [2]frontend.Variable
	Nonces      [2]frontend.Variable
	OutputNonce frontend.Variable
}

// Define 定义电路约束
func (c *JoinCircuit) Define(api frontend.API) error {
	owner, err := hashVars(api, c.SecretKey)
	if err != nil {
		return err
	}

	for i := 0; i < 2; i++ {
		api.ToBinary(c.Amounts[i], valueBits)

		cm, err := hashVars(api, owner, c.Amounts[i], c.Nonces[i])
		if err != nil {
			return err
		}
		api.AssertIsEqual(cm, c.Commitments[i])

		sn, err := hashVars(api, c.SecretKey, cm)
		if err != nil {
			return err
		}
		api.AssertIsEqual(sn, c.SerialNumbers[i])
	}

	total := api.Add(c.Amounts[0], c.Amounts[1])
	api.ToBinary(total, valueBits)

	outCm, err := hashVars(api, owner, total, c.OutputNonce)
	if err != nil {
		return err
	}
	api.AssertIsEqual(outCm, c.OutputCommitment)
	return nil
}

// ==================== 费用电路 ====================

// FeeCircuit 费用扣除电路
//
// 🎯 **验证目标**：费用记录属于 sk 的持有者，找零 = 余额 - 费用 且不为负。
type FeeCircuit struct {
	// 公开输入
	Commitment       frontend.Variable `gnark:",public"`
	SerialNumber     frontend.Variable `gnark:",public"`
	Fee              frontend.Variable `gnark:",public"`
	ChangeCommitment frontend.Variable `gnark:",public"`

	// 私有输入
	SecretKey   frontend.Variable
	Amount      frontend.Variable
	Nonce       frontend.Variable
	ChangeNonce frontend.Variable
}

// Define 定义电路约束
func (c *FeeCircuit) Define(api frontend.API) error {
	api.ToBinary(c.Amount, valueBits)
	api.ToBinary(c.Fee, valueBits)

	owner, err := hashVars(api, c.SecretKey)
	if err != nil {
		return err
	}
	cm, err := hashVars(api, owner, c.Amount, c.Nonce)
	if err != nil {
		return err
	}
	api.AssertIsEqual(cm, c.Commitment)

	sn, err := hashVars(api, c.SecretKey, cm)
	if err != nil {
		return err
	}
	api.AssertIsEqual(sn, c.SerialNumber)

	// 下溢时 change 会回绕成接近模数的大数，64 位分解失败
	change := api.Sub(c.Amount, c.Fee)
	api.ToBinary(change, valueBits)

	changeCm, err := hashVars(api, owner, change, c.ChangeNonce)
	if err != nil {
		return err
	}
	api.AssertIsEqual(changeCm, c.ChangeCommitment)
	return nil
}
