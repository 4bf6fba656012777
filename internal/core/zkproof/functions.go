package zkproof

import (
	"fmt"
	"math"

	"github.com/consensys/gnark/frontend"

	"github.com/weisyn/recordjoin/pkg/types"
	"github.com/weisyn/recordjoin/pkg/utils/field"
)

// Assignment 一次执行的见证赋值及其链外导出结果
type Assignment struct {
	Witness      frontend.Circuit
	Consumed     []types.ConsumedInput
	Outputs      []*types.Record
	PublicInputs []string
}

// CircuitFunction 电路类别的链外逻辑
//
// 🎯 **职责**：提供编译用的空电路、根据输入构造完整赋值、
// 以及验证时根据执行产物重建公开赋值。
type CircuitFunction interface {
	// Kind 电路类别
	Kind() string

	// Circuit 用于编译的空电路
	Circuit() frontend.Circuit

	// Assign 构造完整见证；seed 用于派生输出记录的 nonce
	Assign(sk field.Element, inputs []types.Input, seed []byte) (*Assignment, error)

	// PublicAssignment 根据执行产物的公开输入重建公开赋值
	PublicAssignment(publicInputs []string) (frontend.Circuit, error)
}

// LookupFunction 按电路类别查找链外逻辑
func LookupFunction(kind string) (CircuitFunction, error) {
	switch kind {
	case CircuitJoin:
		return joinFunction{}, nil
	case CircuitFee:
		return feeFunction{}, nil
	default:
		return nil, WrapCircuitNotFoundError(kind)
	}
}

// OutputNonce 由种子派生第 i 个输出记录的 nonce
func OutputNonce(seed []byte, i uint64) field.Element {
	return field.Hash(field.FromBytes(seed), field.FromUint64(i))
}

// ownedRecord 记录的链外见证值
type ownedRecord struct {
	amount uint64
	nonce  field.Element
	cm     field.Element
	sn     field.Element
}

func openRecord(kind string, sk field.Element, r *types.Record) (*ownedRecord, error) {
	if r == nil {
		return nil, WrapInvalidWitnessError(kind, "nil record")
	}
	owner := field.Hash(sk)
	if r.Owner != types.AddressFromField(owner) {
		return nil, WrapInvalidWitnessError(kind, fmt.Sprintf("record owner %s does not match signing key", r.Owner))
	}
	nonce, err := r.NonceField()
	if err != nil {
		return nil, WrapInvalidWitnessError(kind, err.Error())
	}
	cm := field.Hash(owner, field.FromUint64(r.Microcredits), nonce)
	return &ownedRecord{
		amount: r.Microcredits,
		nonce:  nonce,
		cm:     cm,
		sn:     field.Hash(sk, cm),
	}, nil
}

func parsePublic(kind string, publicInputs []string, n int) ([]field.Element, error) {
	if len(publicInputs) != n {
		return nil, WrapInvalidWitnessError(kind, fmt.Sprintf("expected %d public inputs, got %d", n, len(publicInputs)))
	}
	out := make([]field.Element, n)
	for i, s := range publicInputs {
		e, err := field.FromHex(s)
		if err != nil {
			return nil, WrapInvalidWitnessError(kind, fmt.Sprintf("public input %d: %v", i, err))
		}
		out[i] = e
	}
	return out, nil
}

// ==================== join ====================

type joinFunction struct{}

func (joinFunction) Kind() string { return CircuitJoin }

func (joinFunction) Circuit() frontend.Circuit { return &JoinCircuit{} }

// Assign 输入：两条记录
func (f joinFunction) Assign(sk field.Element, inputs []types.Input, seed []byte) (*Assignment, error) {
	if len(inputs) != 2 || inputs[0].Record == nil || inputs[1].Record == nil {
		return nil, WrapInvalidWitnessError(CircuitJoin, "join expects two record inputs")
	}
	var recs [2]*ownedRecord
	for i := 0; i < 2; i++ {
		rec, err := openRecord(CircuitJoin, sk, inputs[i].Record)
		if err != nil {
			return nil, err
		}
		recs[i] = rec
	}
	if recs[0].cm.Equal(&recs[1].cm) {
		return nil, WrapInvalidWitnessError(CircuitJoin, "cannot join a record with itself")
	}
	if recs[0].amount > math.MaxUint64-recs[1].amount {
		return nil, WrapInvalidWitnessError(CircuitJoin, "joined amount overflows u64")
	}
	total := recs[0].amount + recs[1].amount

	outNonce := OutputNonce(seed, 0)
	out := types.NewRecord(inputs[0].Record.Owner, total, outNonce)
	outCm, err := out.Commitment()
	if err != nil {
		return nil, WrapInvalidWitnessError(CircuitJoin, err.Error())
	}

	w := &JoinCircuit{
		Commitments:      [2]frontend.Variable{field.BigInt(recs[0].cm), field.BigInt(recs[1].cm)},
		SerialNumbers:    [2]frontend.Variable{field.BigInt(recs[0].sn), field.BigInt(recs[1].sn)},
		OutputCommitment: field.BigInt(outCm),
		SecretKey:        field.BigInt(sk),
		Amounts:          [2]frontend.Variable{recs[0].amount, recs[1].amount},
		Nonces:           [2]frontend.Variable{field.BigInt(recs[0].nonce), field.BigInt(recs[1].nonce)},
		OutputNonce:      field.BigInt(outNonce),
	}
	return &Assignment{
		Witness: w,
		Consumed: []types.ConsumedInput{
			{SerialNumber: field.Hex(recs[0].sn), Commitment: field.Hex(recs[0].cm)},
			{SerialNumber: field.Hex(recs[1].sn), Commitment: field.Hex(recs[1].cm)},
		},
		Outputs: []*types.Record{out},
		PublicInputs: []string{
			field.Hex(recs[0].cm), field.Hex(recs[1].cm),
			field.Hex(recs[0].sn), field.Hex(recs[1].sn),
			field.Hex(outCm),
		},
	}, nil
}

func (joinFunction) PublicAssignment(publicInputs []string) (frontend.Circuit, error) {
	v, err := parsePublic(CircuitJoin, publicInputs, 5)
	if err != nil {
		return nil, err
	}
	return &JoinCircuit{
		Commitments:      [2]frontend.Variable{field.BigInt(v[0]), field.BigInt(v[1])},
		SerialNumbers:    [2]frontend.Variable{field.BigInt(v[2]), field.BigInt(v[3])},
		OutputCommitment: field.BigInt(v[4]),
	}, nil
}

// ==================== fee ====================

type feeFunction struct{}

func (feeFunction) Kind() string { return CircuitFee }

func (feeFunction) Circuit() frontend.Circuit { return &FeeCircuit{} }

// Assign 输入：费用记录、费用金额（microcredits）
func (f feeFunction) Assign(sk field.Element, inputs []types.Input, seed []byte) (*Assignment, error) {
	if len(inputs) != 2 || inputs[0].Record == nil || inputs[1].Record != nil {
		return nil, WrapInvalidWitnessError(CircuitFee, "fee expects a record and a u64 amount")
	}
	rec, err := openRecord(CircuitFee, sk, inputs[0].Record)
	if err != nil {
		return nil, err
	}
	fee := inputs[1].U64
	if fee > rec.amount {
		return nil, WrapInvalidWitnessError(CircuitFee, fmt.Sprintf("fee %d exceeds record balance %d", fee, rec.amount))
	}

	changeNonce := OutputNonce(seed, 0)
	change := types.NewRecord(inputs[0].Record.Owner, rec.amount-fee, changeNonce)
	changeCm, err := change.Commitment()
	if err != nil {
		return nil, WrapInvalidWitnessError(CircuitFee, err.Error())
	}

	w := &FeeCircuit{
		Commitment:       field.BigInt(rec.cm),
		SerialNumber:     field.BigInt(rec.sn),
		Fee:              fee,
		ChangeCommitment: field.BigInt(changeCm),
		SecretKey:        field.BigInt(sk),
		Amount:           rec.amount,
		Nonce:            field.BigInt(rec.nonce),
		ChangeNonce:      field.BigInt(changeNonce),
	}
	return &Assignment{
		Witness: w,
		Consumed: []types.ConsumedInput{
			{SerialNumber: field.Hex(rec.sn), Commitment: field.Hex(rec.cm)},
		},
		Outputs: []*types.Record{change},
		PublicInputs: []string{
			field.Hex(rec.cm), field.Hex(rec.sn),
			field.Hex(field.FromUint64(fee)), field.Hex(changeCm),
		},
	}, nil
}

func (feeFunction) PublicAssignment(publicInputs []string) (frontend.Circuit, error) {
	v, err := parsePublic(CircuitFee, publicInputs, 4)
	if err != nil {
		return nil, err
	}
	return &FeeCircuit{
		Commitment:       field.BigInt(v[0]),
		SerialNumber:     field.BigInt(v[1]),
		Fee:              field.BigInt(v[2]),
		ChangeCommitment: field.BigInt(v[3]),
	}, nil
}

// FeeFromPublicInputs 从费用执行的公开输入中读取费用金额
func FeeFromPublicInputs(publicInputs []string) (uint64, error) {
	v, err := parsePublic(CircuitFee, publicInputs, 4)
	if err != nil {
		return 0, err
	}
	b := field.BigInt(v[2])
	if !b.IsUint64() {
		return 0, WrapInvalidWitnessError(CircuitFee, "fee does not fit u64")
	}
	return b.Uint64(), nil
}
