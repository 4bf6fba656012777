package testutil

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/recordjoin/pkg/types"
	"github.com/weisyn/recordjoin/pkg/utils/field"
)

// ==================== 测试数据 ====================

// 固定测试私钥（secp256k1，仅用于测试）
const (
	TestPrivateKeyHex  = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	OtherPrivateKeyHex = "8f2a55949038a9610f50fb23b5883af3b4ecb3c3bb792cbcefbd1542c692be63"
)

// TestPrivateKey 返回固定测试私钥
func TestPrivateKey(t testing.TB) *types.PrivateKey {
	t.Helper()
	key, err := types.PrivateKeyFromHex(TestPrivateKeyHex)
	require.NoError(t, err)
	return key
}

// OtherPrivateKey 返回另一把测试私钥
func OtherPrivateKey(t testing.TB) *types.PrivateKey {
	t.Helper()
	key, err := types.PrivateKeyFromHex(OtherPrivateKeyHex)
	require.NoError(t, err)
	return key
}

// NewTestRecord 为 key 的地址创建一条记录，nonce 由整数派生
func NewTestRecord(key *types.PrivateKey, microcredits uint64, nonce uint64) *types.Record {
	return types.NewRecord(key.Address(), microcredits, field.FromUint64(nonce))
}

// squareCircuit 最小电路：X*X == Y
type squareCircuit struct {
	X frontend.Variable
	Y frontend.Variable `gnark:",public"`
}

func (c *squareCircuit) Define(api frontend.API) error {
	api.AssertIsEqual(api.Mul(c.X, c.X), c.Y)
	return nil
}

// NewTestKeyPair 基于最小电路生成一对真实的 Groth16 密钥
func NewTestKeyPair(t testing.TB) *types.KeyPair {
	t.Helper()
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &squareCircuit{})
	require.NoError(t, err)
	pk, vk, err := groth16.Setup(ccs)
	require.NoError(t, err)
	return &types.KeyPair{ProvingKey: pk, VerifyingKey: vk}
}
