package zkproof

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	proverconfig "github.com/weisyn/recordjoin/internal/config/prover"
	"github.com/weisyn/recordjoin/internal/testutil"
	"github.com/weisyn/recordjoin/pkg/types"
	"github.com/weisyn/recordjoin/pkg/utils/field"
)

// proveAndVerify 对一个电路类别完成 编译 → 合成 → 证明 → 验证
func proveAndVerify(t *testing.T, kind string, sk field.Element, inputs []types.Input) (*Assignment, error) {
	t.Helper()
	backend := NewGroth16Backend(&testutil.MockLogger{}, nil)
	fn, err := LookupFunction(kind)
	require.NoError(t, err)

	ccs, err := backend.Compile(fn.Circuit())
	require.NoError(t, err)
	kp, err := backend.Synthesize(ccs)
	require.NoError(t, err)

	assignment, err := fn.Assign(sk, inputs, []byte("seed"))
	require.NoError(t, err)
	res, err := backend.Prove(ccs, kp, assignment.Witness)
	require.NoError(t, err)
	assert.Positive(t, res.ConstraintCount)

	vk, err := types.MarshalVerifyingKey(kp.VerifyingKey)
	require.NoError(t, err)
	public, err := fn.PublicAssignment(assignment.PublicInputs)
	require.NoError(t, err)
	require.NoError(t, backend.Verify(vk, res.Proof, public))

	// 篡改最后一个公开输入后验证必须失败
	tampered := append([]string(nil), assignment.PublicInputs...)
	tampered[len(tampered)-1] = field.Hex(field.FromUint64(1))
	badPublic, err := fn.PublicAssignment(tampered)
	require.NoError(t, err)
	return assignment, backend.Verify(vk, res.Proof, badPublic)
}

func TestJoinCircuit_ProveAndVerify(t *testing.T) {
	key := testutil.TestPrivateKey(t)
	a := testutil.NewTestRecord(key, 100, 1)
	b := testutil.NewTestRecord(key, 50, 2)

	assignment, tamperedErr := proveAndVerify(t, CircuitJoin, key.SecretField(),
		[]types.Input{types.RecordInput(a), types.RecordInput(b)})
	assert.True(t, errors.Is(tamperedErr, ErrProofVerificationFailed))

	require.Len(t, assignment.Outputs, 1)
	assert.Equal(t, uint64(150), assignment.Outputs[0].Microcredits)
	assert.Equal(t, a.Owner, assignment.Outputs[0].Owner)
	require.Len(t, assignment.Consumed, 2)

	snA, err := a.SerialNumber(key.SecretField())
	require.NoError(t, err)
	assert.Equal(t, field.Hex(snA), assignment.Consumed[0].SerialNumber)
}

func TestFeeCircuit_ProveAndVerify(t *testing.T) {
	key := testutil.TestPrivateKey(t)
	rec := testutil.NewTestRecord(key, 10, 3)

	assignment, tamperedErr := proveAndVerify(t, CircuitFee, key.SecretField(),
		[]types.Input{types.RecordInput(rec), types.U64Input(4)})
	assert.True(t, errors.Is(tamperedErr, ErrProofVerificationFailed))

	require.Len(t, assignment.Outputs, 1)
	assert.Equal(t, uint64(6), assignment.Outputs[0].Microcredits)

	fee, err := FeeFromPublicInputs(assignment.PublicInputs)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), fee)
}

func TestJoinAssign_Rejects(t *testing.T) {
	key := testutil.TestPrivateKey(t)
	other := testutil.OtherPrivateKey(t)
	fn, err := LookupFunction(CircuitJoin)
	require.NoError(t, err)
	a := testutil.NewTestRecord(key, 100, 1)

	cases := map[string][]types.Input{
		"self join":   {types.RecordInput(a), types.RecordInput(a)},
		"wrong owner": {types.RecordInput(a), types.RecordInput(testutil.NewTestRecord(other, 5, 2))},
		"overflow":    {types.RecordInput(testutil.NewTestRecord(key, math.MaxUint64, 1)), types.RecordInput(testutil.NewTestRecord(key, 1, 2))},
		"one input":   {types.RecordInput(a)},
		"u64 input":   {types.RecordInput(a), types.U64Input(1)},
	}
	for name, inputs := range cases {
		_, err := fn.Assign(key.SecretField(), inputs, []byte("seed"))
		assert.True(t, errors.Is(err, ErrInvalidWitness), name)
	}
}

func TestFeeAssign_Rejects(t *testing.T) {
	key := testutil.TestPrivateKey(t)
	fn, err := LookupFunction(CircuitFee)
	require.NoError(t, err)
	rec := testutil.NewTestRecord(key, 10, 3)

	_, err = fn.Assign(key.SecretField(), []types.Input{types.RecordInput(rec), types.U64Input(11)}, nil)
	assert.True(t, errors.Is(err, ErrInvalidWitness))

	_, err = fn.Assign(key.SecretField(), []types.Input{types.RecordInput(rec), types.RecordInput(rec)}, nil)
	assert.True(t, errors.Is(err, ErrInvalidWitness))

	_, err = FeeFromPublicInputs([]string{"01"})
	assert.True(t, errors.Is(err, ErrInvalidWitness))
}

func TestOutputNonce_DependsOnSeed(t *testing.T) {
	a := OutputNonce([]byte("a"), 0)
	b := OutputNonce([]byte("b"), 0)
	a1 := OutputNonce([]byte("a"), 1)
	assert.False(t, a.Equal(&b))
	assert.False(t, a.Equal(&a1))
}

func TestLookupFunction_Unknown(t *testing.T) {
	_, err := LookupFunction("transfer")
	assert.True(t, errors.Is(err, ErrCircuitNotFound))
}

func TestProve_NilKeys(t *testing.T) {
	backend := NewGroth16Backend(&testutil.MockLogger{}, proverconfig.New(nil).GetOptions())
	_, err := backend.Prove(nil, nil, &JoinCircuit{})
	assert.True(t, errors.Is(err, ErrProofGenerationFailed))

	err = backend.Verify([]byte("bad"), nil, &JoinCircuit{})
	assert.True(t, errors.Is(err, ErrInvalidProof))
}

func TestCircuitError_MatchesClassAndCause(t *testing.T) {
	cause := errors.New("boom")
	err := WrapCircuitCompilationFailedError(CircuitJoin, cause)

	assert.ErrorIs(t, err, ErrCircuitCompilationFailed)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "[join]")

	var ce *CircuitError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, CircuitJoin, ce.Kind)
}
