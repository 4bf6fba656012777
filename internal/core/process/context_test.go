package process

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/recordjoin/internal/core/zkproof"
	"github.com/weisyn/recordjoin/internal/testutil"
	"github.com/weisyn/recordjoin/pkg/types"
)

func TestParseProgram_Credits(t *testing.T) {
	m, err := ParseProgram(CreditsSource)
	require.NoError(t, err)
	assert.Equal(t, CreditsProgram, m.Program)
	assert.Equal(t, uint32(1), m.Version)

	join, ok := m.Function(FunctionJoin)
	require.True(t, ok)
	assert.Equal(t, zkproof.CircuitJoin, join.Circuit)
	fee, ok := m.Function(FunctionFee)
	require.True(t, ok)
	assert.Equal(t, []string{types.InputTypeRecord, types.InputTypeU64}, fee.Inputs)
}

func TestParseProgram_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"malformed yaml", "program: [oops"},
		{"missing name", "functions:\n  - name: join\n    circuit: join\n    inputs: [record, record]\n"},
		{"no functions", "program: empty\n"},
		{"unknown circuit", "program: p\nfunctions:\n  - name: f\n    circuit: mint\n    inputs: [u64]\n"},
		{"input mismatch", "program: p\nfunctions:\n  - name: f\n    circuit: join\n    inputs: [record]\n"},
		{"duplicate", "program: p\nfunctions:\n  - name: f\n    circuit: join\n    inputs: [record, record]\n  - name: f\n    circuit: join\n    inputs: [record, record]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProgram(tt.source)
			assert.Error(t, err)
		})
	}
}

func TestCheckInputs(t *testing.T) {
	key := testutil.TestPrivateKey(t)
	rec := testutil.NewTestRecord(key, 10, 1)
	spec := &types.FunctionSpec{Name: "fee", Circuit: "fee", Inputs: []string{types.InputTypeRecord, types.InputTypeU64}}

	assert.NoError(t, CheckInputs(spec, []types.Input{types.RecordInput(rec), types.U64Input(5)}))
	assert.Error(t, CheckInputs(spec, []types.Input{types.RecordInput(rec)}))
	assert.Error(t, CheckInputs(spec, []types.Input{types.U64Input(5), types.U64Input(5)}))
	assert.Error(t, CheckInputs(spec, []types.Input{types.RecordInput(rec), types.RecordInput(rec)}))
}

func TestContext_LoadAndCompileOnce(t *testing.T) {
	backend := testutil.NewCountingBackend(zkproof.NewGroth16Backend(&testutil.MockLogger{}, nil))
	proc := NewContext(backend, nil, &testutil.MockLogger{})
	require.NotEmpty(t, proc.ID())
	assert.False(t, proc.Contains(CreditsProgram))

	_, err := proc.Function(CreditsProgram, FunctionFee)
	assert.Error(t, err, "program not loaded yet")

	_, err = proc.Load(CreditsSource)
	require.NoError(t, err)
	_, err = proc.Load(CreditsSource)
	require.NoError(t, err)
	assert.True(t, proc.Contains(CreditsProgram))

	fn, err := proc.Function(CreditsProgram, FunctionFee)
	require.NoError(t, err)
	assert.Greater(t, fn.CCS.GetNbConstraints(), 0)
	again, err := proc.Function(CreditsProgram, FunctionFee)
	require.NoError(t, err)
	assert.Same(t, fn, again)
	assert.Equal(t, 1, backend.Compiles())

	_, err = proc.Function(CreditsProgram, "mint")
	assert.Error(t, err)
}

func TestContext_DistinctIDs(t *testing.T) {
	backend := zkproof.NewGroth16Backend(&testutil.MockLogger{}, nil)
	a := NewContext(backend, nil, &testutil.MockLogger{})
	b := NewContext(backend, nil, &testutil.MockLogger{})
	assert.NotEqual(t, a.ID(), b.ID())
	assert.NotNil(t, a.Keys())
	assert.NotSame(t, a.Keys(), b.Keys())
}
