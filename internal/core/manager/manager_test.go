package manager

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apihttp "github.com/weisyn/recordjoin/internal/api/http"
	eventimpl "github.com/weisyn/recordjoin/internal/core/infrastructure/event"
	"github.com/weisyn/recordjoin/internal/core/ledger"
	"github.com/weisyn/recordjoin/internal/core/process"
	txstore "github.com/weisyn/recordjoin/internal/core/tx/store"
	"github.com/weisyn/recordjoin/internal/core/zkproof"
	"github.com/weisyn/recordjoin/internal/testutil"
	"github.com/weisyn/recordjoin/pkg/txerrors"
	"github.com/weisyn/recordjoin/pkg/types"
	"github.com/weisyn/recordjoin/pkg/utils/field"
)

const credit = 1_000_000

type fixture struct {
	pm        *ProgramManager
	backend   *testutil.CountingBackend
	node      *apihttp.Server
	url       string
	key       *types.PrivateKey
	recordA   *types.Record
	recordB   *types.Record
	feeRecord *types.Record
	assembles *atomic.Int32
	store     *txstore.MemoryStore
	bus       *eventimpl.EventBus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := &testutil.MockLogger{}

	state, err := ledger.NewState(8)
	require.NoError(t, err)
	node := apihttp.NewServer(state, logger)
	srv := httptest.NewServer(node.Handler())
	t.Cleanup(srv.Close)

	key := testutil.TestPrivateKey(t)
	f := &fixture{
		backend:   testutil.NewCountingBackend(zkproof.NewGroth16Backend(logger, nil)),
		node:      node,
		url:       srv.URL,
		key:       key,
		recordA:   testutil.NewTestRecord(key, 100*credit, 1),
		recordB:   testutil.NewTestRecord(key, 50*credit, 2),
		feeRecord: testutil.NewTestRecord(key, 10*credit, 3),
		assembles: &atomic.Int32{},
		bus:       eventimpl.New(),
	}
	f.store, err = txstore.NewMemoryStore(0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.store.Close() })
	_, err = state.AddRecords(f.recordA, f.recordB, f.feeRecord)
	require.NoError(t, err)

	f.pm = NewProgramManager(f.backend, nil, ledger.NewClientFactory(5*time.Second, logger), logger,
		WithStore(f.store),
		WithEventBus(f.bus),
		WithDefaultNodeURL(srv.URL),
	)
	inner := f.pm.assemble
	f.pm.assemble = func(exec *types.ResolvedExecution, fee *types.FeeArtifact, key *types.PrivateKey) (*types.Transaction, error) {
		f.assembles.Add(1)
		return inner(exec, fee, key)
	}
	return f
}

func (f *fixture) join(t *testing.T, feeCredits float64, cache bool) (*types.Transaction, error) {
	t.Helper()
	return f.pm.Join(context.Background(), f.key, f.recordA, f.recordB, feeCredits, f.feeRecord, f.url, cache,
		types.NoKeys(), types.NoKeys())
}

func serialNumber(t *testing.T, key *types.PrivateKey, r *types.Record) string {
	t.Helper()
	sn, err := r.SerialNumber(key.SecretField())
	require.NoError(t, err)
	return field.Hex(sn)
}

func commitment(t *testing.T, r *types.Record) string {
	t.Helper()
	cm, err := r.Commitment()
	require.NoError(t, err)
	return field.Hex(cm)
}

// ==================== Join ====================

func TestJoin_EndToEnd(t *testing.T) {
	f := newFixture(t)

	tx, err := f.join(t, 1.0, true)
	require.NoError(t, err)
	require.NotNil(t, tx)

	exec := tx.Execution.Execution
	require.Len(t, exec.Inputs, 2)
	assert.Equal(t, commitment(t, f.recordA), exec.Inputs[0].Commitment)
	assert.Equal(t, commitment(t, f.recordB), exec.Inputs[1].Commitment)
	require.Len(t, exec.Outputs, 1)
	assert.Equal(t, uint64(150*credit), exec.Outputs[0].Microcredits)

	require.NotNil(t, tx.Fee)
	assert.Equal(t, uint64(credit), tx.Fee.Microcredits)
	feeExec := tx.Fee.Resolved.Execution
	require.Len(t, feeExec.Inputs, 1)
	assert.Equal(t, commitment(t, f.feeRecord), feeExec.Inputs[0].Commitment)
	require.Len(t, feeExec.Outputs, 1)
	assert.Equal(t, uint64(9*credit), feeExec.Outputs[0].Microcredits)

	assert.Equal(t, tx.Execution.Inclusion.StateRoot, tx.Fee.Resolved.Inclusion.StateRoot)
	assert.Equal(t, exec.ProcessID, feeExec.ProcessID)
	assert.Equal(t, f.key.PublicKeyHex(), tx.Signer)
	assert.Equal(t, int32(1), f.assembles.Load())

	require.NoError(t, f.pm.VerifyTransaction(tx))

	stored, err := f.store.Get(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, stored.ID)
}

func TestJoin_DefaultNodeURL(t *testing.T) {
	f := newFixture(t)
	tx, err := f.pm.Join(context.Background(), f.key, f.recordA, f.recordB, 0.5, f.feeRecord, "", true,
		types.NoKeys(), types.NoKeys())
	require.NoError(t, err)
	assert.Equal(t, uint64(500_000), tx.Fee.Microcredits)
}

func TestJoin_CacheReusesKeys(t *testing.T) {
	f := newFixture(t)

	_, err := f.join(t, 1.0, true)
	require.NoError(t, err)
	assert.Equal(t, 2, f.backend.Syntheses(), "join 与 fee 各合成一次")

	_, err = f.join(t, 1.0, true)
	require.NoError(t, err)
	assert.Equal(t, 2, f.backend.Syntheses())
	assert.Equal(t, 4, f.backend.Proves())
	assert.True(t, f.pm.KeyExists(process.CreditsProgram, process.FunctionJoin))
	assert.True(t, f.pm.KeyExists(process.CreditsProgram, process.FunctionFee))
}

func TestJoin_NoCacheSynthesizesEveryCall(t *testing.T) {
	f := newFixture(t)

	_, err := f.join(t, 1.0, false)
	require.NoError(t, err)
	_, err = f.join(t, 1.0, false)
	require.NoError(t, err)

	assert.Equal(t, 4, f.backend.Syntheses())
	assert.Equal(t, 0, f.pm.Keys().Len())
}

func TestJoin_InsufficientBalance(t *testing.T) {
	f := newFixture(t)

	tx, err := f.join(t, 20.0, true)
	require.Error(t, err)
	assert.Nil(t, tx)
	assert.True(t, errors.Is(err, txerrors.ErrInsufficientBalance))
	assert.Equal(t, txerrors.StageValidate, txerrors.StageOf(err))
	assert.Equal(t, 0, f.backend.Compiles())
	assert.Equal(t, 0, f.backend.Proves())
	assert.Equal(t, int32(0), f.assembles.Load())
}

func TestJoin_InvalidAmount(t *testing.T) {
	f := newFixture(t)

	for _, credits := range []float64{0, -1, 0.0000001} {
		_, err := f.join(t, credits, true)
		require.Error(t, err)
		assert.True(t, errors.Is(err, txerrors.ErrInvalidAmount), "credits=%v", credits)
		assert.False(t, txerrors.Retryable(err))
	}
	assert.Equal(t, 0, f.backend.Proves())
}

func TestJoin_RecordReusedAsFee(t *testing.T) {
	f := newFixture(t)

	_, err := f.pm.Join(context.Background(), f.key, f.recordA, f.recordB, 1.0, f.recordA, f.url, true,
		types.NoKeys(), types.NoKeys())
	require.Error(t, err)
	assert.True(t, errors.Is(err, txerrors.ErrExecution))
	assert.False(t, errors.Is(err, txerrors.ErrAssembly))
	assert.Equal(t, txerrors.StageValidate, txerrors.StageOf(err))

	_, err = f.pm.Join(context.Background(), f.key, f.recordB, f.recordB, 1.0, f.feeRecord, f.url, true,
		types.NoKeys(), types.NoKeys())
	require.Error(t, err)
	assert.Equal(t, txerrors.StageValidate, txerrors.StageOf(err))

	assert.Equal(t, 0, f.backend.Compiles())
	assert.Equal(t, 0, f.backend.Proves())
	assert.Equal(t, int32(0), f.assembles.Load())
}

func TestJoin_MissingRecord(t *testing.T) {
	f := newFixture(t)
	_, err := f.pm.Join(context.Background(), f.key, f.recordA, nil, 1.0, f.feeRecord, f.url, true,
		types.NoKeys(), types.NoKeys())
	require.Error(t, err)
	assert.True(t, errors.Is(err, txerrors.ErrExecution))
	assert.Equal(t, txerrors.StageValidate, txerrors.StageOf(err))
}

func TestJoin_StaleStateSkipsAssembly(t *testing.T) {
	f := newFixture(t)
	f.node.State().MarkSpent(serialNumber(t, f.key, f.recordA))

	tx, err := f.join(t, 1.0, true)
	require.Error(t, err)
	assert.Nil(t, tx)
	assert.True(t, errors.Is(err, txerrors.ErrStaleState))
	assert.True(t, txerrors.Retryable(err))
	assert.Equal(t, txerrors.ResolveStage(process.CreditsProgram, process.FunctionJoin), txerrors.StageOf(err))
	assert.Equal(t, int32(0), f.assembles.Load())

	ids, err := f.store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestJoin_FeeStaleState(t *testing.T) {
	f := newFixture(t)
	f.node.State().MarkSpent(serialNumber(t, f.key, f.feeRecord))

	_, err := f.join(t, 1.0, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, txerrors.ErrStaleState))
	assert.Equal(t, txerrors.ResolveStage(process.CreditsProgram, process.FunctionFee), txerrors.StageOf(err))
	assert.Equal(t, int32(0), f.assembles.Load())
}

func TestJoin_NetworkError(t *testing.T) {
	f := newFixture(t)
	f.node.InjectFault(http.StatusBadGateway)

	_, err := f.join(t, 1.0, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, txerrors.ErrNetwork))
	assert.Equal(t, txerrors.ResolveStage(process.CreditsProgram, process.FunctionJoin), txerrors.StageOf(err))
	assert.Equal(t, 1, f.backend.Proves(), "只有主执行完成了证明")
}

func TestJoin_ExecutionError(t *testing.T) {
	f := newFixture(t)
	f.backend.FailProving(true)

	_, err := f.join(t, 1.0, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, txerrors.ErrExecution))
	assert.Equal(t, txerrors.ExecuteStage(process.CreditsProgram, process.FunctionJoin), txerrors.StageOf(err))
}

func TestJoin_CanceledContext(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.pm.Join(ctx, f.key, f.recordA, f.recordB, 1.0, f.feeRecord, f.url, true,
		types.NoKeys(), types.NoKeys())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, f.backend.Proves())
}

func TestJoin_SuppliedKeys(t *testing.T) {
	source := newFixture(t)
	joinKeys, err := source.pm.SynthesizeKeys(process.CreditsProgram, process.FunctionJoin)
	require.NoError(t, err)

	f := newFixture(t)
	tx, err := f.pm.Join(context.Background(), f.key, f.recordA, f.recordB, 1.0, f.feeRecord, f.url, false,
		types.SuppliedKeyPair(joinKeys), types.NoKeys())
	require.NoError(t, err)
	require.NoError(t, f.pm.VerifyTransaction(tx))

	assert.Equal(t, 1, f.backend.Syntheses(), "只合成费用函数的密钥")
	assert.Equal(t, 0, f.pm.Keys().Len())
}

func TestJoin_PartialKeysIgnored(t *testing.T) {
	source := newFixture(t)
	joinKeys, err := source.pm.SynthesizeKeys(process.CreditsProgram, process.FunctionJoin)
	require.NoError(t, err)

	f := newFixture(t)
	_, err = f.pm.Join(context.Background(), f.key, f.recordA, f.recordB, 1.0, f.feeRecord, f.url, true,
		types.SuppliedKeys(joinKeys.ProvingKey, nil), types.NoKeys())
	require.NoError(t, err)
	assert.Equal(t, 2, f.backend.Syntheses())
}

func TestJoin_PublishesStageEvents(t *testing.T) {
	f := newFixture(t)
	var events []types.StageEvent
	require.NoError(t, f.bus.Subscribe(eventimpl.EventTypeJoinStage, func(ev types.StageEvent) {
		events = append(events, ev)
	}))

	_, err := f.join(t, 1.0, true)
	require.NoError(t, err)

	var completed []string
	for _, ev := range events {
		assert.NotEmpty(t, ev.CallID)
		if ev.Status == types.StageCompleted {
			completed = append(completed, ev.Stage)
		}
	}
	assert.Equal(t, []string{
		txerrors.StageValidate,
		txerrors.ExecuteStage(process.CreditsProgram, process.FunctionJoin),
		txerrors.ResolveStage(process.CreditsProgram, process.FunctionJoin),
		"fee",
		txerrors.StageAssemble,
	}, completed)
}

func TestJoin_FailedStageEvent(t *testing.T) {
	f := newFixture(t)
	f.node.State().MarkSpent(serialNumber(t, f.key, f.feeRecord))
	var failed []types.StageEvent
	require.NoError(t, f.bus.Subscribe(eventimpl.EventTypeJoinStage, func(ev types.StageEvent) {
		if ev.Status == types.StageFailed {
			failed = append(failed, ev)
		}
	}))

	_, err := f.join(t, 1.0, true)
	require.Error(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, txerrors.ResolveStage(process.CreditsProgram, process.FunctionFee), failed[0].Stage)
	assert.ErrorIs(t, failed[0].Err, txerrors.ErrStaleState)
}

// ==================== 校验 ====================

func TestVerifyTransaction_RejectsTampering(t *testing.T) {
	f := newFixture(t)
	tx, err := f.join(t, 1.0, true)
	require.NoError(t, err)

	data, err := types.MarshalTransaction(tx)
	require.NoError(t, err)

	t.Run("fee amount", func(t *testing.T) {
		cp, err := types.UnmarshalTransaction(data)
		require.NoError(t, err)
		cp.Fee.Microcredits = 1
		assert.ErrorIs(t, f.pm.VerifyTransaction(cp), txerrors.ErrAssembly)
	})

	t.Run("signature", func(t *testing.T) {
		cp, err := types.UnmarshalTransaction(data)
		require.NoError(t, err)
		cp.Signer = testutil.OtherPrivateKey(t).PublicKeyHex()
		assert.ErrorIs(t, f.pm.VerifyTransaction(cp), txerrors.ErrAssembly)
	})

	t.Run("round trip", func(t *testing.T) {
		cp, err := types.UnmarshalTransaction(data)
		require.NoError(t, err)
		assert.NoError(t, f.pm.VerifyTransaction(cp))
	})

	t.Run("untrusted verifying key", func(t *testing.T) {
		other := newFixture(t)
		foreign, err := other.pm.SynthesizeKeys(process.CreditsProgram, process.FunctionJoin)
		require.NoError(t, err)
		require.NoError(t, f.pm.CacheKeypair(process.CreditsProgram, process.FunctionJoin, foreign.ProvingKey, foreign.VerifyingKey))

		err = f.pm.VerifyTransaction(tx)
		assert.ErrorIs(t, err, txerrors.ErrExecution)
		assert.Contains(t, err.Error(), "not the cached key")
	})

	assert.Error(t, f.pm.VerifyTransaction(nil))
}

// ==================== 密钥管理 ====================

func TestKeyManagement(t *testing.T) {
	f := newFixture(t)

	assert.False(t, f.pm.KeyExists(process.CreditsProgram, process.FunctionFee))
	kp, err := f.pm.SynthesizeKeys(process.CreditsProgram, process.FunctionFee)
	require.NoError(t, err)
	assert.True(t, f.pm.KeyExists(process.CreditsProgram, process.FunctionFee))

	f.pm.ClearKeyCache()
	assert.False(t, f.pm.KeyExists(process.CreditsProgram, process.FunctionFee))

	require.NoError(t, f.pm.CacheKeypair(process.CreditsProgram, process.FunctionFee, kp.ProvingKey, kp.VerifyingKey))
	assert.True(t, f.pm.KeyExists(process.CreditsProgram, process.FunctionFee))
	assert.ErrorIs(t, f.pm.CacheKeypair(process.CreditsProgram, process.FunctionJoin, kp.ProvingKey, nil), txerrors.ErrExecution)

	_, err = f.pm.SynthesizeKeys("unknown", "fn")
	assert.ErrorIs(t, err, txerrors.ErrExecution)
	assert.Equal(t, 1, f.backend.Syntheses())
}

func TestFetchFunctionKeys(t *testing.T) {
	kp := testutil.NewTestKeyPair(t)
	pk, vk, err := types.MarshalKeyPair(kp)
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/pk", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write(pk) })
	mux.HandleFunc("/vk", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write(vk) })
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := newFixture(t)
	got, err := f.pm.FetchFunctionKeys(context.Background(), srv.URL+"/pk", srv.URL+"/vk")
	require.NoError(t, err)
	wantHash, err := kp.VerifyingKeyHash()
	require.NoError(t, err)
	gotHash, err := got.VerifyingKeyHash()
	require.NoError(t, err)
	assert.Equal(t, wantHash, gotHash)

	_, err = f.pm.FetchFunctionKeys(context.Background(), srv.URL+"/missing", srv.URL+"/vk")
	assert.ErrorIs(t, err, txerrors.ErrNetwork)
}
