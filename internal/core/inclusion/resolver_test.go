package inclusion

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apihttp "github.com/weisyn/recordjoin/internal/api/http"
	"github.com/weisyn/recordjoin/internal/core/ledger"
	"github.com/weisyn/recordjoin/internal/core/process"
	"github.com/weisyn/recordjoin/internal/testutil"
	ledgeriface "github.com/weisyn/recordjoin/pkg/interfaces/ledger"
	"github.com/weisyn/recordjoin/pkg/txerrors"
	"github.com/weisyn/recordjoin/pkg/types"
	"github.com/weisyn/recordjoin/pkg/utils/field"
)

type fixture struct {
	proc     *process.Context
	node     *apihttp.Server
	srv      *httptest.Server
	resolver *Resolver
	artifact *types.ExecutionArtifact
	witness  *types.InclusionWitness
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
	r1 := testutil.NewTestRecord(key, 10, 1)
	r2 := testutil.NewTestRecord(key, 20, 2)
	_, err = state.AddRecords(r1, r2)
	require.NoError(t, err)

	proc := process.NewContext(nil, nil, logger)
	artifact := &types.ExecutionArtifact{ProcessID: proc.ID(), ProgramID: "credits", Function: "join"}
	witness := &types.InclusionWitness{}
	for _, r := range []*types.Record{r1, r2} {
		cm, err := r.Commitment()
		require.NoError(t, err)
		sn, err := r.SerialNumber(key.SecretField())
		require.NoError(t, err)
		artifact.Inputs = append(artifact.Inputs, types.ConsumedInput{SerialNumber: field.Hex(sn), Commitment: field.Hex(cm)})
		witness.Commitments = append(witness.Commitments, field.Hex(cm))
		witness.SerialNumbers = append(witness.SerialNumbers, field.Hex(sn))
	}

	return &fixture{
		proc:     proc,
		node:     node,
		srv:      srv,
		resolver: NewResolver(logger, ledger.NewClientFactory(2*time.Second, logger)),
		artifact: artifact,
		witness:  witness,
	}
}

func TestResolve_Success(t *testing.T) {
	f := newFixture(t)
	resolved, err := f.resolver.Resolve(context.Background(), f.proc, f.witness, f.artifact, f.srv.URL)
	require.NoError(t, err)
	assert.Same(t, f.artifact, resolved.Execution)
	assert.Equal(t, f.node.State().Root().StateRoot, resolved.Inclusion.StateRoot)
	assert.Len(t, resolved.Inclusion.Paths, 2)
	assert.NoError(t, VerifyProof(f.witness.Commitments, resolved.Inclusion))
}

func TestResolve_PinnedRoot(t *testing.T) {
	f := newFixture(t)
	root := f.node.State().Root().StateRoot

	_, err := f.resolver.Resolve(context.Background(), f.proc, f.witness, f.artifact, f.srv.URL, PinStateRoot(root))
	require.NoError(t, err)

	_, err = f.node.State().AddCommitments(field.Hex(field.FromUint64(77)))
	require.NoError(t, err)
	_, err = f.resolver.Resolve(context.Background(), f.proc, f.witness, f.artifact, f.srv.URL, PinStateRoot(root))
	assert.True(t, errors.Is(err, txerrors.ErrStaleState))
}

func TestResolve_SpentIsStale(t *testing.T) {
	f := newFixture(t)
	f.node.State().MarkSpent(f.witness.SerialNumbers[1])
	_, err := f.resolver.Resolve(context.Background(), f.proc, f.witness, f.artifact, f.srv.URL)
	assert.True(t, errors.Is(err, txerrors.ErrStaleState))
}

func TestResolve_NetworkErrors(t *testing.T) {
	f := newFixture(t)

	f.node.InjectFault(http.StatusBadGateway)
	_, err := f.resolver.Resolve(context.Background(), f.proc, f.witness, f.artifact, f.srv.URL)
	assert.True(t, errors.Is(err, txerrors.ErrNetwork))
	assert.False(t, errors.Is(err, txerrors.ErrStaleState))
	f.node.InjectFault(0)

	_, err = f.resolver.Resolve(context.Background(), f.proc, f.witness, f.artifact, "http://127.0.0.1:1")
	assert.True(t, errors.Is(err, txerrors.ErrNetwork))
}

func TestResolve_RejectsMismatchedProcess(t *testing.T) {
	f := newFixture(t)
	other := process.NewContext(nil, nil, &testutil.MockLogger{})
	_, err := f.resolver.Resolve(context.Background(), other, f.witness, f.artifact, f.srv.URL)
	assert.True(t, errors.Is(err, txerrors.ErrAssembly))
}

func TestResolve_Canceled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.resolver.Resolve(ctx, f.proc, f.witness, f.artifact, f.srv.URL)
	assert.True(t, errors.Is(err, context.Canceled))
}

// fakeClient 返回固定结果的账本客户端
type fakeClient struct {
	proof *types.InclusionProof
	err   error
}

func (c *fakeClient) StateRoot(context.Context) (*types.StateRootInfo, error) {
	return &types.StateRootInfo{}, c.err
}

func (c *fakeClient) Inclusion(context.Context, *types.InclusionQuery) (*types.InclusionProof, error) {
	return c.proof, c.err
}

func TestResolve_TamperedPathIsStale(t *testing.T) {
	f := newFixture(t)
	good, err := f.node.State().Inclusion(&types.InclusionQuery{Commitments: f.witness.Commitments})
	require.NoError(t, err)

	tampered := *good
	tampered.Paths = append([]types.MerklePath(nil), good.Paths...)
	tampered.Paths[0].Siblings = append([]string(nil), good.Paths[0].Siblings...)
	tampered.Paths[0].Siblings[0] = field.Hex(field.FromUint64(1))

	factory := func(string) ledgeriface.Client { return &fakeClient{proof: &tampered} }
	r := NewResolver(&testutil.MockLogger{}, factory)
	_, err = r.Resolve(context.Background(), f.proc, f.witness, f.artifact, "ignored")
	assert.True(t, errors.Is(err, txerrors.ErrStaleState))

	factory = func(string) ledgeriface.Client { return &fakeClient{err: errors.New("boom")} }
	r = NewResolver(&testutil.MockLogger{}, factory)
	_, err = r.Resolve(context.Background(), f.proc, f.witness, f.artifact, "ignored")
	assert.True(t, errors.Is(err, txerrors.ErrNetwork))
}
