package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/recordjoin/internal/api/http/handlers"
	"github.com/weisyn/recordjoin/internal/core/ledger"
	"github.com/weisyn/recordjoin/internal/testutil"
	"github.com/weisyn/recordjoin/pkg/types"
	"github.com/weisyn/recordjoin/pkg/utils/field"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	state, err := ledger.NewState(8)
	require.NoError(t, err)
	return NewServer(state, &testutil.MockLogger{})
}

func doJSON(t *testing.T, s *Server, method, path string, body interface{}) (*httptest.ResponseRecorder, handlers.StandardAPIResponse) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var resp handlers.StandardAPIResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestServer_LedgerEndpoints(t *testing.T) {
	s := newTestServer(t)
	key := testutil.TestPrivateKey(t)
	rec := testutil.NewTestRecord(key, 42, 1)
	cm, err := rec.Commitment()
	require.NoError(t, err)
	sn, err := rec.SerialNumber(key.SecretField())
	require.NoError(t, err)

	w, _ := doJSON(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w, resp := doJSON(t, s, http.MethodPost, "/api/v1/commitments", map[string]interface{}{"commitments": []string{field.Hex(cm)}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, uint64(1), s.State().Root().Height)

	w, resp = doJSON(t, s, http.MethodPost, "/api/v1/inclusion", types.InclusionQuery{Commitments: []string{field.Hex(cm)}})
	require.Equal(t, http.StatusOK, w.Code)
	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var proof types.InclusionProof
	require.NoError(t, json.Unmarshal(data, &proof))
	require.Len(t, proof.Paths, 1)
	assert.Equal(t, s.State().Root().StateRoot, proof.StateRoot)
	assert.Len(t, proof.Paths[0].Siblings, 8)

	w, resp = doJSON(t, s, http.MethodPost, "/api/v1/inclusion", types.InclusionQuery{Commitments: []string{field.Hex(cm)}, StateRoot: "stale"})
	assert.Equal(t, http.StatusConflict, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, handlers.ErrorCodeStaleStateRoot, resp.Error.Code)

	unknown := field.Hex(field.FromUint64(424242))
	w, resp = doJSON(t, s, http.MethodPost, "/api/v1/inclusion", types.InclusionQuery{Commitments: []string{unknown}})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, handlers.ErrorCodeUnknownCommitment, resp.Error.Code)

	w, _ = doJSON(t, s, http.MethodPost, "/api/v1/spent", map[string]interface{}{"serial_numbers": []string{field.Hex(sn)}})
	require.Equal(t, http.StatusOK, w.Code)
	w, resp = doJSON(t, s, http.MethodPost, "/api/v1/inclusion", types.InclusionQuery{
		Commitments:   []string{field.Hex(cm)},
		SerialNumbers: []string{field.Hex(sn)},
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, handlers.ErrorCodeAlreadySpent, resp.Error.Code)

	w, resp = doJSON(t, s, http.MethodPost, "/api/v1/commitments", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, handlers.ErrorCodeInvalidRequest, resp.Error.Code)
}

func TestServer_InjectFault(t *testing.T) {
	s := newTestServer(t)

	s.InjectFault(http.StatusBadGateway)
	w, resp := doJSON(t, s, http.MethodGet, "/api/v1/state/root", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, handlers.ErrorCodeServiceFault, resp.Error.Code)

	// 健康检查不受故障注入影响
	w, _ = doJSON(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	s.InjectFault(0)
	w, resp = doJSON(t, s, http.MethodGet, "/api/v1/state/root", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
}

func TestServer_Metrics(t *testing.T) {
	s := newTestServer(t)
	doJSON(t, s, http.MethodGet, "/api/v1/state/root", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "recordjoin_")
}

func TestServer_LedgerStream(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/ledger"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() *types.LedgerUpdate {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var update types.LedgerUpdate
		require.NoError(t, conn.ReadJSON(&update))
		return &update
	}

	snapshot := read()
	assert.Equal(t, types.LedgerUpdateSnapshot, snapshot.Kind)
	assert.Equal(t, uint64(0), snapshot.Height)

	key := testutil.TestPrivateKey(t)
	info, err := s.State().AddRecords(testutil.NewTestRecord(key, 1, 1))
	require.NoError(t, err)

	update := read()
	assert.Equal(t, types.LedgerUpdateCommitments, update.Kind)
	assert.Equal(t, info.StateRoot, update.StateRoot)
	assert.Equal(t, uint64(1), update.Height)
	assert.Len(t, update.Items, 1)

	s.State().MarkSpent("sn-1", "sn-2")
	update = read()
	assert.Equal(t, types.LedgerUpdateSpent, update.Kind)
	assert.Equal(t, []string{"sn-1", "sn-2"}, update.Items)
}

func TestServer_StartStop(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.Start("127.0.0.1:0"))
	addr := s.Addr()
	require.NotEmpty(t, addr)

	resp, err := http.Get("http://" + addr + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}
