package httphandlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ciricc/bridgetx-store/internal/pkg/bridgetx/accountindex"
	"github.com/ciricc/bridgetx-store/internal/pkg/bridgetx/guard"
	"github.com/ciricc/bridgetx-store/internal/pkg/bridgetx/record"
	"github.com/ciricc/bridgetx-store/internal/pkg/bridgetx/txstore"
	"github.com/ciricc/bridgetx-store/internal/pkg/keyvalueabstraction/providers/inmemorykvstore"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, options *HandlersOptions) http.Handler {
	t.Helper()

	kv, err := inmemorykvstore.New()
	require.NoError(t, err)

	store, err := txstore.New(kv, lo.Must(guard.New(guard.DefaultPolicy())), &txstore.StoreOptions{Atomic: true})
	require.NoError(t, err)

	return NewHandlers(store, accountindex.New(store, nil), options).Handler()
}

func serve(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func TestHandlers_SetValue(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		existing   string
		body       string
		wantStatus int
		wantOK     bool
	}{
		"new record": {
			body:       `{"from":"0x1","status":"initiated","amount":"1"}`,
			wantStatus: http.StatusOK,
			wantOK:     true,
		},
		"duplicate status": {
			existing:   `{"from":"0x1","status":"initiated"}`,
			body:       `{"from":"0x1","status":"initiated"}`,
			wantStatus: http.StatusConflict,
		},
		"finalized rewind": {
			existing:   `{"from":"0x1","status":"finalized"}`,
			body:       `{"from":"0x1","status":"initiated"}`,
			wantStatus: http.StatusConflict,
		},
		"unknown status": {
			body:       `{"from":"0x1","status":"settled"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			h := newTestHandler(t, nil)

			if tt.existing != "" {
				require.Equal(t, http.StatusOK, serve(t, h, http.MethodPut, "/v1/txs/K1", tt.existing).Code)
			}

			res := serve(t, h, http.MethodPut, "/v1/txs/K1", tt.body)
			assert.Equal(t, tt.wantStatus, res.Code)

			var body okResponse
			require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
			assert.Equal(t, tt.wantOK, body.OK)
		})
	}
}

func TestHandlers_SetValueBadBody(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, nil)

	assert.Equal(t, http.StatusBadRequest, serve(t, h, http.MethodPut, "/v1/txs/K1", `{"status":`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(t, h, http.MethodPut, "/v1/txs/K1", `{"status":"initiated","fee":"1"}`).Code)
}

func TestHandlers_GetAndDelete(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, nil)

	assert.Equal(t, http.StatusNotFound, serve(t, h, http.MethodGet, "/v1/txs/K1", "").Code)

	require.Equal(t, http.StatusOK, serve(t, h, http.MethodPut, "/v1/txs/K1", `{"from":"0x1","tx":"0xabc","status":"initiated"}`).Code)

	res := serve(t, h, http.MethodGet, "/v1/txs/K1", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "application/json", res.Header().Get("Content-Type"))

	var got record.Record
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &got))
	assert.Equal(t, "0xabc", got.Tx)
	assert.Equal(t, record.StatusInitiated, got.Status)

	res = serve(t, h, http.MethodDelete, "/v1/txs/K1", "")
	require.Equal(t, http.StatusOK, res.Code)
	assert.JSONEq(t, `{"ok":true}`, res.Body.String())

	assert.Equal(t, http.StatusNotFound, serve(t, h, http.MethodGet, "/v1/txs/K1", "").Code)
}

func TestHandlers_KeysWithSlashes(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, nil)

	require.Equal(t, http.StatusOK, serve(t, h, http.MethodPut, "/v1/txs/bridge/ethereum/K1", `{"from":"0x1","tx":"0xabc","status":"initiated"}`).Code)

	res := serve(t, h, http.MethodGet, "/v1/keys", "")
	require.Equal(t, http.StatusOK, res.Code)

	var keys record.KeyList
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &keys))
	assert.Equal(t, []string{"bridge/ethereum/K1"}, keys.ID)

	res = serve(t, h, http.MethodGet, "/v1/txs/bridge/ethereum/K1", "")
	require.Equal(t, http.StatusOK, res.Code)

	var got record.Record
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &got))
	assert.Equal(t, "0xabc", got.Tx)

	assert.Equal(t, http.StatusNotFound, serve(t, h, http.MethodGet, "/v1/txs/bridge", "").Code)

	require.Equal(t, http.StatusOK, serve(t, h, http.MethodDelete, "/v1/txs/bridge/ethereum/K1", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(t, h, http.MethodGet, "/v1/txs/bridge/ethereum/K1", "").Code)
}

func TestHandlers_Scans(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, nil)

	for key, from := range map[string]string{"K1": "0x1", "K2": "0x2", "K3": "0x1"} {
		require.Equal(t, http.StatusOK, serve(t, h, http.MethodPut, "/v1/txs/"+key, `{"from":"`+from+`","status":"initiated","amount":"2"}`).Code)
	}

	res := serve(t, h, http.MethodGet, "/v1/keys", "")
	require.Equal(t, http.StatusOK, res.Code)

	var keys record.KeyList
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &keys))
	assert.ElementsMatch(t, []string{"K1", "K2", "K3"}, keys.ID)

	res = serve(t, h, http.MethodGet, "/v1/accounts/0x1/keys", "")
	require.Equal(t, http.StatusOK, res.Code)
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &keys))
	assert.ElementsMatch(t, []string{"K1", "K3"}, keys.ID)

	res = serve(t, h, http.MethodGet, "/v1/accounts/0x1/txs", "")
	require.Equal(t, http.StatusOK, res.Code)

	var txs record.TxList
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &txs))
	require.Len(t, txs.Txs, 2)

	for _, tx := range txs.Txs {
		assert.Equal(t, "0x1", tx.From)
	}

	res = serve(t, h, http.MethodGet, "/v1/accounts/0x1/summary", "")
	require.Equal(t, http.StatusOK, res.Code)

	var summary struct {
		Count    int `json:"count"`
		ByStatus map[string]struct {
			Count  int    `json:"count"`
			Amount string `json:"amount"`
		} `json:"byStatus"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.Count)
	assert.Equal(t, "4", summary.ByStatus["initiated"].Amount)
}

func TestHandlers_ScanRateLimit(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, &HandlersOptions{ScanRateLimit: 0.001, ScanBurst: 1})

	assert.Equal(t, http.StatusOK, serve(t, h, http.MethodGet, "/v1/keys", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(t, h, http.MethodGet, "/v1/accounts/0x1/txs", "").Code)

	// point operations are not throttled
	assert.Equal(t, http.StatusNotFound, serve(t, h, http.MethodGet, "/v1/txs/K1", "").Code)
}

var errConnection = errors.New("connection refused")

type brokenStore struct{}

func (brokenStore) GetAllKeys(context.Context) (*record.KeyList, error) {
	return nil, errConnection
}

func (brokenStore) GetRecord(context.Context, string) (*record.Record, error) {
	return nil, errConnection
}

func (brokenStore) SetRecord(context.Context, string, *record.Record) error {
	return errConnection
}

func (brokenStore) DeleteRecord(context.Context, string) error {
	return errConnection
}

func TestHandlers_StoreFaults(t *testing.T) {
	t.Parallel()

	h := NewHandlers(brokenStore{}, nil, nil).Handler()

	assert.Equal(t, http.StatusInternalServerError, serve(t, h, http.MethodGet, "/v1/keys", "").Code)
	assert.Equal(t, http.StatusInternalServerError, serve(t, h, http.MethodGet, "/v1/txs/K1", "").Code)
	assert.Equal(t, http.StatusInternalServerError, serve(t, h, http.MethodPut, "/v1/txs/K1", `{"status":"initiated"}`).Code)

	res := serve(t, h, http.MethodDelete, "/v1/txs/K1", "")
	assert.Equal(t, http.StatusInternalServerError, res.Code)
	assert.JSONEq(t, `{"ok":false}`, res.Body.String())
}
