package httpimpl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bsv-blockchain/utxochain/errors"
	"github.com/bsv-blockchain/utxochain/model"
	"github.com/bsv-blockchain/utxochain/services/ledger"
	"github.com/bsv-blockchain/utxochain/settings"
	"github.com/bsv-blockchain/utxochain/stores/blob/memory"
	"github.com/bsv-blockchain/utxochain/ulogger"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T, create bool) *ledger.Ledger {
	t.Helper()

	tSettings := &settings.Settings{
		Ledger: settings.LedgerSettings{TargetBits: 4},
	}

	l := ledger.New(ulogger.TestLogger{}, tSettings, memory.New())

	if create {
		ctx := context.Background()

		_, err := l.Create(ctx, "alice")
		require.NoError(t, err)

		_, err = l.Send(ctx, "alice", "bob", 40)
		require.NoError(t, err)
	}

	return l
}

func get(t *testing.T, h *HTTP, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	require.NoError(t, jsoniter.Unmarshal(rec.Body.Bytes(), v))
}

func TestGetTip(t *testing.T) {
	h := New(ulogger.TestLogger{}, newTestLedger(t, true))

	rec := get(t, h, "/api/v1/tip")
	require.Equal(t, http.StatusOK, rec.Code)

	var tip ledger.TipInfo

	decode(t, rec, &tip)
	assert.Equal(t, uint64(2), tip.Height)
	assert.Len(t, tip.Hash, 64)
}

func TestGetBlocks(t *testing.T) {
	h := New(ulogger.TestLogger{}, newTestLedger(t, true))

	t.Run("default", func(t *testing.T) {
		rec := get(t, h, "/api/v1/blocks")
		require.Equal(t, http.StatusOK, rec.Code)

		var blocks []*model.Block

		decode(t, rec, &blocks)
		require.Len(t, blocks, 2)
		assert.True(t, blocks[1].IsGenesis())
		assert.Equal(t, blocks[1].Hash, blocks[0].PrevBlockHash)
	})

	t.Run("limited", func(t *testing.T) {
		rec := get(t, h, "/api/v1/blocks?n=1")
		require.Equal(t, http.StatusOK, rec.Code)

		var blocks []*model.Block

		decode(t, rec, &blocks)
		assert.Len(t, blocks, 1)
	})

	t.Run("invalid n", func(t *testing.T) {
		for _, n := range []string{"0", "-1", "abc"} {
			rec := get(t, h, "/api/v1/blocks?n="+n)
			assert.Equal(t, http.StatusBadRequest, rec.Code, n)
		}
	})
}

func TestGetBlock(t *testing.T) {
	l := newTestLedger(t, true)
	h := New(ulogger.TestLogger{}, l)

	tip, err := l.Tip(context.Background())
	require.NoError(t, err)

	t.Run("found", func(t *testing.T) {
		rec := get(t, h, "/api/v1/block/"+tip.Hash)
		require.Equal(t, http.StatusOK, rec.Code)

		var block model.Block

		decode(t, rec, &block)
		assert.Equal(t, tip.Hash, block.Hash)

		ok, err := block.VerifyProofOfWork()
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("not found", func(t *testing.T) {
		rec := get(t, h, "/api/v1/block/"+strings.Repeat("00", 32))
		require.Equal(t, http.StatusNotFound, rec.Code)

		var resp errorResponse

		decode(t, rec, &resp)
		assert.Equal(t, int32(http.StatusNotFound), resp.Status)
		assert.Equal(t, int32(errors.ERR_BLOCK_NOT_FOUND), resp.Code)
	})

	t.Run("invalid hash", func(t *testing.T) {
		rec := get(t, h, "/api/v1/block/xyz")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetBalance(t *testing.T) {
	h := New(ulogger.TestLogger{}, newTestLedger(t, true))

	tests := []struct {
		address  string
		expected int64
	}{
		{address: "alice", expected: 60},
		{address: "bob", expected: 40},
		{address: "carol", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			rec := get(t, h, "/api/v1/balance/"+tt.address)
			require.Equal(t, http.StatusOK, rec.Code)

			var resp balanceResponse

			decode(t, rec, &resp)
			assert.Equal(t, tt.address, resp.Address)
			assert.Equal(t, tt.expected, resp.Balance)
		})
	}
}

func TestGetBalances(t *testing.T) {
	h := New(ulogger.TestLogger{}, newTestLedger(t, true))

	rec := get(t, h, "/api/v1/balances")
	require.Equal(t, http.StatusOK, rec.Code)

	var balances map[string]int64

	decode(t, rec, &balances)
	assert.Equal(t, map[string]int64{"alice": 60, "bob": 40}, balances)
}

func TestWithoutChain(t *testing.T) {
	h := New(ulogger.TestLogger{}, newTestLedger(t, false))

	rec := get(t, h, "/api/v1/tip")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp errorResponse

	decode(t, rec, &resp)
	assert.Equal(t, int32(errors.ERR_CHAIN_NOT_FOUND), resp.Code)

	rec = get(t, h, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	h := New(ulogger.TestLogger{}, newTestLedger(t, true))

	rec := get(t, h, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "BlobStore")

	rec = get(t, h, "/alive")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "utxochain_miner_block_mined_seconds")
}
