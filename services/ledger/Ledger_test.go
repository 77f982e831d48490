package ledger_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/bsv-blockchain/utxochain/errors"
	"github.com/bsv-blockchain/utxochain/model"
	"github.com/bsv-blockchain/utxochain/services/ledger"
	"github.com/bsv-blockchain/utxochain/services/miner/cpuminer"
	"github.com/bsv-blockchain/utxochain/settings"
	"github.com/bsv-blockchain/utxochain/stores/blob/memory"
	"github.com/bsv-blockchain/utxochain/stores/blockchain"
	"github.com/bsv-blockchain/utxochain/ulogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

const testBits = 4

func testSettings() *settings.Settings {
	return &settings.Settings{
		Ledger: settings.LedgerSettings{
			TargetBits: testBits,
		},
	}
}

func newLedger(t *testing.T, tSettings *settings.Settings) (*ledger.Ledger, *memory.Memory) {
	t.Helper()

	store := memory.New()
	l := ledger.New(ulogger.TestLogger{}, tSettings, store)

	t.Cleanup(func() {
		_ = l.Close(context.Background())
	})

	return l, store
}

func createdLedger(t *testing.T, tSettings *settings.Settings, address string) (*ledger.Ledger, *memory.Memory) {
	t.Helper()

	l, store := newLedger(t, tSettings)

	_, err := l.Create(context.Background(), address)
	require.NoError(t, err)

	return l, store
}

func balanceOf(t *testing.T, l *ledger.Ledger, address string) int64 {
	t.Helper()

	b, err := l.GetBalance(context.Background(), address)
	require.NoError(t, err)

	return b
}

func TestCreate(t *testing.T) {
	l, store := newLedger(t, testSettings())
	ctx := context.Background()

	genesis, err := l.Create(ctx, "alice")
	require.NoError(t, err)

	assert.True(t, genesis.IsGenesis())
	require.Len(t, genesis.Transactions, 1)
	assert.True(t, genesis.Transactions[0].IsCoinbase())

	tip, err := store.Get(ctx, []byte(blockchain.LastKey))
	require.NoError(t, err)
	assert.Equal(t, genesis.Hash, string(tip))

	assert.Equal(t, model.CoinbaseReward, balanceOf(t, l, "alice"))

	t.Run("twice", func(t *testing.T) {
		_, err := l.Create(ctx, "bob")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrBlockExists))
	})

	t.Run("twice from another process", func(t *testing.T) {
		other := ledger.New(ulogger.TestLogger{}, testSettings(), store)

		_, err := other.Create(ctx, "bob")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrBlockExists))
	})
}

func TestCreateInvalid(t *testing.T) {
	t.Run("no address", func(t *testing.T) {
		l, _ := newLedger(t, testSettings())

		_, err := l.Create(context.Background(), "")
		assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
	})

	t.Run("bad target bits", func(t *testing.T) {
		tSettings := testSettings()
		tSettings.Ledger.TargetBits = 0

		l, store := newLedger(t, tSettings)

		_, err := l.Create(context.Background(), "alice")
		assert.True(t, errors.Is(err, errors.ErrInvalidArgument))

		exists, err := store.Exists(context.Background(), []byte(blockchain.LastKey))
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestWithoutChain(t *testing.T) {
	l, _ := newLedger(t, testSettings())
	ctx := context.Background()

	_, err := l.GetBalance(ctx, "alice")
	assert.True(t, errors.Is(err, errors.ErrChainNotFound))

	_, err = l.Send(ctx, "alice", "bob", 1)
	assert.True(t, errors.Is(err, errors.ErrChainNotFound))

	_, err = l.Blocks(ctx)
	assert.True(t, errors.Is(err, errors.ErrChainNotFound))

	_, err = l.VerifyChain(ctx)
	assert.True(t, errors.Is(err, errors.ErrChainNotFound))

	status, _, err := l.Health(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, status)

	status, _, err = l.Health(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
}

func TestSend(t *testing.T) {
	l, _ := createdLedger(t, testSettings(), "alice")
	ctx := context.Background()

	block, err := l.Send(ctx, "alice", "bob", 40)
	require.NoError(t, err)
	require.Len(t, block.Transactions, 1)
	assert.False(t, block.Transactions[0].IsCoinbase())

	assert.Equal(t, int64(60), balanceOf(t, l, "alice"))
	assert.Equal(t, int64(40), balanceOf(t, l, "bob"))

	blocks, err := l.Blocks(ctx)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, block.Hash, blocks[0].Hash)
	assert.Equal(t, blocks[1].Hash, blocks[0].PrevBlockHash)

	balances, err := l.Balances(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"alice": 60, "bob": 40}, balances)
}

func TestSendInsufficientBalance(t *testing.T) {
	l, _ := createdLedger(t, testSettings(), "alice")
	ctx := context.Background()

	_, err := l.Send(ctx, "alice", "bob", 40)
	require.NoError(t, err)

	before, err := l.Tip(ctx)
	require.NoError(t, err)

	_, err = l.Send(ctx, "alice", "bob", 1000)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInsufficientBalance))

	after, err := l.Tip(ctx)
	require.NoError(t, err)

	assert.Equal(t, before.Hash, after.Hash)
	assert.Equal(t, uint64(2), after.Height)
	assert.Equal(t, int64(60), balanceOf(t, l, "alice"))
}

func TestSendInvalidArguments(t *testing.T) {
	l, _ := createdLedger(t, testSettings(), "alice")
	ctx := context.Background()

	tests := []struct {
		name   string
		from   string
		to     string
		amount int64
	}{
		{name: "zero amount", from: "alice", to: "bob", amount: 0},
		{name: "negative amount", from: "alice", to: "bob", amount: -5},
		{name: "no sender", from: "", to: "bob", amount: 5},
		{name: "no receiver", from: "alice", to: "", amount: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Send(ctx, tt.from, tt.to, tt.amount)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
		})
	}
}

func TestSendWithMineReward(t *testing.T) {
	tSettings := testSettings()
	tSettings.Ledger.MineReward = true

	l, _ := createdLedger(t, tSettings, "alice")
	ctx := context.Background()

	first, err := l.Send(ctx, "alice", "bob", 40)
	require.NoError(t, err)
	require.Len(t, first.Transactions, 2)
	assert.True(t, first.Transactions[0].IsCoinbase())

	second, err := l.Send(ctx, "alice", "bob", 10)
	require.NoError(t, err)

	// rewards carry a unique memo, so their ids differ
	assert.NotEqual(t, first.Transactions[0].ID, second.Transactions[0].ID)

	assert.Equal(t, int64(100+100+100-40-10), balanceOf(t, l, "alice"))
	assert.Equal(t, int64(50), balanceOf(t, l, "bob"))
}

func TestReopen(t *testing.T) {
	l, store := createdLedger(t, testSettings(), "alice")
	ctx := context.Background()

	_, err := l.Send(ctx, "alice", "bob", 25)
	require.NoError(t, err)

	reopened := ledger.New(ulogger.TestLogger{}, testSettings(), store)

	assert.Equal(t, int64(75), balanceOf(t, reopened, "alice"))
	assert.Equal(t, int64(25), balanceOf(t, reopened, "bob"))
}

func TestLastBlocks(t *testing.T) {
	l, _ := createdLedger(t, testSettings(), "alice")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := l.Send(ctx, "alice", "bob", 1)
		require.NoError(t, err)
	}

	blocks, err := l.LastBlocks(ctx, 2)
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	tip, err := l.Tip(ctx)
	require.NoError(t, err)
	assert.Equal(t, tip.Hash, blocks[0].Hash)

	blocks, err = l.LastBlocks(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, blocks, 4)

	_, err = l.LastBlocks(ctx, 0)
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
}

func TestGetBlock(t *testing.T) {
	l, _ := createdLedger(t, testSettings(), "alice")
	ctx := context.Background()

	sent, err := l.Send(ctx, "alice", "bob", 1)
	require.NoError(t, err)

	block, err := l.GetBlock(ctx, sent.Hash)
	require.NoError(t, err)
	assert.Equal(t, sent.Hash, block.Hash)
	assert.Equal(t, sent.Transactions[0].ID, block.Transactions[0].ID)

	_, err = l.GetBlock(ctx, strings.Repeat("00", 32))
	assert.True(t, errors.Is(err, errors.ErrBlockNotFound))
}

func TestTip(t *testing.T) {
	l, _ := createdLedger(t, testSettings(), "alice")
	ctx := context.Background()

	_, err := l.Send(ctx, "alice", "bob", 1)
	require.NoError(t, err)

	tip, err := l.Tip(ctx)
	require.NoError(t, err)

	assert.Equal(t, uint64(2), tip.Height)
	assert.Equal(t, uint32(testBits), tip.Bits)
	// 2^4 expected hashes per block
	assert.Equal(t, "20", tip.ChainWork)
}

func TestVerifyChain(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		l, _ := createdLedger(t, testSettings(), "alice")

		for i := 0; i < 3; i++ {
			_, err := l.Send(ctx, "alice", "bob", 5)
			require.NoError(t, err)
		}

		count, err := l.VerifyChain(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, count)
	})

	t.Run("tampered block", func(t *testing.T) {
		l, store := createdLedger(t, testSettings(), "alice")

		block, err := l.Send(ctx, "alice", "bob", 5)
		require.NoError(t, err)

		block.Transactions[0].Vout[0].Value = 95

		b, err := block.Bytes()
		require.NoError(t, err)
		require.NoError(t, store.Set(ctx, []byte(block.Hash), b))

		_, err = l.VerifyChain(ctx)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrBlockInvalid))
	})

	t.Run("cycle", func(t *testing.T) {
		l, store := createdLedger(t, testSettings(), "alice")

		top, err := l.Send(ctx, "alice", "bob", 5)
		require.NoError(t, err)

		genesis, err := l.GetBlock(ctx, top.PrevBlockHash)
		require.NoError(t, err)

		genesis.PrevBlockHash = top.Hash

		b, err := genesis.Bytes()
		require.NoError(t, err)
		require.NoError(t, store.Set(ctx, []byte(genesis.Hash), b))

		done := make(chan error, 1)

		go func() {
			_, err := l.VerifyChain(ctx)
			done <- err
		}()

		select {
		case err := <-done:
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrBlockInvalid))
		case <-time.After(5 * time.Second):
			t.Fatal("VerifyChain did not return on a chain that loops back to its tip")
		}

		_, err = l.Tip(ctx)
		assert.True(t, errors.Is(err, errors.ErrBlockInvalid))
	})

	t.Run("missing ancestor", func(t *testing.T) {
		store := memory.New()

		coinbase, err := model.NewCoinbaseTransaction("alice", "")
		require.NoError(t, err)

		orphan, err := cpuminer.Mine(ctx, []*model.Transaction{coinbase}, strings.Repeat("ab", 32), testBits)
		require.NoError(t, err)

		b, err := orphan.Bytes()
		require.NoError(t, err)
		require.NoError(t, store.Set(ctx, []byte(orphan.Hash), b))
		require.NoError(t, store.Set(ctx, []byte(blockchain.LastKey), []byte(orphan.Hash)))

		l := ledger.New(ulogger.TestLogger{}, testSettings(), store)

		count, err := l.VerifyChain(ctx)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrBlockInvalid))
		assert.Equal(t, 1, count)
	})
}

func TestHealth(t *testing.T) {
	l, _ := createdLedger(t, testSettings(), "alice")

	status, body, err := l.Health(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"resource":"BlobStore"`)
	assert.Contains(t, body, `"resource":"Chain"`)
}

func TestSendIsTraced(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	otel.SetTracerProvider(provider)

	t.Cleanup(func() {
		otel.SetTracerProvider(noop.NewTracerProvider())
		_ = provider.Shutdown(context.Background())
	})

	l, _ := createdLedger(t, testSettings(), "alice")
	recorder.Reset()

	_, err := l.Send(context.Background(), "alice", "bob", 40)
	require.NoError(t, err)

	names := make(map[string]string)

	var sendSpan sdktrace.ReadOnlySpan

	for _, span := range recorder.Ended() {
		names[span.Name()] = span.Parent().SpanID().String()

		if span.Name() == "Send" {
			sendSpan = span
		}
	}

	require.NotNil(t, sendSpan)

	for _, name := range []string{"Resolver:scan", "Mine", "Store:Append"} {
		parent, ok := names[name]
		require.True(t, ok, name)
		assert.Equal(t, sendSpan.SpanContext().SpanID().String(), parent, name)
	}

	_, err = l.Send(context.Background(), "alice", "bob", 1000)
	require.Error(t, err)

	ended := recorder.Ended()
	assert.Equal(t, "Send", ended[len(ended)-1].Name())
	assert.Equal(t, codes.Error, ended[len(ended)-1].Status().Code)
}
