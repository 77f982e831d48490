package main

import (
	"bytes"
	"net/url"
	"testing"

	"github.com/bsv-blockchain/utxochain/errors"
	"github.com/bsv-blockchain/utxochain/model"
	"github.com/bsv-blockchain/utxochain/settings"
	"github.com/bsv-blockchain/utxochain/ulogger"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSettings(t *testing.T) *settings.Settings {
	t.Helper()

	return &settings.Settings{
		DataFolder: t.TempDir(),
		Ledger: settings.LedgerSettings{
			Store:      &url.URL{Scheme: "file", Path: t.TempDir()},
			TargetBits: 4,
		},
	}
}

func run(t *testing.T, tSettings *settings.Settings, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	app := newApp(&out, ulogger.TestLogger{}, tSettings)
	err := app.Run(append([]string{progname}, args...))

	return out.String(), err
}

func TestCommands(t *testing.T) {
	tSettings := testSettings(t)

	out, err := run(t, tSettings, "create", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Done! Genesis block")

	out, err = run(t, tSettings, "send", "alice", "bob", "40")
	require.NoError(t, err)
	assert.Contains(t, out, "Success!")

	out, err = run(t, tSettings, "getbalance", "alice")
	require.NoError(t, err)
	assert.Equal(t, "Balance of 'alice': 60\n", out)

	out, err = run(t, tSettings, "getbalance", "bob")
	require.NoError(t, err)
	assert.Equal(t, "Balance of 'bob': 40\n", out)

	out, err = run(t, tSettings, "balances")
	require.NoError(t, err)
	assert.Equal(t, "alice: 60\nbob: 40\n", out)

	out, err = run(t, tSettings, "verifychain")
	require.NoError(t, err)
	assert.Equal(t, "Chain is valid: 2 blocks\n", out)

	t.Run("insufficient balance", func(t *testing.T) {
		_, err := run(t, tSettings, "send", "alice", "bob", "1000")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrInsufficientBalance))

		out, err := run(t, tSettings, "verifychain")
		require.NoError(t, err)
		assert.Equal(t, "Chain is valid: 2 blocks\n", out)
	})

	t.Run("create twice", func(t *testing.T) {
		_, err := run(t, tSettings, "create", "bob")
		assert.True(t, errors.Is(err, errors.ErrBlockExists))
	})

	t.Run("printchain", func(t *testing.T) {
		out, err := run(t, tSettings, "printchain")
		require.NoError(t, err)
		assert.Contains(t, out, "PoW: true")
		assert.Contains(t, out, `script "bob"`)
		assert.NotContains(t, out, "PoW: false")
	})

	t.Run("printchain json", func(t *testing.T) {
		out, err := run(t, tSettings, "printchain", "--json")
		require.NoError(t, err)

		var blocks []*model.Block

		require.NoError(t, jsoniter.Unmarshal([]byte(out), &blocks))
		require.Len(t, blocks, 2)
		assert.True(t, blocks[1].IsGenesis())
	})

	t.Run("printchain verbose", func(t *testing.T) {
		out, err := run(t, tSettings, "printchain", "--verbose")
		require.NoError(t, err)
		assert.Contains(t, out, "PrevBlockHash")
	})
}

func TestMalformedArguments(t *testing.T) {
	tSettings := testSettings(t)

	_, err := run(t, tSettings, "create", "alice")
	require.NoError(t, err)

	tests := []struct {
		name string
		args []string
	}{
		{name: "create without address", args: []string{"create"}},
		{name: "send missing amount", args: []string{"send", "alice", "bob"}},
		{name: "send amount not a number", args: []string{"send", "alice", "bob", "ten"}},
		{name: "send negative amount", args: []string{"send", "alice", "bob", "-1"}},
		{name: "getbalance too many", args: []string{"getbalance", "alice", "bob"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tSettings, tt.args...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
		})
	}
}

func TestNoChain(t *testing.T) {
	_, err := run(t, testSettings(t), "getbalance", "alice")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrChainNotFound))
}

func TestStoreFlag(t *testing.T) {
	tSettings := testSettings(t)
	storeURL := "file://" + t.TempDir()

	_, err := run(t, tSettings, "--store", storeURL, "create", "carol")
	require.NoError(t, err)

	out, err := run(t, tSettings, "--store", storeURL, "getbalance", "carol")
	require.NoError(t, err)
	assert.Equal(t, "Balance of 'carol': 100\n", out)
}
