package leveldb

import (
	"context"
	"testing"

	"github.com/bsv-blockchain/utxochain/errors"
	"github.com/bsv-blockchain/utxochain/stores/blob/options"
	"github.com/bsv-blockchain/utxochain/ulogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchesAreSyncedWithoutSyncWrites(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := New(ulogger.TestLogger{}, dir, options.WithSyncWrites(false))
	require.NoError(t, err)

	assert.False(t, s.writeOptions.Sync)
	assert.True(t, s.batchOptions.Sync)

	require.NoError(t, s.SetBatch(ctx, []options.KeyValue{
		{Key: []byte("block"), Value: []byte("payload")},
		{Key: []byte("LAST"), Value: []byte("block")},
	}))
	require.NoError(t, s.Flush(ctx))
	require.NoError(t, s.Close(ctx))

	s, err = New(ulogger.TestLogger{}, dir)
	require.NoError(t, err)

	defer func() {
		_ = s.Close(ctx)
	}()

	value, err := s.Get(ctx, []byte("LAST"))
	require.NoError(t, err)
	assert.Equal(t, []byte("block"), value)

	_, err = s.Get(ctx, []byte("missing"))
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}
