package file

import (
	"context"
	"os"
	"testing"

	"github.com/bsv-blockchain/utxochain/errors"
	"github.com/bsv-blockchain/utxochain/ulogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileChecksum(t *testing.T) {
	ctx := context.Background()

	f, err := New(ulogger.TestLogger{}, t.TempDir())
	require.NoError(t, err)

	key := []byte("block")
	require.NoError(t, f.Set(ctx, key, []byte("payload")))

	_, err = os.Stat(f.filename(key) + checksumExtension)
	require.NoError(t, err)

	t.Run("corrupted blob is rejected", func(t *testing.T) {
		require.NoError(t, os.WriteFile(f.filename(key), []byte("tampered"), 0o600))

		_, err := f.Get(ctx, key)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrStorageError))
	})

	t.Run("blob without checksum is read", func(t *testing.T) {
		require.NoError(t, os.Remove(f.filename(key)+checksumExtension))

		value, err := f.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("tampered"), value)
	})

	t.Run("del removes checksum", func(t *testing.T) {
		require.NoError(t, f.Set(ctx, key, []byte("again")))
		require.NoError(t, f.Del(ctx, key))

		_, err := os.Stat(f.filename(key) + checksumExtension)
		assert.True(t, os.IsNotExist(err))
	})
}
