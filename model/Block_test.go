package model

import (
	"strings"
	"testing"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/utxochain/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mineForTest runs a plain nonce search, enough for the low target bits used here.
func mineForTest(t *testing.T, block *Block) *Block {
	t.Helper()

	target := TargetFromBits(block.Bits)

	for nonce := uint64(0); ; nonce++ {
		preimage, err := block.Preimage(nonce)
		require.NoError(t, err)

		hash := chainhash.HashH(preimage)
		if HashMeetsTarget(&hash, target) {
			block.Nonce = nonce
			block.Hash = hash.String()

			return block
		}
	}
}

func testTransactions(t *testing.T, n int) []*Transaction {
	t.Helper()

	txs := make([]*Transaction, 0, n)

	for i := 0; i < n; i++ {
		tx, err := NewCoinbaseTransaction("alice", strings.Repeat("x", i+1))
		require.NoError(t, err)

		txs = append(txs, tx)
	}

	return txs
}

func TestBlockRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		txCount int
		prev    string
	}{
		{"no transactions", 0, ""},
		{"one transaction", 1, ""},
		{"many transactions", 25, strings.Repeat("ab", 32)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block := mineForTest(t, NewBlock(testTransactions(t, tt.txCount), tt.prev, 4))

			b, err := block.Bytes()
			require.NoError(t, err)

			decoded, err := NewBlockFromBytes(b)
			require.NoError(t, err)

			assert.Equal(t, block.Timestamp, decoded.Timestamp)
			assert.Equal(t, block.PrevBlockHash, decoded.PrevBlockHash)
			assert.Equal(t, block.Nonce, decoded.Nonce)
			assert.Equal(t, block.Bits, decoded.Bits)
			assert.Equal(t, block.Hash, decoded.Hash)
			require.Len(t, decoded.Transactions, tt.txCount)

			for i, tx := range block.Transactions {
				assert.Equal(t, tx, decoded.Transactions[i])
			}

			ok, err := decoded.VerifyProofOfWork()
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestNewBlockFromBytesRejectsCorruptInput(t *testing.T) {
	block := mineForTest(t, NewBlock(testTransactions(t, 3), "", 2))

	b, err := block.Bytes()
	require.NoError(t, err)

	t.Run("truncated", func(t *testing.T) {
		for _, n := range []int{0, 7, 20, len(b) / 2, len(b) - 1} {
			_, err := NewBlockFromBytes(b[:n])
			require.Error(t, err, "length %d", n)
			assert.True(t, errors.Is(err, errors.ErrSerialization))
		}
	})

	t.Run("trailing bytes", func(t *testing.T) {
		_, err := NewBlockFromBytes(append(append([]byte{}, b...), 0x00))
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrSerialization))
	})
}

func TestVerifyProofOfWork(t *testing.T) {
	newMined := func(t *testing.T) *Block {
		return mineForTest(t, NewBlock(testTransactions(t, 2), strings.Repeat("0f", 32), 8))
	}

	t.Run("valid", func(t *testing.T) {
		ok, err := newMined(t).VerifyProofOfWork()
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("tampered output value", func(t *testing.T) {
		block := newMined(t)
		block.Transactions[0].Vout[0].Value++

		ok, err := block.VerifyProofOfWork()
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("tampered previous hash", func(t *testing.T) {
		block := newMined(t)
		block.PrevBlockHash = strings.Repeat("11", 32)

		ok, err := block.VerifyProofOfWork()
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("tampered nonce", func(t *testing.T) {
		block := newMined(t)
		block.Nonce++

		ok, err := block.VerifyProofOfWork()
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("tampered timestamp", func(t *testing.T) {
		block := newMined(t)
		block.Timestamp++

		ok, err := block.VerifyProofOfWork()
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("raised bits", func(t *testing.T) {
		block := newMined(t)
		block.Bits = 200

		ok, err := block.VerifyProofOfWork()
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("invalid bits", func(t *testing.T) {
		block := newMined(t)
		block.Bits = 0

		ok, err := block.VerifyProofOfWork()
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unmined", func(t *testing.T) {
		ok, err := NewBlock(nil, "", 8).VerifyProofOfWork()
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestHashMeetsTarget(t *testing.T) {
	below, err := chainhash.NewHashFromStr("7fffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")
	require.NoError(t, err)

	atTarget, err := chainhash.NewHashFromStr("8000000000000000000000000000000000000000000000000000000000000000")
	require.NoError(t, err)

	assert.True(t, HashMeetsTarget(below, TargetFromBits(1)))
	assert.False(t, HashMeetsTarget(atTarget, TargetFromBits(1)))
	assert.False(t, HashMeetsTarget(below, TargetFromBits(2)))

	zero := chainhash.Hash{}
	assert.True(t, HashMeetsTarget(&zero, TargetFromBits(MaxTargetBits)))
}

func TestValidTargetBits(t *testing.T) {
	assert.False(t, ValidTargetBits(0))
	assert.True(t, ValidTargetBits(1))
	assert.True(t, ValidTargetBits(255))
	assert.False(t, ValidTargetBits(256))
}
