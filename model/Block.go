package model

import (
	"bytes"
	"math/big"
	"time"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/go-wire"
	"github.com/bsv-blockchain/utxochain/errors"
)

const (
	MinTargetBits uint32 = 1
	MaxTargetBits uint32 = 255
)

type Block struct {
	Timestamp     int64          `json:"timestamp"`
	Transactions  []*Transaction `json:"transactions"`
	PrevBlockHash string         `json:"prevBlockHash"`
	Nonce         uint64         `json:"nonce"`
	Bits          uint32         `json:"bits"`
	Hash          string         `json:"hash"`
}

// NewBlock returns an unmined block. Nonce and Hash are filled in by the miner.
func NewBlock(txs []*Transaction, prevBlockHash string, bits uint32) *Block {
	return &Block{
		Timestamp:     time.Now().Unix(),
		Transactions:  txs,
		PrevBlockHash: prevBlockHash,
		Bits:          bits,
	}
}

func (b *Block) IsGenesis() bool {
	return b.PrevBlockHash == ""
}

// TargetFromBits returns 2^(256-bits). A valid block hash, read as a big-endian number, is
// strictly below it.
func TargetFromBits(bits uint32) *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), uint(256-bits))
}

func ValidTargetBits(bits uint32) bool {
	return bits >= MinTargetBits && bits <= MaxTargetBits
}

// HashMeetsTarget compares the hash in display byte order, the same order as its hex string.
func HashMeetsTarget(hash *chainhash.Hash, target *big.Int) bool {
	bn := new(big.Int).SetBytes(bt.ReverseBytes(hash[:]))

	return bn.Cmp(target) < 0
}

// PreimagePrefix returns the part of the mining preimage that does not change with the nonce:
// the transactions, the previous block hash and the target bits.
func (b *Block) PreimagePrefix() ([]byte, error) {
	var buf bytes.Buffer

	if err := wire.WriteVarInt(&buf, 0, uint64(len(b.Transactions))); err != nil {
		return nil, errors.NewSerializationError("failed to write transaction count", err)
	}

	for _, tx := range b.Transactions {
		if err := tx.write(&buf); err != nil {
			return nil, errors.NewSerializationError("failed to serialize transaction %s", tx.ID, err)
		}
	}

	if err := wire.WriteVarString(&buf, 0, b.PrevBlockHash); err != nil {
		return nil, errors.NewSerializationError("failed to write previous block hash", err)
	}

	if err := writeUint32(&buf, b.Bits); err != nil {
		return nil, errors.NewSerializationError("failed to write target bits", err)
	}

	return buf.Bytes(), nil
}

// Preimage returns the bytes hashed to produce the block hash for the given nonce.
func (b *Block) Preimage(nonce uint64) ([]byte, error) {
	prefix, err := b.PreimagePrefix()
	if err != nil {
		return nil, err
	}

	buf := bytes.NewBuffer(prefix)

	_ = writeUint64(buf, nonce)
	_ = writeUint64(buf, uint64(b.Timestamp)) //nolint:gosec // unix seconds

	return buf.Bytes(), nil
}

// VerifyProofOfWork recomputes the block hash and checks it against both the stored hash and
// the target implied by Bits.
func (b *Block) VerifyProofOfWork() (bool, error) {
	if !ValidTargetBits(b.Bits) || b.Hash == "" {
		return false, nil
	}

	preimage, err := b.Preimage(b.Nonce)
	if err != nil {
		return false, err
	}

	hash := chainhash.HashH(preimage)

	if hash.String() != b.Hash {
		return false, nil
	}

	return HashMeetsTarget(&hash, TargetFromBits(b.Bits)), nil
}

func (b *Block) Bytes() ([]byte, error) {
	var buf bytes.Buffer

	_ = writeUint64(&buf, uint64(b.Timestamp)) //nolint:gosec // unix seconds
	_ = writeUint32(&buf, b.Bits)
	_ = writeUint64(&buf, b.Nonce)

	if err := wire.WriteVarString(&buf, 0, b.PrevBlockHash); err != nil {
		return nil, errors.NewSerializationError("failed to write previous block hash", err)
	}

	if err := wire.WriteVarString(&buf, 0, b.Hash); err != nil {
		return nil, errors.NewSerializationError("failed to write block hash", err)
	}

	if err := wire.WriteVarInt(&buf, 0, uint64(len(b.Transactions))); err != nil {
		return nil, errors.NewSerializationError("failed to write transaction count", err)
	}

	for _, tx := range b.Transactions {
		if err := tx.write(&buf); err != nil {
			return nil, errors.NewSerializationError("failed to serialize transaction %s", tx.ID, err)
		}
	}

	return buf.Bytes(), nil
}

func NewBlockFromBytes(blockBytes []byte) (*Block, error) {
	r := bytes.NewReader(blockBytes)

	block := &Block{}

	ts, err := readUint64(r)
	if err != nil {
		return nil, errors.NewSerializationError("failed to read block timestamp", err)
	}

	block.Timestamp = int64(ts) //nolint:gosec // unix seconds

	if block.Bits, err = readUint32(r); err != nil {
		return nil, errors.NewSerializationError("failed to read target bits", err)
	}

	if block.Nonce, err = readUint64(r); err != nil {
		return nil, errors.NewSerializationError("failed to read nonce", err)
	}

	if block.PrevBlockHash, err = wire.ReadVarString(r, 0); err != nil {
		return nil, errors.NewSerializationError("failed to read previous block hash", err)
	}

	if block.Hash, err = wire.ReadVarString(r, 0); err != nil {
		return nil, errors.NewSerializationError("failed to read block hash", err)
	}

	txCount, err := readCount(r)
	if err != nil {
		return nil, errors.NewSerializationError("failed to read transaction count", err)
	}

	block.Transactions = make([]*Transaction, 0, txCount)

	for i := uint64(0); i < txCount; i++ {
		tx, err := readTransaction(r)
		if err != nil {
			return nil, errors.NewSerializationError("failed to read transaction %d", i, err)
		}

		block.Transactions = append(block.Transactions, tx)
	}

	if r.Len() != 0 {
		return nil, errors.NewSerializationError("%d trailing bytes after block %s", r.Len(), block.Hash)
	}

	return block, nil
}
