// Package blockchain persists the hash-linked chain of blocks in a blob store.
//
// Every block is stored under its hash and the key LAST holds the hash of the tip. The chain
// is read backwards, from the tip to the genesis block, with an Iterator.
//
// A Store assumes it is the only writer of its blob store. Appends from one process are
// serialised; two processes appending to the same store can overwrite each other's tip.
package blockchain

import (
	"context"

	"github.com/bsv-blockchain/utxochain/model"
)

// ChainReader is the read side of the chain, as used by the UTXO resolver and the API.
type ChainReader interface {
	TipHash() string
	Iterator() *Iterator
	GetBlock(ctx context.Context, hash string) (*model.Block, error)
}

// GenesisFunc builds the first block of a new chain.
type GenesisFunc func(ctx context.Context) (*model.Block, error)
