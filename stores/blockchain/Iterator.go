package blockchain

import (
	"context"

	"github.com/bsv-blockchain/utxochain/errors"
	"github.com/bsv-blockchain/utxochain/model"
	"github.com/bsv-blockchain/utxochain/stores/blob"
	"github.com/bsv-blockchain/utxochain/ulogger"
)

// Iterator walks the chain from the tip it was created at back to genesis, loading one block
// per call to Next. It cannot be restarted.
//
//	it := chain.Iterator()
//	for it.Next(ctx) {
//		block := it.Block()
//	}
//	if err := it.Err(); err != nil {
//		return err
//	}
type Iterator struct {
	store       blob.Store
	logger      ulogger.Logger
	currentHash string
	seen        map[string]struct{}
	block       *model.Block
	err         error
}

func newIterator(store blob.Store, logger ulogger.Logger, tip string) *Iterator {
	return &Iterator{
		store:       store,
		logger:      logger,
		currentHash: tip,
		seen:        make(map[string]struct{}),
	}
}

// Next loads the next block. It returns false after genesis, when a block is missing from the
// store, or on an error, which Err then returns. A missing block is not an error, a block
// reached twice is.
func (it *Iterator) Next(ctx context.Context) bool {
	it.block = nil

	if it.err != nil || it.currentHash == "" {
		return false
	}

	hash := it.currentHash
	it.currentHash = ""

	if _, ok := it.seen[hash]; ok {
		it.err = errors.NewBlockInvalidError("[Blockchain] chain has a cycle at %s", hash)
		return false
	}

	it.seen[hash] = struct{}{}

	if err := ctx.Err(); err != nil {
		it.err = errors.NewContextCanceledError("[Blockchain] iteration stopped at block %s", hash, err)
		return false
	}

	b, err := it.store.Get(ctx, []byte(hash))
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			it.logger.Warnf("[Blockchain] block %s not found, chain ends here", hash)
			return false
		}

		it.err = errors.NewStorageError("[Blockchain] failed to get block %s", hash, err)

		return false
	}

	block, err := model.NewBlockFromBytes(b)
	if err != nil {
		it.err = errors.NewSerializationError("[Blockchain] chain truncated, block %s cannot be decoded", hash, err)
		return false
	}

	if block.Hash != hash {
		it.err = errors.NewBlockInvalidError("[Blockchain] block stored under %s has hash %s", hash, block.Hash)
		return false
	}

	prometheusBlockchainBlocksRead.Inc()

	it.block = block
	it.currentHash = block.PrevBlockHash

	return true
}

// Block returns the block loaded by the last successful call to Next.
func (it *Iterator) Block() *model.Block {
	return it.block
}

func (it *Iterator) Err() error {
	return it.err
}
