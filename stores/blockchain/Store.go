package blockchain

import (
	"context"
	"encoding/hex"
	"math/big"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bsv-blockchain/utxochain/errors"
	"github.com/bsv-blockchain/utxochain/model"
	"github.com/bsv-blockchain/utxochain/stores/blob"
	"github.com/bsv-blockchain/utxochain/ulogger"
	"github.com/bsv-blockchain/utxochain/util"
	"github.com/bsv-blockchain/utxochain/util/tracing"
	"github.com/ordishs/gocore"
)

// LastKey is the store key holding the tip hash.
const LastKey = "LAST"

var stat = gocore.NewStat("blockchain")

type Store struct {
	mu     sync.RWMutex
	store  blob.Store
	logger ulogger.Logger
	tip    string
}

// New opens the chain held in store. When store has no tip yet, genesis is called to build
// the first block; with a nil genesis a missing chain is an ERR_CHAIN_NOT_FOUND error.
func New(ctx context.Context, logger ulogger.Logger, store blob.Store, genesis GenesisFunc) (*Store, error) {
	initPrometheusMetrics()

	s := &Store{
		store:  store,
		logger: logger.New("blockchain"),
	}

	tipBytes, err := store.Get(ctx, []byte(LastKey))
	if err == nil {
		if s.tip, err = decodeTip(tipBytes); err != nil {
			return nil, err
		}

		s.logger.Infof("[Blockchain] resuming chain at tip %s", s.tip)

		return s, nil
	}

	if !errors.Is(err, errors.ErrNotFound) {
		return nil, errors.NewStorageError("[Blockchain] failed to read tip", err)
	}

	if genesis == nil {
		return nil, errors.NewChainNotFoundError("no existing blockchain found, create one first")
	}

	block, err := genesis(ctx)
	if err != nil {
		return nil, err
	}

	if !block.IsGenesis() {
		return nil, errors.NewBlockInvalidError("genesis block %s has previous block %s", block.Hash, block.PrevBlockHash)
	}

	if err = s.write(ctx, block); err != nil {
		return nil, err
	}

	s.logger.Infof("[Blockchain] created chain with genesis block %s", block.Hash)

	return s, nil
}

func decodeTip(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", errors.NewEncodingError("[Blockchain] tip is not valid UTF-8")
	}

	if len(b) == 0 {
		return "", errors.NewEncodingError("[Blockchain] tip is empty")
	}

	if _, err := hex.DecodeString(string(b)); err != nil {
		return "", errors.NewEncodingError("[Blockchain] tip %q is not a hex hash", b, err)
	}

	return string(b), nil
}

// Append stores block and makes it the new tip. The block must build on the current tip.
func (s *Store) Append(ctx context.Context, block *model.Block) (err error) {
	if block == nil || block.Hash == "" {
		return errors.NewBlockInvalidError("[Blockchain] cannot append an unmined block")
	}

	ctx, _, endSpan := tracing.Tracer("blockchain").Start(ctx, "Store:Append",
		tracing.WithParentStat(stat),
		tracing.WithTag("hash", block.Hash),
	)
	defer func() {
		endSpan(err)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if block.PrevBlockHash != s.tip {
		prometheusBlockchainAppendRejects.Inc()
		return errors.NewBlockInvalidError("[Blockchain] block %s builds on %s but the tip is %s", block.Hash, block.PrevBlockHash, s.tip)
	}

	if err = s.write(ctx, block); err != nil {
		return err
	}

	s.logger.Debugf("[Blockchain] appended block %s", block.Hash)

	return nil
}

// write stores the block and the tip pointer in one batch and flushes. The block goes first,
// so a backend that cannot apply the batch atomically leaves at worst an unreferenced block.
func (s *Store) write(ctx context.Context, block *model.Block) error {
	start := time.Now()

	blockBytes, err := block.Bytes()
	if err != nil {
		return err
	}

	if err = s.store.SetBatch(ctx, []blob.KeyValue{
		{Key: []byte(block.Hash), Value: blockBytes},
		{Key: []byte(LastKey), Value: []byte(block.Hash)},
	}); err != nil {
		return errors.NewStorageError("[Blockchain] failed to store block %s", block.Hash, err)
	}

	if err = s.store.Flush(ctx); err != nil {
		return errors.NewStorageError("[Blockchain] failed to flush block %s", block.Hash, err)
	}

	s.tip = block.Hash

	prometheusBlockchainAppend.Observe(time.Since(start).Seconds())

	return nil
}

func (s *Store) TipHash() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.tip
}

// Iterator returns a new iterator starting at the current tip.
func (s *Store) Iterator() *Iterator {
	return newIterator(s.store, s.logger, s.TipHash())
}

func (s *Store) GetBlock(ctx context.Context, hash string) (_ *model.Block, err error) {
	ctx, _, endSpan := tracing.Tracer("blockchain").Start(ctx, "Store:GetBlock",
		tracing.WithParentStat(stat),
		tracing.WithTag("hash", hash),
	)
	defer func() {
		endSpan(err)
	}()

	b, err := s.store.Get(ctx, []byte(hash))
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.NewBlockNotFoundError("[Blockchain] block %s not found", hash)
		}

		return nil, errors.NewStorageError("[Blockchain] failed to get block %s", hash, err)
	}

	block, err := model.NewBlockFromBytes(b)
	if err != nil {
		return nil, err
	}

	prometheusBlockchainBlocksRead.Inc()

	return block, nil
}

// State describes the chain as seen from one tip.
type State struct {
	Tip    *model.Block
	Height uint64
	// Work is the expected number of hashes needed to mine every block up to Tip.
	Work *big.Int
}

// State walks the chain from the current tip. Height counts the blocks reachable from the tip,
// genesis included. An empty chain has a nil Tip and Work.
func (s *Store) State(ctx context.Context) (_ *State, err error) {
	ctx, _, endSpan := tracing.Tracer("blockchain").Start(ctx, "Store:State", tracing.WithParentStat(stat))
	defer func() {
		endSpan(err)
	}()

	state := &State{}

	it := s.Iterator()
	for it.Next(ctx) {
		block := it.Block()

		if state.Tip == nil {
			state.Tip = block
		}

		state.Height++
		state.Work = util.CalculateWork(state.Work, block.Bits)
	}

	if err = it.Err(); err != nil {
		return nil, err
	}

	return state, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.store.Close(ctx)
}
