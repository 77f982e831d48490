package ledger

import (
	"context"
	"runtime"
	"time"

	"github.com/bsv-blockchain/utxochain/errors"
	"github.com/bsv-blockchain/utxochain/model"
	"github.com/bsv-blockchain/utxochain/util/tracing"
	"golang.org/x/sync/errgroup"
)

// VerifyChain walks the chain from the tip and checks that every block links to the next one
// down to a genesis block and carries a valid proof of work. It returns the number of blocks
// checked. Proofs of work are checked in parallel.
func (l *Ledger) VerifyChain(ctx context.Context) (_ int, err error) {
	ctx, _, endSpan := tracing.Tracer("ledger").Start(ctx, "VerifyChain", tracing.WithParentStat(stat))
	defer func() {
		endSpan(err)
	}()

	chain, _, err := l.open(ctx, nil)
	if err != nil {
		return 0, err
	}

	start := time.Now()

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	var (
		count int
		last  *model.Block
	)

	it := chain.Iterator()
	for it.Next(gCtx) {
		block := it.Block()

		if last != nil && last.PrevBlockHash != block.Hash {
			_ = g.Wait()
			return count, errors.NewBlockInvalidError("[VerifyChain] block %s links to %s, found %s", last.Hash, last.PrevBlockHash, block.Hash)
		}

		g.Go(func() error {
			ok, err := block.VerifyProofOfWork()
			if err != nil {
				return err
			}

			if !ok {
				return errors.NewBlockInvalidError("[VerifyChain] block %s has an invalid proof of work", block.Hash)
			}

			return nil
		})

		last = block
		count++
	}

	if err = g.Wait(); err != nil {
		return count, err
	}

	if err = it.Err(); err != nil {
		return count, err
	}

	if last == nil || !last.IsGenesis() {
		return count, errors.NewBlockInvalidError("[VerifyChain] chain does not end at a genesis block")
	}

	prometheusLedgerVerify.Observe(time.Since(start).Seconds())

	l.logger.Infof("[VerifyChain] verified %d blocks up to %s", count, chain.TipHash())

	return count, nil
}
