// Package cpuminer searches for a nonce that makes a block hash meet its target.
package cpuminer

import (
	"context"
	"encoding/binary"
	"math"
	"strconv"
	"time"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/utxochain/errors"
	"github.com/bsv-blockchain/utxochain/model"
	"github.com/bsv-blockchain/utxochain/util/tracing"
	"go.opentelemetry.io/otel/attribute"
)

// hashes are counted in batches to keep the shared counters off the hot path
const counterBatch = 1 << 12

// Mine builds a block on top of prevHash holding txs and searches nonces from zero until the
// block hash is below 2^(256-targetBits). The search stops with an error when ctx is done or
// the nonce space runs out.
func Mine(ctx context.Context, txs []*model.Transaction, prevHash string, targetBits uint32) (_ *model.Block, err error) {
	initPrometheusMetrics()

	if !model.ValidTargetBits(targetBits) {
		return nil, errors.NewInvalidArgumentError("target bits must be between %d and %d, got %d", model.MinTargetBits, model.MaxTargetBits, targetBits)
	}

	_, span, endSpan := tracing.Tracer("miner").Start(ctx, "Mine",
		tracing.WithTag("prevHash", prevHash),
		tracing.WithTag("bits", strconv.FormatUint(uint64(targetBits), 10)),
	)
	defer func() {
		endSpan(err)
	}()

	block := model.NewBlock(txs, prevHash, targetBits)

	prefix, err := block.PreimagePrefix()
	if err != nil {
		return nil, err
	}

	// nonce and timestamp are appended to the fixed prefix, only the nonce changes per attempt
	preimage := make([]byte, len(prefix)+16)
	copy(preimage, prefix)
	nonceOffset := len(prefix)
	binary.LittleEndian.PutUint64(preimage[nonceOffset+8:], uint64(block.Timestamp)) //nolint:gosec // unix seconds

	target := model.TargetFromBits(targetBits)
	start := time.Now()

	var (
		nonce   uint64
		pending uint64
		hash    chainhash.Hash
	)

	defer func() {
		hashesComputed.Add(pending)
		prometheusHashesTotal.Add(float64(pending))
	}()

	for {
		if nonce%counterBatch == 0 {
			hashesComputed.Add(pending)
			prometheusHashesTotal.Add(float64(pending))
			pending = 0

			select {
			case <-ctx.Done():
				prometheusMiningAborted.Inc()
				return nil, errors.NewContextCanceledError("mining stopped at nonce %d", nonce, ctx.Err())
			default:
			}
		}

		binary.LittleEndian.PutUint64(preimage[nonceOffset:], nonce)
		hash = chainhash.HashH(preimage)
		pending++

		if model.HashMeetsTarget(&hash, target) {
			break
		}

		if nonce == math.MaxUint64 {
			prometheusMiningAborted.Inc()
			return nil, errors.NewBlockError("nonce space exhausted without meeting target bits %d", targetBits)
		}

		nonce++
	}

	block.Nonce = nonce
	block.Hash = hash.String()

	span.SetAttributes(attribute.String("hash", block.Hash), attribute.Int64("nonce", int64(nonce))) //nolint:gosec // attribute only

	prometheusBlockMined.Observe(time.Since(start).Seconds())

	return block, nil
}
