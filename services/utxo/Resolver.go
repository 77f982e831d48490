// Package utxo answers balance and spendable output queries by scanning the chain from the tip
// back to genesis. No index is kept; every uncached query reads every block.
package utxo

import (
	"context"
	"time"

	"github.com/bsv-blockchain/utxochain/errors"
	"github.com/bsv-blockchain/utxochain/model"
	"github.com/bsv-blockchain/utxochain/stores/blockchain"
	"github.com/bsv-blockchain/utxochain/ulogger"
	"github.com/bsv-blockchain/utxochain/util/tracing"
	"github.com/jellydator/ttlcache/v3"
)

// UnspentOutput is an output that no later transaction spends.
type UnspentOutput struct {
	TxID   string
	Index  int
	Output *model.Output
}

type cacheKey struct {
	tip     string
	address string
}

type Resolver struct {
	logger   ulogger.Logger
	chain    blockchain.ChainReader
	matcher  model.CredentialMatcher
	cacheTTL time.Duration
	cache    *ttlcache.Cache[cacheKey, []*UnspentOutput]
}

func New(logger ulogger.Logger, chain blockchain.ChainReader, opts ...Option) *Resolver {
	initPrometheusMetrics()

	r := &Resolver{
		logger:  logger,
		chain:   chain,
		matcher: model.PlainCredentials{},
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.cacheTTL > 0 {
		r.cache = ttlcache.New[cacheKey, []*UnspentOutput](
			ttlcache.WithTTL[cacheKey, []*UnspentOutput](r.cacheTTL),
			ttlcache.WithDisableTouchOnHit[cacheKey, []*UnspentOutput](),
		)

		go r.cache.Start()
	}

	return r
}

// Stop ends the cache cleanup goroutine, if there is one.
func (r *Resolver) Stop() {
	if r.cache != nil {
		r.cache.Stop()
	}
}

// spentOutputs maps a transaction id to its spent output indices.
type spentOutputs map[string]map[int32]struct{}

func (s spentOutputs) add(txID string, index int32) {
	indices, ok := s[txID]
	if !ok {
		indices = make(map[int32]struct{})
		s[txID] = indices
	}

	indices[index] = struct{}{}
}

func (s spentOutputs) contains(txID string, index int) bool {
	_, ok := s[txID][int32(index)] //nolint:gosec // output indices are small

	return ok
}

// FindUnspentOutputs returns the outputs address can spend, newest block first and in output
// index order within a transaction.
func (r *Resolver) FindUnspentOutputs(ctx context.Context, address string) ([]*UnspentOutput, error) {
	tip := r.chain.TipHash()
	if tip == "" {
		return nil, errors.ErrChainNotFound
	}

	key := cacheKey{tip: tip, address: address}

	if r.cache != nil {
		if item := r.cache.Get(key); item != nil {
			prometheusUtxoCacheHits.Inc()
			return append([]*UnspentOutput(nil), item.Value()...), nil
		}

		prometheusUtxoCacheMisses.Inc()
	}

	unspent, err := r.scan(ctx, address)
	if err != nil {
		return nil, err
	}

	r.logger.Debugf("[FindUnspentOutputs] %d unspent outputs for %s at tip %s", len(unspent), address, tip)

	if r.cache != nil {
		r.cache.Set(key, append([]*UnspentOutput(nil), unspent...), ttlcache.DefaultTTL)
	}

	return unspent, nil
}

func (r *Resolver) scan(ctx context.Context, address string) (_ []*UnspentOutput, err error) {
	ctx, _, endSpan := tracing.Tracer("utxo").Start(ctx, "Resolver:scan",
		tracing.WithTag("address", address),
		tracing.WithHistogram(prometheusUtxoScan),
	)
	defer func() {
		endSpan(err)
	}()

	var unspent []*UnspentOutput

	spent := make(spentOutputs)

	it := r.chain.Iterator()
	for it.Next(ctx) {
		txs := it.Block().Transactions

		// newest first, so a spend is always seen before the output it spends
		for i := len(txs) - 1; i >= 0; i-- {
			tx := txs[i]

			for index, out := range tx.Vout {
				if spent.contains(tx.ID, index) {
					continue
				}

				if out.CanBeUnlockedWith(r.matcher, address) {
					unspent = append(unspent, &UnspentOutput{TxID: tx.ID, Index: index, Output: out})
				}
			}

			if tx.IsCoinbase() {
				continue
			}

			for _, in := range tx.Vin {
				if in.CanUnlockOutputWith(r.matcher, address) {
					spent.add(in.TxID, in.Vout)
				}
			}
		}
	}

	if err = it.Err(); err != nil {
		return nil, err
	}

	return unspent, nil
}

// GetBalance sums the value of all outputs address can spend.
func (r *Resolver) GetBalance(ctx context.Context, address string) (int64, error) {
	unspent, err := r.FindUnspentOutputs(ctx, address)
	if err != nil {
		return 0, err
	}

	var balance int64
	for _, u := range unspent {
		balance += u.Output.Value
	}

	return balance, nil
}

// FindSpendableOutputs selects unspent outputs of address, in FindUnspentOutputs order, until
// their value reaches amount. When it cannot, the selection holds every unspent output and
// its Total is below amount.
func (r *Resolver) FindSpendableOutputs(ctx context.Context, address string, amount int64) (*model.Selection, error) {
	unspent, err := r.FindUnspentOutputs(ctx, address)
	if err != nil {
		return nil, err
	}

	selection := model.NewSelection()

	for _, u := range unspent {
		if selection.Total >= amount {
			break
		}

		selection.Add(u.TxID, u.Index, u.Output.Value)
	}

	return selection, nil
}

type spendRef struct {
	txID  string
	index int32
}

// FindAllUnspentOutputs returns the balance of every address holding unspent outputs. An
// input spends the output it references when its credential matches the output's lock, the
// rule FindUnspentOutputs applies per address.
func (r *Resolver) FindAllUnspentOutputs(ctx context.Context) (_ map[string]int64, err error) {
	if r.chain.TipHash() == "" {
		return nil, errors.ErrChainNotFound
	}

	ctx, _, endSpan := tracing.Tracer("utxo").Start(ctx, "Resolver:FindAllUnspentOutputs")
	defer func() {
		endSpan(err)
	}()

	balances := make(map[string]int64)
	spenders := make(map[spendRef][]string)

	it := r.chain.Iterator()
	for it.Next(ctx) {
		txs := it.Block().Transactions

		for i := len(txs) - 1; i >= 0; i-- {
			tx := txs[i]

		outputs:
			for index, out := range tx.Vout {
				for _, credential := range spenders[spendRef{txID: tx.ID, index: int32(index)}] { //nolint:gosec // output indices are small
					if r.matcher.Matches(credential, out.ScriptPubKey) {
						continue outputs
					}
				}

				balances[out.ScriptPubKey] += out.Value
			}

			if tx.IsCoinbase() {
				continue
			}

			for _, in := range tx.Vin {
				ref := spendRef{txID: in.TxID, index: in.Vout}
				spenders[ref] = append(spenders[ref], in.ScriptSig)
			}
		}
	}

	if err = it.Err(); err != nil {
		return nil, err
	}

	return balances, nil
}
