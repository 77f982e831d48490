// Package ledger ties the chain store, the miner and the UTXO resolver together into the
// operations offered by the command line and the HTTP API.
package ledger

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/bsv-blockchain/utxochain/errors"
	"github.com/bsv-blockchain/utxochain/model"
	"github.com/bsv-blockchain/utxochain/services/miner/cpuminer"
	"github.com/bsv-blockchain/utxochain/services/utxo"
	"github.com/bsv-blockchain/utxochain/settings"
	"github.com/bsv-blockchain/utxochain/stores/blob"
	"github.com/bsv-blockchain/utxochain/stores/blob/options"
	"github.com/bsv-blockchain/utxochain/stores/blockchain"
	"github.com/bsv-blockchain/utxochain/ulogger"
	"github.com/bsv-blockchain/utxochain/util/health"
	"github.com/bsv-blockchain/utxochain/util/tracing"
	"github.com/google/uuid"
	"github.com/ordishs/gocore"
)

var stat = gocore.NewStat("Ledger")

// TipInfo describes the current end of the chain.
type TipInfo struct {
	Hash      string `json:"hash"`
	Height    uint64 `json:"height"`
	Timestamp int64  `json:"timestamp"`
	Bits      uint32 `json:"bits"`
	ChainWork string `json:"chainwork"`
}

type Ledger struct {
	logger   ulogger.Logger
	settings *settings.Settings
	store    blob.Store

	openMu   sync.Mutex
	chain    *blockchain.Store
	resolver *utxo.Resolver

	// sendMu keeps input selection and the append of one send from interleaving with another
	sendMu sync.Mutex
}

// OpenStore opens the blob store configured in ledger_store.
func OpenStore(logger ulogger.Logger, tSettings *settings.Settings) (blob.Store, error) {
	return blob.NewStore(logger, tSettings.Ledger.Store,
		options.WithSyncWrites(tSettings.Badger.SyncWrites),
		options.WithCacheSizeMB(tSettings.LevelDB.CacheSizeMB),
		options.WithDataFolder(tSettings.DataFolder),
	)
}

// New returns a ledger over store. The chain is opened on first use.
func New(logger ulogger.Logger, tSettings *settings.Settings, store blob.Store) *Ledger {
	initPrometheusMetrics()

	return &Ledger{
		logger:   logger.New("ledger"),
		settings: tSettings,
		store:    store,
	}
}

func (l *Ledger) targetBits() uint32 {
	return uint32(l.settings.Ledger.TargetBits) //nolint:gosec // out of range values are rejected by the miner
}

func (l *Ledger) open(ctx context.Context, genesis blockchain.GenesisFunc) (*blockchain.Store, *utxo.Resolver, error) {
	l.openMu.Lock()
	defer l.openMu.Unlock()

	if l.chain != nil {
		return l.chain, l.resolver, nil
	}

	chain, err := blockchain.New(ctx, l.logger, l.store, genesis)
	if err != nil {
		return nil, nil, err
	}

	var opts []utxo.Option
	if l.settings.Ledger.UTXOCacheTTL > 0 {
		opts = append(opts, utxo.WithCache(l.settings.Ledger.UTXOCacheTTL))
	}

	l.chain = chain
	l.resolver = utxo.New(l.logger, chain, opts...)

	return l.chain, l.resolver, nil
}

// Create starts a new chain whose genesis block pays the coinbase reward to address.
func (l *Ledger) Create(ctx context.Context, address string) (*model.Block, error) {
	if address == "" {
		return nil, errors.NewInvalidArgumentError("address is required")
	}

	exists, err := l.store.Exists(ctx, []byte(blockchain.LastKey))
	if err != nil {
		return nil, errors.NewStorageError("failed to check for an existing chain", err)
	}

	if exists {
		return nil, errors.NewBlockExistsError("blockchain already exists")
	}

	var genesis *model.Block

	chain, _, err := l.open(ctx, func(ctx context.Context) (*model.Block, error) {
		coinbase, err := model.NewCoinbaseTransaction(address, "")
		if err != nil {
			return nil, err
		}

		genesis, err = cpuminer.Mine(ctx, []*model.Transaction{coinbase}, "", l.targetBits())

		return genesis, err
	})
	if err != nil {
		return nil, err
	}

	// the chain was already open in this process
	if genesis == nil {
		return nil, errors.NewBlockExistsError("blockchain already exists at %s", chain.TipHash())
	}

	return genesis, nil
}

// Send mines a block moving amount from one address to another. When mining rewards are on,
// the block also pays a coinbase reward to from. Nothing is mined when from cannot cover
// amount.
func (l *Ledger) Send(ctx context.Context, from, to string, amount int64) (_ *model.Block, err error) {
	ctx, _, endSpan := tracing.Tracer("ledger").Start(ctx, "Send",
		tracing.WithParentStat(stat),
		tracing.WithTag("from", from),
		tracing.WithTag("to", to),
		tracing.WithDebugLogMessage(l.logger, "[Send] %d from %s to %s", amount, from, to),
	)
	defer func() {
		endSpan(err)
	}()

	if from == "" || to == "" {
		return nil, errors.NewInvalidArgumentError("from and to addresses are required")
	}

	chain, resolver, err := l.open(ctx, nil)
	if err != nil {
		return nil, err
	}

	l.sendMu.Lock()
	defer l.sendMu.Unlock()

	timer := time.Now()

	tx, err := model.NewUTXOTransaction(ctx, from, to, amount, resolver)
	if err != nil {
		prometheusLedgerSendRejected.Inc()
		return nil, err
	}

	txs := []*model.Transaction{tx}

	if l.settings.Ledger.MineReward {
		coinbase, cbErr := model.NewCoinbaseTransaction(from, uuid.NewString())
		if cbErr != nil {
			return nil, cbErr
		}

		txs = []*model.Transaction{coinbase, tx}
	}

	block, err := cpuminer.Mine(ctx, txs, chain.TipHash(), l.targetBits())
	if err != nil {
		return nil, err
	}

	if err = chain.Append(ctx, block); err != nil {
		return nil, err
	}

	prometheusLedgerSend.Observe(time.Since(timer).Seconds())

	l.logger.Infof("[Send] %d from %s to %s in block %s", amount, from, to, block.Hash)

	return block, nil
}

func (l *Ledger) GetBalance(ctx context.Context, address string) (int64, error) {
	if address == "" {
		return 0, errors.NewInvalidArgumentError("address is required")
	}

	_, resolver, err := l.open(ctx, nil)
	if err != nil {
		return 0, err
	}

	return resolver.GetBalance(ctx, address)
}

// Balances returns the balance of every address with unspent outputs.
func (l *Ledger) Balances(ctx context.Context) (map[string]int64, error) {
	_, resolver, err := l.open(ctx, nil)
	if err != nil {
		return nil, err
	}

	return resolver.FindAllUnspentOutputs(ctx)
}

// Blocks returns the whole chain, tip first.
func (l *Ledger) Blocks(ctx context.Context) ([]*model.Block, error) {
	return l.blocks(ctx, 0)
}

// LastBlocks returns at most n blocks, tip first.
func (l *Ledger) LastBlocks(ctx context.Context, n int) ([]*model.Block, error) {
	if n <= 0 {
		return nil, errors.NewInvalidArgumentError("number of blocks must be positive, got %d", n)
	}

	return l.blocks(ctx, n)
}

func (l *Ledger) blocks(ctx context.Context, limit int) ([]*model.Block, error) {
	chain, _, err := l.open(ctx, nil)
	if err != nil {
		return nil, err
	}

	blocks := make([]*model.Block, 0, limit)

	it := chain.Iterator()
	for it.Next(ctx) {
		blocks = append(blocks, it.Block())

		if limit > 0 && len(blocks) == limit {
			break
		}
	}

	if err = it.Err(); err != nil {
		return nil, err
	}

	return blocks, nil
}

func (l *Ledger) GetBlock(ctx context.Context, hash string) (*model.Block, error) {
	chain, _, err := l.open(ctx, nil)
	if err != nil {
		return nil, err
	}

	return chain.GetBlock(ctx, hash)
}

// Tip returns the tip together with the height and accumulated work of the chain.
func (l *Ledger) Tip(ctx context.Context) (*TipInfo, error) {
	chain, _, err := l.open(ctx, nil)
	if err != nil {
		return nil, err
	}

	state, err := chain.State(ctx)
	if err != nil {
		return nil, err
	}

	if state.Tip == nil {
		return nil, errors.NewChainNotFoundError("no blocks reachable from tip %s", chain.TipHash())
	}

	return &TipInfo{
		Hash:      state.Tip.Hash,
		Height:    state.Height,
		Timestamp: state.Tip.Timestamp,
		Bits:      state.Tip.Bits,
		ChainWork: state.Work.Text(16),
	}, nil
}

// Health checks the store and, unless only liveness is asked for, that a chain exists.
func (l *Ledger) Health(ctx context.Context, checkLiveness bool) (int, string, error) {
	if checkLiveness {
		return http.StatusOK, "OK", nil
	}

	checks := []health.Check{
		{Name: "BlobStore", Check: l.store.Health},
		{Name: "Chain", Check: l.chainHealth},
	}

	return health.CheckAll(ctx, checkLiveness, checks)
}

func (l *Ledger) chainHealth(ctx context.Context, _ bool) (int, string, error) {
	chain, _, err := l.open(ctx, nil)
	if err != nil {
		return http.StatusServiceUnavailable, "no chain", err
	}

	return http.StatusOK, chain.TipHash(), nil
}

func (l *Ledger) Close(ctx context.Context) error {
	l.openMu.Lock()
	defer l.openMu.Unlock()

	if l.resolver != nil {
		l.resolver.Stop()
	}

	return l.store.Close(ctx)
}
