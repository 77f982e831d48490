package badger

import (
	"context"
	"net/http"

	"github.com/bsv-blockchain/utxochain/errors"
	"github.com/bsv-blockchain/utxochain/stores/blob/options"
	"github.com/bsv-blockchain/utxochain/ulogger"
	"github.com/dgraph-io/badger/v3"
	"github.com/ordishs/gocore"
)

var stat = gocore.NewStat("blob_badger", true)

type Badger struct {
	store  *badger.DB
	logger ulogger.Logger
}

type loggerWrapper struct {
	ulogger.Logger
}

func (l loggerWrapper) Warningf(format string, args ...interface{}) {
	l.Warnf(format, args...)
}

func New(logger ulogger.Logger, dir string, opts ...options.StoreOption) (*Badger, error) {
	logger = logger.New("badger")
	storeOptions := options.NewStoreOptions(opts...)

	bOpts := badger.DefaultOptions(dir).
		WithLogger(loggerWrapper{logger}).
		WithLoggingLevel(badger.ERROR).
		WithSyncWrites(storeOptions.SyncWrites).
		WithBlockCacheSize(int64(storeOptions.CacheSizeMB) << 20)

	s, err := badger.Open(bOpts)
	if err != nil {
		return nil, errors.NewStorageError("[Badger] failed to open %s", dir, err)
	}

	return &Badger{
		store:  s,
		logger: logger,
	}, nil
}

func (s *Badger) Health(ctx context.Context, _ bool) (int, string, error) {
	if _, err := s.Exists(ctx, []byte("health")); err != nil {
		return http.StatusServiceUnavailable, "Badger Store", err
	}

	return http.StatusOK, "Badger Store", nil
}

func (s *Badger) Exists(_ context.Context, key []byte) (bool, error) {
	start := gocore.CurrentTime()
	defer func() {
		stat.NewStat("Exists").AddTime(start)
	}()

	err := s.store.View(func(tx *badger.Txn) error {
		_, err := tx.Get(key)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return false, nil
		}

		return false, errors.NewStorageError("[Badger][Exists] [%x] failed", key, err)
	}

	return true, nil
}

func (s *Badger) Get(_ context.Context, key []byte) ([]byte, error) {
	start := gocore.CurrentTime()
	defer func() {
		stat.NewStat("Get").AddTime(start)
	}()

	var result []byte

	err := s.store.View(func(tx *badger.Txn) error {
		item, err := tx.Get(key)
		if err != nil {
			return err
		}

		result, err = item.ValueCopy(nil)

		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, errors.NewNotFoundError("[Badger][Get] key %x not found", key)
		}

		return nil, errors.NewStorageError("[Badger][Get] [%x] failed", key, err)
	}

	return result, nil
}

func (s *Badger) Set(ctx context.Context, key []byte, value []byte) error {
	return s.SetBatch(ctx, []options.KeyValue{{Key: key, Value: value}})
}

// SetBatch writes all entries in one badger transaction.
func (s *Badger) SetBatch(_ context.Context, batch []options.KeyValue) error {
	start := gocore.CurrentTime()
	defer func() {
		stat.NewStat("SetBatch").AddTime(start)
	}()

	if err := s.store.Update(func(tx *badger.Txn) error {
		for _, kv := range batch {
			if err := tx.Set(kv.Key, kv.Value); err != nil {
				return err
			}
		}

		return nil
	}); err != nil {
		return errors.NewStorageError("[Badger][SetBatch] failed to write %d entries", len(batch), err)
	}

	return nil
}

func (s *Badger) Del(_ context.Context, key []byte) error {
	start := gocore.CurrentTime()
	defer func() {
		stat.NewStat("Del").AddTime(start)
	}()

	if err := s.store.Update(func(tx *badger.Txn) error {
		return tx.Delete(key)
	}); err != nil {
		return errors.NewStorageError("[Badger][Del] [%x] failed", key, err)
	}

	return nil
}

func (s *Badger) Flush(_ context.Context) error {
	if err := s.store.Sync(); err != nil {
		return errors.NewStorageError("[Badger][Flush] failed to sync", err)
	}

	return nil
}

func (s *Badger) Close(_ context.Context) error {
	if err := s.store.Close(); err != nil {
		return errors.NewStorageError("[Badger][Close] failed", err)
	}

	return nil
}
