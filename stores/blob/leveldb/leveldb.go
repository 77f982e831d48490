// Package leveldb stores blobs in a goleveldb database directory.
package leveldb

import (
	"context"
	"net/http"

	"github.com/bsv-blockchain/utxochain/errors"
	"github.com/bsv-blockchain/utxochain/stores/blob/options"
	"github.com/bsv-blockchain/utxochain/ulogger"
	"github.com/btcsuite/goleveldb/leveldb"
	"github.com/btcsuite/goleveldb/leveldb/opt"
)

type LevelDB struct {
	db           *leveldb.DB
	logger       ulogger.Logger
	writeOptions *opt.WriteOptions
	// batches always reach disk before SetBatch returns, whatever SyncWrites says
	batchOptions *opt.WriteOptions
}

func New(logger ulogger.Logger, dir string, opts ...options.StoreOption) (*LevelDB, error) {
	logger = logger.New("leveldb")
	storeOptions := options.NewStoreOptions(opts...)

	logger.Infof("Opening LevelDB at %s", dir)

	db, err := leveldb.OpenFile(dir, &opt.Options{
		BlockCacheCapacity: storeOptions.CacheSizeMB * opt.MiB,
	})
	if err != nil {
		return nil, errors.NewStorageError("[LevelDB] couldn't open %s", dir, err)
	}

	return &LevelDB{
		db:           db,
		logger:       logger,
		writeOptions: &opt.WriteOptions{Sync: storeOptions.SyncWrites},
		batchOptions: &opt.WriteOptions{Sync: true},
	}, nil
}

func (s *LevelDB) Health(_ context.Context, _ bool) (int, string, error) {
	if _, err := s.db.GetProperty("leveldb.stats"); err != nil {
		return http.StatusServiceUnavailable, "LevelDB Store", err
	}

	return http.StatusOK, "LevelDB Store", nil
}

func (s *LevelDB) Exists(_ context.Context, key []byte) (bool, error) {
	ok, err := s.db.Has(key, nil)
	if err != nil {
		return false, errors.NewStorageError("[LevelDB][Exists] [%x] failed", key, err)
	}

	return ok, nil
}

func (s *LevelDB) Get(_ context.Context, key []byte) ([]byte, error) {
	value, err := s.db.Get(key, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, errors.NewNotFoundError("[LevelDB][Get] key %x not found", key)
		}

		return nil, errors.NewStorageError("[LevelDB][Get] [%x] failed", key, err)
	}

	return value, nil
}

func (s *LevelDB) Set(_ context.Context, key []byte, value []byte) error {
	if err := s.db.Put(key, value, s.writeOptions); err != nil {
		return errors.NewStorageError("[LevelDB][Set] [%x] failed", key, err)
	}

	return nil
}

// SetBatch writes all entries as one leveldb batch, which is applied atomically and synced to
// disk.
func (s *LevelDB) SetBatch(_ context.Context, batch []options.KeyValue) error {
	b := new(leveldb.Batch)
	for _, kv := range batch {
		b.Put(kv.Key, kv.Value)
	}

	if err := s.db.Write(b, s.batchOptions); err != nil {
		return errors.NewStorageError("[LevelDB][SetBatch] failed to write %d entries", len(batch), err)
	}

	return nil
}

func (s *LevelDB) Del(_ context.Context, key []byte) error {
	if err := s.db.Delete(key, s.writeOptions); err != nil {
		return errors.NewStorageError("[LevelDB][Del] [%x] failed", key, err)
	}

	return nil
}

// Flush is a no-op. leveldb has no separate sync, so SetBatch syncs every batch itself and
// Set and Del are durable only with SyncWrites.
func (s *LevelDB) Flush(_ context.Context) error {
	return nil
}

func (s *LevelDB) Close(_ context.Context) error {
	if err := s.db.Close(); err != nil {
		return errors.NewStorageError("[LevelDB][Close] failed", err)
	}

	return nil
}
