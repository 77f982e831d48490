// Package logger wraps a blob store and logs every call at debug level together with the
// call sites that triggered it. The factory applies it when the store URL has logger=true.
package logger

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bsv-blockchain/utxochain/stores/blob/options"
	"github.com/bsv-blockchain/utxochain/ulogger"
)

// blobStore mirrors blob.Store, which cannot be imported from here without a cycle.
type blobStore interface {
	Health(ctx context.Context, checkLiveness bool) (int, string, error)
	Exists(ctx context.Context, key []byte) (bool, error)
	Get(ctx context.Context, key []byte) ([]byte, error)
	Set(ctx context.Context, key []byte, value []byte) error
	SetBatch(ctx context.Context, batch []options.KeyValue) error
	Del(ctx context.Context, key []byte) error
	Flush(ctx context.Context) error
	Close(ctx context.Context) error
}

type Logger struct {
	logger ulogger.Logger
	store  blobStore
}

func New(logger ulogger.Logger, store blobStore) *Logger {
	return &Logger{
		logger: logger,
		store:  store,
	}
}

func caller() string {
	var callers []string

	depth := 5

	for i := 0; i < depth; i++ {
		pc, file, line, ok := runtime.Caller(2 + i)
		if !ok {
			break
		}

		folders := strings.Split(file, string(filepath.Separator))
		if len(folders) > 2 {
			folders = folders[len(folders)-2:]
		}

		file = filepath.Join(folders...)

		funcName := runtime.FuncForPC(pc).Name()
		funcPaths := strings.Split(funcName, "/")
		funcName = funcPaths[len(funcPaths)-1]

		callers = append(callers, fmt.Sprintf("called from %s: %s:%d", funcName, file, line))
	}

	return strings.Join(callers, ",")
}

func (s *Logger) Health(ctx context.Context, checkLiveness bool) (int, string, error) {
	s.logger.Debugf("[BlobStore][logger][Health] : %s", caller())
	return s.store.Health(ctx, checkLiveness)
}

func (s *Logger) Exists(ctx context.Context, key []byte) (bool, error) {
	exists, err := s.store.Exists(ctx, key)
	s.logger.Debugf("[BlobStore][logger][Exists] key %s, exists %t, err %v : %s", key, exists, err, caller())

	return exists, err
}

func (s *Logger) Get(ctx context.Context, key []byte) ([]byte, error) {
	value, err := s.store.Get(ctx, key)
	s.logger.Debugf("[BlobStore][logger][Get] key %s, size %d, err %v : %s", key, len(value), err, caller())

	return value, err
}

func (s *Logger) Set(ctx context.Context, key []byte, value []byte) error {
	err := s.store.Set(ctx, key, value)
	s.logger.Debugf("[BlobStore][logger][Set] key %s, size %d, err %v : %s", key, len(value), err, caller())

	return err
}

func (s *Logger) SetBatch(ctx context.Context, batch []options.KeyValue) error {
	err := s.store.SetBatch(ctx, batch)

	keys := make([]string, 0, len(batch))
	for _, kv := range batch {
		keys = append(keys, string(kv.Key))
	}

	s.logger.Debugf("[BlobStore][logger][SetBatch] keys [%s], err %v : %s", strings.Join(keys, " "), err, caller())

	return err
}

func (s *Logger) Del(ctx context.Context, key []byte) error {
	err := s.store.Del(ctx, key)
	s.logger.Debugf("[BlobStore][logger][Del] key %s, err %v : %s", key, err, caller())

	return err
}

func (s *Logger) Flush(ctx context.Context) error {
	err := s.store.Flush(ctx)
	s.logger.Debugf("[BlobStore][logger][Flush] err %v : %s", err, caller())

	return err
}

func (s *Logger) Close(ctx context.Context) error {
	err := s.store.Close(ctx)
	s.logger.Debugf("[BlobStore][logger][Close] err %v : %s", err, caller())

	return err
}
