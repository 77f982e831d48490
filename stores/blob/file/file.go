// Package file stores each blob as a file named after the hex encoded key, next to a
// .sha256 checksum file that is verified on read.
package file

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/bsv-blockchain/utxochain/errors"
	"github.com/bsv-blockchain/utxochain/stores/blob/options"
	"github.com/bsv-blockchain/utxochain/ulogger"
)

const checksumExtension = ".sha256"

// fileSemaphore bounds the number of files open at the same time
var fileSemaphore = make(chan struct{}, 128)

type File struct {
	path    string
	logger  ulogger.Logger
	options *options.Options
}

func New(logger ulogger.Logger, dir string, opts ...options.StoreOption) (*File, error) {
	logger = logger.New("file")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.NewStorageError("[File] failed to create directory %s", dir, err)
	}

	return &File{
		path:    dir,
		logger:  logger,
		options: options.NewStoreOptions(opts...),
	}, nil
}

func (s *File) filename(key []byte) string {
	return filepath.Join(s.path, hex.EncodeToString(key))
}

func (s *File) Health(_ context.Context, _ bool) (int, string, error) {
	fileSemaphore <- struct{}{}
	defer func() {
		<-fileSemaphore
	}()

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return http.StatusInternalServerError, "File Store: Path does not exist", err
	}

	tempFile, err := os.CreateTemp(s.path, "health-check-*.tmp")
	if err != nil {
		return http.StatusInternalServerError, "File Store: Unable to create temporary file", err
	}

	tempFileName := tempFile.Name()
	defer os.Remove(tempFileName)

	testData := []byte("health check")
	if _, err := tempFile.Write(testData); err != nil {
		_ = tempFile.Close()
		return http.StatusInternalServerError, "File Store: Unable to write to file", err
	}

	_ = tempFile.Close()

	readData, err := os.ReadFile(tempFileName)
	if err != nil {
		return http.StatusInternalServerError, "File Store: Unable to read file", err
	}

	if !bytes.Equal(readData, testData) {
		return http.StatusInternalServerError, "File Store: Data integrity check failed", nil
	}

	return http.StatusOK, "File Store: Healthy", nil
}

func (s *File) Exists(_ context.Context, key []byte) (bool, error) {
	fileSemaphore <- struct{}{}
	defer func() {
		<-fileSemaphore
	}()

	_, err := os.Stat(s.filename(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}

		return false, errors.NewStorageError("[File][Exists] [%x] failed to stat file", key, err)
	}

	return true, nil
}

func (s *File) Get(_ context.Context, key []byte) ([]byte, error) {
	fileSemaphore <- struct{}{}
	defer func() {
		<-fileSemaphore
	}()

	filename := s.filename(key)

	value, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("[File][Get] [%x] not found", key)
		}

		return nil, errors.NewStorageError("[File][Get] [%x] failed to read file", key, err)
	}

	if err = s.verifyChecksum(filename, value); err != nil {
		return nil, err
	}

	return value, nil
}

func (s *File) verifyChecksum(filename string, value []byte) error {
	checksum, err := os.ReadFile(filename + checksumExtension)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Warnf("[File] no checksum file for %s", filename)
			return nil
		}

		return errors.NewStorageError("[File] failed to read checksum for %s", filename, err)
	}

	fields := strings.Fields(string(checksum))
	if len(fields) == 0 {
		return errors.NewStorageError("[File] empty checksum file for %s", filename)
	}

	sum := sha256.Sum256(value)
	if fields[0] != hex.EncodeToString(sum[:]) {
		return errors.NewStorageError("[File] checksum mismatch for %s", filename)
	}

	return nil
}

func (s *File) Set(_ context.Context, key []byte, value []byte) error {
	fileSemaphore <- struct{}{}
	defer func() {
		<-fileSemaphore
	}()

	return s.write(key, value)
}

// SetBatch writes the entries one after the other, in order.
func (s *File) SetBatch(_ context.Context, batch []options.KeyValue) error {
	fileSemaphore <- struct{}{}
	defer func() {
		<-fileSemaphore
	}()

	for _, kv := range batch {
		if err := s.write(kv.Key, kv.Value); err != nil {
			return err
		}
	}

	return nil
}

func (s *File) write(key []byte, value []byte) error {
	filename := s.filename(key)

	randNum, err := rand.Int(rand.Reader, big.NewInt(1<<63-1))
	if err != nil {
		return errors.NewStorageError("[File][Set] failed to generate random number", err)
	}

	sum := sha256.Sum256(value)
	// Format: "<hash>  <filename>\n", two spaces as sha256sum writes it
	checksum := fmt.Sprintf("%x  %s\n", sum, filepath.Base(filename))

	// the old checksum goes first, a blob without a checksum file is read unverified while a
	// stale checksum would fail every read
	if err = os.Remove(filename + checksumExtension); err != nil && !os.IsNotExist(err) {
		return errors.NewStorageError("[File][Set] [%s] failed to remove old checksum", filename, err)
	}

	if err = s.writeAtomic(filename, value, randNum); err != nil {
		return err
	}

	return s.writeAtomic(filename+checksumExtension, []byte(checksum), randNum)
}

func (s *File) writeAtomic(filename string, data []byte, randNum *big.Int) error {
	tmpFilename := fmt.Sprintf("%s.%d.tmp", filename, randNum)

	f, err := os.Create(tmpFilename)
	if err != nil {
		return errors.NewStorageError("[File][Set] [%s] failed to create file", filename, err)
	}

	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpFilename)

		return errors.NewStorageError("[File][Set] [%s] failed to write data to file", filename, err)
	}

	if s.options.SyncWrites {
		if err = f.Sync(); err != nil {
			_ = f.Close()
			_ = os.Remove(tmpFilename)

			return errors.NewStorageError("[File][Set] [%s] failed to sync file", filename, err)
		}
	}

	if err = f.Close(); err != nil {
		_ = os.Remove(tmpFilename)
		return errors.NewStorageError("[File][Set] [%s] failed to close file", filename, err)
	}

	if err = os.Rename(tmpFilename, filename); err != nil {
		_ = os.Remove(tmpFilename)
		return errors.NewStorageError("[File][Set] [%s] failed to rename file from tmp", filename, err)
	}

	return nil
}

func (s *File) Del(_ context.Context, key []byte) error {
	fileSemaphore <- struct{}{}
	defer func() {
		<-fileSemaphore
	}()

	filename := s.filename(key)

	if err := os.Remove(filename); err != nil && !os.IsNotExist(err) {
		return errors.NewStorageError("[File][Del] [%x] failed to remove file", key, err)
	}

	if err := os.Remove(filename + checksumExtension); err != nil && !os.IsNotExist(err) {
		return errors.NewStorageError("[File][Del] [%x] failed to remove checksum file", key, err)
	}

	return nil
}

// Flush syncs the directory so completed renames survive a crash.
func (s *File) Flush(_ context.Context) error {
	dir, err := os.Open(s.path)
	if err != nil {
		return errors.NewStorageError("[File][Flush] failed to open %s", s.path, err)
	}
	defer dir.Close()

	if err = dir.Sync(); err != nil {
		return errors.NewStorageError("[File][Flush] failed to sync %s", s.path, err)
	}

	return nil
}

func (s *File) Close(_ context.Context) error {
	return nil
}
