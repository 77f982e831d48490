// Package sql stores blobs in a single table of a postgres or sqlite database.
package sql

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"

	"github.com/bsv-blockchain/utxochain/errors"
	"github.com/bsv-blockchain/utxochain/stores/blob/options"
	"github.com/bsv-blockchain/utxochain/ulogger"
	"github.com/bsv-blockchain/utxochain/util/usql"
	"github.com/labstack/gommon/random"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const upsertQuery = "INSERT INTO blob (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET value = $2"

type SQL struct {
	url    *url.URL
	db     *usql.DB
	logger ulogger.Logger
}

func New(logger ulogger.Logger, storeURL *url.URL, opts ...options.StoreOption) (*SQL, error) {
	logger = logger.New("sql")
	storeOptions := options.NewStoreOptions(opts...)

	var (
		db  *usql.DB
		err error
		q   string
	)

	switch storeURL.Scheme {
	case "postgres":
		dbHost := storeURL.Hostname()
		dbPort, _ := strconv.Atoi(storeURL.Port())
		dbName := ""

		if len(storeURL.Path) > 1 {
			dbName = storeURL.Path[1:]
		}

		dbUser := ""
		dbPassword := ""

		if storeURL.User != nil {
			dbUser = storeURL.User.Username()
			dbPassword, _ = storeURL.User.Password()
		}

		sslMode := storeURL.Query().Get("sslmode")
		if sslMode == "" {
			sslMode = "disable"
		}

		dbInfo := fmt.Sprintf("user=%s password=%s dbname=%s sslmode=%s host=%s port=%d", dbUser, dbPassword, dbName, sslMode, dbHost, dbPort)

		db, err = usql.Open(storeURL.Scheme, dbInfo)
		if err != nil {
			return nil, errors.NewStorageError("failed to open postgres DB", err)
		}

		q = `CREATE TABLE IF NOT EXISTS blob (
	     key BYTEA PRIMARY KEY
	    ,value BYTEA NOT NULL
	  );`

	case "sqlite", "sqlitememory":
		var filename string

		if storeURL.Scheme == "sqlitememory" {
			filename = fmt.Sprintf("file:%s?mode=memory&cache=shared", random.String(16))
		} else {
			folder := storeOptions.DataFolder
			if err = os.MkdirAll(folder, 0o755); err != nil {
				return nil, errors.NewStorageError("failed to create data folder %s", folder, err)
			}

			dbName := "blob"
			if len(storeURL.Path) > 1 {
				dbName = storeURL.Path[1:]
			}

			filename, err = filepath.Abs(path.Join(folder, fmt.Sprintf("%s.db", dbName)))
			if err != nil {
				return nil, errors.NewStorageError("failed to get absolute path for sqlite DB", err)
			}

			filename = fmt.Sprintf("%s?cache=shared&_pragma=busy_timeout=10000&_pragma=journal_mode=WAL", filename)
		}

		db, err = usql.Open("sqlite", filename)
		if err != nil {
			return nil, errors.NewStorageError("failed to open sqlite DB", err)
		}

		if storeURL.Scheme == "sqlitememory" {
			// the in-memory database lives as long as one connection to it is open
			db.SetMaxIdleConns(1)
			db.SetConnMaxLifetime(0)
		}

		q = `CREATE TABLE IF NOT EXISTS blob (
			 key BLOB PRIMARY KEY
			,value BLOB NOT NULL
		);`

	default:
		return nil, errors.NewConfigurationError("unknown database engine: %s", storeURL.Scheme)
	}

	if _, err = db.ExecContext(context.Background(), q); err != nil {
		_ = db.Close()
		return nil, errors.NewStorageError("failed to create blob table", err)
	}

	logger.Infof("[SQL] using %s blob store", storeURL.Scheme)

	return &SQL{
		url:    storeURL,
		db:     db,
		logger: logger,
	}, nil
}

func (m *SQL) Health(ctx context.Context, _ bool) (int, string, error) {
	if err := m.db.PingContext(ctx); err != nil {
		return http.StatusServiceUnavailable, fmt.Sprintf("%s Store", m.url.Scheme), err
	}

	return http.StatusOK, fmt.Sprintf("%s Store", m.url.Scheme), nil
}

func (m *SQL) Exists(ctx context.Context, key []byte) (bool, error) {
	var exists bool

	if err := m.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM blob WHERE key = $1)", key).Scan(&exists); err != nil {
		return false, errors.NewStorageError("[SQL][Exists] [%x] failed", key, err)
	}

	return exists, nil
}

func (m *SQL) Get(ctx context.Context, key []byte) ([]byte, error) {
	var value []byte

	if err := m.db.QueryRowContext(ctx, "SELECT value FROM blob WHERE key = $1", key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("[SQL][Get] key %x not found", key)
		}

		return nil, errors.NewStorageError("[SQL][Get] [%x] failed", key, err)
	}

	return value, nil
}

func (m *SQL) Set(ctx context.Context, key []byte, value []byte) error {
	if _, err := m.db.ExecContext(ctx, upsertQuery, key, value); err != nil {
		return errors.NewStorageError("[SQL][Set] [%x] failed", key, err)
	}

	return nil
}

// SetBatch writes all entries in one database transaction.
func (m *SQL) SetBatch(ctx context.Context, batch []options.KeyValue) error {
	err := m.db.WithTx(ctx, func(tx *usql.Tx) error {
		for _, kv := range batch {
			if _, err := tx.ExecContext(ctx, upsertQuery, kv.Key, kv.Value); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return errors.NewStorageError("[SQL][SetBatch] failed to write %d entries", len(batch), err)
	}

	return nil
}

func (m *SQL) Del(ctx context.Context, key []byte) error {
	if _, err := m.db.ExecContext(ctx, "DELETE FROM blob WHERE key = $1", key); err != nil {
		return errors.NewStorageError("[SQL][Del] [%x] failed", key, err)
	}

	return nil
}

// Flush is a no-op, committed statements are durable.
func (m *SQL) Flush(_ context.Context) error {
	return nil
}

func (m *SQL) Close(_ context.Context) error {
	if err := m.db.Close(); err != nil {
		return errors.NewStorageError("[SQL][Close] failed", err)
	}

	return nil
}
