// Package usql wraps database/sql with per-statement timing stats.
package usql

import (
	"context"
	"database/sql"

	"github.com/ordishs/gocore"
)

var (
	stat = gocore.NewStat("SQL")
)

// DB wraps sql.DB and records the time of every statement in the gocore "SQL" stat, keyed by
// the query text.
type DB struct {
	*sql.DB
}

func Open(driverName, dataSourceName string) (*DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	start := gocore.CurrentTime()
	defer func() {
		stat.NewStat(query).AddTime(start)
	}()

	return db.DB.QueryRowContext(ctx, query, args...)
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	start := gocore.CurrentTime()
	defer func() {
		stat.NewStat(query).AddTime(start)
	}()

	return db.DB.ExecContext(ctx, query, args...)
}

// Tx is a transaction whose statements are timed like those of DB.
type Tx struct {
	*sql.Tx
}

func (tx *Tx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	start := gocore.CurrentTime()
	defer func() {
		stat.NewStat(query).AddTime(start)
	}()

	return tx.Tx.ExecContext(ctx, query, args...)
}

// WithTx runs fn in a transaction, committing when fn succeeds and rolling back otherwise.
func (db *DB) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err = fn(&Tx{sqlTx}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}

	return sqlTx.Commit()
}
