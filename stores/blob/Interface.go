// Package blob provides the key/value storage the chain is persisted in, with a backend per
// store URL scheme.
package blob

import (
	"context"

	"github.com/bsv-blockchain/utxochain/stores/blob/options"
)

type KeyValue = options.KeyValue

// Store is an opaque byte key/value store.
//
// Get returns an ERR_NOT_FOUND error for a missing key. SetBatch applies the writes in order;
// backends with transactions apply them atomically, the others write them one by one, so a
// crash can leave a prefix of the batch behind. Flush makes completed writes durable.
type Store interface {
	Health(ctx context.Context, checkLiveness bool) (int, string, error)
	Exists(ctx context.Context, key []byte) (bool, error)
	Get(ctx context.Context, key []byte) ([]byte, error)
	Set(ctx context.Context, key []byte, value []byte) error
	SetBatch(ctx context.Context, batch []KeyValue) error
	Del(ctx context.Context, key []byte) error
	Flush(ctx context.Context) error
	Close(ctx context.Context) error
}
