package utxo

import (
	"time"

	"github.com/bsv-blockchain/utxochain/model"
)

type Option func(*Resolver)

// WithCredentialMatcher replaces the plain string comparison used to match credentials to
// addresses.
func WithCredentialMatcher(matcher model.CredentialMatcher) Option {
	return func(r *Resolver) {
		r.matcher = matcher
	}
}

// WithCache keeps the unspent outputs per address for ttl. Entries are keyed by the tip they
// were computed at, so a new block never serves stale results. A ttl of 0 disables the cache.
func WithCache(ttl time.Duration) Option {
	return func(r *Resolver) {
		r.cacheTTL = ttl
	}
}
