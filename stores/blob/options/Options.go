// Package options holds the settings shared by the blob store backends.
package options

type Options struct {
	// SyncWrites makes every write durable before it returns, where the backend supports it.
	SyncWrites bool
	// CacheSizeMB sizes the block cache of backends that keep one.
	CacheSizeMB int
	// DataFolder is the directory relative paths and sqlite databases are resolved against.
	DataFolder string
}

type StoreOption func(*Options)

func NewStoreOptions(opts ...StoreOption) *Options {
	options := &Options{
		SyncWrites:  true,
		CacheSizeMB: 8,
		DataFolder:  "data",
	}

	for _, opt := range opts {
		opt(options)
	}

	return options
}

func WithSyncWrites(sync bool) StoreOption {
	return func(o *Options) {
		o.SyncWrites = sync
	}
}

func WithCacheSizeMB(size int) StoreOption {
	return func(o *Options) {
		o.CacheSizeMB = size
	}
}

func WithDataFolder(folder string) StoreOption {
	return func(o *Options) {
		o.DataFolder = folder
	}
}

// KeyValue is a single write of a batch.
type KeyValue struct {
	Key   []byte
	Value []byte
}
