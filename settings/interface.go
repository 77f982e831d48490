package settings

import (
	"net/url"
	"time"
)

type LedgerSettings struct {
	// Store is the blob store URL holding the serialized blocks and the tip pointer.
	Store             *url.URL
	TargetBits        int
	MineReward        bool
	UTXOCacheTTL      time.Duration
	HTTPListenAddress string
}

type BadgerSettings struct {
	SyncWrites bool
}

type LevelDBSettings struct {
	CacheSizeMB int
}

// TracingSettings configures span export. With tracing off spans are still started, on otel's
// no-op provider.
type TracingSettings struct {
	Enabled      bool
	CollectorURL *url.URL
	SampleRate   float64
}

type Settings struct {
	ClientName string
	// Version and Commit are set at build time, not read from config.
	Version    string
	Commit     string
	LogLevel   string
	LoggerType string
	LoggerJSON bool
	DataFolder string
	Ledger     LedgerSettings
	Badger     BadgerSettings
	LevelDB    LevelDBSettings
	Tracing    TracingSettings
}
