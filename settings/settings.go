package settings

import "path/filepath"

// NewSettings reads every setting from the gocore config (settings.conf, settings_local.conf and
// environment overrides), falling back to the defaults below.
func NewSettings() *Settings {
	dataFolder := getString("dataFolder", "data")

	return &Settings{
		ClientName: getString("clientName", "utxochain"),
		LogLevel:   getString("logLevel", "INFO"),
		LoggerType: getString("logger_type", "zerolog"),
		LoggerJSON: getBool("logger_json", false),
		DataFolder: dataFolder,
		Ledger: LedgerSettings{
			Store:             getURL("ledger_store", defaultStoreURL(dataFolder)),
			TargetBits:        getInt("ledger_targetBits", 16),
			MineReward:        getBool("ledger_mineReward", false),
			UTXOCacheTTL:      getDuration("ledger_utxoCacheTTL", 0),
			HTTPListenAddress: getString("ledger_httpListenAddress", ":8090"),
		},
		Badger: BadgerSettings{
			SyncWrites: getBool("badger_syncWrites", true),
		},
		LevelDB: LevelDBSettings{
			CacheSizeMB: getInt("leveldb_cacheSizeMB", 8),
		},
		Tracing: TracingSettings{
			Enabled:      getBool("tracing_enabled", false),
			CollectorURL: getURL("tracing_collectorURL", "http://localhost:4318"),
			SampleRate:   getFloat64("tracing_sampleRate", 0.01),
		},
	}
}

func defaultStoreURL(dataFolder string) string {
	if filepath.IsAbs(dataFolder) {
		return "badger://" + filepath.ToSlash(filepath.Join(dataFolder, "ledger"))
	}

	return "badger://./" + filepath.ToSlash(filepath.Join(dataFolder, "ledger"))
}
