// Command utxochain manages a local proof-of-work chain of value transfers.
//
//	utxochain create <address>
//	utxochain send <from> <to> <amount>
//	utxochain getbalance <address>
//	utxochain printchain [--json | --verbose]
//	utxochain verifychain
//	utxochain serve [--listen :8090]
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/bsv-blockchain/utxochain/settings"
	"github.com/bsv-blockchain/utxochain/ulogger"
	"github.com/bsv-blockchain/utxochain/util/tracing"
	"github.com/ordishs/gocore"
)

// Name used by build script for the binaries. (Please keep on single line)
const progname = "utxochain"

// Version & commit strings injected at build with -ldflags -X...
var version string
var commit string

func init() {
	gocore.SetInfo(progname, version, commit)
}

func main() {
	tSettings := settings.NewSettings()
	tSettings.Version = version
	tSettings.Commit = commit

	logger := ulogger.New(tSettings.ClientName,
		ulogger.WithLevel(tSettings.LogLevel),
		ulogger.WithLoggerType(tSettings.LoggerType),
		ulogger.WithJSON(tSettings.LoggerJSON),
		ulogger.WithWriter(os.Stderr),
	)

	if tSettings.Tracing.Enabled {
		logger.Infof("Starting tracer")

		if err := tracing.InitTracer(tSettings); err != nil {
			logger.Warnf("failed to initialize tracer: %v", err)
		}
	}

	app := newApp(os.Stdout, logger, tSettings)

	err := app.Run(os.Args)

	if shutdownErr := tracing.ShutdownTracer(context.Background()); shutdownErr != nil {
		logger.Warnf("failed to shutdown tracer: %v", shutdownErr)
	}

	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
