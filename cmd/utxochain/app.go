package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"

	"github.com/bsv-blockchain/utxochain/errors"
	"github.com/bsv-blockchain/utxochain/model"
	"github.com/bsv-blockchain/utxochain/services/ledger"
	"github.com/bsv-blockchain/utxochain/services/ledger/httpimpl"
	"github.com/bsv-blockchain/utxochain/settings"
	"github.com/bsv-blockchain/utxochain/ulogger"
	"github.com/davecgh/go-spew/spew"
	jsoniter "github.com/json-iterator/go"
	"github.com/urfave/cli/v2"
)

func newApp(out io.Writer, logger ulogger.Logger, tSettings *settings.Settings) *cli.App {
	return &cli.App{
		Name:    progname,
		Usage:   "a local proof-of-work chain of value transfers",
		Version: version,
		Writer:  out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "store",
				Usage: "store URL, overrides the ledger_store setting",
			},
		},
		Before: func(c *cli.Context) error {
			if s := c.String("store"); s != "" {
				storeURL, err := url.Parse(s)
				if err != nil {
					return errors.NewInvalidArgumentError("invalid store url %q", s, err)
				}

				tSettings.Ledger.Store = storeURL
			}

			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "create",
				Usage:     "Create a blockchain and send the genesis reward to address",
				ArgsUsage: "<address>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return errors.NewInvalidArgumentError("usage: create <address>")
					}

					return withLedger(c.Context, logger, tSettings, func(l *ledger.Ledger) error {
						genesis, err := l.Create(c.Context, c.Args().Get(0))
						if err != nil {
							return err
						}

						_, err = fmt.Fprintf(out, "Done! Genesis block %s\n", genesis.Hash)

						return err
					})
				},
			},
			{
				Name:      "send",
				Usage:     "Send amount from one address to another and mine the block",
				ArgsUsage: "<from> <to> <amount>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "mine-reward",
						Usage: "also pay a coinbase reward to the sender",
						Value: tSettings.Ledger.MineReward,
					},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() != 3 {
						return errors.NewInvalidArgumentError("usage: send <from> <to> <amount>")
					}

					amount, err := strconv.ParseInt(c.Args().Get(2), 10, 64)
					if err != nil {
						return errors.NewInvalidArgumentError("invalid amount %q", c.Args().Get(2), err)
					}

					tSettings.Ledger.MineReward = c.Bool("mine-reward")

					return withLedger(c.Context, logger, tSettings, func(l *ledger.Ledger) error {
						block, err := l.Send(c.Context, c.Args().Get(0), c.Args().Get(1), amount)
						if err != nil {
							return err
						}

						_, err = fmt.Fprintf(out, "Success! Block %s\n", block.Hash)

						return err
					})
				},
			},
			{
				Name:      "getbalance",
				Usage:     "Print the balance of address",
				ArgsUsage: "<address>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return errors.NewInvalidArgumentError("usage: getbalance <address>")
					}

					address := c.Args().Get(0)

					return withLedger(c.Context, logger, tSettings, func(l *ledger.Ledger) error {
						balance, err := l.GetBalance(c.Context, address)
						if err != nil {
							return err
						}

						_, err = fmt.Fprintf(out, "Balance of '%s': %d\n", address, balance)

						return err
					})
				},
			},
			{
				Name:  "balances",
				Usage: "Print the balance of every address holding unspent outputs",
				Action: func(c *cli.Context) error {
					return withLedger(c.Context, logger, tSettings, func(l *ledger.Ledger) error {
						balances, err := l.Balances(c.Context)
						if err != nil {
							return err
						}

						addresses := make([]string, 0, len(balances))
						for address := range balances {
							addresses = append(addresses, address)
						}

						sort.Strings(addresses)

						for _, address := range addresses {
							if _, err = fmt.Fprintf(out, "%s: %d\n", address, balances[address]); err != nil {
								return err
							}
						}

						return nil
					})
				},
			},
			{
				Name:  "printchain",
				Usage: "Print all blocks from the tip back to genesis",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "print the blocks as JSON"},
					&cli.BoolFlag{Name: "verbose", Usage: "dump the blocks with all fields"},
				},
				Action: func(c *cli.Context) error {
					return withLedger(c.Context, logger, tSettings, func(l *ledger.Ledger) error {
						blocks, err := l.Blocks(c.Context)
						if err != nil {
							return err
						}

						switch {
						case c.Bool("json"):
							b, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(blocks, "", "  ")
							if err != nil {
								return errors.NewSerializationError("failed to marshal blocks", err)
							}

							_, err = fmt.Fprintln(out, string(b))

							return err

						case c.Bool("verbose"):
							spew.Fdump(out, blocks)
							return nil

						default:
							return printBlocks(out, blocks)
						}
					})
				},
			},
			{
				Name:  "verifychain",
				Usage: "Check the links and proof of work of every block",
				Action: func(c *cli.Context) error {
					return withLedger(c.Context, logger, tSettings, func(l *ledger.Ledger) error {
						count, err := l.VerifyChain(c.Context)
						if err != nil {
							return err
						}

						_, err = fmt.Fprintf(out, "Chain is valid: %d blocks\n", count)

						return err
					})
				},
			},
			{
				Name:  "serve",
				Usage: "Serve the read-only HTTP API",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Usage: "listen address",
						Value: tSettings.Ledger.HTTPListenAddress,
					},
				},
				Action: func(c *cli.Context) error {
					ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
					defer stop()

					return withLedger(ctx, logger, tSettings, func(l *ledger.Ledger) error {
						return httpimpl.New(logger, l).Start(ctx, c.String("listen"))
					})
				},
			},
		},
	}
}

// withLedger opens the configured store for the duration of fn.
func withLedger(ctx context.Context, logger ulogger.Logger, tSettings *settings.Settings, fn func(l *ledger.Ledger) error) (err error) {
	store, err := ledger.OpenStore(logger, tSettings)
	if err != nil {
		return err
	}

	l := ledger.New(logger, tSettings, store)

	defer func() {
		if closeErr := l.Close(ctx); closeErr != nil && err == nil {
			err = errors.NewStorageError("failed to close store", closeErr)
		}
	}()

	return fn(l)
}

func printBlocks(out io.Writer, blocks []*model.Block) error {
	for _, block := range blocks {
		pow, err := block.VerifyProofOfWork()
		if err != nil {
			return err
		}

		if _, err = fmt.Fprintf(out, "============ Block %s ============\n", block.Hash); err != nil {
			return err
		}

		_, _ = fmt.Fprintf(out, "Prev. block: %s\n", block.PrevBlockHash)
		_, _ = fmt.Fprintf(out, "Timestamp: %d\n", block.Timestamp)
		_, _ = fmt.Fprintf(out, "Nonce: %d\n", block.Nonce)
		_, _ = fmt.Fprintf(out, "Bits: %d\n", block.Bits)
		_, _ = fmt.Fprintf(out, "PoW: %s\n", strconv.FormatBool(pow))

		for _, tx := range block.Transactions {
			_, _ = fmt.Fprintf(out, "--- Transaction %s:\n", tx.ID)

			for i, in := range tx.Vin {
				_, _ = fmt.Fprintf(out, "     Input %d: txid %s, out %d, script %q\n", i, in.TxID, in.Vout, in.ScriptSig)
			}

			for i, o := range tx.Vout {
				_, _ = fmt.Fprintf(out, "     Output %d: value %d, script %q\n", i, o.Value, o.ScriptPubKey)
			}
		}

		_, _ = fmt.Fprintln(out)
	}

	return nil
}
