package model

import (
	"context"
	"fmt"

	"github.com/bsv-blockchain/utxochain/errors"
)

// CoinbaseReward is the value created by every coinbase transaction.
const CoinbaseReward int64 = 100

// NewCoinbaseTransaction creates a transaction paying CoinbaseReward to the address to. The
// data is stored in the coinbase input and defaults to a reward memo. Two coinbase
// transactions to the same address with the same data share an id, so callers minting more
// than one reward should pass distinct data.
func NewCoinbaseTransaction(to, data string) (*Transaction, error) {
	if data == "" {
		data = fmt.Sprintf("Reward to '%s'", to)
	}

	tx := &Transaction{
		Vin: []*Input{{
			TxID:      "",
			Vout:      -1,
			ScriptSig: data,
		}},
		Vout: []*Output{{
			Value:        CoinbaseReward,
			ScriptPubKey: to,
		}},
	}

	if err := tx.SetID(); err != nil {
		return nil, err
	}

	return tx, nil
}

// NewUTXOTransaction moves amount from one address to another, spending outputs chosen by
// selector and returning any change to from.
func NewUTXOTransaction(ctx context.Context, from, to string, amount int64, selector OutputSelector) (*Transaction, error) {
	if amount <= 0 {
		return nil, errors.NewInvalidArgumentError("amount must be positive, got %d", amount)
	}

	selection, err := selector.FindSpendableOutputs(ctx, from, amount)
	if err != nil {
		return nil, err
	}

	if selection.Total < amount {
		return nil, errors.NewInsufficientBalanceErrorWithData(from, amount, selection.Total)
	}

	tx := &Transaction{
		Vin: make([]*Input, 0, selection.Len()),
	}

	for _, txID := range selection.TxIDs() {
		for _, index := range selection.Outputs(txID) {
			tx.Vin = append(tx.Vin, &Input{
				TxID:      txID,
				Vout:      int32(index), //nolint:gosec // output indices are small
				ScriptSig: from,
			})
		}
	}

	tx.Vout = append(tx.Vout, &Output{Value: amount, ScriptPubKey: to})

	if change := selection.Total - amount; change > 0 {
		tx.Vout = append(tx.Vout, &Output{Value: change, ScriptPubKey: from})
	}

	if err = tx.SetID(); err != nil {
		return nil, err
	}

	return tx, nil
}
