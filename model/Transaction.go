package model

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/go-wire"
	"github.com/bsv-blockchain/utxochain/errors"
)

// Input references an output of an earlier transaction. A coinbase input has an empty TxID and
// Vout -1.
type Input struct {
	TxID      string `json:"txid"`
	Vout      int32  `json:"vout"`
	ScriptSig string `json:"scriptSig"`
}

type Output struct {
	Value        int64  `json:"value"`
	ScriptPubKey string `json:"scriptPubKey"`
}

type Transaction struct {
	ID   string    `json:"id"`
	Vin  []*Input  `json:"vin"`
	Vout []*Output `json:"vout"`
}

// IsCoinbase reports whether the transaction creates new value instead of spending outputs.
func (tx *Transaction) IsCoinbase() bool {
	return len(tx.Vin) == 1 && tx.Vin[0].TxID == "" && tx.Vin[0].Vout == -1
}

// SetID assigns the content hash of the inputs and outputs as the transaction id. A
// transaction keeps the id it was first given.
func (tx *Transaction) SetID() error {
	if tx.ID != "" {
		return nil
	}

	hash, err := tx.contentHash()
	if err != nil {
		return err
	}

	tx.ID = hash.String()

	return nil
}

func (tx *Transaction) contentHash() (*chainhash.Hash, error) {
	var buf bytes.Buffer

	if err := tx.writeContent(&buf); err != nil {
		return nil, errors.NewSerializationError("failed to serialize transaction content", err)
	}

	hash := chainhash.HashH(buf.Bytes())

	return &hash, nil
}

func (tx *Transaction) Bytes() ([]byte, error) {
	var buf bytes.Buffer

	if err := tx.write(&buf); err != nil {
		return nil, errors.NewSerializationError("failed to serialize transaction %s", tx.ID, err)
	}

	return buf.Bytes(), nil
}

func NewTransactionFromBytes(b []byte) (*Transaction, error) {
	r := bytes.NewReader(b)

	tx, err := readTransaction(r)
	if err != nil {
		return nil, errors.NewSerializationError("failed to deserialize transaction", err)
	}

	if r.Len() != 0 {
		return nil, errors.NewSerializationError("%d trailing bytes after transaction", r.Len())
	}

	return tx, nil
}

func (tx *Transaction) write(w io.Writer) error {
	if err := wire.WriteVarString(w, 0, tx.ID); err != nil {
		return err
	}

	return tx.writeContent(w)
}

// writeContent writes everything that contributes to the transaction id.
func (tx *Transaction) writeContent(w io.Writer) error {
	if err := wire.WriteVarInt(w, 0, uint64(len(tx.Vin))); err != nil {
		return err
	}

	for _, in := range tx.Vin {
		if err := wire.WriteVarString(w, 0, in.TxID); err != nil {
			return err
		}

		if err := writeUint32(w, uint32(in.Vout)); err != nil { //nolint:gosec // -1 marks the coinbase input
			return err
		}

		if err := wire.WriteVarString(w, 0, in.ScriptSig); err != nil {
			return err
		}
	}

	if err := wire.WriteVarInt(w, 0, uint64(len(tx.Vout))); err != nil {
		return err
	}

	for _, out := range tx.Vout {
		if err := writeUint64(w, uint64(out.Value)); err != nil { //nolint:gosec // values are non-negative
			return err
		}

		if err := wire.WriteVarString(w, 0, out.ScriptPubKey); err != nil {
			return err
		}
	}

	return nil
}

func readTransaction(r *bytes.Reader) (*Transaction, error) {
	var err error

	tx := &Transaction{}

	if tx.ID, err = wire.ReadVarString(r, 0); err != nil {
		return nil, err
	}

	inCount, err := readCount(r)
	if err != nil {
		return nil, err
	}

	tx.Vin = make([]*Input, 0, inCount)

	for i := uint64(0); i < inCount; i++ {
		in := &Input{}

		if in.TxID, err = wire.ReadVarString(r, 0); err != nil {
			return nil, err
		}

		vout, err := readUint32(r)
		if err != nil {
			return nil, err
		}

		in.Vout = int32(vout) //nolint:gosec // round trip of the signed value written above

		if in.ScriptSig, err = wire.ReadVarString(r, 0); err != nil {
			return nil, err
		}

		tx.Vin = append(tx.Vin, in)
	}

	outCount, err := readCount(r)
	if err != nil {
		return nil, err
	}

	tx.Vout = make([]*Output, 0, outCount)

	for i := uint64(0); i < outCount; i++ {
		out := &Output{}

		value, err := readUint64(r)
		if err != nil {
			return nil, err
		}

		out.Value = int64(value) //nolint:gosec // checked below

		if out.Value < 0 {
			return nil, errors.NewSerializationError("output %d has negative value %d", i, out.Value)
		}

		if out.ScriptPubKey, err = wire.ReadVarString(r, 0); err != nil {
			return nil, err
		}

		tx.Vout = append(tx.Vout, out)
	}

	return tx, nil
}

// readCount reads a varint element count. Every element takes at least one byte, so a count
// larger than the remaining input can only come from corrupt data.
func readCount(r *bytes.Reader) (uint64, error) {
	count, err := wire.ReadVarInt(r, 0)
	if err != nil {
		return 0, err
	}

	if count > uint64(r.Len()) {
		return 0, io.ErrUnexpectedEOF
	}

	return count, nil
}

func writeUint32(w io.Writer, v uint32) error {
	var b [4]byte

	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])

	return err
}

func writeUint64(w io.Writer, v uint64) error {
	var b [8]byte

	binary.LittleEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])

	return err
}

func readUint32(r io.Reader) (uint32, error) {
	var b [4]byte

	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(b[:]), nil
}

func readUint64(r io.Reader) (uint64, error) {
	var b [8]byte

	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint64(b[:]), nil
}
