package errors

import (
	"encoding/json"
	"fmt"
)

// ErrDataI is an interface for error data that can be set, retrieved, and encoded.
type ErrDataI interface {
	EncodeErrorData() []byte
	Error() string
	GetData(key string) interface{}
	SetData(key string, value interface{})
}

// ErrData is a generic error data structure that implements the ErrDataI interface.
type ErrData map[string]interface{}

// Error returns a string representation of the error data.
func (e *ErrData) Error() string {
	return fmt.Sprintf(" %v", *e)
}

// SetData sets a key-value pair in the error data.
func (e *ErrData) SetData(key string, value interface{}) {
	if e == nil {
		return
	}

	(*e)[key] = value
}

// GetData retrieves the value associated with a key in the error data.
func (e *ErrData) GetData(key string) interface{} {
	if e == nil {
		return nil
	}

	return (*e)[key]
}

// EncodeErrorData encodes the error data to a byte slice using JSON encoding.
func (e *ErrData) EncodeErrorData() []byte {
	data, err := json.Marshal(e)
	if err != nil {
		return []byte{}
	}

	return data
}

// InsufficientBalanceErrData records the amounts involved in a failed spend.
type InsufficientBalanceErrData struct {
	Address   string `json:"address"`
	Requested int64  `json:"requested"`
	Available int64  `json:"available"`
}

func (d *InsufficientBalanceErrData) Error() string {
	return fmt.Sprintf("address %s requested %d, available %d", d.Address, d.Requested, d.Available)
}

func (d *InsufficientBalanceErrData) SetData(key string, value interface{}) {}

func (d *InsufficientBalanceErrData) GetData(key string) interface{} {
	switch key {
	case "address":
		return d.Address
	case "requested":
		return d.Requested
	case "available":
		return d.Available
	}

	return nil
}

func (d *InsufficientBalanceErrData) EncodeErrorData() []byte {
	data, err := json.Marshal(d)
	if err != nil {
		return []byte{}
	}

	return data
}

// NewInsufficientBalanceErrorWithData creates an insufficient balance error carrying the
// requested and available amounts.
func NewInsufficientBalanceErrorWithData(address string, requested, available int64) error {
	err := New(ERR_INSUFFICIENT_BALANCE, "not enough balance: current balance %d, requested %d", available, requested)
	err.data = &InsufficientBalanceErrData{
		Address:   address,
		Requested: requested,
		Available: available,
	}

	return err
}
