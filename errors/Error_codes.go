package errors

import "strconv"

// ERR is the numeric error code carried by every *Error.
type ERR int32

const (
	ERR_UNKNOWN              ERR = 0
	ERR_INVALID_ARGUMENT     ERR = 1
	ERR_NOT_FOUND            ERR = 3
	ERR_PROCESSING           ERR = 4
	ERR_CONFIGURATION        ERR = 5
	ERR_CONTEXT_CANCELED     ERR = 7
	ERR_ERROR                ERR = 9
	ERR_BLOCK_NOT_FOUND      ERR = 10
	ERR_BLOCK_INVALID        ERR = 11
	ERR_BLOCK_EXISTS         ERR = 12
	ERR_BLOCK_ERROR          ERR = 13
	ERR_CHAIN_NOT_FOUND      ERR = 14
	ERR_TX_INVALID           ERR = 31
	ERR_INSUFFICIENT_BALANCE ERR = 32
	ERR_STORAGE_UNAVAILABLE  ERR = 59
	ERR_STORAGE_ERROR        ERR = 69
	ERR_SERIALIZATION        ERR = 70
	ERR_ENCODING             ERR = 71
)

var (
	ERR_name = map[int32]string{
		0:  "UNKNOWN",
		1:  "INVALID_ARGUMENT",
		3:  "NOT_FOUND",
		4:  "PROCESSING",
		5:  "CONFIGURATION",
		7:  "CONTEXT_CANCELED",
		9:  "ERROR",
		10: "BLOCK_NOT_FOUND",
		11: "BLOCK_INVALID",
		12: "BLOCK_EXISTS",
		13: "BLOCK_ERROR",
		14: "CHAIN_NOT_FOUND",
		31: "TX_INVALID",
		32: "INSUFFICIENT_BALANCE",
		59: "STORAGE_UNAVAILABLE",
		69: "STORAGE_ERROR",
		70: "SERIALIZATION",
		71: "ENCODING",
	}

	ERR_value = func() map[string]int32 {
		m := make(map[string]int32, len(ERR_name))
		for k, v := range ERR_name {
			m[v] = k
		}

		return m
	}()
)

func (x ERR) String() string {
	if name, ok := ERR_name[int32(x)]; ok {
		return name
	}

	return strconv.Itoa(int(x))
}
