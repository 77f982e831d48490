package errors

var (
	ErrUnknown             = New(ERR_UNKNOWN, "unknown error")
	ErrInvalidArgument     = New(ERR_INVALID_ARGUMENT, "invalid argument")
	ErrNotFound            = New(ERR_NOT_FOUND, "not found")
	ErrProcessing          = New(ERR_PROCESSING, "error processing")
	ErrConfiguration       = New(ERR_CONFIGURATION, "configuration error")
	ErrContextCanceled     = New(ERR_CONTEXT_CANCELED, "context canceled")
	ErrError               = New(ERR_ERROR, "generic error")
	ErrBlockNotFound       = New(ERR_BLOCK_NOT_FOUND, "block not found")
	ErrBlockInvalid        = New(ERR_BLOCK_INVALID, "block invalid")
	ErrBlockExists         = New(ERR_BLOCK_EXISTS, "block exists")
	ErrBlockError          = New(ERR_BLOCK_ERROR, "block error")
	ErrChainNotFound       = New(ERR_CHAIN_NOT_FOUND, "no existing blockchain found")
	ErrTxInvalid           = New(ERR_TX_INVALID, "tx invalid")
	ErrInsufficientBalance = New(ERR_INSUFFICIENT_BALANCE, "insufficient balance")
	ErrStorageUnavailable  = New(ERR_STORAGE_UNAVAILABLE, "storage unavailable")
	ErrStorageError        = New(ERR_STORAGE_ERROR, "storage error")
	ErrSerialization       = New(ERR_SERIALIZATION, "serialization error")
	ErrEncoding            = New(ERR_ENCODING, "encoding error")
)

// errors initialization functions

func NewUnknownError(message string, params ...interface{}) error {
	return New(ERR_UNKNOWN, message, params...)
}
func NewInvalidArgumentError(message string, params ...interface{}) error {
	return New(ERR_INVALID_ARGUMENT, message, params...)
}
func NewNotFoundError(message string, params ...interface{}) error {
	return New(ERR_NOT_FOUND, message, params...)
}
func NewProcessingError(message string, params ...interface{}) error {
	return New(ERR_PROCESSING, message, params...)
}
func NewConfigurationError(message string, params ...interface{}) error {
	return New(ERR_CONFIGURATION, message, params...)
}
func NewContextCanceledError(message string, params ...interface{}) error {
	return New(ERR_CONTEXT_CANCELED, message, params...)
}
func NewError(message string, params ...interface{}) error {
	return New(ERR_ERROR, message, params...)
}
func NewBlockNotFoundError(message string, params ...interface{}) error {
	return New(ERR_BLOCK_NOT_FOUND, message, params...)
}
func NewBlockInvalidError(message string, params ...interface{}) error {
	return New(ERR_BLOCK_INVALID, message, params...)
}
func NewBlockExistsError(message string, params ...interface{}) error {
	return New(ERR_BLOCK_EXISTS, message, params...)
}
func NewBlockError(message string, params ...interface{}) error {
	return New(ERR_BLOCK_ERROR, message, params...)
}
func NewChainNotFoundError(message string, params ...interface{}) error {
	return New(ERR_CHAIN_NOT_FOUND, message, params...)
}
func NewTxInvalidError(message string, params ...interface{}) error {
	return New(ERR_TX_INVALID, message, params...)
}
func NewInsufficientBalanceError(message string, params ...interface{}) error {
	return New(ERR_INSUFFICIENT_BALANCE, message, params...)
}
func NewStorageUnavailableError(message string, params ...interface{}) error {
	return New(ERR_STORAGE_UNAVAILABLE, message, params...)
}
func NewStorageError(message string, params ...interface{}) error {
	return New(ERR_STORAGE_ERROR, message, params...)
}
func NewSerializationError(message string, params ...interface{}) error {
	return New(ERR_SERIALIZATION, message, params...)
}
func NewEncodingError(message string, params ...interface{}) error {
	return New(ERR_ENCODING, message, params...)
}
