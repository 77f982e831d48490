package httpimpl

import (
	"net/http"
	"strconv"

	"github.com/bsv-blockchain/utxochain/errors"
	"github.com/labstack/echo/v4"
)

type errorResponse struct {
	Status int32  `json:"status"`
	Code   int32  `json:"code"`
	Err    string `json:"error"`
}

// sendError writes err as JSON with a status code derived from its error code.
func sendError(c echo.Context, err error) error {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, errors.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, errors.ErrBlockNotFound), errors.Is(err, errors.ErrNotFound), errors.Is(err, errors.ErrChainNotFound):
		status = http.StatusNotFound
	}

	code := errors.ERR_UNKNOWN

	var uErr *errors.Error
	if errors.As(err, &uErr) {
		code = uErr.Code()
	}

	prometheusHTTPErrors.WithLabelValues(strconv.Itoa(status)).Inc()

	return c.JSON(status, &errorResponse{
		Status: int32(status), //nolint:gosec // http status codes
		Code:   int32(code),
		Err:    err.Error(),
	})
}
