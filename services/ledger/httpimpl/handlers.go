package httpimpl

import (
	"encoding/hex"
	"net/http"
	"strconv"

	"github.com/bsv-blockchain/utxochain/errors"
	"github.com/labstack/echo/v4"
)

const (
	defaultBlockCount = 10
	maxBlockCount     = 1000
)

type balanceResponse struct {
	Address string `json:"address"`
	Balance int64  `json:"balance"`
}

func (h *HTTP) GetTip(c echo.Context) error {
	tip, err := h.repository.Tip(c.Request().Context())
	if err != nil {
		return sendError(c, err)
	}

	prometheusHTTPRequests.WithLabelValues("GetTip").Inc()

	return c.JSON(http.StatusOK, tip)
}

// GetBlocks returns the last n blocks, tip first.
func (h *HTTP) GetBlocks(c echo.Context) error {
	n := defaultBlockCount

	if s := c.QueryParam("n"); s != "" {
		var err error

		if n, err = strconv.Atoi(s); err != nil || n <= 0 {
			return sendError(c, errors.NewInvalidArgumentError("invalid number of blocks %q", s))
		}

		if n > maxBlockCount {
			n = maxBlockCount
		}
	}

	blocks, err := h.repository.LastBlocks(c.Request().Context(), n)
	if err != nil {
		return sendError(c, err)
	}

	prometheusHTTPRequests.WithLabelValues("GetBlocks").Inc()

	return c.JSON(http.StatusOK, blocks)
}

func (h *HTTP) GetBlock(c echo.Context) error {
	hash := c.Param("hash")

	if b, err := hex.DecodeString(hash); err != nil || len(b) != 32 {
		return sendError(c, errors.NewInvalidArgumentError("invalid block hash %q", hash))
	}

	block, err := h.repository.GetBlock(c.Request().Context(), hash)
	if err != nil {
		return sendError(c, err)
	}

	prometheusHTTPRequests.WithLabelValues("GetBlock").Inc()

	return c.JSON(http.StatusOK, block)
}

func (h *HTTP) GetBalance(c echo.Context) error {
	address := c.Param("address")

	balance, err := h.repository.GetBalance(c.Request().Context(), address)
	if err != nil {
		return sendError(c, err)
	}

	prometheusHTTPRequests.WithLabelValues("GetBalance").Inc()

	return c.JSON(http.StatusOK, balanceResponse{Address: address, Balance: balance})
}

func (h *HTTP) GetBalances(c echo.Context) error {
	balances, err := h.repository.Balances(c.Request().Context())
	if err != nil {
		return sendError(c, err)
	}

	prometheusHTTPRequests.WithLabelValues("GetBalances").Inc()

	return c.JSON(http.StatusOK, balances)
}
