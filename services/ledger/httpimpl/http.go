// Package httpimpl serves a read-only JSON view of the ledger over HTTP.
package httpimpl

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bsv-blockchain/utxochain/errors"
	"github.com/bsv-blockchain/utxochain/model"
	"github.com/bsv-blockchain/utxochain/services/ledger"
	"github.com/bsv-blockchain/utxochain/ulogger"
	"github.com/bsv-blockchain/utxochain/util/tracing"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Repository is the part of the ledger the API reads from.
type Repository interface {
	Tip(ctx context.Context) (*ledger.TipInfo, error)
	LastBlocks(ctx context.Context, n int) ([]*model.Block, error)
	GetBlock(ctx context.Context, hash string) (*model.Block, error)
	GetBalance(ctx context.Context, address string) (int64, error)
	Balances(ctx context.Context) (map[string]int64, error)
	Health(ctx context.Context, checkLiveness bool) (int, string, error)
}

type HTTP struct {
	logger     ulogger.Logger
	repository Repository
	e          *echo.Echo
	startTime  time.Time
}

// New sets up the routes:
//
//	GET /alive
//	GET /health
//	GET /metrics
//	GET /api/v1/tip
//	GET /api/v1/blocks?n=10
//	GET /api/v1/block/:hash
//	GET /api/v1/balance/:address
//	GET /api/v1/balances
func New(logger ulogger.Logger, repo Repository) *HTTP {
	initPrometheusMetrics()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.Gzip())

	h := &HTTP{
		logger:     logger.New("http"),
		repository: repo,
		e:          e,
		startTime:  time.Now(),
	}

	e.Use(requestLoggerMiddleware(h.logger))

	e.GET("/alive", func(c echo.Context) error {
		return c.String(http.StatusOK, fmt.Sprintf("utxochain is alive. Uptime: %s\n", time.Since(h.startTime)))
	})

	e.GET("/health", func(c echo.Context) error {
		status, details, err := repo.Health(c.Request().Context(), false)
		if err != nil {
			return c.String(http.StatusInternalServerError, err.Error())
		}

		return c.String(status, details)
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	apiGroup := e.Group("/api/v1")

	apiGroup.GET("/tip", h.GetTip)
	apiGroup.GET("/blocks", h.GetBlocks)
	apiGroup.GET("/block/:hash", h.GetBlock)
	apiGroup.GET("/balance/:address", h.GetBalance)
	apiGroup.GET("/balances", h.GetBalances)

	return h
}

// ServeHTTP lets the API be used as a plain http.Handler.
func (h *HTTP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.e.ServeHTTP(w, r)
}

// Start listens on addr until ctx is done or Stop is called.
func (h *HTTP) Start(ctx context.Context, addr string) error {
	go func() {
		<-ctx.Done()

		h.logger.Infof("[HTTP] service shutting down")

		if err := h.e.Shutdown(context.Background()); err != nil {
			h.logger.Errorf("[HTTP] service shutdown error: %s", err)
		}
	}()

	h.logger.Infof("[HTTP] listening on %s", addr)

	if err := h.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.NewProcessingError("[HTTP] server stopped", err)
	}

	return nil
}

func (h *HTTP) Stop(ctx context.Context) error {
	return h.e.Shutdown(ctx)
}

func requestLoggerMiddleware(logger ulogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			ctx, _, endSpan := tracing.Tracer("http").Start(c.Request().Context(), "HTTP:"+c.Request().Method+" "+c.Path())
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			endSpan(err)

			logger.Debugf("http request: Method=%s, URI=%s, RemoteAddr=%s Status=%d, Duration=%v, err=%v", c.Request().Method, c.Request().RequestURI, c.Request().RemoteAddr, c.Response().Status, time.Since(start), err)

			return nil
		}
	}
}
