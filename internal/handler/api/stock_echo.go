package api

import (
	"context"
	"errors"
	"time"

	"ValueCheck/internal/domain/models"
	"ValueCheck/internal/usecase"
	xhttp "ValueCheck/pkg/http"
	"ValueCheck/pkg/http/middleware"
	xlogger "ValueCheck/pkg/logger"

	"github.com/labstack/echo/v4"
)

const quotaMessage = "Daily ticker cap reached"

type StockService interface {
	Get(ctx context.Context, ticker string, period models.Period) (*usecase.StockResult, error)
	History(ctx context.Context, ticker string, period models.Period, limit int) (*models.HistoryResponse, error)
}

type TrendingService interface {
	Get(ctx context.Context) (*models.TrendingPayload, error)
}

type SearchService interface {
	Query(ctx context.Context, query string) (*models.SearchResponse, error)
}

// StockEchoHandler serves the public read API.
type StockEchoHandler struct {
	logger    *xlogger.Logger
	stocks    StockService
	trending  TrendingService
	search    SearchService
	maxAge    time.Duration
	searchRPS float64
}

func NewStockEchoHandler(
	logger *xlogger.Logger,
	stocks StockService,
	trending TrendingService,
	search SearchService,
	maxAge time.Duration,
	searchRPS float64,
) *StockEchoHandler {
	return &StockEchoHandler{
		logger:    logger,
		stocks:    stocks,
		trending:  trending,
		search:    search,
		maxAge:    maxAge,
		searchRPS: searchRPS,
	}
}

func (h *StockEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.GET("/stock/:ticker", h.Stock)
	e.GET("/stock/:ticker/history", h.History)
	e.GET("/trending", h.Trending)
	e.GET("/search", h.Search, middleware.RateLimit(h.searchRPS))
}

func (h *StockEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, xhttp.HealthResponse{Status: "ok"})
}

func (h *StockEchoHandler) Stock(c echo.Context) error {
	req := &models.StockRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.stocks.Get(c.Request().Context(), req.Ticker, models.ParsePeriod(req.Period))
	if err != nil {
		return h.fail(c, "stock", req.Ticker, err)
	}
	c.Response().Header().Set(xhttp.HeaderXCache, res.Source)
	xhttp.SetCacheControl(c, h.maxAge)
	return xhttp.SuccessResponse(c, res.Record)
}

func (h *StockEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.stocks.History(c.Request().Context(), req.Ticker, models.ParsePeriod(req.Period), req.Limit)
	if err != nil {
		return h.fail(c, "history", req.Ticker, err)
	}
	xhttp.SetCacheControl(c, h.maxAge)
	return xhttp.SuccessResponse(c, res)
}

func (h *StockEchoHandler) Trending(c echo.Context) error {
	res, err := h.trending.Get(c.Request().Context())
	if err != nil {
		return h.fail(c, "trending", "", err)
	}
	xhttp.SetCacheControl(c, h.maxAge)
	return xhttp.SuccessResponse(c, res)
}

func (h *StockEchoHandler) Search(c echo.Context) error {
	req := &models.SearchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.search.Query(c.Request().Context(), req.Query)
	if err != nil {
		return h.fail(c, "search", "", err)
	}
	xhttp.SetCacheControl(c, h.maxAge)
	return xhttp.SuccessResponse(c, res)
}

// fail maps usecase errors onto the {error, code} body.
func (h *StockEchoHandler) fail(c echo.Context, op, ticker string, err error) error {
	if errors.Is(err, models.ErrQuotaExceeded) {
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError(quotaMessage).WithError(err))
	}
	h.logger.Error(op+" request failed",
		xlogger.String("ticker", ticker),
		xlogger.Error(err),
	)
	return xhttp.AppErrorResponse(c, err)
}
