package api

import (
	models "StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
	domsvc "StockPulse/internal/domain/service"
	"StockPulse/internal/service/source"
	xhttp "StockPulse/pkg/http"
	xlogger "StockPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// MarketHandler serves the quote, history and indicator endpoints.
type MarketHandler struct {
	logger *xlogger.Logger
	agg    domsvc.Aggregator
	inds   domsvc.IndicatorProvider
}

func NewMarketHandler(logger *xlogger.Logger, agg domsvc.Aggregator, inds domsvc.IndicatorProvider) *MarketHandler {
	return &MarketHandler{logger: logger, agg: agg, inds: inds}
}

var _ xhttp.Handler = (*MarketHandler)(nil)

func (h *MarketHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.GET("/quote/:symbol", h.Quote)
	g.POST("/quotes", h.Quotes)
	g.GET("/series/:symbol", h.Series)
	g.GET("/indicators/:symbol", h.Indicators)
	g.GET("/validate/:symbol", h.Validate)
}

func (h *MarketHandler) Quote(c echo.Context) error {
	req := &models.QuoteRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	quote, err := h.agg.GetQuote(c.Request().Context(), c.Param("symbol"), req.Refresh)
	if err != nil {
		h.logger.Error("quote usecase error", xlogger.Error(err))
		return failureResponse(c, err)
	}
	return xhttp.SuccessResponse(c, quote)
}

func (h *MarketHandler) Quotes(c echo.Context) error {
	req := &models.QuotesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	results := h.agg.GetManyQuotes(c.Request().Context(), req.Symbols)
	return xhttp.SuccessResponse(c, results)
}

func (h *MarketHandler) Series(c echo.Context) error {
	req := &models.SeriesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	period := domrepo.NormalizePeriod(req.Period)
	interval := domrepo.NormalizeInterval(req.Interval)

	series, err := h.agg.GetSeries(c.Request().Context(), c.Param("symbol"), period, interval)
	if err != nil {
		h.logger.Error("series usecase error", xlogger.Error(err))
		return failureResponse(c, err)
	}
	return xhttp.SuccessResponse(c, series)
}

func (h *MarketHandler) Indicators(c echo.Context) error {
	req := &models.IndicatorsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	set, err := h.inds.GetIndicators(c.Request().Context(), c.Param("symbol"), req.Refresh)
	if err != nil {
		h.logger.Error("indicators usecase error", xlogger.Error(err))
		return failureResponse(c, err)
	}
	return xhttp.SuccessResponse(c, set)
}

func (h *MarketHandler) Validate(c echo.Context) error {
	sym := source.Canonical(c.Param("symbol"))
	ok := h.agg.ValidateSymbol(c.Request().Context(), sym)
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"symbol": sym,
		"valid":  ok,
	})
}
