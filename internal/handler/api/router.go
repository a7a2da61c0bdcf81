package api

import (
	xhttp "StockPulse/pkg/http"

	"github.com/labstack/echo/v4"
)

// Router bundles every API handler behind a single route registrar so the
// server only ever sees one xhttp.Handler.
type Router struct {
	handlers []xhttp.Handler
}

func NewRouter(market *MarketHandler, signals *SignalsHandler, alerts *AlertsHandler) *Router {
	return &Router{handlers: []xhttp.Handler{market, signals, alerts}}
}

var _ xhttp.Handler = (*Router)(nil)

func (r *Router) RegisterRoutes(e *echo.Echo) {
	for _, h := range r.handlers {
		h.RegisterRoutes(e)
	}
}
