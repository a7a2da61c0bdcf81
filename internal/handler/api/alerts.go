package api

import (
	"errors"

	models "StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
	"StockPulse/internal/usecase"
	xhttp "StockPulse/pkg/http"
	xlogger "StockPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AlertsHandler serves alert CRUD. Trigger evaluation is background work
// and has no HTTP surface.
type AlertsHandler struct {
	logger *xlogger.Logger
	alerts *usecase.AlertService
}

func NewAlertsHandler(logger *xlogger.Logger, alerts *usecase.AlertService) *AlertsHandler {
	return &AlertsHandler{logger: logger, alerts: alerts}
}

var _ xhttp.Handler = (*AlertsHandler)(nil)

func (h *AlertsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.POST("/alerts", h.Create)
	g.GET("/alerts", h.List)
	g.DELETE("/alerts/:id", h.Delete)
}

func (h *AlertsHandler) Create(c echo.Context) error {
	req := &models.CreateAlertRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	alert, err := h.alerts.Create(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("alert create error", xlogger.Error(err))
		return failureResponse(c, err)
	}
	return xhttp.CreatedResponse(c, alert)
}

func (h *AlertsHandler) List(c echo.Context) error {
	req := &models.ListAlertsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	alerts, err := h.alerts.List(c.Request().Context(), req.Owner, req.IncludeTriggered)
	if err != nil {
		h.logger.Error("alert list error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, alerts, int64(len(alerts)))
}

func (h *AlertsHandler) Delete(c echo.Context) error {
	id := c.Param("id")
	if err := h.alerts.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, domrepo.ErrAlertNotFound) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundError("alert not found"))
		}
		h.logger.Error("alert delete error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.NoContentResponse(c)
}
