package api

import (
	"errors"
	"net/http"

	models "StockPulse/internal/domain/models"
	"StockPulse/internal/usecase"
	pkgcache "StockPulse/pkg/cache"
	xhttp "StockPulse/pkg/http"
	xlogger "StockPulse/pkg/logger"
	"StockPulse/pkg/queue"
	"StockPulse/pkg/util"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// SignalsHandler serves the persisted signal log and the scanner surface.
type SignalsHandler struct {
	logger  *xlogger.Logger
	query   *usecase.SignalQueryUseCase
	scanner *usecase.Scanner
	jobs    queue.QueueService
}

func NewSignalsHandler(logger *xlogger.Logger, query *usecase.SignalQueryUseCase, scanner *usecase.Scanner, jobs queue.QueueService) *SignalsHandler {
	return &SignalsHandler{logger: logger, query: query, scanner: scanner, jobs: jobs}
}

var _ xhttp.Handler = (*SignalsHandler)(nil)

func (h *SignalsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.GET("/signals", h.Signals)
	g.GET("/scanner/results", h.ScanResults)
	g.POST("/scanner/run", h.ScanRun)
}

func (h *SignalsHandler) Signals(c echo.Context) error {
	req := &models.SignalsQueryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	p := usecase.QuerySignalsParams{Symbol: req.Symbol, Kind: req.Kind, Limit: req.Limit}
	if req.From != "" {
		t, ok := util.ParseTime(req.From)
		if !ok {
			return xhttp.BadRequestResponse(c, xhttp.BadRequestErrorf("unparseable from time %q", req.From))
		}
		p.From = t
	}
	if req.To != "" {
		t, ok := util.ParseTime(req.To)
		if !ok {
			return xhttp.BadRequestResponse(c, xhttp.BadRequestErrorf("unparseable to time %q", req.To))
		}
		p.To = t
	}

	res, err := h.query.Query(c.Request().Context(), p)
	if err != nil {
		h.logger.Error("signals usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *SignalsHandler) ScanResults(c echo.Context) error {
	sum, err := h.scanner.Latest(c.Request().Context())
	if err != nil {
		if errors.Is(err, pkgcache.ErrCacheMiss) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no sweep has completed yet"))
		}
		h.logger.Error("scan results error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, sum)
}

// ScanRun enqueues an on-demand sweep and returns immediately. The queue
// worker pool runs the sweep with the same retry budget as any other job.
func (h *SignalsHandler) ScanRun(c echo.Context) error {
	req := &models.ScanRunRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	job := usecase.ScanRequest{
		ID:          uuid.NewString(),
		RequestedBy: req.RequestedBy,
		Symbols:     req.Symbols,
	}
	if err := h.jobs.PublishMessage(c.Request().Context(), usecase.ScanJobType, job); err != nil {
		h.logger.Error("scan enqueue error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.DataResponse(c, http.StatusAccepted, map[string]interface{}{
		"job_id": job.ID,
	})
}
