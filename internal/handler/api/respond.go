package api

import (
	"errors"
	"net/http"

	models "StockPulse/internal/domain/models"
	xhttp "StockPulse/pkg/http"

	"github.com/labstack/echo/v4"
)

// failureResponse maps typed aggregation failures onto the API error
// envelope. Anything that is not a *models.Failure falls through to the
// generic AppError path.
func failureResponse(c echo.Context, err error) error {
	var f *models.Failure
	if !errors.As(err, &f) {
		return xhttp.AppErrorResponse(c, err)
	}
	switch f.Code {
	case models.FailNotFound:
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError(f.Message))
	case models.FailBudgetExceeded:
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError(f.Message))
	case models.FailTimeout:
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_GATEWAY_TIMEOUT", f.Error(), http.StatusGatewayTimeout))
	default:
		return xhttp.AppErrorResponse(c, xhttp.BadGatewayErrorf("%s: %s", f.Code, f.Message))
	}
}
