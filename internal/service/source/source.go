// Package source implements the upstream market-data providers. Each
// adapter renders symbols the way its provider lists NSE stocks, maps
// wire payloads into domain quotes, and classifies every failure into a
// models.Failure code so the aggregator can decide what to do next.
package source

import (
	"context"
	"errors"
	"math"
	"net"
	"net/http"

	"StockPulse/internal/domain/models"
)

// classifyTransport maps request errors that happened before any response
// arrived. Timeouts are kept distinct so the aggregator can tell a slow
// provider from a broken one.
func classifyTransport(src models.Source, symbol string, err error) *models.Failure {
	var nerr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &nerr) && nerr.Timeout()) {
		return models.NewFailure(models.FailTimeout, src, symbol, "request timed out")
	}
	return models.Failuref(models.FailHTTPStatus, src, symbol, "request failed: %v", err)
}

// classifyStatus maps a non-2xx response to a failure, nil otherwise.
func classifyStatus(src models.Source, symbol string, code int) *models.Failure {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return models.NewFailure(models.FailNotFound, src, symbol, "symbol not found")
	case code == http.StatusTooManyRequests:
		return models.NewFailure(models.FailBudgetExceeded, src, symbol, "provider throttled the request")
	default:
		return models.Failuref(models.FailHTTPStatus, src, symbol, "unexpected status %d", code)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// pctChange returns the percent move from prev to cur, zero when prev is
// unusable.
func pctChange(cur, prev float64) float64 {
	if prev == 0 {
		return 0
	}
	return (cur - prev) / prev * 100
}
