package models

// Requests for market HTTP endpoints. Defined in domain for consistency and reuse.

type QuoteRequest struct {
	Refresh bool `query:"refresh" json:"refresh"`
}

type QuotesRequest struct {
	Symbols []string `json:"symbols" validate:"required,min=1,max=50,dive,required"`
}

type SeriesRequest struct {
	Period   string `query:"period" json:"period" default:"3mo" validate:"oneof=1d 5d 1mo 3mo 6mo 1y 2y 5y max"`
	Interval string `query:"interval" json:"interval" default:"1d" validate:"oneof=1m 5m 15m 30m 1h 1d 1wk 1mo"`
}

type IndicatorsRequest struct {
	Refresh bool `query:"refresh" json:"refresh"`
}

type SignalsQueryRequest struct {
	Symbol string `query:"symbol" json:"symbol"`
	Kind   string `query:"kind" json:"kind" validate:"omitempty,oneof=rsi_oversold rsi_overbought macd_bullish macd_bearish volume_spike breakout breakdown support_bounce resistance_rejection"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Limit  int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
}

type ScanRunRequest struct {
	Symbols     []string `json:"symbols" validate:"omitempty,max=50,dive,required"`
	RequestedBy string   `json:"requested_by"`
}

type CreateAlertRequest struct {
	Owner   string  `json:"owner" validate:"required"`
	Symbol  string  `json:"symbol" validate:"required"`
	Kind    string  `json:"kind" validate:"required,oneof=price_above price_below rsi_above rsi_below volume_spike percentage_gain percentage_loss"`
	Target  float64 `json:"target" validate:"required,gt=0"`
	Message string  `json:"message"`
}

type ListAlertsRequest struct {
	Owner            string `query:"owner" json:"owner"`
	IncludeTriggered bool   `query:"include_triggered" json:"include_triggered"`
}
