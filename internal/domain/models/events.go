package models

import (
	"encoding/json"
	"time"
)

// Event type tags used on the wire.
const (
	EventAlertTriggered = "alert_triggered"
	EventScanBatch      = "scan_batch"
	EventDailyDigest    = "daily_digest"
)

// Envelope wraps every published event with its type tag so consumers
// of a topic can dispatch without sniffing payload shapes.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// WrapEvent builds an envelope around a concrete event payload.
func WrapEvent(typ string, v interface{}) (*Envelope, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &Envelope{Type: typ, Data: data}, nil
}

// AlertTriggerEvent is published to Kafka when a one-shot alert fires.
type AlertTriggerEvent struct {
	AlertID     string    `json:"alert_id"`
	Owner       string    `json:"owner"`
	Symbol      string    `json:"symbol"`
	Kind        AlertKind `json:"kind"`
	Target      float64   `json:"target"`
	Observed    float64   `json:"observed"`
	Message     string    `json:"message,omitempty"`
	TriggeredAt time.Time `json:"triggered_at"`
}

// ScanBatchEvent is published once per scanner sweep that found signals.
type ScanBatchEvent struct {
	SweptAt time.Time `json:"swept_at"`
	Symbols []string  `json:"symbols"`
	Signals []Signal  `json:"signals"`
}

// SymbolCount pairs a symbol with how many signals it produced.
type SymbolCount struct {
	Symbol string `json:"symbol"`
	Count  int    `json:"count"`
}

// DigestEvent summarizes one market day's signals. Days without signals
// produce no digest at all.
type DigestEvent struct {
	Date       string         `json:"date"`
	Total      int            `json:"total"`
	ByKind     map[string]int `json:"by_kind"`
	TopSymbols []SymbolCount  `json:"top_symbols"`
}
