package models

import "time"

// AlertKind enumerates the supported alert condition types.
type AlertKind string

const (
	AlertPriceAbove  AlertKind = "price_above"
	AlertPriceBelow  AlertKind = "price_below"
	AlertRSIAbove    AlertKind = "rsi_above"
	AlertRSIBelow    AlertKind = "rsi_below"
	AlertVolumeSpike AlertKind = "volume_spike"
	AlertPercentGain AlertKind = "percentage_gain"
	AlertPercentLoss AlertKind = "percentage_loss"
)

// Valid reports whether k is a known alert kind.
func (k AlertKind) Valid() bool {
	switch k {
	case AlertPriceAbove, AlertPriceBelow, AlertRSIAbove, AlertRSIBelow,
		AlertVolumeSpike, AlertPercentGain, AlertPercentLoss:
		return true
	}
	return false
}

// AlertCondition is a one-shot user alert. Once Triggered it never fires
// again; callers create a new condition to re-arm.
type AlertCondition struct {
	ID           string     `json:"id"`
	Owner        string     `json:"owner"`
	Symbol       string     `json:"symbol"`
	Kind         AlertKind  `json:"kind"`
	Target       float64    `json:"target"`
	Active       bool       `json:"active"`
	Triggered    bool       `json:"triggered"`
	LastObserved float64    `json:"last_observed,omitempty"`
	Message      string     `json:"message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	TriggeredAt  *time.Time `json:"triggered_at,omitempty"`
}

// Live reports whether the condition should still be evaluated.
func (a *AlertCondition) Live() bool {
	return a != nil && a.Active && !a.Triggered
}
