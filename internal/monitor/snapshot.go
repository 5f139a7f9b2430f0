package monitor

import "time"

// Snapshot is a point-in-time read of market data for one symbol. Fields are
// pointers because the provider may return partial data; a condition that
// needs a missing field is skipped for the cycle instead of failing.
type Snapshot struct {
	Symbol     string    `json:"symbol"`
	Price      *float64  `json:"price,omitempty"`
	RSI        *float64  `json:"rsi,omitempty"`
	Volume     *float64  `json:"volume,omitempty"`
	PrevVolume *float64  `json:"prev_volume,omitempty"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// TriggerEvent records one alert firing during a cycle. Events are
// cycle-scoped: the dispatcher consumes them and nothing persists beyond the
// source alert's triggered_at timestamp.
type TriggerEvent struct {
	AlertID  string    `json:"alert_id"`
	UserID   string    `json:"user_id"`
	Symbol   string    `json:"symbol"`
	Message  string    `json:"message"`
	Snapshot *Snapshot `json:"snapshot"`
	At       time.Time `json:"at"`
}

// CycleReport summarizes one evaluate-and-notify pass.
type CycleReport struct {
	StartedAt time.Time `json:"started_at"`
	Duration  string    `json:"duration"`

	// Alerts.
	Considered   int `json:"considered"`
	Triggered    int `json:"triggered"`
	Skipped      int `json:"skipped"`       // condition needs data the snapshot lacks
	NotEvaluated int `json:"not_evaluated"` // symbol snapshot unavailable this cycle
	Suppressed   int `json:"suppressed"`    // fired but inside the cooldown window

	// Notifications (one per user, consolidated).
	Sent   int `json:"sent"`
	Failed int `json:"failed"`

	Errors []string `json:"errors,omitempty"`
}
