package model

import "time"

// OrderPlacedEvent represents a successfully placed order
type OrderPlacedEvent struct {
	OrderID   string
	AccountID int64
	Symbol    string
	Side      string
	Quantity  float64
	Price     float64
	PlacedAt  time.Time
}

// AlertTriggeredEvent represents a price alert crossing its threshold
type AlertTriggeredEvent struct {
	AlertID     int64
	Symbol      string
	Condition   string
	Threshold   float64
	Price       float64
	TriggeredAt time.Time
}

// GuardStateChangedEvent represents a circuit breaker state transition
type GuardStateChangedEvent struct {
	Guard     string
	OldState  string
	NewState  string
	ChangedAt time.Time
}
