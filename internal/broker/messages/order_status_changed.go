package messages

import "time"

// OrderStatusChanged is published by the progression worker for every
// automatic transition and consumed by the API process, which applies it to
// storage and raises a customer notification.
type OrderStatusChanged struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`

	Status  string `json:"status"`
	Message string `json:"message,omitempty"`

	OccurredAt time.Time `json:"occurred_at"`

	// NextAdvanceAt schedules the following step; absent on the final
	// (delivered) transition.
	NextAdvanceAt *time.Time `json:"next_advance_at,omitempty"`
}
