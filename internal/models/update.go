package models

import "time"

// OrderStatusUpdate is one applied transition: append a history entry, move
// the order to Status, refresh the location snapshot and reschedule (or stop)
// the automatic progression. Storage backends apply it as a unit and must
// ignore it when the order is already terminal or unknown.
type OrderStatusUpdate struct {
	OrderID   string
	Status    string
	Message   string
	Timestamp time.Time
	Location  *Location
	// nil stops further automatic progression.
	NextAdvanceAt *time.Time
}
