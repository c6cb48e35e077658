package models

import "time"

// Order statuses, in delivery order. cancelled is terminal and reachable
// from any non-terminal status.
const (
	OrderStatusPending        = "pending"
	OrderStatusProcessing     = "processing"
	OrderStatusShipped        = "shipped"
	OrderStatusOutForDelivery = "out_for_delivery"
	OrderStatusDelivered      = "delivered"
	OrderStatusCancelled      = "cancelled"
)

// ProgressSequence is the automatic progression after pending.
var ProgressSequence = []string{
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
}

func IsTerminalStatus(status string) bool {
	return status == OrderStatusDelivered || status == OrderStatusCancelled
}

// NextStatus returns the status following cur in the automatic sequence,
// or "" when there is nothing left to advance to.
func NextStatus(cur string) string {
	if cur == OrderStatusPending {
		return ProgressSequence[0]
	}
	for i, s := range ProgressSequence {
		if s == cur && i+1 < len(ProgressSequence) {
			return ProgressSequence[i+1]
		}
	}
	return ""
}

const (
	ShippingStandard  = "standard"
	ShippingExpress   = "express"
	ShippingOvernight = "overnight"
)

type OrderItem struct {
	ProductID int64  `json:"id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
	Category  string `json:"category"`
}

type ShippingAddress struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
}

type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
}

type Discount struct {
	Code           string `json:"code"`
	DiscountType   string `json:"discountType"`
	DiscountAmount int64  `json:"discountAmount"`
}

type StatusHistoryEntry struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// Order is one checkout transaction. Amounts are whole naira.
// Subtotal/Shipping/Tax/Total are the figures the customer was charged;
// invoice rendering reads them back verbatim, it never recomputes.
type Order struct {
	ID                string               `json:"id"`
	OrderNumber       string               `json:"orderNumber"`
	TrackingNumber    string               `json:"trackingNumber"`
	Items             []OrderItem          `json:"items"`
	Subtotal          int64                `json:"subtotal"`
	Shipping          int64                `json:"shipping"`
	Tax               int64                `json:"tax"`
	Total             int64                `json:"total"`
	Status            string               `json:"status"`
	CreatedAt         time.Time            `json:"createdAt"`
	EstimatedDelivery time.Time            `json:"estimatedDelivery"`
	ShippingAddress   ShippingAddress      `json:"shippingAddress"`
	ShippingMethod    string               `json:"shippingMethod"`
	Discount          *Discount            `json:"discount,omitempty"`
	StatusHistory     []StatusHistoryEntry `json:"statusHistory"`
	CurrentLocation   *Location            `json:"currentLocation,omitempty"`

	// NextAdvanceAt drives the automatic progression worker. nil for
	// terminal orders: clearing it is what cancellation uses to stop
	// an in-flight simulation.
	NextAdvanceAt *time.Time `json:"-"`
	UpdatedAt     time.Time  `json:"-"`
}

type OrderCreateInput struct {
	Items           []OrderItem     `json:"items"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	ShippingMethod  string          `json:"shippingMethod"`
	PromoCode       string          `json:"promoCode,omitempty"`
}
