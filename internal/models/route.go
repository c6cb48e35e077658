package models

// Fixed Lagos-origin, Abuja-destination demo route. Every status maps to
// exactly one location snapshot; there is no carrier integration.
var StatusLocations = map[string]Location{
	OrderStatusPending:        {Lat: 6.5244, Lng: 3.3792, Address: "Lagos Warehouse"},
	OrderStatusProcessing:     {Lat: 6.5244, Lng: 3.3792, Address: "Processing Center, Lagos"},
	OrderStatusShipped:        {Lat: 6.4549, Lng: 3.3947, Address: "In Transit - Lagos to Abuja"},
	OrderStatusOutForDelivery: {Lat: 9.0765, Lng: 7.3986, Address: "Out for Delivery - Your Area"},
	OrderStatusDelivered:      {Lat: 9.0765, Lng: 7.3986, Address: "Delivered"},
	OrderStatusCancelled:      {Lat: 6.5244, Lng: 3.3792, Address: "Cancelled"},
}

var statusMessages = map[string]string{
	OrderStatusPending:        "Order received. Processing your request.",
	OrderStatusProcessing:     "Your order is being prepared for shipment.",
	OrderStatusShipped:        "Your order has been shipped!",
	OrderStatusOutForDelivery: "Your order is out for delivery today.",
	OrderStatusDelivered:      "Your order has been delivered. Thank you!",
	OrderStatusCancelled:      "Order cancelled by user.",
}

// StatusMessage is the customer-facing history line for a transition.
func StatusMessage(status string) string {
	return statusMessages[status]
}

func IsValidStatus(status string) bool {
	_, ok := statusMessages[status]
	return ok
}
