package models

import "errors"

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrProductNotFound      = errors.New("product not found")
	ErrPromoCodeNotFound    = errors.New("promo code not found")
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrPromoNotEligible is the single failure for promo validation:
	// callers must not learn which rule failed.
	ErrPromoNotEligible = errors.New("invalid promo code or code requirements not met")

	ErrPromoCodeExists = errors.New("promo code already exists")

	ErrPaymentDeclined = errors.New("payment declined")
)
