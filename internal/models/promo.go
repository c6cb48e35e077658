package models

import "time"

const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
)

// PromoCode is one discount rule. Codes match case-insensitively.
type PromoCode struct {
	ID             string    `json:"id"`
	Code           string    `json:"code"`
	Description    string    `json:"description"`
	DiscountType   string    `json:"discountType"`
	DiscountValue  int64     `json:"discountValue"`
	MaxUses        int64     `json:"maxUses"`
	CurrentUses    int64     `json:"currentUses"`
	MinOrderAmount int64     `json:"minOrderAmount"`
	ExpiryDate     time.Time `json:"expiryDate"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Redeemable reports whether the code may be applied to an order of the
// given amount at time now. Expiry is only ever enforced here, there is
// no background sweep.
func (p *PromoCode) Redeemable(amount int64, now time.Time) bool {
	return p.IsActive &&
		p.ExpiryDate.After(now) &&
		p.CurrentUses < p.MaxUses &&
		amount >= p.MinOrderAmount
}

type DiscountResult struct {
	Code           string `json:"code"`
	DiscountType   string `json:"discountType"`
	DiscountAmount int64  `json:"discountAmount"`
	OriginalAmount int64  `json:"originalAmount"`
	FinalAmount    int64  `json:"finalAmount"`
}
