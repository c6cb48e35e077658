package promo

import (
	"context"
	"time"

	"github.com/lighthub/lighthub/internal/models"
)

// DefaultCodes are the storefront's stock promotions, seeded on first run.
func DefaultCodes(now time.Time) []*models.PromoCode {
	return []*models.PromoCode{
		{
			ID: "1", Code: "WELCOME20",
			Description:   "20% off on your first order",
			DiscountType:  models.DiscountTypePercentage,
			DiscountValue: 20, MaxUses: 100, CurrentUses: 5, MinOrderAmount: 10_000,
			ExpiryDate: now.Add(90 * 24 * time.Hour), IsActive: true, CreatedAt: now,
		},
		{
			ID: "2", Code: "SAVE5000",
			Description:   "₦5,000 off orders over ₦50,000",
			DiscountType:  models.DiscountTypeFixed,
			DiscountValue: 5_000, MaxUses: 50, CurrentUses: 12, MinOrderAmount: 50_000,
			ExpiryDate: now.Add(30 * 24 * time.Hour), IsActive: true, CreatedAt: now,
		},
		{
			ID: "3", Code: "SUMMER15",
			Description:   "15% off on all items",
			DiscountType:  models.DiscountTypePercentage,
			DiscountValue: 15, MaxUses: 200, CurrentUses: 45, MinOrderAmount: 20_000,
			ExpiryDate: now.Add(60 * 24 * time.Hour), IsActive: true, CreatedAt: now,
		},
		{
			ID: "4", Code: "BULK10",
			Description:   "10% discount for orders over ₦100,000",
			DiscountType:  models.DiscountTypePercentage,
			DiscountValue: 10, MaxUses: 150, CurrentUses: 23, MinOrderAmount: 100_000,
			ExpiryDate: now.Add(45 * 24 * time.Hour), IsActive: true, CreatedAt: now,
		},
	}
}

// Seed inserts the default codes when the store is empty.
func Seed(ctx context.Context, repo Repository) error {
	existing, err := repo.ListPromoCodes(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for _, p := range DefaultCodes(time.Now().UTC()) {
		if err := repo.CreatePromoCode(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
