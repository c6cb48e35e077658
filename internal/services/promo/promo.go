// Package promo validates and applies discount codes. Validation is one
// opaque pass/fail: a caller can not tell an unknown code from an expired
// one, a capped one, or an order below the minimum.
package promo

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/lighthub/lighthub/internal/models"
	"github.com/pkg/errors"
)

type Repository interface {
	ListPromoCodes(ctx context.Context) ([]*models.PromoCode, error)
	CreatePromoCode(ctx context.Context, p *models.PromoCode) error
	UpdatePromoCode(ctx context.Context, p *models.PromoCode) error
	DeletePromoCode(ctx context.Context, id string) error
	IncrementPromoUses(ctx context.Context, code string) error
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func New(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Validate matches code case-insensitively against all redeemable codes and
// computes the discount for orderAmount. First match wins. The discount never
// exceeds the order amount.
func (s *Service) Validate(ctx context.Context, code string, orderAmount int64) (*models.DiscountResult, error) {
	if strings.TrimSpace(code) == "" {
		return nil, models.ErrPromoNotEligible
	}

	codes, err := s.repo.ListPromoCodes(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var match *models.PromoCode
	for _, p := range codes {
		if strings.EqualFold(p.Code, code) && p.Redeemable(orderAmount, now) {
			match = p
			break
		}
	}
	if match == nil {
		return nil, models.ErrPromoNotEligible
	}

	var discount int64
	if match.DiscountType == models.DiscountTypePercentage {
		discount = int64(math.Round(float64(orderAmount) * float64(match.DiscountValue) / 100))
	} else {
		discount = match.DiscountValue
	}
	if discount > orderAmount {
		discount = orderAmount
	}

	return &models.DiscountResult{
		Code:           match.Code,
		DiscountType:   match.DiscountType,
		DiscountAmount: discount,
		OriginalAmount: orderAmount,
		FinalAmount:    orderAmount - discount,
	}, nil
}

// Apply increments the code's usage count. It must run exactly once per
// successful checkout, after Validate; an unmatched code stays a no-op.
func (s *Service) Apply(ctx context.Context, code string) error {
	return s.repo.IncrementPromoUses(ctx, code)
}

func (s *Service) List(ctx context.Context) ([]*models.PromoCode, error) {
	return s.repo.ListPromoCodes(ctx)
}

func (s *Service) Create(ctx context.Context, p *models.PromoCode) (*models.PromoCode, error) {
	if p.Code == "" {
		return nil, errors.New("code is required")
	}
	if p.DiscountType != models.DiscountTypePercentage && p.DiscountType != models.DiscountTypeFixed {
		return nil, errors.New("discountType must be percentage or fixed")
	}
	if p.DiscountValue <= 0 {
		return nil, errors.New("discountValue must be positive")
	}
	now := s.now()
	p.Code = strings.ToUpper(strings.TrimSpace(p.Code))
	p.ID = now.UTC().Format("20060102150405.000000000")
	p.CurrentUses = 0
	p.CreatedAt = now
	if err := s.repo.CreatePromoCode(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, p *models.PromoCode) error {
	return s.repo.UpdatePromoCode(ctx, p)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.DeletePromoCode(ctx, id)
}

func (s *Service) SetActive(ctx context.Context, id string, active bool) error {
	codes, err := s.repo.ListPromoCodes(ctx)
	if err != nil {
		return err
	}
	for _, p := range codes {
		if p.ID == id {
			p.IsActive = active
			return s.repo.UpdatePromoCode(ctx, p)
		}
	}
	return models.ErrPromoCodeNotFound
}
