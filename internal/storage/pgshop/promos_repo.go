package pgshop

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lighthub/lighthub/internal/models"
	"github.com/pkg/errors"
)

func (s *Storage) ListPromoCodes(ctx context.Context) ([]*models.PromoCode, error) {
	rows, err := s.db.Query(ctx, `
SELECT id, code, description, discount_type, discount_value,
       max_uses, current_uses, min_order_amount, expiry_date, is_active, created_at
FROM promo_codes
ORDER BY created_at ASC
`)
	if err != nil {
		return nil, errors.Wrap(err, "select promo codes")
	}
	defer rows.Close()

	var out []*models.PromoCode
	for rows.Next() {
		var p models.PromoCode
		if err := rows.Scan(
			&p.ID, &p.Code, &p.Description, &p.DiscountType, &p.DiscountValue,
			&p.MaxUses, &p.CurrentUses, &p.MinOrderAmount, &p.ExpiryDate, &p.IsActive, &p.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scan promo code")
		}
		out = append(out, &p)
	}
	return out, errors.Wrap(rows.Err(), "rows")
}

func (s *Storage) CreatePromoCode(ctx context.Context, p *models.PromoCode) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO promo_codes (
  id, code, description, discount_type, discount_value,
  max_uses, current_uses, min_order_amount, expiry_date, is_active, created_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`, p.ID, p.Code, p.Description, p.DiscountType, p.DiscountValue,
		p.MaxUses, p.CurrentUses, p.MinOrderAmount, p.ExpiryDate, p.IsActive, p.CreatedAt)
	if isUniqueViolation(err) {
		return models.ErrPromoCodeExists
	}
	return errors.Wrap(err, "insert promo code")
}

func (s *Storage) UpdatePromoCode(ctx context.Context, p *models.PromoCode) error {
	tag, err := s.db.Exec(ctx, `
UPDATE promo_codes
SET code = $2, description = $3, discount_type = $4, discount_value = $5,
    max_uses = $6, current_uses = $7, min_order_amount = $8, expiry_date = $9, is_active = $10
WHERE id = $1
`, p.ID, p.Code, p.Description, p.DiscountType, p.DiscountValue,
		p.MaxUses, p.CurrentUses, p.MinOrderAmount, p.ExpiryDate, p.IsActive)
	if err != nil {
		return errors.Wrap(err, "update promo code")
	}
	if tag.RowsAffected() == 0 {
		return models.ErrPromoCodeNotFound
	}
	return nil
}

func (s *Storage) DeletePromoCode(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM promo_codes WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete promo code")
	}
	if tag.RowsAffected() == 0 {
		return models.ErrPromoCodeNotFound
	}
	return nil
}

// IncrementPromoUses bumps usage for a matched code, once per redemption.
// Unknown codes update zero rows and stay silent.
func (s *Storage) IncrementPromoUses(ctx context.Context, code string) error {
	_, err := s.db.Exec(ctx, `
UPDATE promo_codes SET current_uses = current_uses + 1 WHERE LOWER(code) = LOWER($1)
`, code)
	return errors.Wrap(err, "increment promo uses")
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
