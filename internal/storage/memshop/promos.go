package memshop

import (
	"context"
	"strings"

	"github.com/lighthub/lighthub/internal/models"
)

func (s *Store) ListPromoCodes(ctx context.Context) ([]*models.PromoCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.PromoCode, 0, len(s.promoSeq))
	for _, id := range s.promoSeq {
		p := *s.promos[id]
		out = append(out, &p)
	}
	return out, nil
}

func (s *Store) CreatePromoCode(ctx context.Context, p *models.PromoCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.promoSeq {
		if strings.EqualFold(s.promos[id].Code, p.Code) {
			return models.ErrPromoCodeExists
		}
	}
	cp := *p
	s.promos[p.ID] = &cp
	s.promoSeq = append(s.promoSeq, p.ID)
	return nil
}

func (s *Store) UpdatePromoCode(ctx context.Context, p *models.PromoCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.promos[p.ID]; !ok {
		return models.ErrPromoCodeNotFound
	}
	cp := *p
	s.promos[p.ID] = &cp
	return nil
}

func (s *Store) DeletePromoCode(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.promos[id]; !ok {
		return models.ErrPromoCodeNotFound
	}
	delete(s.promos, id)
	for i, pid := range s.promoSeq {
		if pid == id {
			s.promoSeq = append(s.promoSeq[:i], s.promoSeq[i+1:]...)
			break
		}
	}
	return nil
}

// IncrementPromoUses bumps usage for a matched code. Unknown codes are a
// silent no-op: callers are expected to validate first.
func (s *Store) IncrementPromoUses(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.promoSeq {
		if strings.EqualFold(s.promos[id].Code, code) {
			s.promos[id].CurrentUses++
			return nil
		}
	}
	return nil
}
