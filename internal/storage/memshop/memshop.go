// Package memshop is the in-memory storage backend: maps keyed by id behind
// one mutex. It implements the same repository interfaces as pgshop and backs
// DSN-less demo runs and unit tests.
package memshop

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lighthub/lighthub/internal/models"
)

type Store struct {
	mu sync.RWMutex

	orders   map[string]*models.Order
	orderSeq []string

	promos   map[string]*models.PromoCode
	promoSeq []string

	products      map[int64]*models.Product
	productSeq    []int64
	nextProductID int64

	notifications []*models.Notification
}

func New() *Store {
	return &Store{
		orders:        map[string]*models.Order{},
		promos:        map[string]*models.PromoCode{},
		products:      map[int64]*models.Product{},
		nextProductID: 1,
	}
}

func (s *Store) CreateOrder(ctx context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = cloneOrder(o)
	s.orderSeq = append(s.orderSeq, o.ID)
	return nil
}

func (s *Store) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (s *Store) ListOrders(ctx context.Context) ([]*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Order, 0, len(s.orderSeq))
	for _, id := range s.orderSeq {
		out = append(out, cloneOrder(s.orders[id]))
	}
	return out, nil
}

// ApplyOrderStatusUpdate appends the history entry and moves the order.
// Unknown ids and already-terminal orders are silent no-ops: a cancelled
// order must not pick up updates from a progression step claimed before
// the cancel landed.
func (s *Store) ApplyOrderStatusUpdate(ctx context.Context, upd models.OrderStatusUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[upd.OrderID]
	if !ok || models.IsTerminalStatus(o.Status) {
		return nil
	}
	o.Status = upd.Status
	o.StatusHistory = append(o.StatusHistory, models.StatusHistoryEntry{
		Status:    upd.Status,
		Timestamp: upd.Timestamp,
		Message:   upd.Message,
	})
	if upd.Location != nil {
		loc := *upd.Location
		o.CurrentLocation = &loc
	}
	o.NextAdvanceAt = cloneTime(upd.NextAdvanceAt)
	o.UpdatedAt = upd.Timestamp
	return nil
}

// ClaimDueOrders picks orders whose automatic progression is due and leases
// them so a second worker cycle does not pick them up again.
func (s *Store) ClaimDueOrders(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []*models.Order
	for _, id := range s.orderSeq {
		o := s.orders[id]
		if o.NextAdvanceAt == nil || o.NextAdvanceAt.After(now) || models.IsTerminalStatus(o.Status) {
			continue
		}
		due = append(due, o)
	}
	sort.Slice(due, func(i, j int) bool { return due[i].NextAdvanceAt.Before(*due[j].NextAdvanceAt) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}

	leaseUntil := now.Add(lease)
	out := make([]*models.Order, 0, len(due))
	for _, o := range due {
		o.NextAdvanceAt = &leaseUntil
		out = append(out, cloneOrder(o))
	}
	return out, nil
}

func cloneOrder(o *models.Order) *models.Order {
	c := *o
	c.Items = append([]models.OrderItem(nil), o.Items...)
	c.StatusHistory = append([]models.StatusHistoryEntry(nil), o.StatusHistory...)
	if o.CurrentLocation != nil {
		loc := *o.CurrentLocation
		c.CurrentLocation = &loc
	}
	if o.Discount != nil {
		d := *o.Discount
		c.Discount = &d
	}
	c.NextAdvanceAt = cloneTime(o.NextAdvanceAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
