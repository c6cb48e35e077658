// Package orders owns the order lifecycle: checkout, reads, manual status
// changes, cancellation and applying the progression worker's transitions.
package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/lighthub/lighthub/internal/broker/messages"
	"github.com/lighthub/lighthub/internal/cache"
	"github.com/lighthub/lighthub/internal/integrations/payment"
	"github.com/lighthub/lighthub/internal/models"
	"github.com/lighthub/lighthub/internal/pricing"
	"github.com/lighthub/lighthub/internal/services/progress"
	"github.com/pkg/errors"
)

type Repository interface {
	CreateOrder(ctx context.Context, o *models.Order) error
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	ListOrders(ctx context.Context) ([]*models.Order, error)
	ApplyOrderStatusUpdate(ctx context.Context, upd models.OrderStatusUpdate) error
}

type PromoEngine interface {
	Validate(ctx context.Context, code string, orderAmount int64) (*models.DiscountResult, error)
	Apply(ctx context.Context, code string) error
}

type Service struct {
	repo       Repository
	promo      PromoEngine
	pay        payment.Client
	cache      cache.BytesCache
	currentTTL time.Duration

	stepDelay func() time.Duration
	now       func() time.Time
}

func New(repo Repository, promo PromoEngine, pay payment.Client, c cache.BytesCache, currentTTL time.Duration) *Service {
	planner := progress.NewPlanner(progress.DefaultPlannerConfig(), nil)
	return &Service{
		repo: repo, promo: promo, pay: pay, cache: c, currentTTL: currentTTL,
		stepDelay: planner.StepDelay,
		now:       time.Now,
	}
}

// WithStepDelay overrides the delay before the first automatic step.
func (s *Service) WithStepDelay(f func() time.Duration) *Service {
	if f != nil {
		s.stepDelay = f
	}
	return s
}

// Create runs checkout: price the items, redeem the optional promo code,
// authorize payment, persist the pending order and schedule its first
// automatic step. The promo counter is only incremented after payment
// approval.
func (s *Service) Create(ctx context.Context, in models.OrderCreateInput) (*models.Order, error) {
	if len(in.Items) == 0 {
		return nil, errors.New("items is empty")
	}
	for _, it := range in.Items {
		if it.Quantity <= 0 {
			return nil, errors.New("item quantity must be positive")
		}
		if it.Price < 0 {
			return nil, errors.New("item price must not be negative")
		}
	}
	if strings.TrimSpace(in.ShippingAddress.Address) == "" {
		return nil, errors.New("shipping address is required")
	}
	if in.ShippingMethod == "" {
		in.ShippingMethod = models.ShippingStandard
	}

	var discount *models.Discount
	var discountAmount int64
	if in.PromoCode != "" {
		res, err := s.promo.Validate(ctx, in.PromoCode, pricing.Subtotal(in.Items))
		if err != nil {
			return nil, err
		}
		discountAmount = res.DiscountAmount
		discount = &models.Discount{
			Code:           res.Code,
			DiscountType:   res.DiscountType,
			DiscountAmount: res.DiscountAmount,
		}
	}

	quote := pricing.Checkout(in.Items, in.ShippingMethod, discountAmount)

	now := s.now().UTC()
	ms := now.UnixMilli()
	id := fmt.Sprintf("order-%d", ms)

	if s.pay != nil {
		res, err := s.pay.Authorize(ctx, id, quote.Total)
		if err != nil {
			return nil, errors.Wrap(err, "authorize payment")
		}
		if !res.Approved {
			return nil, models.ErrPaymentDeclined
		}
	}

	firstAdvance := now.Add(s.stepDelay())
	loc := models.StatusLocations[models.OrderStatusPending]
	o := &models.Order{
		ID:                id,
		OrderNumber:       fmt.Sprintf("ORD-%d", ms),
		TrackingNumber:    "TRK-" + randomSuffix(7),
		Items:             in.Items,
		Subtotal:          quote.Subtotal,
		Shipping:          quote.Shipping,
		Tax:               quote.Tax,
		Total:             quote.Total,
		Status:            models.OrderStatusPending,
		CreatedAt:         now,
		EstimatedDelivery: now.Add(7 * 24 * time.Hour),
		ShippingAddress:   in.ShippingAddress,
		ShippingMethod:    in.ShippingMethod,
		Discount:          discount,
		StatusHistory: []models.StatusHistoryEntry{{
			Status:    models.OrderStatusPending,
			Timestamp: now,
			Message:   models.StatusMessage(models.OrderStatusPending),
		}},
		CurrentLocation: &loc,
		NextAdvanceAt:   &firstAdvance,
		UpdatedAt:       now,
	}

	if err := s.repo.CreateOrder(ctx, o); err != nil {
		return nil, err
	}
	if discount != nil {
		if err := s.promo.Apply(ctx, discount.Code); err != nil {
			return nil, err
		}
	}

	s.cacheSet(ctx, o)
	return o, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Order, error) {
	if id == "" {
		return nil, errors.New("order id is required")
	}

	if s.cache != nil && s.currentTTL > 0 {
		b, ok, err := s.cache.Get(ctx, currentKey(id))
		if err == nil && ok {
			var o models.Order
			if json.Unmarshal(b, &o) == nil {
				return &o, nil
			}
		}
	}

	o, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, o)
	return o, nil
}

func (s *Service) List(ctx context.Context) ([]*models.Order, error) {
	return s.repo.ListOrders(ctx)
}

// AdvanceStatus applies a manual status change. Repeated calls with the same
// status append duplicate history entries; delivery of updates is
// at-least-once and history keeps every landing.
func (s *Service) AdvanceStatus(ctx context.Context, id, status, message string) error {
	if !models.IsValidStatus(status) {
		return errors.Errorf("unknown status %q", status)
	}
	if message == "" {
		message = models.StatusMessage(status)
	}

	now := s.now().UTC()
	upd := models.OrderStatusUpdate{
		OrderID:   id,
		Status:    status,
		Message:   message,
		Timestamp: now,
	}
	if loc, ok := models.StatusLocations[status]; ok {
		upd.Location = &loc
	}
	if !models.IsTerminalStatus(status) {
		na := now.Add(s.stepDelay())
		upd.NextAdvanceAt = &na
	}

	if err := s.repo.ApplyOrderStatusUpdate(ctx, upd); err != nil {
		return err
	}
	s.refreshCache(ctx, id)
	return nil
}

// Cancel moves the order to cancelled and clears the progression schedule.
// The cleared schedule plus the terminal-status guard in storage is what
// stops an already-claimed step from landing afterwards.
func (s *Service) Cancel(ctx context.Context, id string) error {
	return s.AdvanceStatus(ctx, id, models.OrderStatusCancelled, models.StatusMessage(models.OrderStatusCancelled))
}

// ApplyStatusChanged lands one worker transition from kafka.
func (s *Service) ApplyStatusChanged(ctx context.Context, msg messages.OrderStatusChanged) error {
	if msg.OrderID == "" {
		return errors.New("order_id is required")
	}
	if !models.IsValidStatus(msg.Status) {
		return errors.Errorf("unknown status %q", msg.Status)
	}
	if msg.OccurredAt.IsZero() {
		msg.OccurredAt = s.now().UTC()
	}
	if msg.Message == "" {
		msg.Message = models.StatusMessage(msg.Status)
	}

	upd := models.OrderStatusUpdate{
		OrderID:       msg.OrderID,
		Status:        msg.Status,
		Message:       msg.Message,
		Timestamp:     msg.OccurredAt,
		NextAdvanceAt: msg.NextAdvanceAt,
	}
	if loc, ok := models.StatusLocations[msg.Status]; ok {
		upd.Location = &loc
	}

	if err := s.repo.ApplyOrderStatusUpdate(ctx, upd); err != nil {
		return err
	}
	s.refreshCache(ctx, msg.OrderID)
	return nil
}

func (s *Service) cacheSet(ctx context.Context, o *models.Order) {
	if s.cache == nil || s.currentTTL <= 0 {
		return
	}
	b, _ := json.Marshal(o)
	_ = s.cache.Set(ctx, currentKey(o.ID), b, s.currentTTL)
}

func (s *Service) refreshCache(ctx context.Context, id string) {
	if s.cache == nil || s.currentTTL <= 0 {
		return
	}
	o, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return
	}
	s.cacheSet(ctx, o)
}

func currentKey(id string) string {
	return fmt.Sprintf("order:%s:current", id)
}

const suffixAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomSuffix(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = suffixAlphabet[rand.Intn(len(suffixAlphabet))]
	}
	return string(b)
}
