// Package notifications maintains the customer notification feed. Entries are
// raised at checkout and for every status transition landed from the worker.
package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/lighthub/lighthub/internal/models"
	"github.com/pkg/errors"
)

type Repository interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func New(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// NotifyOrderCreated raises the checkout confirmation entry.
func (s *Service) NotifyOrderCreated(ctx context.Context, o *models.Order) error {
	return s.create(ctx, &models.Notification{
		Type:    models.NotificationSuccess,
		Title:   "Order Confirmed",
		Message: fmt.Sprintf("Your order %s has been received and is being processed.", o.OrderNumber),
		OrderID: o.ID,
	})
}

// NotifyStatusChanged raises one feed entry per landed transition.
// Cancellation is a warning, everything else informational.
func (s *Service) NotifyStatusChanged(ctx context.Context, orderID, orderNumber, status string) error {
	kind := models.NotificationInfo
	if status == models.OrderStatusCancelled {
		kind = models.NotificationWarning
	}
	title := "Order Update"
	if status == models.OrderStatusDelivered {
		title = "Order Delivered"
		kind = models.NotificationSuccess
	}
	msg := models.StatusMessage(status)
	if orderNumber != "" {
		msg = fmt.Sprintf("%s: %s", orderNumber, msg)
	}
	return s.create(ctx, &models.Notification{
		Type:    kind,
		Title:   title,
		Message: msg,
		OrderID: orderID,
	})
}

func (s *Service) create(ctx context.Context, n *models.Notification) error {
	now := s.now().UTC()
	n.ID = fmt.Sprintf("ntf-%d", now.UnixNano())
	n.Timestamp = now
	n.Read = false
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		return errors.Wrap(err, "create notification")
	}
	return nil
}

func (s *Service) List(ctx context.Context) ([]*models.Notification, error) {
	return s.repo.ListNotifications(ctx)
}

func (s *Service) UnreadCount(ctx context.Context) (int, error) {
	all, err := s.repo.ListNotifications(ctx)
	if err != nil {
		return 0, err
	}
	var n int
	for _, x := range all {
		if !x.Read {
			n++
		}
	}
	return n, nil
}

func (s *Service) MarkRead(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("notification id is required")
	}
	return s.repo.MarkNotificationRead(ctx, id)
}

func (s *Service) MarkAllRead(ctx context.Context) error {
	return s.repo.MarkAllNotificationsRead(ctx)
}
