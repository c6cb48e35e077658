package pgshop

import (
	"context"

	"github.com/lighthub/lighthub/internal/models"
	"github.com/pkg/errors"
)

func (s *Storage) CreateNotification(ctx context.Context, n *models.Notification) error {
	var orderID *string
	if n.OrderID != "" {
		orderID = &n.OrderID
	}
	_, err := s.db.Exec(ctx, `
INSERT INTO notifications (id, type, title, message, created_at, read, order_id)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`, n.ID, n.Type, n.Title, n.Message, n.Timestamp, n.Read, orderID)
	return errors.Wrap(err, "insert notification")
}

func (s *Storage) ListNotifications(ctx context.Context) ([]*models.Notification, error) {
	rows, err := s.db.Query(ctx, `
SELECT id, type, title, message, created_at, read, order_id
FROM notifications
ORDER BY created_at DESC
`)
	if err != nil {
		return nil, errors.Wrap(err, "select notifications")
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		var n models.Notification
		var orderID *string
		if err := rows.Scan(&n.ID, &n.Type, &n.Title, &n.Message, &n.Timestamp, &n.Read, &orderID); err != nil {
			return nil, errors.Wrap(err, "scan notification")
		}
		if orderID != nil {
			n.OrderID = *orderID
		}
		out = append(out, &n)
	}
	return out, errors.Wrap(rows.Err(), "rows")
}

func (s *Storage) MarkNotificationRead(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "mark notification read")
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotificationNotFound
	}
	return nil
}

func (s *Storage) MarkAllNotificationsRead(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE read = FALSE`)
	return errors.Wrap(err, "mark all notifications read")
}
