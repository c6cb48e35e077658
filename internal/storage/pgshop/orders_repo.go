package pgshop

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lighthub/lighthub/internal/models"
	"github.com/pkg/errors"
)

func (s *Storage) CreateOrder(ctx context.Context, o *models.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return errors.Wrap(err, "marshal items")
	}
	addr, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return errors.Wrap(err, "marshal address")
	}
	var discount []byte
	if o.Discount != nil {
		if discount, err = json.Marshal(o.Discount); err != nil {
			return errors.Wrap(err, "marshal discount")
		}
	}
	var location []byte
	if o.CurrentLocation != nil {
		if location, err = json.Marshal(o.CurrentLocation); err != nil {
			return errors.Wrap(err, "marshal location")
		}
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
INSERT INTO orders (
  id, order_number, tracking_number, items,
  subtotal, shipping, tax, total,
  status, created_at, estimated_delivery,
  shipping_address, shipping_method, discount, current_location,
  next_advance_at, updated_at
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
`, o.ID, o.OrderNumber, o.TrackingNumber, items,
		o.Subtotal, o.Shipping, o.Tax, o.Total,
		o.Status, o.CreatedAt, o.EstimatedDelivery,
		addr, o.ShippingMethod, discount, location,
		o.NextAdvanceAt, o.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "insert order")
	}

	for _, h := range o.StatusHistory {
		_, err = tx.Exec(ctx, `
INSERT INTO order_status_history (order_id, status, message, created_at)
VALUES ($1,$2,$3,$4)
`, o.ID, h.Status, h.Message, h.Timestamp)
		if err != nil {
			return errors.Wrap(err, "insert history")
		}
	}

	return errors.Wrap(tx.Commit(ctx), "commit tx")
}

func (s *Storage) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	row := s.db.QueryRow(ctx, `
SELECT
  id, order_number, tracking_number, items,
  subtotal, shipping, tax, total,
  status, created_at, estimated_delivery,
  shipping_address, shipping_method, discount, current_location,
  next_advance_at, updated_at
FROM orders
WHERE id = $1
`, id)

	o, err := scanOrder(row)
	if err == pgx.ErrNoRows {
		return nil, models.ErrOrderNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select order")
	}

	if err := s.loadHistory(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Storage) ListOrders(ctx context.Context) ([]*models.Order, error) {
	rows, err := s.db.Query(ctx, `
SELECT
  id, order_number, tracking_number, items,
  subtotal, shipping, tax, total,
  status, created_at, estimated_delivery,
  shipping_address, shipping_method, discount, current_location,
  next_advance_at, updated_at
FROM orders
ORDER BY created_at DESC
`)
	if err != nil {
		return nil, errors.Wrap(err, "select orders")
	}
	defer rows.Close()

	var out []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		out = append(out, o)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}

	for _, o := range out {
		if err := s.loadHistory(ctx, o); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ApplyOrderStatusUpdate appends the history entry and moves the order in one
// transaction. Unknown ids and terminal orders update zero rows and return nil:
// a progression step claimed before a cancel landed must not resurrect the order.
func (s *Storage) ApplyOrderStatusUpdate(ctx context.Context, upd models.OrderStatusUpdate) error {
	var location []byte
	if upd.Location != nil {
		b, err := json.Marshal(upd.Location)
		if err != nil {
			return errors.Wrap(err, "marshal location")
		}
		location = b
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
UPDATE orders
SET status = $2,
    current_location = COALESCE($3, current_location),
    next_advance_at = $4,
    updated_at = $5
WHERE id = $1
  AND status NOT IN ($6, $7)
`, upd.OrderID, upd.Status, location, upd.NextAdvanceAt, upd.Timestamp,
		models.OrderStatusDelivered, models.OrderStatusCancelled)
	if err != nil {
		return errors.Wrap(err, "update order")
	}
	if tag.RowsAffected() == 0 {
		return nil
	}

	_, err = tx.Exec(ctx, `
INSERT INTO order_status_history (order_id, status, message, created_at)
VALUES ($1,$2,$3,$4)
`, upd.OrderID, upd.Status, upd.Message, upd.Timestamp)
	if err != nil {
		return errors.Wrap(err, "insert history")
	}

	return errors.Wrap(tx.Commit(ctx), "commit tx")
}

// ClaimDueOrders picks a batch of orders whose automatic progression is due
// and leases them so they stay out of the next cycle while in flight.
// Uses SELECT ... FOR UPDATE SKIP LOCKED so concurrent workers never claim the same order.
func (s *Storage) ClaimDueOrders(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]*models.Order, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
SELECT
  id, order_number, tracking_number, items,
  subtotal, shipping, tax, total,
  status, created_at, estimated_delivery,
  shipping_address, shipping_method, discount, current_location,
  next_advance_at, updated_at
FROM orders
WHERE next_advance_at IS NOT NULL
  AND next_advance_at <= $1
  AND status NOT IN ($2, $3)
ORDER BY next_advance_at ASC
LIMIT $4
FOR UPDATE SKIP LOCKED
`, now.UTC(), models.OrderStatusDelivered, models.OrderStatusCancelled, limit)
	if err != nil {
		return nil, errors.Wrap(err, "select due orders")
	}
	defer rows.Close()

	var picked []*models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan due order")
		}
		picked = append(picked, o)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}

	leaseUntil := now.UTC().Add(lease)
	for _, o := range picked {
		_, err := tx.Exec(ctx, `UPDATE orders SET next_advance_at = $2, updated_at = now() WHERE id = $1`, o.ID, leaseUntil)
		if err != nil {
			return nil, errors.Wrap(err, "lease order")
		}
		o.NextAdvanceAt = &leaseUntil
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit tx")
	}
	return picked, nil
}

func scanOrder(row pgx.Row) (*models.Order, error) {
	var o models.Order
	var items, addr []byte
	var discount, location []byte
	var nextAdvanceAt *time.Time
	if err := row.Scan(
		&o.ID, &o.OrderNumber, &o.TrackingNumber, &items,
		&o.Subtotal, &o.Shipping, &o.Tax, &o.Total,
		&o.Status, &o.CreatedAt, &o.EstimatedDelivery,
		&addr, &o.ShippingMethod, &discount, &location,
		&nextAdvanceAt, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, errors.Wrap(err, "unmarshal items")
	}
	if err := json.Unmarshal(addr, &o.ShippingAddress); err != nil {
		return nil, errors.Wrap(err, "unmarshal address")
	}
	if len(discount) > 0 {
		o.Discount = &models.Discount{}
		if err := json.Unmarshal(discount, o.Discount); err != nil {
			return nil, errors.Wrap(err, "unmarshal discount")
		}
	}
	if len(location) > 0 {
		o.CurrentLocation = &models.Location{}
		if err := json.Unmarshal(location, o.CurrentLocation); err != nil {
			return nil, errors.Wrap(err, "unmarshal location")
		}
	}
	o.NextAdvanceAt = nextAdvanceAt
	return &o, nil
}

func (s *Storage) loadHistory(ctx context.Context, o *models.Order) error {
	rows, err := s.db.Query(ctx, `
SELECT status, message, created_at
FROM order_status_history
WHERE order_id = $1
ORDER BY id ASC
`, o.ID)
	if err != nil {
		return errors.Wrap(err, "select history")
	}
	defer rows.Close()

	for rows.Next() {
		var h models.StatusHistoryEntry
		if err := rows.Scan(&h.Status, &h.Message, &h.Timestamp); err != nil {
			return errors.Wrap(err, "scan history")
		}
		o.StatusHistory = append(o.StatusHistory, h)
	}
	return errors.Wrap(rows.Err(), "rows")
}
