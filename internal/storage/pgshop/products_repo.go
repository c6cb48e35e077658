package pgshop

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/lighthub/lighthub/internal/models"
	"github.com/pkg/errors"
)

func (s *Storage) ListProducts(ctx context.Context) ([]*models.Product, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name, price, stock FROM products ORDER BY id ASC`)
	if err != nil {
		return nil, errors.Wrap(err, "select products")
	}
	defer rows.Close()

	var out []*models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock); err != nil {
			return nil, errors.Wrap(err, "scan product")
		}
		out = append(out, &p)
	}
	return out, errors.Wrap(rows.Err(), "rows")
}

func (s *Storage) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	err := s.db.QueryRow(ctx, `SELECT id, name, price, stock FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Price, &p.Stock)
	if err == pgx.ErrNoRows {
		return nil, models.ErrProductNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select product")
	}
	return &p, nil
}

func (s *Storage) CreateProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	err := s.db.QueryRow(ctx, `
INSERT INTO products (name, price, stock) VALUES ($1,$2,$3) RETURNING id
`, p.Name, p.Price, p.Stock).Scan(&p.ID)
	if err != nil {
		return nil, errors.Wrap(err, "insert product")
	}
	return p, nil
}

func (s *Storage) UpdateProduct(ctx context.Context, p *models.Product) error {
	tag, err := s.db.Exec(ctx, `
UPDATE products SET name = $2, price = $3, stock = $4 WHERE id = $1
`, p.ID, p.Name, p.Price, p.Stock)
	if err != nil {
		return errors.Wrap(err, "update product")
	}
	if tag.RowsAffected() == 0 {
		return models.ErrProductNotFound
	}
	return nil
}

func (s *Storage) DeleteProduct(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete product")
	}
	if tag.RowsAffected() == 0 {
		return models.ErrProductNotFound
	}
	return nil
}
