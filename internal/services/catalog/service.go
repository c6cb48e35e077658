// Package catalog is the product catalog behind the storefront and admin CRUD.
package catalog

import (
	"context"
	"strings"

	"github.com/lighthub/lighthub/internal/models"
	"github.com/pkg/errors"
)

type Repository interface {
	ListProducts(ctx context.Context) ([]*models.Product, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id int64) error
}

type Service struct {
	repo Repository
}

func New(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]*models.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*models.Product, error) {
	if id <= 0 {
		return nil, models.ErrProductNotFound
	}
	return s.repo.GetProductByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	if err := validate(p); err != nil {
		return nil, err
	}
	return s.repo.CreateProduct(ctx, p)
}

func (s *Service) Update(ctx context.Context, p *models.Product) error {
	if p.ID <= 0 {
		return models.ErrProductNotFound
	}
	if err := validate(p); err != nil {
		return err
	}
	return s.repo.UpdateProduct(ctx, p)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.DeleteProduct(ctx, id)
}

func validate(p *models.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("name is required")
	}
	if p.Price < 0 {
		return errors.New("price must not be negative")
	}
	if p.Stock < 0 {
		return errors.New("stock must not be negative")
	}
	return nil
}
