package repository

import (
	"context"

	"promotions/internal/model"

	"gorm.io/gorm"
)

// ProductRepository exposes the implicitly-created product identities.
type ProductRepository interface {
	List(ctx context.Context) ([]model.Product, error)
	Ensure(ctx context.Context, ids []uint) error
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) List(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Order("id ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) Ensure(ctx context.Context, ids []uint) error {
	for _, id := range ids {
		if err := r.db.WithContext(ctx).FirstOrCreate(&model.Product{ID: id}).Error; err != nil {
			return err
		}
	}
	return nil
}
