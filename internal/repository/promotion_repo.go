package repository

import (
	"context"

	"promotions/internal/model"

	"gorm.io/gorm"
)

// PromotionRepository defines the data access contract for promotions.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via in-memory stubs.
type PromotionRepository interface {
	Create(ctx context.Context, p *model.Promotion) error
	FindByID(ctx context.Context, id uint) (*model.Promotion, error)
	// Snapshot returns every promotion with its products preloaded, ordered
	// by id (creation order). The filter engine and the best-offer selector
	// both operate over this read-consistent view, so a single call never
	// observes mid-iteration mutations.
	Snapshot(ctx context.Context) ([]model.Promotion, error)
	Update(ctx context.Context, p *model.Promotion) error
	Delete(ctx context.Context, id uint) error
}

type promotionRepo struct{ db *gorm.DB }

func NewPromotionRepository(db *gorm.DB) PromotionRepository { return &promotionRepo{db: db} }

func (r *promotionRepo) Create(ctx context.Context, p *model.Promotion) error {
	// Products are created implicitly on first reference; FirstOrCreate keeps
	// re-referencing an existing id a no-op.
	for i := range p.Products {
		if err := r.db.WithContext(ctx).FirstOrCreate(&p.Products[i]).Error; err != nil {
			return err
		}
	}
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *promotionRepo) FindByID(ctx context.Context, id uint) (*model.Promotion, error) {
	var p model.Promotion
	err := r.db.WithContext(ctx).Preload("Products").First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *promotionRepo) Snapshot(ctx context.Context) ([]model.Promotion, error) {
	var promotions []model.Promotion
	err := r.db.WithContext(ctx).Preload("Products").Order("id ASC").Find(&promotions).Error
	return promotions, err
}

func (r *promotionRepo) Update(ctx context.Context, p *model.Promotion) error {
	for i := range p.Products {
		if err := r.db.WithContext(ctx).FirstOrCreate(&p.Products[i]).Error; err != nil {
			return err
		}
	}
	// Save persists scalar columns; Replace reconciles the join table so that
	// removed product references actually go away.
	if err := r.db.WithContext(ctx).Omit("Products").Save(p).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(p).Association("Products").Replace(p.Products)
}

func (r *promotionRepo) Delete(ctx context.Context, id uint) error {
	p := model.Promotion{ID: id}
	// Clear join rows first — products themselves are never deleted.
	if err := r.db.WithContext(ctx).Model(&p).Association("Products").Clear(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&p).Error
}
