package service

import (
	"context"
	"errors"
	"time"

	"promotions/internal/dto"
	"promotions/internal/model"
	"promotions/internal/promoquery"
	"promotions/internal/repository"
	"promotions/internal/worker"

	"gorm.io/gorm"
)

// ErrPromotionNotFound is returned for lookups, updates, and cancels against
// an id that is not in the store.
var ErrPromotionNotFound = errors.New("promotion not found")

// PromotionService defines the business logic contract for promotion records.
type PromotionService interface {
	Create(ctx context.Context, req dto.PromotionRequest) (*dto.PromotionResponse, error)
	Get(ctx context.Context, id uint) (*dto.PromotionResponse, error)
	// List applies the promoquery engine over a snapshot; params are the raw
	// query-string values. Unknown names are ignored, malformed values
	// surface promoquery.ErrInvalidValue.
	List(ctx context.Context, params map[string]string) ([]dto.PromotionResponse, error)
	Update(ctx context.Context, id uint, req dto.PromotionRequest) (*dto.PromotionResponse, error)
	Delete(ctx context.Context, id uint) error
	// Cancel ends a promotion immediately by moving its end_date to now.
	Cancel(ctx context.Context, id uint) (*dto.PromotionResponse, error)
}

type promotionService struct {
	repo       repository.PromotionRepository
	dispatcher *worker.Dispatcher
}

func NewPromotionService(repo repository.PromotionRepository, dispatcher *worker.Dispatcher) PromotionService {
	return &promotionService{repo: repo, dispatcher: dispatcher}
}

func (s *promotionService) Create(ctx context.Context, req dto.PromotionRequest) (*dto.PromotionResponse, error) {
	p := fromRequest(req)
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.invalidateOffers(ctx)
	return toResponse(p), nil
}

func (s *promotionService) Get(ctx context.Context, id uint) (*dto.PromotionResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPromotionNotFound
		}
		return nil, err
	}
	return toResponse(p), nil
}

func (s *promotionService) List(ctx context.Context, params map[string]string) ([]dto.PromotionResponse, error) {
	snapshot, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	matched, err := promoquery.Filter(snapshot, params)
	if err != nil {
		return nil, err
	}
	responses := make([]dto.PromotionResponse, 0, len(matched))
	for i := range matched {
		responses = append(responses, *toResponse(&matched[i]))
	}
	return responses, nil
}

func (s *promotionService) Update(ctx context.Context, id uint, req dto.PromotionRequest) (*dto.PromotionResponse, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPromotionNotFound
		}
		return nil, err
	}

	p := fromRequest(req)
	p.ID = existing.ID // identity is immutable — body cannot reassign it
	p.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.invalidateOffers(ctx)
	return toResponse(p), nil
}

func (s *promotionService) Delete(ctx context.Context, id uint) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Idempotent: deleting an absent promotion is a success.
			return nil
		}
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateOffers(ctx)
	return nil
}

func (s *promotionService) Cancel(ctx context.Context, id uint) (*dto.PromotionResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPromotionNotFound
		}
		return nil, err
	}
	p.EndDate = time.Now()
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.invalidateOffers(ctx)
	return toResponse(p), nil
}

// invalidateOffers enqueues an offer-cache flush after any mutation.
// Best effort: a lost job only delays invalidation until the cache TTL or the
// expiry sweep catches up.
func (s *promotionService) invalidateOffers(ctx context.Context) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.EnqueueOfferInvalidate(ctx)
}

// ─── Mapping ─────────────────────────────────────────────────────────────────

func fromRequest(req dto.PromotionRequest) *model.Promotion {
	products := make([]model.Product, 0, len(req.Products))
	for _, id := range req.Products {
		products = append(products, model.Product{ID: id})
	}
	return &model.Promotion{
		Title:       req.Title,
		Description: req.Description,
		PromoCode:   req.PromoCode,
		PromoType:   model.PromoType(req.PromoType),
		Amount:      req.Amount,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		IsSiteWide:  req.IsSiteWide,
		Products:    products,
	}
}

func toResponse(p *model.Promotion) *dto.PromotionResponse {
	products := make([]uint, 0, len(p.Products))
	for _, prod := range p.Products {
		products = append(products, prod.ID)
	}
	return &dto.PromotionResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		PromoCode:   p.PromoCode,
		PromoType:   string(p.PromoType),
		Amount:      p.Amount,
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		IsSiteWide:  p.IsSiteWide,
		Products:    products,
	}
}
