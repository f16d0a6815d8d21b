package service

import (
	"context"
	"strconv"
	"time"

	"promotions/internal/dto"
	"promotions/internal/model"
	"promotions/internal/offer"
	"promotions/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// OfferQuery is one raw product=price pair from the apply endpoint, kept as
// strings so that parse failures can be reported per entry.
type OfferQuery struct {
	ProductID string
	Price     string
}

// OfferService evaluates the best applicable promotion per product.
type OfferService interface {
	// BestOffers evaluates each query independently and in order. The first
	// return value holds one single-entry mapping per product with a winning
	// promotion (no-winner products are omitted); the second maps the raw
	// product key of every rejected entry to its reason. Rejected entries
	// never abort the rest of the batch.
	BestOffers(ctx context.Context, queries []OfferQuery) ([]dto.BestOfferEntry, map[string]string, error)
}

type offerService struct {
	repo repository.PromotionRepository
	rdb  *redis.Client
	ttl  time.Duration
}

func NewOfferService(repo repository.PromotionRepository, rdb *redis.Client, cacheTTL time.Duration) OfferService {
	return &offerService{repo: repo, rdb: rdb, ttl: cacheTTL}
}

// OfferCacheKey is the redis key for a cached winner. The value is the
// winning promo_code, or empty when the evaluation found no offer.
func OfferCacheKey(productID uint, price int64) string {
	return "offer:" + strconv.FormatUint(uint64(productID), 10) + ":" + strconv.FormatInt(price, 10)
}

func (s *offerService) BestOffers(ctx context.Context, queries []OfferQuery) ([]dto.BestOfferEntry, map[string]string, error) {
	results := make([]dto.BestOfferEntry, 0, len(queries))
	fieldErrors := make(map[string]string)

	// The snapshot is fetched at most once per batch, and only when some
	// entry misses the cache, so every product in the batch sees the same
	// promotion set and the same "now".
	var snapshot []model.Promotion
	fetched := false
	now := time.Now()

	for _, q := range queries {
		productID, err := strconv.ParseUint(q.ProductID, 10, 64)
		if err != nil {
			fieldErrors[q.ProductID] = "product id must be an integer"
			continue
		}
		price, err := strconv.ParseInt(q.Price, 10, 64)
		if err != nil {
			fieldErrors[q.ProductID] = "price must be an integer"
			continue
		}
		if price <= 0 {
			fieldErrors[q.ProductID] = offer.ErrInvalidPrice.Error()
			continue
		}

		if code, ok := s.cachedOffer(ctx, uint(productID), price); ok {
			if code != "" {
				results = append(results, dto.BestOfferEntry{q.ProductID: code})
			}
			continue
		}

		if !fetched {
			snapshot, err = s.repo.Snapshot(ctx)
			if err != nil {
				return nil, nil, err
			}
			fetched = true
		}

		best, err := offer.Best(snapshot, uint(productID), price, now)
		if err != nil {
			// ErrInvalidPrice is already handled above, so anything here is
			// the data-integrity fault (unknown stored promo_type) or worse.
			return nil, nil, err
		}

		code := ""
		if best != nil && best.PromoCode != nil {
			code = *best.PromoCode
		}
		s.cacheOffer(ctx, uint(productID), price, code)
		if code != "" {
			results = append(results, dto.BestOfferEntry{q.ProductID: code})
		}
	}

	return results, fieldErrors, nil
}

func (s *offerService) cachedOffer(ctx context.Context, productID uint, price int64) (string, bool) {
	if s.rdb == nil {
		return "", false
	}
	code, err := s.rdb.Get(ctx, OfferCacheKey(productID, price)).Result()
	if err != nil {
		return "", false
	}
	return code, true
}

func (s *offerService) cacheOffer(ctx context.Context, productID uint, price int64, code string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Set(ctx, OfferCacheKey(productID, price), code, s.ttl).Err(); err != nil {
		log.Warn().Err(err).Uint("product_id", productID).Msg("offer cache write failed")
	}
}
