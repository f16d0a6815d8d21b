// Package offer selects the single promotion yielding the greatest effective
// discount for a product at a reference price. Like promoquery, it is a pure
// function over a snapshot — the repository guarantees the slice is ordered by
// creation (id) so the tie-break below stays reproducible.
package offer

import (
	"errors"
	"fmt"
	"time"

	"promotions/internal/model"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidPrice rejects price <= 0, where the FIXED formula divides by
	// zero or yields negative percentages.
	ErrInvalidPrice = errors.New("price must be greater than zero")

	// ErrUnknownPromoType flags a stored record whose promo_type falls outside
	// the closed set. This is data corruption, not caller error — never skip it.
	ErrUnknownPromoType = errors.New("promotion has unknown promo_type")
)

var (
	fifty   = decimal.NewFromInt(50)
	hundred = decimal.NewFromInt(100)
)

// Best returns the promotion with the greatest effective discount among all
// promotions active at now and applicable to productID, or nil when nothing
// beats a zero discount.
//
// Candidates are visited site-wide group first, then product-specific group,
// each in input order; every comparison is a strict greater-than, so the
// first-encountered candidate at any given discount value wins. Callers
// depend on that exact tie-break.
func Best(promotions []model.Promotion, productID uint, price int64, now time.Time) (*model.Promotion, error) {
	if price <= 0 {
		return nil, ErrInvalidPrice
	}

	// Two-phase candidate order. A site-wide promotion that also lists the
	// product enters once, through the first group.
	candidates := make([]*model.Promotion, 0, len(promotions))
	for i := range promotions {
		p := &promotions[i]
		if p.IsSiteWide && p.ActiveAt(now) {
			candidates = append(candidates, p)
		}
	}
	for i := range promotions {
		p := &promotions[i]
		if !p.IsSiteWide && p.ActiveAt(now) && p.HasProduct(productID) {
			candidates = append(candidates, p)
		}
	}

	priceDec := decimal.NewFromInt(price)
	var best *model.Promotion
	bestDiscount := decimal.Zero

	for _, p := range candidates {
		switch p.PromoType {
		case model.PromoTypeDiscount:
			d := decimal.NewFromInt(int64(p.Amount))
			if d.GreaterThan(bestDiscount) {
				best, bestDiscount = p, d
			}
		case model.PromoTypeBOGO:
			// Flat 50% — never displaces an existing 50+ result.
			if bestDiscount.LessThan(fifty) {
				best, bestDiscount = p, fifty
			}
		case model.PromoTypeFixed:
			// Percentage saved when paying Amount instead of price.
			// Amount > price yields a discount above 100% — accepted as-is.
			d := priceDec.Sub(decimal.NewFromInt(int64(p.Amount))).Div(priceDec).Mul(hundred)
			if d.GreaterThan(bestDiscount) {
				best, bestDiscount = p, d
			}
		default:
			return nil, fmt.Errorf("%w: %q (promotion %d)", ErrUnknownPromoType, p.PromoType, p.ID)
		}
	}

	return best, nil
}
