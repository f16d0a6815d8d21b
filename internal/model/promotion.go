package model

import (
	"fmt"
	"time"
)

// PromoType is the closed set of supported promotion mechanics.
type PromoType string

const (
	// PromoTypeBOGO — buy one get one free; always valued as a flat 50% discount.
	PromoTypeBOGO PromoType = "BOGO"
	// PromoTypeDiscount — Amount is a percentage off.
	PromoTypeDiscount PromoType = "DISCOUNT"
	// PromoTypeFixed — Amount is a currency amount subtracted from the price.
	PromoTypeFixed PromoType = "FIXED"
)

// ParsePromoType converts a wire string into a PromoType, failing closed on
// anything outside the enumeration.
func ParsePromoType(s string) (PromoType, error) {
	switch PromoType(s) {
	case PromoTypeBOGO, PromoTypeDiscount, PromoTypeFixed:
		return PromoType(s), nil
	}
	return "", fmt.Errorf("unknown promo_type %q", s)
}

// Promotion is a discount offer. When IsSiteWide is false the offer only
// applies to the products linked through the promotion_products join table.
type Promotion struct {
	ID          uint      `gorm:"primaryKey"`
	Title       string    `gorm:"size:63;not null"`
	Description *string   `gorm:"type:text"`
	PromoCode   *string   `gorm:"size:63;index"`
	PromoType   PromoType `gorm:"size:16;not null"`
	Amount      int       `gorm:"not null"`
	StartDate   time.Time `gorm:"not null"`
	EndDate     time.Time `gorm:"not null;index"`
	IsSiteWide  bool      `gorm:"not null;default:false"`
	Products    []Product `gorm:"many2many:promotion_products"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ActiveAt reports whether the promotion's window contains t (inclusive on
// both ends).
func (p *Promotion) ActiveAt(t time.Time) bool {
	return !t.Before(p.StartDate) && !t.After(p.EndDate)
}

// AppliesTo reports whether the promotion covers the given product: either it
// is site-wide or the product is a member of its Products set.
func (p *Promotion) AppliesTo(productID uint) bool {
	if p.IsSiteWide {
		return true
	}
	return p.HasProduct(productID)
}

// HasProduct reports strict membership in the Products association,
// ignoring IsSiteWide.
func (p *Promotion) HasProduct(productID uint) bool {
	for _, prod := range p.Products {
		if prod.ID == productID {
			return true
		}
	}
	return false
}
