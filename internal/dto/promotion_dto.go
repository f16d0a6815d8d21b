package dto

import "time"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// PromotionRequest is the body for both create and full update — the update
// replaces every mutable field, matching the wire contract of the original
// service (identity is never taken from the body).
type PromotionRequest struct {
	Title       string    `json:"title"        validate:"required,min=1,max=63"`
	Description *string   `json:"description"`
	PromoCode   *string   `json:"promo_code"   validate:"omitempty,max=63"`
	PromoType   string    `json:"promo_type"   validate:"required,oneof=BOGO DISCOUNT FIXED"`
	Amount      int       `json:"amount"       validate:"min=0"`
	StartDate   time.Time `json:"start_date"   validate:"required"`
	EndDate     time.Time `json:"end_date"     validate:"required"`
	IsSiteWide  bool      `json:"is_site_wide"`
	Products    []uint    `json:"products"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PromotionResponse struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	PromoCode   *string   `json:"promo_code"`
	PromoType   string    `json:"promo_type"`
	Amount      int       `json:"amount"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	IsSiteWide  bool      `json:"is_site_wide"`
	Products    []uint    `json:"products"`
}

type ProductResponse struct {
	ID uint `json:"id"`
}

// BestOfferEntry is one element of the /promotions/apply response: a
// single-entry mapping from product id (string-encoded) to the winning
// promo_code. Products with no winning promotion are omitted entirely.
type BestOfferEntry map[string]string
