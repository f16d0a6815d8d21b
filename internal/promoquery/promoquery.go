// Package promoquery turns the named filter parameters accepted on the list
// endpoint into an in-memory conjunction over a snapshot of promotions.
// It is purely read-only: callers hand it an ordered slice and get back an
// order-preserving subset.
package promoquery

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"promotions/internal/model"
)

// ErrInvalidValue marks a filter value that cannot be parsed for its
// predicate's expected type. The whole query is rejected — no partial results.
var ErrInvalidValue = errors.New("invalid filter value")

// predicate reports whether a single promotion satisfies one constraint.
type predicate func(p *model.Promotion) bool

// builder compiles a raw parameter value into a predicate. now is the shared
// instant captured once per Filter call so that derived predicates (active)
// partition the collection consistently.
type builder func(value string, now time.Time) (predicate, error)

// dateLayouts are tried in order when parsing date-valued parameters.
// Clients of the original service sent anything from RFC 1123 to bare dates.
var dateLayouts = []string{
	time.RFC3339,
	time.RFC1123,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", value)
}

// builders registers every recognized parameter name. Names absent from this
// map are ignored by contract, not rejected.
var builders = map[string]builder{
	"id": func(value string, _ time.Time) (predicate, error) {
		id, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return nil, err
		}
		return func(p *model.Promotion) bool { return p.ID == uint(id) }, nil
	},
	"title": func(value string, _ time.Time) (predicate, error) {
		return func(p *model.Promotion) bool { return p.Title == value }, nil
	},
	"promo_code": func(value string, _ time.Time) (predicate, error) {
		return func(p *model.Promotion) bool {
			return p.PromoCode != nil && *p.PromoCode == value
		}, nil
	},
	"promo_type": func(value string, _ time.Time) (predicate, error) {
		pt, err := model.ParsePromoType(value)
		if err != nil {
			return nil, err
		}
		return func(p *model.Promotion) bool { return p.PromoType == pt }, nil
	},
	"amount": func(value string, _ time.Time) (predicate, error) {
		amount, err := strconv.Atoi(value)
		if err != nil {
			return nil, err
		}
		return func(p *model.Promotion) bool { return p.Amount == amount }, nil
	},
	"is_site_wide": func(value string, _ time.Time) (predicate, error) {
		siteWide, err := strconv.ParseBool(value)
		if err != nil {
			return nil, err
		}
		return func(p *model.Promotion) bool { return p.IsSiteWide == siteWide }, nil
	},
	"start_date": func(value string, _ time.Time) (predicate, error) {
		t, err := parseDate(value)
		if err != nil {
			return nil, err
		}
		return func(p *model.Promotion) bool { return p.StartDate.Equal(t) }, nil
	},
	"end_date": func(value string, _ time.Time) (predicate, error) {
		t, err := parseDate(value)
		if err != nil {
			return nil, err
		}
		return func(p *model.Promotion) bool { return p.EndDate.Equal(t) }, nil
	},
	// duration=N matches promotions lasting exactly N days:
	// start_date + N days == end_date. Off-by-one never matches.
	"duration": func(value string, _ time.Time) (predicate, error) {
		days, err := strconv.Atoi(value)
		if err != nil {
			return nil, err
		}
		return func(p *model.Promotion) bool {
			return p.StartDate.AddDate(0, 0, days).Equal(p.EndDate)
		}, nil
	},
	// active=1 selects promotions whose window contains now; active=0 selects
	// the complement. Together they partition the collection exactly for the
	// now captured at the start of the Filter call.
	"active": func(value string, now time.Time) (predicate, error) {
		switch value {
		case "1":
			return func(p *model.Promotion) bool { return p.ActiveAt(now) }, nil
		case "0":
			return func(p *model.Promotion) bool { return !p.ActiveAt(now) }, nil
		}
		return nil, fmt.Errorf("active must be 0 or 1, got %q", value)
	},
	// product=P matches promotions applicable to P: membership in the
	// products set, or any site-wide promotion (site-wide implies universal
	// applicability).
	"product": func(value string, _ time.Time) (predicate, error) {
		id, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return nil, err
		}
		return func(p *model.Promotion) bool { return p.AppliesTo(uint(id)) }, nil
	},
}

// Filter returns the subset of promotions matching every recognized parameter.
// An empty parameter map returns the input unchanged. Unknown parameter names
// are ignored; malformed values abort the query with ErrInvalidValue.
func Filter(promotions []model.Promotion, params map[string]string) ([]model.Promotion, error) {
	if len(params) == 0 {
		return promotions, nil
	}

	now := time.Now()
	preds := make([]predicate, 0, len(params))
	for name, value := range params {
		build, ok := builders[name]
		if !ok {
			continue
		}
		pred, err := build(value, now)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q: %v", ErrInvalidValue, name, value, err)
		}
		preds = append(preds, pred)
	}
	if len(preds) == 0 {
		return promotions, nil
	}

	matched := make([]model.Promotion, 0, len(promotions))
outer:
	for i := range promotions {
		for _, pred := range preds {
			if !pred(&promotions[i]) {
				continue outer
			}
		}
		matched = append(matched, promotions[i])
	}
	return matched, nil
}
