package handler

import (
	"net/http"
	"net/url"
	"strings"

	"promotions/internal/apierror"
	"promotions/internal/dto"
	"promotions/internal/service"

	"github.com/gin-gonic/gin"
)

type OffersHandler struct{ svc service.OfferService }

func NewOffersHandler(svc service.OfferService) *OffersHandler {
	return &OffersHandler{svc: svc}
}

// Apply evaluates the best promotion for each product=price pair in the query
// string. The response preserves request order, one single-entry object per
// product with a winner; any entry with a malformed or non-positive price
// turns the whole response into a 400 with per-product field errors.
func (h *OffersHandler) Apply(c *gin.Context) {
	queries, err := parseOfferQueries(c.Request.URL.RawQuery)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("malformed query string"))
		return
	}
	if len(queries) == 0 {
		c.JSON(http.StatusOK, []dto.BestOfferEntry{})
		return
	}

	results, fieldErrors, err := h.svc.BestOffers(c.Request.Context(), queries)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if len(fieldErrors) > 0 {
		c.JSON(http.StatusBadRequest, apierror.NewValidation(fieldErrors))
		return
	}
	c.JSON(http.StatusOK, results)
}

// parseOfferQueries walks the raw query string instead of url.Values so that
// the client's pair order survives into the response.
func parseOfferQueries(rawQuery string) ([]service.OfferQuery, error) {
	queries := make([]service.OfferQuery, 0)
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		product, err := url.QueryUnescape(key)
		if err != nil {
			return nil, err
		}
		price, err := url.QueryUnescape(value)
		if err != nil {
			return nil, err
		}
		queries = append(queries, service.OfferQuery{ProductID: product, Price: price})
	}
	return queries, nil
}
