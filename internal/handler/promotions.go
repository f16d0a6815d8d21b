package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"promotions/internal/apierror"
	"promotions/internal/dto"
	"promotions/internal/promoquery"
	"promotions/internal/service"

	"github.com/gin-gonic/gin"
)

type PromotionsHandler struct{ svc service.PromotionService }

func NewPromotionsHandler(svc service.PromotionService) *PromotionsHandler {
	return &PromotionsHandler{svc: svc}
}

func (h *PromotionsHandler) Create(c *gin.Context) {
	var req dto.PromotionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.Header("Location", fmt.Sprintf("/v1/promotions/%d", resp.ID))
	c.JSON(http.StatusCreated, resp)
}

// List returns every promotion matching the query-string predicates.
// Unknown parameter names are ignored; a malformed value rejects the
// whole request.
func (h *PromotionsHandler) List(c *gin.Context) {
	params := make(map[string]string)
	for name, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			params[name] = values[0]
		}
	}
	resp, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		if errors.Is(err, promoquery.ErrInvalidValue) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return
		}
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PromotionsHandler) Get(c *gin.Context) {
	id, ok := promotionID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrPromotionNotFound) {
			c.JSON(http.StatusNotFound, apierror.New(fmt.Sprintf("promotion with id %d was not found", id)))
			return
		}
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Update replaces every mutable field of the promotion; the id in the path is
// authoritative and the body cannot reassign it.
func (h *PromotionsHandler) Update(c *gin.Context) {
	id, ok := promotionID(c)
	if !ok {
		return
	}
	var req dto.PromotionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		if errors.Is(err, service.ErrPromotionNotFound) {
			c.JSON(http.StatusNotFound, apierror.New(fmt.Sprintf("promotion with id %d was not found", id)))
			return
		}
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete removes a promotion. Deleting an absent id is a success so that the
// operation stays idempotent.
func (h *PromotionsHandler) Delete(c *gin.Context) {
	id, ok := promotionID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Cancel ends a promotion immediately without deleting its record.
func (h *PromotionsHandler) Cancel(c *gin.Context) {
	id, ok := promotionID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Cancel(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrPromotionNotFound) {
			c.JSON(http.StatusNotFound, apierror.New(fmt.Sprintf("promotion with id %d was not found", id)))
			return
		}
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func promotionID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("promotion id must be an integer"))
		return 0, false
	}
	return uint(id), true
}
