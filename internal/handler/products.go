package handler

import (
	"net/http"

	"promotions/internal/dto"
	"promotions/internal/repository"

	"github.com/gin-gonic/gin"
)

type ProductsHandler struct{ repo repository.ProductRepository }

func NewProductsHandler(repo repository.ProductRepository) *ProductsHandler {
	return &ProductsHandler{repo: repo}
}

// List returns every product id the catalog has seen. Products only exist as
// references created implicitly by promotions.
func (h *ProductsHandler) List(c *gin.Context) {
	products, err := h.repo.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	resp := make([]dto.ProductResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, dto.ProductResponse{ID: p.ID})
	}
	c.JSON(http.StatusOK, resp)
}
