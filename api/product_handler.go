package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lucacel82/luccacell/internal/products"
)

type productHandler struct {
	products *products.Service
	logger   *zap.Logger
}

type createProductRequest struct {
	Name    string          `json:"name" binding:"required"`
	Price   decimal.Decimal `json:"price"`
	Stock   int             `json:"stock" binding:"min=0"`
	Barcode string          `json:"barcode" binding:"max=64"`
}

type patchProductRequest struct {
	Name    *string          `json:"name" binding:"omitempty,min=1"`
	Price   *decimal.Decimal `json:"price"`
	Stock   *int             `json:"stock" binding:"omitempty,min=0"`
	Barcode *string          `json:"barcode" binding:"omitempty,max=64"`
}

func (h *productHandler) handleCreate(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, err)
		return
	}

	product, err := h.products.CreateProduct(c.Request.Context(), ownerID(c), products.ProductInput{
		Name:    req.Name,
		Price:   req.Price,
		Stock:   req.Stock,
		Barcode: req.Barcode,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// handleList lists the catalogue, filtered by name when ?q= is set.
func (h *productHandler) handleList(c *gin.Context) {
	results, err := h.products.ListProducts(c.Request.Context(), ownerID(c), c.Query("q"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *productHandler) handleGet(c *gin.Context) {
	product, err := h.products.GetProduct(c.Request.Context(), ownerID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *productHandler) handlePatch(c *gin.Context) {
	var req patchProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, h.logger, err)
		return
	}

	product, err := h.products.UpdateProduct(c.Request.Context(), ownerID(c), c.Param("id"), products.ProductPatch{
		Name:    req.Name,
		Price:   req.Price,
		Stock:   req.Stock,
		Barcode: req.Barcode,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *productHandler) handleDelete(c *gin.Context) {
	if err := h.products.DeleteProduct(c.Request.Context(), ownerID(c), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
