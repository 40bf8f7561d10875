package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lucacel82/luccacell/internal/logger"
	"github.com/lucacel82/luccacell/internal/products"
	"github.com/lucacel82/luccacell/internal/sales"
)

// salesHandler holds the sales service and implements HTTP handlers for sales operations.
type salesHandler struct {
	salesService *sales.Service
	reports      dayLocator
	logger       *zap.Logger
}

// NewSalesHandler creates a new sales handler.
func NewSalesHandler(salesService *sales.Service, reports dayLocator, logger *zap.Logger) *salesHandler {
	return &salesHandler{
		salesService: salesService,
		reports:      reports,
		logger:       logger,
	}
}

type createSaleRequest struct {
	ProductName string          `json:"product_name" binding:"required"`
	Quantity    int             `json:"quantity" binding:"required,min=1"`
	UnitValue   decimal.Decimal `json:"unit_value"`
}

type patchSaleRequest struct {
	ProductName *string          `json:"product_name" binding:"omitempty,min=1"`
	Quantity    *int             `json:"quantity" binding:"omitempty,min=1"`
	UnitValue   *decimal.Decimal `json:"unit_value"`
}

// handleCreateSale handles the POST /sales endpoint.
func (h *salesHandler) handleCreateSale(ctx *gin.Context) {
	var req createSaleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBindError(ctx, h.logger, err)
		return
	}

	sale, err := h.salesService.CreateSale(ctx.Request.Context(), ownerID(ctx), sales.SaleInput{
		ProductName: req.ProductName,
		Quantity:    req.Quantity,
		UnitValue:   req.UnitValue,
	})
	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusCreated, sale)
}

// handleGetSale handles the GET /sales/:id endpoint.
func (h *salesHandler) handleGetSale(ctx *gin.Context) {
	sale, err := h.salesService.GetSale(ctx.Request.Context(), ownerID(ctx), ctx.Param("id"))
	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}
	ctx.JSON(http.StatusOK, sale)
}

// PatchSaleHandler edits the product name, quantity or unit value of a sale.
func (h *salesHandler) PatchSaleHandler(saleService *sales.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		saleID := c.Param("id")
		var req patchSaleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, h.logger, err)
			return
		}

		updated, err := saleService.UpdateSale(c.Request.Context(), ownerID(c), saleID, sales.SalePatch{
			ProductName: req.ProductName,
			Quantity:    req.Quantity,
			UnitValue:   req.UnitValue,
		})
		if err != nil {
			respondError(c, h.logger, err)
			return
		}

		c.JSON(http.StatusOK, updated)
	}
}

// handleDeleteSale handles the DELETE /sales/:id endpoint.
func (h *salesHandler) handleDeleteSale(ctx *gin.Context) {
	if err := h.salesService.DeleteSale(ctx.Request.Context(), ownerID(ctx), ctx.Param("id")); err != nil {
		respondError(ctx, h.logger, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// handlerGetSale lists the owner's sales between the optional start and
// end days, with totals.
func (h *salesHandler) handlerGetSale(ctx *gin.Context) {
	rng, err := listRange(ctx, h.reports.Location())
	if err != nil {
		respondError(ctx, h.logger, err)
		return
	}

	salesResults, metadata, err := h.salesService.SearchSales(ctx.Request.Context(), ownerID(ctx), rng)
	if err != nil {
		logger.FromContext(ctx, h.logger).Error("Error searching sales",
			zap.String("start", ctx.Query("start")),
			zap.String("end", ctx.Query("end")),
			zap.Error(err),
		)
		respondError(ctx, h.logger, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"results": salesResults, "metadata": metadata})
}

// accountHandler serves owner-wide operations.
type accountHandler struct {
	salesService    *sales.Service
	productsService *products.Service
	logger          *zap.Logger
}

// handleClaim assigns the sales and products recorded before accounts
// existed to the caller.
func (h *accountHandler) handleClaim(c *gin.Context) {
	ctx := c.Request.Context()
	owner := ownerID(c)

	claimedSales, err := h.salesService.ClaimUnowned(ctx, owner)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	claimedProducts, err := h.productsService.ClaimUnowned(ctx, owner)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sales": claimedSales, "products": claimedProducts})
}
