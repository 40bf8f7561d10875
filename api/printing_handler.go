package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lucacel82/luccacell/internal/logger"
	"github.com/lucacel82/luccacell/internal/printing"
	"github.com/lucacel82/luccacell/internal/products"
	"github.com/lucacel82/luccacell/internal/report"
	"github.com/lucacel82/luccacell/internal/sales"
)

const htmlContentType = "text/html; charset=utf-8"

// printingHandler serves printer settings, labels and the cash closing.
// pdf is nil when PDF rendering is disabled.
type printingHandler struct {
	settings *printing.SettingsService
	sales    *sales.Service
	products *products.Service
	reports  *report.Assembler
	pdf      printing.PDFRenderer
	now      func() time.Time
	logger   *zap.Logger
}

func (h *printingHandler) handleGetSettings(c *gin.Context) {
	settings, err := h.settings.Get(c.Request.Context(), ownerID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *printingHandler) handleUpdateSettings(c *gin.Context) {
	var patch printing.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBindError(c, h.logger, err)
		return
	}
	settings, err := h.settings.Update(c.Request.Context(), ownerID(c), patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// handleCashClosing renders the closing of ?date= (today when omitted) as
// HTML, or as a PDF download with ?format=pdf.
func (h *printingHandler) handleCashClosing(c *gin.Context) {
	format := c.DefaultQuery("format", "html")
	if format != "html" && format != "pdf" {
		respondError(c, h.logger, sales.NewValidationError("format", "must be html or pdf"))
		return
	}
	if format == "pdf" && h.pdf == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "PDF rendering is disabled"})
		return
	}

	day, ok, err := dayParam(c, "date", h.reports.Location())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if !ok {
		day = h.reports.Now()
	}

	ctx := c.Request.Context()
	owner := ownerID(c)
	res, err := h.reports.Day(ctx, owner, day)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if res.Stale {
		respondError(c, h.logger, &report.FetchError{Kind: report.KindDay, Err: errors.New(res.Error)})
		return
	}

	settings, err := h.settings.Get(ctx, owner)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	closing, err := printing.NewCashClosing(settings.StoreName, res.Data.Start, res.Data.Sales, h.now().In(h.reports.Location()))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	var buf bytes.Buffer
	if err := closing.RenderHTML(&buf); err != nil {
		respondError(c, h.logger, err)
		return
	}
	if format == "html" {
		c.Data(http.StatusOK, htmlContentType, buf.Bytes())
		return
	}

	pdf, err := h.pdf.RenderPDF(ctx, buf.String())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	logger.FromContext(c, h.logger).Info("cash closing printed",
		zap.String("day", closing.Day.Format("2006-01-02")),
		zap.Int("lines", len(closing.Lines)),
		zap.Int("bytes", len(pdf)),
	)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", closing.FileName()))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// handleLabel renders the label of a sale. With ?product_id= the catalogue
// entry supplies name, price and barcode; otherwise the sale does.
func (h *printingHandler) handleLabel(c *gin.Context) {
	ctx := c.Request.Context()
	owner := ownerID(c)

	sale, err := h.sales.GetSale(ctx, owner, c.Param("saleID"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	settings, err := h.settings.Get(ctx, owner)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	label := printing.Label{
		Settings:    settings,
		ProductName: sale.ProductName,
		Price:       sale.UnitValue,
		SaleID:      sale.ID,
		SaleDate:    sale.OccurredAt.In(h.reports.Location()),
	}
	if productID := c.Query("product_id"); productID != "" {
		product, err := h.products.GetProduct(ctx, owner, productID)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		label.ProductName = product.Name
		label.Price = product.Price
		label.Barcode = product.BarcodeValue()
	}

	var buf bytes.Buffer
	if err := printing.RenderLabel(&buf, label); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Data(http.StatusOK, htmlContentType, buf.Bytes())
}
