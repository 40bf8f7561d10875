package api

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/lucacel82/luccacell/internal/logger"
	"github.com/lucacel82/luccacell/internal/printing"
	"github.com/lucacel82/luccacell/internal/products"
	"github.com/lucacel82/luccacell/internal/report"
	"github.com/lucacel82/luccacell/internal/sales"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonFieldName)
	}
}

// jsonFieldName reports validation failures under the JSON field name.
func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

// respondError maps service errors to HTTP responses.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	var (
		saleErr    *sales.ValidationError
		productErr *products.ValidationError
		fetchErr   *report.FetchError
	)

	switch {
	case errors.As(err, &saleErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": saleErr.Field})
	case errors.As(err, &productErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": productErr.Field})
	case errors.Is(err, printing.ErrInvalidLabelWidth):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": "label_width"})
	case errors.Is(err, sales.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "sale not found"})
	case errors.Is(err, products.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
	case errors.Is(err, printing.ErrNoSales):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &fetchErr):
		logger.FromContext(c, log).Warn("report unavailable", zap.String("kind", fetchErr.Kind), zap.Error(fetchErr.Err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		logger.FromContext(c, log).Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// respondBindError reports a request body that failed to bind, listing
// the failed validation tag of each field when available.
func respondBindError(c *gin.Context, log *zap.Logger, err error) {
	logger.FromContext(c, log).Warn("failed to bind JSON request", zap.Error(err))

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload", "fields": fields})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
}
