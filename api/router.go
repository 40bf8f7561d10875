package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lucacel82/luccacell/internal/auth"
	"github.com/lucacel82/luccacell/internal/logger"
	"github.com/lucacel82/luccacell/internal/metrics"
	"github.com/lucacel82/luccacell/internal/printing"
	"github.com/lucacel82/luccacell/internal/products"
	"github.com/lucacel82/luccacell/internal/report"
	"github.com/lucacel82/luccacell/internal/sales"
)

// Dependencies are the services behind the HTTP API.
type Dependencies struct {
	Logger   *zap.Logger
	Tokens   *auth.TokenService
	Sales    *sales.Service
	Products *products.Service
	Reports  *report.Assembler
	Settings *printing.SettingsService
	// PDF is nil when PDF rendering is disabled.
	PDF printing.PDFRenderer
	// Metrics is optional; /metrics is only served when set.
	Metrics *metrics.Registry
	Now     func() time.Time
}

// NewEngine creates a Gin engine with the request middleware chain. The
// metrics middleware sits outside Recovery so recovered panics are counted
// as 500s. registry may be nil.
func NewEngine(log *zap.Logger, registry *metrics.Registry) *gin.Engine {
	e := gin.New()
	e.Use(logger.RequestID(), logger.GinMiddleware(log))
	if registry != nil {
		e.Use(registry.GinMiddleware())
	}
	e.Use(logger.Recovery(log))
	return e
}

// InitRoutes registers every endpoint on the given Gin engine. Everything
// under /api/v1 requires a bearer token.
func InitRoutes(e *gin.Engine, deps Dependencies) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	salesHandler := NewSalesHandler(deps.Sales, deps.Reports, logger)
	accounts := &accountHandler{salesService: deps.Sales, productsService: deps.Products, logger: logger}
	reports := &reportHandler{reports: deps.Reports, logger: logger}
	catalogue := &productHandler{products: deps.Products, logger: logger}
	printer := &printingHandler{
		settings: deps.Settings,
		sales:    deps.Sales,
		products: deps.Products,
		reports:  deps.Reports,
		pdf:      deps.PDF,
		now:      now,
		logger:   logger,
	}

	e.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	if deps.Metrics != nil {
		e.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	v1 := e.Group("/api/v1", Authenticate(deps.Tokens, logger))

	v1.POST("/sales", salesHandler.handleCreateSale)
	v1.GET("/sales", salesHandler.handlerGetSale)
	v1.GET("/sales/:id", salesHandler.handleGetSale)
	v1.PATCH("/sales/:id", salesHandler.PatchSaleHandler(deps.Sales))
	v1.DELETE("/sales/:id", salesHandler.handleDeleteSale)

	v1.POST("/account/claim", accounts.handleClaim)

	reportsGroup := v1.Group("/reports")
	reportsGroup.GET("/daily", reports.handleDaily)
	reportsGroup.GET("/day", reports.handleDay)
	reportsGroup.GET("/weekly", reports.handleWeekly)
	reportsGroup.GET("/period", reports.handlePeriod)
	reportsGroup.GET("/dashboard", reports.handleDashboard)

	v1.POST("/products", catalogue.handleCreate)
	v1.GET("/products", catalogue.handleList)
	v1.GET("/products/:id", catalogue.handleGet)
	v1.PATCH("/products/:id", catalogue.handlePatch)
	v1.DELETE("/products/:id", catalogue.handleDelete)

	v1.GET("/settings/printer", printer.handleGetSettings)
	v1.PUT("/settings/printer", printer.handleUpdateSettings)
	v1.GET("/cash-closing", printer.handleCashClosing)
	v1.GET("/labels/:saleID", printer.handleLabel)
}
