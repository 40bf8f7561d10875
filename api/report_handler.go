package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lucacel82/luccacell/internal/report"
	"github.com/lucacel82/luccacell/internal/sales"
)

// dayLocator resolves calendar days for query parameters.
type dayLocator interface {
	Location() *time.Location
	Now() time.Time
}

// reportHandler serves the report endpoints. Stale results are returned
// with 200 and "stale": true.
type reportHandler struct {
	reports *report.Assembler
	logger  *zap.Logger
}

func (h *reportHandler) handleDaily(c *gin.Context) {
	res, err := h.reports.Daily(c.Request.Context(), ownerID(c))
	respondReport(c, h.logger, res, err)
}

func (h *reportHandler) handleWeekly(c *gin.Context) {
	res, err := h.reports.Weekly(c.Request.Context(), ownerID(c))
	respondReport(c, h.logger, res, err)
}

// handleDay reports ?date=YYYY-MM-DD, today when omitted.
func (h *reportHandler) handleDay(c *gin.Context) {
	day, ok, err := dayParam(c, "date", h.reports.Location())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if !ok {
		day = h.reports.Now()
	}
	res, err := h.reports.Day(c.Request.Context(), ownerID(c), day)
	respondReport(c, h.logger, res, err)
}

// handlePeriod reports ?start=&end=, both days included.
func (h *reportHandler) handlePeriod(c *gin.Context) {
	loc := h.reports.Location()
	start, ok, err := dayParam(c, "start", loc)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if !ok {
		respondError(c, h.logger, sales.NewValidationError("start", "is required"))
		return
	}
	end, ok, err := dayParam(c, "end", loc)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if !ok {
		respondError(c, h.logger, sales.NewValidationError("end", "is required"))
		return
	}

	res, err := h.reports.Period(c.Request.Context(), ownerID(c), start, end)
	respondReport(c, h.logger, res, err)
}

func (h *reportHandler) handleDashboard(c *gin.Context) {
	res, err := h.reports.Dashboard(c.Request.Context(), ownerID(c))
	respondReport(c, h.logger, res, err)
}

func respondReport[T any](c *gin.Context, log *zap.Logger, res report.Result[T], err error) {
	if err != nil {
		respondError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
