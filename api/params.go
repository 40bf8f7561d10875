package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lucacel82/luccacell/internal/aggregate"
	"github.com/lucacel82/luccacell/internal/sales"
)

// dayParam parses the YYYY-MM-DD query parameter name as a calendar day in
// loc. ok is false when the parameter is absent.
func dayParam(c *gin.Context, name string, loc *time.Location) (day time.Time, ok bool, err error) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, false, nil
	}
	day, err = time.ParseInLocation(aggregate.DateLayout, raw, loc)
	if err != nil {
		return time.Time{}, false, sales.NewValidationError(name, "must be a date formatted as YYYY-MM-DD")
	}
	return day, true, nil
}

// listRange converts the optional start and end days of a listing into an
// inclusive range covering both days in full.
func listRange(c *gin.Context, loc *time.Location) (sales.Range, error) {
	var r sales.Range
	start, ok, err := dayParam(c, "start", loc)
	if err != nil {
		return r, err
	}
	if ok {
		from, _ := aggregate.DayRange(start)
		r.From = &from
	}
	end, ok, err := dayParam(c, "end", loc)
	if err != nil {
		return r, err
	}
	if ok {
		_, to := aggregate.DayRange(end)
		r.To = &to
	}
	return r, nil
}
