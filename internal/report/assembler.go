// Package report assembles daily, weekly, period and dashboard reports
// from an owner's sales.
package report

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/lucacel82/luccacell/internal/aggregate"
	"github.com/lucacel82/luccacell/internal/sales"
)

// Report kinds, used as board keys and metric labels.
const (
	KindDaily     = "daily"
	KindDay       = "day"
	KindWeekly    = "weekly"
	KindPeriod    = "period"
	KindDashboard = "dashboard"
)

// Load outcomes reported to the Observer.
const (
	OutcomeOK    = "ok"
	OutcomeStale = "stale"
	OutcomeError = "error"
)

// dashboardWindow is the number of days charted on the dashboard.
const dashboardWindow = 7

// SalesSource lists an owner's sales. Both range bounds are inclusive.
type SalesSource interface {
	ListSales(ctx context.Context, ownerID string, r sales.Range) ([]*sales.Sale, error)
}

// Observer is notified of every report load.
type Observer interface {
	ObserveReport(kind, outcome string, elapsed time.Duration)
}

// ItemizedReport is a total over a range with the sales behind it.
type ItemizedReport struct {
	Start time.Time       `json:"start"`
	End   time.Time       `json:"end"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
	Items int             `json:"items"`
	Sales []*sales.Sale   `json:"sales"`
}

// Dashboard is the managerial overview.
type Dashboard struct {
	Days          []aggregate.DayBucket    `json:"days"`
	TopProducts   []aggregate.ProductTotal `json:"top_products"`
	Today         aggregate.Comparison     `json:"today"`
	Week          aggregate.Comparison     `json:"week"`
	Month         aggregate.Comparison     `json:"month"`
	MonthCount    int                      `json:"month_count"`
	AverageTicket decimal.Decimal          `json:"average_ticket"`
}

// Assembler builds reports for one location and clock.
type Assembler struct {
	source   SalesSource
	logger   *zap.Logger
	loc      *time.Location
	now      func() time.Time
	topN     int
	observer Observer
	board    *Board
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithLocation sets the zone that defines calendar days.
func WithLocation(loc *time.Location) Option {
	return func(a *Assembler) { a.loc = loc }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) { a.now = now }
}

// WithTopN sets how many products the dashboard ranks.
func WithTopN(n int) Option {
	return func(a *Assembler) { a.topN = n }
}

// WithObserver registers a load observer.
func WithObserver(o Observer) Option {
	return func(a *Assembler) { a.observer = o }
}

// WithBoardLimit caps how many last-good results are kept for stale
// fallback.
func WithBoardLimit(n int) Option {
	return func(a *Assembler) { a.board = NewBoardWithLimit(n) }
}

// NewAssembler creates an Assembler reading from source. Defaults are
// UTC, time.Now and the default top-product limit.
func NewAssembler(source SalesSource, logger *zap.Logger, opts ...Option) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Assembler{
		source: source,
		logger: logger,
		loc:    time.UTC,
		now:    time.Now,
		topN:   aggregate.DefaultTopLimit,
		board:  NewBoard(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Location returns the zone that defines calendar days.
func (a *Assembler) Location() *time.Location {
	return a.loc
}

// Now returns the current time in the report location.
func (a *Assembler) Now() time.Time {
	return a.clock()
}

// Daily reports today's sales.
func (a *Assembler) Daily(ctx context.Context, ownerID string) (Result[ItemizedReport], error) {
	if err := checkOwner(ownerID); err != nil {
		return Result[ItemizedReport]{}, err
	}
	today := aggregate.PeriodsAt(a.clock()).Today
	return serve(ctx, a, KindDaily, boardKey(ownerID, KindDaily), func(ctx context.Context) (ItemizedReport, error) {
		return a.halfOpen(ctx, ownerID, today)
	})
}

// Weekly reports the Monday to Sunday window containing today.
func (a *Assembler) Weekly(ctx context.Context, ownerID string) (Result[ItemizedReport], error) {
	if err := checkOwner(ownerID); err != nil {
		return Result[ItemizedReport]{}, err
	}
	week := aggregate.PeriodsAt(a.clock()).Week
	return serve(ctx, a, KindWeekly, boardKey(ownerID, KindWeekly), func(ctx context.Context) (ItemizedReport, error) {
		return a.halfOpen(ctx, ownerID, week)
	})
}

// Day reports one calendar day, closed from 00:00:00.000 to 23:59:59.999.
func (a *Assembler) Day(ctx context.Context, ownerID string, day time.Time) (Result[ItemizedReport], error) {
	if err := checkOwner(ownerID); err != nil {
		return Result[ItemizedReport]{}, err
	}
	start, end := aggregate.DayRange(day.In(a.loc))
	key := boardKey(ownerID, KindDay, start.Format(aggregate.DateLayout))
	return serve(ctx, a, KindDay, key, func(ctx context.Context) (ItemizedReport, error) {
		return a.closed(ctx, ownerID, start, end)
	})
}

// Period reports the calendar days from startDay through endDay inclusive.
func (a *Assembler) Period(ctx context.Context, ownerID string, startDay, endDay time.Time) (Result[ItemizedReport], error) {
	if err := checkOwner(ownerID); err != nil {
		return Result[ItemizedReport]{}, err
	}
	start, _ := aggregate.DayRange(startDay.In(a.loc))
	last, end := aggregate.DayRange(endDay.In(a.loc))
	if start.After(last) {
		return Result[ItemizedReport]{}, sales.NewValidationError("range", "start is after end")
	}
	key := boardKey(ownerID, KindPeriod, start.Format(aggregate.DateLayout), last.Format(aggregate.DateLayout))
	return serve(ctx, a, KindPeriod, key, func(ctx context.Context) (ItemizedReport, error) {
		return a.closed(ctx, ownerID, start, end)
	})
}

// Dashboard builds the overview with a single fetch starting at the
// earliest period it compares against.
func (a *Assembler) Dashboard(ctx context.Context, ownerID string) (Result[Dashboard], error) {
	if err := checkOwner(ownerID); err != nil {
		return Result[Dashboard]{}, err
	}
	now := a.clock()
	return serve(ctx, a, KindDashboard, boardKey(ownerID, KindDashboard), func(ctx context.Context) (Dashboard, error) {
		return a.dashboard(ctx, ownerID, now)
	})
}

func (a *Assembler) dashboard(ctx context.Context, ownerID string, now time.Time) (Dashboard, error) {
	p := aggregate.PeriodsAt(now)
	window := aggregate.LastNDays(now, dashboardWindow)

	from := p.LastMonth.Start
	for _, t := range []time.Time{p.LastWeek.Start, window.Start} {
		if t.Before(from) {
			from = t
		}
	}
	records, err := a.source.ListSales(ctx, ownerID, sales.Since(from))
	if err != nil {
		return Dashboard{}, err
	}

	total := func(r aggregate.Range) decimal.Decimal {
		return aggregate.TotalFor(records, r.Start, r.End)
	}
	monthTotal := total(p.ThisMonth)
	monthCount := aggregate.CountFor(records, p.ThisMonth.Start, p.ThisMonth.End)

	avg := decimal.Zero
	if monthCount > 0 {
		avg = monthTotal.Div(decimal.NewFromInt(int64(monthCount)))
	}

	return Dashboard{
		Days:          aggregate.BucketByDay(records, p.Today.Start, dashboardWindow),
		TopProducts:   aggregate.TopProducts(aggregate.Filter(records, p.ThisMonth), a.topN),
		Today:         aggregate.Compare(total(p.Today), total(p.Yesterday)),
		Week:          aggregate.Compare(total(p.ThisWeek), total(p.LastWeek)),
		Month:         aggregate.Compare(monthTotal, total(p.LastMonth)),
		MonthCount:    monthCount,
		AverageTicket: avg,
	}, nil
}

// halfOpen fetches r and keeps the records in [Start, End).
func (a *Assembler) halfOpen(ctx context.Context, ownerID string, r aggregate.Range) (ItemizedReport, error) {
	records, err := a.source.ListSales(ctx, ownerID, sales.Between(r.Start, r.End))
	if err != nil {
		return ItemizedReport{}, err
	}
	return itemized(r.Start, r.End, aggregate.Filter(records, r)), nil
}

// closed fetches the inclusive range [start, end].
func (a *Assembler) closed(ctx context.Context, ownerID string, start, end time.Time) (ItemizedReport, error) {
	records, err := a.source.ListSales(ctx, ownerID, sales.Between(start, end))
	if err != nil {
		return ItemizedReport{}, err
	}
	return itemized(start, end, records), nil
}

func itemized(start, end time.Time, records []*sales.Sale) ItemizedReport {
	s := aggregate.Summarize(records)
	if records == nil {
		records = []*sales.Sale{}
	}
	return ItemizedReport{Start: start, End: end, Total: s.Total, Count: s.Count, Items: s.Items, Sales: records}
}

func (a *Assembler) clock() time.Time {
	return a.now().In(a.loc)
}

// serve runs build and records the outcome on the board. A failed build
// falls back to the last stored result for key.
func serve[T any](ctx context.Context, a *Assembler, kind, key string, build func(context.Context) (T, error)) (Result[T], error) {
	started := time.Now()
	generation := a.board.Begin()

	data, err := build(ctx)
	if err == nil {
		loadedAt := a.now()
		if !a.board.Commit(key, generation, data, loadedAt) {
			a.logger.Debug("newer report already stored", zap.String("report", kind), zap.Uint64("generation", generation))
		}
		a.observe(kind, OutcomeOK, started)
		return Result[T]{Data: data, LoadedAt: loadedAt}, nil
	}

	if prev, loadedAt, ok := a.board.Last(key); ok {
		if stale, ok := prev.(T); ok {
			a.logger.Warn("serving stale report",
				zap.String("report", kind),
				zap.Time("loaded_at", loadedAt),
				zap.Error(err),
			)
			a.observe(kind, OutcomeStale, started)
			return Result[T]{Data: stale, Stale: true, Error: err.Error(), LoadedAt: loadedAt}, nil
		}
	}

	a.logger.Error("failed to load report", zap.String("report", kind), zap.Error(err))
	a.observe(kind, OutcomeError, started)
	var zero Result[T]
	return zero, &FetchError{Kind: kind, Err: err}
}

func (a *Assembler) observe(kind, outcome string, started time.Time) {
	if a.observer != nil {
		a.observer.ObserveReport(kind, outcome, time.Since(started))
	}
}

func checkOwner(ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return sales.NewValidationError("owner_id", "must not be empty")
	}
	return nil
}

func boardKey(ownerID string, parts ...string) string {
	return ownerID + "|" + strings.Join(parts, "|")
}
