package report

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/lucacel82/luccacell/internal/sales"
)

var brt = time.FixedZone("BRT", -3*60*60)

// Wednesday afternoon.
var now = time.Date(2024, 3, 13, 18, 0, 0, 0, brt)

type fakeSource struct {
	mu      sync.Mutex
	records []*sales.Sale
	err     error
	calls   []sales.Range
	hook    func(call int)
}

func (f *fakeSource) ListSales(_ context.Context, _ string, r sales.Range) ([]*sales.Sale, error) {
	f.mu.Lock()
	f.calls = append(f.calls, r)
	n := len(f.calls)
	err := f.err
	hook := f.hook
	var out []*sales.Sale
	for _, s := range f.records {
		if r.Includes(s.OccurredAt) {
			out = append(out, s)
		}
	}
	f.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (f *fakeSource) set(records []*sales.Sale, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = records
	f.err = err
}

func (f *fakeSource) lastCall() sales.Range {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (o *recordingObserver) ObserveReport(kind, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, kind+":"+outcome)
}

func at(m time.Month, d, h, min int) time.Time {
	return time.Date(2024, m, d, h, min, 0, 0, brt)
}

func rec(name string, qty int, value string, when time.Time) *sales.Sale {
	return &sales.Sale{
		ID:          name + when.String(),
		OwnerID:     "owner-1",
		ProductName: name,
		Quantity:    qty,
		UnitValue:   decimal.RequireFromString(value),
		OccurredAt:  when,
	}
}

func newTestAssembler(t *testing.T, src SalesSource, opts ...Option) *Assembler {
	t.Helper()
	base := []Option{WithLocation(brt), WithClock(func() time.Time { return now })}
	return NewAssembler(src, zaptest.NewLogger(t), append(base, opts...)...)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func TestDaily(t *testing.T) {
	src := &fakeSource{records: []*sales.Sale{
		rec("Capa", 3, "10.00", at(3, 13, 9, 0)),
		rec("Cabo", 1, "25", at(3, 13, 0, 0)),
		rec("Ontem", 1, "99", at(3, 12, 23, 59)),
		rec("Amanhã", 1, "99", at(3, 14, 0, 0)),
	}}
	a := newTestAssembler(t, src)

	res, err := a.Daily(context.Background(), "owner-1")

	require.NoError(t, err)
	assert.False(t, res.Stale)
	assertDecimal(t, "55", res.Data.Total)
	assert.Equal(t, 2, res.Data.Count)
	assert.Equal(t, 4, res.Data.Items)
	require.Len(t, res.Data.Sales, 2)
	assert.Equal(t, at(3, 13, 0, 0), res.Data.Start)
	assert.Equal(t, at(3, 14, 0, 0), res.Data.End)
}

func TestWeekly(t *testing.T) {
	src := &fakeSource{records: []*sales.Sale{
		rec("Capa", 2, "15", at(3, 11, 10, 0)),
		rec("Carregador", 1, "30", at(3, 12, 10, 0)),
		rec("Domingo passado", 1, "80", at(3, 10, 23, 0)),
	}}
	a := newTestAssembler(t, src)

	res, err := a.Weekly(context.Background(), "owner-1")

	require.NoError(t, err)
	assertDecimal(t, "60.00", res.Data.Total)
	assert.Equal(t, 2, res.Data.Count)
	assert.Equal(t, at(3, 11, 0, 0), res.Data.Start)
	assert.Equal(t, at(3, 18, 0, 0), res.Data.End)
}

func TestDay(t *testing.T) {
	src := &fakeSource{records: []*sales.Sale{
		rec("Capa", 1, "10", at(3, 5, 0, 0)),
		rec("Cabo", 1, "20", time.Date(2024, 3, 5, 23, 59, 59, 999000000, brt)),
		rec("Fone", 1, "40", at(3, 6, 0, 0)),
	}}
	a := newTestAssembler(t, src)

	res, err := a.Day(context.Background(), "owner-1", time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	assertDecimal(t, "30", res.Data.Total)
	assert.Equal(t, 2, res.Data.Count)
	call := src.lastCall()
	require.NotNil(t, call.From)
	require.NotNil(t, call.To)
	assert.Equal(t, at(3, 5, 0, 0), *call.From)
	assert.Equal(t, time.Date(2024, 3, 5, 23, 59, 59, 999000000, brt), *call.To)
}

func TestPeriod(t *testing.T) {
	src := &fakeSource{records: []*sales.Sale{
		rec("Capa", 1, "10", at(3, 1, 0, 0)),
		rec("Cabo", 2, "20", at(3, 3, 23, 59)),
		rec("Fone", 1, "40", at(3, 4, 0, 0)),
	}}
	a := newTestAssembler(t, src)
	ctx := context.Background()

	t.Run("both days inclusive", func(t *testing.T) {
		res, err := a.Period(ctx, "owner-1", at(3, 1, 15, 0), at(3, 3, 8, 0))

		require.NoError(t, err)
		assertDecimal(t, "50", res.Data.Total)
		assert.Equal(t, 2, res.Data.Count)
		assert.Equal(t, at(3, 1, 0, 0), res.Data.Start)
		assert.Equal(t, time.Date(2024, 3, 3, 23, 59, 59, 999000000, brt), res.Data.End)
	})

	t.Run("single day", func(t *testing.T) {
		res, err := a.Period(ctx, "owner-1", at(3, 4, 0, 0), at(3, 4, 0, 0))
		require.NoError(t, err)
		assert.Equal(t, 1, res.Data.Count)
	})

	t.Run("start after end", func(t *testing.T) {
		_, err := a.Period(ctx, "owner-1", at(3, 4, 0, 0), at(3, 3, 0, 0))
		assert.True(t, sales.IsValidation(err))
	})

	t.Run("empty period is well formed", func(t *testing.T) {
		res, err := a.Period(ctx, "owner-1", at(2, 1, 0, 0), at(2, 2, 0, 0))
		require.NoError(t, err)
		assert.True(t, res.Data.Total.IsZero())
		assert.NotNil(t, res.Data.Sales)
	})
}

func TestDashboard(t *testing.T) {
	t.Run("combines buckets, ranking and comparisons", func(t *testing.T) {
		src := &fakeSource{records: []*sales.Sale{
			rec("Capa", 2, "15", at(2, 20, 10, 0)),    // last month
			rec("Cabo", 1, "40", at(3, 5, 10, 0)),     // last week
			rec("Capa", 1, "30", at(3, 11, 10, 0)),    // this week
			rec("Cabo", 1, "20", at(3, 12, 10, 0)),    // yesterday
			rec("Película", 2, "25", at(3, 13, 9, 0)), // today
		}}
		a := newTestAssembler(t, src)

		res, err := a.Dashboard(context.Background(), "owner-1")
		require.NoError(t, err)
		d := res.Data

		require.Len(t, d.Days, 7)
		assert.Equal(t, "2024-03-07", d.Days[0].Date)
		assert.Equal(t, "2024-03-13", d.Days[6].Date)
		assert.Equal(t, "Qua", d.Days[6].Weekday)
		assertDecimal(t, "50", d.Days[6].Total)

		assertDecimal(t, "50", d.Today.Current)
		assertDecimal(t, "20", d.Today.Previous)
		assertDecimal(t, "150", d.Today.PercentChange)

		assertDecimal(t, "100", d.Week.Current)
		assertDecimal(t, "40", d.Week.Previous)
		assertDecimal(t, "140", d.Month.Current)
		assertDecimal(t, "30", d.Month.Previous)
		assert.True(t, d.Month.IsPositive)

		assert.Equal(t, 4, d.MonthCount)
		assertDecimal(t, "35", d.AverageTicket)

		require.Len(t, d.TopProducts, 3)
		assert.Equal(t, "Cabo", d.TopProducts[0].Name)
		assertDecimal(t, "60", d.TopProducts[0].Value)
		assert.Equal(t, "Película", d.TopProducts[1].Name)

		call := src.lastCall()
		require.NotNil(t, call.From)
		assert.Nil(t, call.To)
		assert.Equal(t, at(2, 1, 0, 0), *call.From)
	})

	t.Run("empty month has zero average ticket", func(t *testing.T) {
		a := newTestAssembler(t, &fakeSource{})

		res, err := a.Dashboard(context.Background(), "owner-1")

		require.NoError(t, err)
		assert.True(t, res.Data.AverageTicket.IsZero())
		assert.Zero(t, res.Data.MonthCount)
		assert.Empty(t, res.Data.TopProducts)
		assert.Len(t, res.Data.Days, 7)
		assert.True(t, res.Data.Week.IsPositive)
	})

	t.Run("top limit is configurable", func(t *testing.T) {
		src := &fakeSource{records: []*sales.Sale{
			rec("A", 1, "1", at(3, 2, 10, 0)),
			rec("B", 1, "2", at(3, 2, 10, 0)),
			rec("C", 1, "3", at(3, 2, 10, 0)),
		}}
		a := newTestAssembler(t, src, WithTopN(2))

		res, err := a.Dashboard(context.Background(), "owner-1")

		require.NoError(t, err)
		require.Len(t, res.Data.TopProducts, 2)
		assert.Equal(t, "C", res.Data.TopProducts[0].Name)
	})
}

func TestStaleButAvailable(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection reset by peer")

	t.Run("failure without a previous load", func(t *testing.T) {
		obs := &recordingObserver{}
		a := newTestAssembler(t, &fakeSource{err: boom}, WithObserver(obs))

		_, err := a.Daily(ctx, "owner-1")

		var fe *FetchError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, KindDaily, fe.Kind)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, []string{"daily:error"}, obs.outcomes)
	})

	t.Run("failure keeps the previous result", func(t *testing.T) {
		obs := &recordingObserver{}
		src := &fakeSource{records: []*sales.Sale{rec("Capa", 1, "10", at(3, 13, 9, 0))}}
		a := newTestAssembler(t, src, WithObserver(obs))

		first, err := a.Daily(ctx, "owner-1")
		require.NoError(t, err)

		src.set(nil, boom)
		second, err := a.Daily(ctx, "owner-1")

		require.NoError(t, err)
		assert.True(t, second.Stale)
		assert.Equal(t, boom.Error(), second.Error)
		assertDecimal(t, "10", second.Data.Total)
		assert.Equal(t, first.LoadedAt, second.LoadedAt)
		assert.Equal(t, []string{"daily:ok", "daily:stale"}, obs.outcomes)

		src.set([]*sales.Sale{rec("Capa", 2, "10", at(3, 13, 9, 0))}, nil)
		third, err := a.Daily(ctx, "owner-1")
		require.NoError(t, err)
		assert.False(t, third.Stale)
		assert.Empty(t, third.Error)
		assertDecimal(t, "20", third.Data.Total)
	})

	t.Run("results are kept per owner and kind", func(t *testing.T) {
		src := &fakeSource{records: []*sales.Sale{rec("Capa", 1, "10", at(3, 13, 9, 0))}}
		a := newTestAssembler(t, src)

		_, err := a.Daily(ctx, "owner-1")
		require.NoError(t, err)

		src.set(nil, boom)
		_, err = a.Daily(ctx, "owner-2")
		assert.Error(t, err)
		_, err = a.Weekly(ctx, "owner-1")
		assert.Error(t, err)
	})

	t.Run("missing owner is a validation error", func(t *testing.T) {
		a := newTestAssembler(t, &fakeSource{})
		_, err := a.Dashboard(ctx, " ")
		assert.True(t, sales.IsValidation(err))
	})
}

func TestSlowLoadDoesNotOverwriteNewer(t *testing.T) {
	ctx := context.Background()
	entered := make(chan struct{})
	release := make(chan struct{})

	src := &fakeSource{records: []*sales.Sale{rec("Capa", 1, "10", at(3, 13, 9, 0))}}
	src.hook = func(call int) {
		if call == 1 {
			close(entered)
			<-release
		}
	}
	a := newTestAssembler(t, src)

	slow := make(chan Result[ItemizedReport], 1)
	go func() {
		res, _ := a.Daily(ctx, "owner-1")
		slow <- res
	}()
	<-entered

	src.set([]*sales.Sale{rec("Capa", 3, "10", at(3, 13, 9, 0))}, nil)
	fresh, err := a.Daily(ctx, "owner-1")
	require.NoError(t, err)
	assertDecimal(t, "30", fresh.Data.Total)

	close(release)
	old := <-slow
	assertDecimal(t, "10", old.Data.Total)

	src.set(nil, errors.New("timeout"))
	stale, err := a.Daily(ctx, "owner-1")
	require.NoError(t, err)
	assert.True(t, stale.Stale)
	assertDecimal(t, "30", stale.Data.Total)
}

func TestBoard(t *testing.T) {
	b := NewBoard()
	g1 := b.Begin()
	g2 := b.Begin()
	require.Less(t, g1, g2)

	loaded := time.Now()
	assert.True(t, b.Commit("k", g2, "new", loaded))
	assert.False(t, b.Commit("k", g1, "old", loaded))

	v, at, ok := b.Last("k")
	require.True(t, ok)
	assert.Equal(t, "new", v)
	assert.Equal(t, loaded, at)

	_, _, ok = b.Last("missing")
	assert.False(t, ok)
	assert.Equal(t, 1, b.Len())
}

func TestBoardEvictsOldest(t *testing.T) {
	b := NewBoardWithLimit(2)
	loaded := time.Now()

	require.True(t, b.Commit("a", b.Begin(), "a1", loaded))
	require.True(t, b.Commit("b", b.Begin(), "b1", loaded))
	// Refreshing a stored key never evicts.
	require.True(t, b.Commit("a", b.Begin(), "a2", loaded))
	assert.Equal(t, 2, b.Len())

	require.True(t, b.Commit("c", b.Begin(), "c1", loaded))
	assert.Equal(t, 2, b.Len())

	_, _, ok := b.Last("b")
	assert.False(t, ok, "b held the oldest generation")
	v, _, ok := b.Last("a")
	require.True(t, ok)
	assert.Equal(t, "a2", v)
	_, _, ok = b.Last("c")
	assert.True(t, ok)
}

func TestAssemblerBoardLimit(t *testing.T) {
	src := &fakeSource{}
	a := NewAssembler(src, zaptest.NewLogger(t), WithBoardLimit(1))

	_, err := a.Daily(context.Background(), "owner-1")
	require.NoError(t, err)
	_, err = a.Daily(context.Background(), "owner-2")
	require.NoError(t, err)

	assert.Equal(t, 1, a.board.Len())
}
