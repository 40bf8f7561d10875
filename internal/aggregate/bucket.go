package aggregate

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/lucacel82/luccacell/internal/sales"
)

// DateLayout keys buckets by full ISO date.
const DateLayout = "2006-01-02"

var weekdayLabels = [...]string{"Dom", "Seg", "Ter", "Qua", "Qui", "Sex", "Sáb"}

// WeekdayLabel returns the short pt-BR name of d.
func WeekdayLabel(d time.Weekday) string {
	return weekdayLabels[d]
}

// DayBucket is the aggregate of one calendar day.
type DayBucket struct {
	Date    string          `json:"date"`
	Weekday string          `json:"weekday"`
	Total   decimal.Decimal `json:"total"`
	Count   int             `json:"count"`
}

// BucketByDay returns windowDays buckets, oldest first, ending with
// referenceDay. Days without sales are present with zero values.
// Calendar days are taken in referenceDay's location.
func BucketByDay(records []*sales.Sale, referenceDay time.Time, windowDays int) []DayBucket {
	if windowDays <= 0 {
		return []DayBucket{}
	}

	last := Midnight(referenceDay)
	first := AddDays(last, -(windowDays - 1))
	window := Range{Start: first, End: AddDays(last, 1)}
	loc := referenceDay.Location()

	buckets := make([]DayBucket, windowDays)
	index := make(map[string]int, windowDays)
	for i := range buckets {
		day := AddDays(first, i)
		key := day.Format(DateLayout)
		buckets[i] = DayBucket{Date: key, Weekday: WeekdayLabel(day.Weekday()), Total: decimal.Zero}
		index[key] = i
	}

	for _, rec := range records {
		if !window.Contains(rec.OccurredAt) {
			continue
		}
		i, ok := index[rec.OccurredAt.In(loc).Format(DateLayout)]
		if !ok {
			continue
		}
		buckets[i].Total = buckets[i].Total.Add(rec.LineTotal())
		buckets[i].Count++
	}
	return buckets
}
