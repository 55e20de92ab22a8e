// Package stats answers watch-time queries over stored records and renders
// them for the terminal
package stats

import (
	"slices"
	"time"

	"github.com/maruel/natural"

	"github.com/ayoisaiah/watchlog/internal/apperr"
	"github.com/ayoisaiah/watchlog/internal/interval"
	"github.com/ayoisaiah/watchlog/internal/models"
	"github.com/ayoisaiah/watchlog/internal/timeutil"
	"github.com/ayoisaiah/watchlog/store"
)

var errInvalidDay = &apperr.Error{
	Message: "invalid date %q: expected yyyy-mm-dd",
}

func checkDay(day string) error {
	if _, err := time.Parse(timeutil.DayLayout, day); err != nil {
		return errInvalidDay.Fmt(day)
	}

	return nil
}

// checkRange validates a [start, end] query. An empty start means the range
// is open at the beginning.
func checkRange(start, end string) error {
	if start != "" {
		if err := checkDay(start); err != nil {
			return err
		}
	}

	if err := checkDay(end); err != nil {
		return err
	}

	if end < start {
		return apperr.ErrInvalidRange.Fmt(end, start)
	}

	return nil
}

// DailyTotals sums the metrics of every item watched on date.
func DailyTotals(db store.DB, date string) (models.Totals, error) {
	var totals models.Totals

	if err := checkDay(date); err != nil {
		return totals, err
	}

	records, err := db.ListByDate(date)
	if err != nil {
		return totals, err
	}

	for _, rec := range records {
		totals.Add(rec)
	}

	return totals, nil
}

// RangeTotals returns the summed metrics of each date in [start, end] that
// has at least one record.
func RangeTotals(
	db store.DB,
	start, end string,
) (map[string]models.Totals, error) {
	if err := checkRange(start, end); err != nil {
		return nil, err
	}

	records, err := db.ListRange(start, end)
	if err != nil {
		return nil, err
	}

	totals := make(map[string]models.Totals)

	for _, rec := range records {
		t := totals[rec.Date]
		t.Add(rec)
		totals[rec.Date] = t
	}

	return totals, nil
}

// WeekRange returns the Monday and Sunday of the week containing date.
func WeekRange(date string) (start, end string, err error) {
	t, err := time.Parse(timeutil.DayLayout, date)
	if err != nil {
		return "", "", errInvalidDay.Fmt(date)
	}

	monday := timeutil.StartOfWeek(t)

	return monday.Format(timeutil.DayLayout),
		monday.AddDate(0, 0, 6).Format(timeutil.DayLayout), nil
}

// MonthRange returns the first and last day of the month containing date.
func MonthRange(date string) (start, end string, err error) {
	t, err := time.Parse(timeutil.DayLayout, date)
	if err != nil {
		return "", "", errInvalidDay.Fmt(date)
	}

	first := timeutil.StartOfMonth(t)

	return first.Format(timeutil.DayLayout),
		first.AddDate(0, 0, timeutil.DaysIn(t)-1).Format(timeutil.DayLayout), nil
}

// WeekTotals returns RangeTotals for the Monday-start week containing date.
func WeekTotals(db store.DB, date string) (map[string]models.Totals, error) {
	start, end, err := WeekRange(date)
	if err != nil {
		return nil, err
	}

	return RangeTotals(db, start, end)
}

// MonthTotals returns RangeTotals for the month containing date.
func MonthTotals(db store.DB, date string) (map[string]models.Totals, error) {
	start, end, err := MonthRange(date)
	if err != nil {
		return nil, err
	}

	return RangeTotals(db, start, end)
}

// RecentlyWatched returns up to limit distinct items, most recently watched
// first.
func RecentlyWatched(db store.DB, limit int) ([]models.RecentItem, error) {
	return db.Recent(limit)
}

// AggregatedRange returns per-item totals across [start, end]. Each item's
// intervals merge the daily intervals of every date in the range. Items are
// ordered by media ID in natural order.
func AggregatedRange(
	db store.DB,
	start, end string,
) ([]models.ItemAggregate, error) {
	if err := checkRange(start, end); err != nil {
		return nil, err
	}

	records, err := db.ListRange(start, end)
	if err != nil {
		return nil, err
	}

	items := make(map[string]*models.ItemAggregate)

	for _, rec := range records {
		agg, ok := items[rec.MediaID]
		if !ok {
			agg = &models.ItemAggregate{MediaID: rec.MediaID}
			items[rec.MediaID] = agg
		}

		agg.Add(rec)
		agg.Days++
		agg.Intervals = interval.Union(agg.Intervals, rec.TodayIntervals)

		if rec.LastWatchedAt.After(agg.LastWatchedAt) {
			agg.LastWatchedAt = rec.LastWatchedAt
		}

		if rec.DurationSeconds > 0 {
			agg.DurationSeconds = rec.DurationSeconds
		}
	}

	result := make([]models.ItemAggregate, 0, len(items))
	for _, v := range items {
		result = append(result, *v)
	}

	slices.SortFunc(result, func(a, b models.ItemAggregate) int {
		switch {
		case a.MediaID == b.MediaID:
			return 0
		case natural.Less(a.MediaID, b.MediaID):
			return -1
		default:
			return 1
		}
	})

	return result, nil
}
