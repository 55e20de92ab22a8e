package stats

import (
	"slices"
	"time"

	"github.com/ayoisaiah/watchlog/internal/models"
	"github.com/ayoisaiah/watchlog/internal/timeutil"
	"github.com/ayoisaiah/watchlog/store"
)

// Streaks computes the watch streaks of a per-date series. A day counts when
// its new watch time reaches thresholdSeconds.
//
// The current streak walks back from the day before today while each day
// exists and counts, then adds one if today counts as well. A missing or
// short today never breaks the run of prior days. The max streak is the
// longest run of consecutive calendar days that count.
func Streaks(
	series map[string]models.Totals,
	thresholdSeconds float64,
	today string,
) models.Streak {
	streak := models.Streak{
		ThresholdSeconds: thresholdSeconds,
	}

	meets := func(day string) bool {
		t, ok := series[day]
		return ok && t.NewWatchTimeSeconds >= thresholdSeconds
	}

	for day := prevDay(today); day != "" && meets(day); day = prevDay(day) {
		streak.Current++
	}

	if meets(today) {
		streak.Current++
	}

	days := make([]time.Time, 0, len(series))

	for day := range series {
		if !meets(day) {
			continue
		}

		t, err := time.Parse(timeutil.DayLayout, day)
		if err != nil {
			continue
		}

		days = append(days, t)
	}

	slices.SortFunc(days, func(a, b time.Time) int {
		return a.Compare(b)
	})

	var run int

	for i, d := range days {
		if i > 0 && days[i-1].AddDate(0, 0, 1).Equal(d) {
			run++
		} else {
			run = 1
		}

		streak.Max = max(streak.Max, run)
	}

	return streak
}

// StreaksFromStore computes Streaks over every stored day.
func StreaksFromStore(
	db store.DB,
	thresholdSeconds float64,
	today string,
) (models.Streak, error) {
	if err := checkDay(today); err != nil {
		return models.Streak{}, err
	}

	series, err := db.DailySeries()
	if err != nil {
		return models.Streak{}, err
	}

	return Streaks(series, thresholdSeconds, today), nil
}

func prevDay(day string) string {
	prev, err := timeutil.AddDays(day, -1)
	if err != nil {
		return ""
	}

	return prev
}
