// Package accounting derives the daily watch metrics of a media item from
// freshly committed intervals and previously persisted state
package accounting

import (
	"math"
	"time"

	"github.com/ayoisaiah/watchlog/internal/interval"
	"github.com/ayoisaiah/watchlog/internal/models"
)

// Input is everything needed to compute the record of one (media, day) pair.
type Input struct {
	Now time.Time
	// PriorToday is the record already stored for MediaID on Date, if any
	PriorToday *models.DailyWatchRecord
	// Latest is the most recent record stored for MediaID on any date, if any
	Latest  *models.DailyWatchRecord
	MediaID string
	Date    string
	// NewIntervals are the intervals committed since the last flush
	NewIntervals []interval.Interval
	// History is the ascending per-day watch time of MediaID
	History         []models.HistoryPoint
	DurationSeconds float64
	// LastPosition is the resume position reported by the session tracker
	LastPosition float64
}

// Apply returns the updated record for in.MediaID on in.Date. The prior
// records are not modified.
func Apply(in *Input) *models.DailyWatchRecord {
	rec := &models.DailyWatchRecord{
		MediaID:                  in.MediaID,
		Date:                     in.Date,
		LastWatchedAt:            in.Now,
		LastWatchPositionSeconds: in.LastPosition,
		DurationSeconds:          in.DurationSeconds,
	}

	var priorToday, priorAllTime []interval.Interval

	if in.PriorToday != nil {
		rec.UnfilteredWatchTimeSeconds = in.PriorToday.UnfilteredWatchTimeSeconds
		priorToday = in.PriorToday.TodayIntervals
		priorAllTime = in.PriorToday.AllTimeIntervals

		if in.PriorToday.DurationSeconds > 0 {
			rec.DurationSeconds = in.PriorToday.DurationSeconds
		}
	}

	if in.Latest != nil {
		priorAllTime = interval.Union(priorAllTime, in.Latest.AllTimeIntervals)

		if rec.DurationSeconds == 0 {
			rec.DurationSeconds = in.Latest.DurationSeconds
		}
	}

	rec.UnfilteredWatchTimeSeconds += interval.Total(in.NewIntervals)

	rec.TodayIntervals = interval.Union(priorToday, in.NewIntervals)
	rec.WatchTimeSeconds = interval.Total(rec.TodayIntervals)

	rec.AllTimeIntervals = interval.Union(priorAllTime, rec.TodayIntervals)

	totalEverWatched := interval.Total(rec.AllTimeIntervals)

	var priorDaysTotal float64

	for _, h := range in.History {
		if h.Date == in.Date {
			continue
		}

		priorDaysTotal += h.WatchTimeSeconds
	}

	rec.NewWatchTimeSeconds = math.Min(
		math.Max(0, totalEverWatched-priorDaysTotal),
		rec.WatchTimeSeconds,
	)

	rec.UnfilteredWatchTimeSeconds = math.Max(
		rec.UnfilteredWatchTimeSeconds,
		rec.WatchTimeSeconds,
	)

	return rec
}

// Check reports whether rec satisfies the record invariants: every interval
// list is sorted and disjoint, and
// 0 <= new <= watch time <= unfiltered watch time.
func Check(rec *models.DailyWatchRecord) bool {
	for _, list := range [][]interval.Interval{rec.TodayIntervals, rec.AllTimeIntervals} {
		for i := range list {
			if list[i].End < list[i].Start {
				return false
			}

			if i > 0 && list[i].Start <= list[i-1].End {
				return false
			}
		}
	}

	return rec.NewWatchTimeSeconds >= 0 &&
		rec.NewWatchTimeSeconds <= rec.WatchTimeSeconds &&
		rec.WatchTimeSeconds <= rec.UnfilteredWatchTimeSeconds
}
