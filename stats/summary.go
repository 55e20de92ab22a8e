package stats

import (
	"slices"
	"strings"

	"github.com/ayoisaiah/watchlog/internal/models"
	"github.com/ayoisaiah/watchlog/store"
)

// DayTotal is the summed metrics of one date.
type DayTotal struct {
	Date string `json:"date"`
	models.Totals
}

// Summary is the report shown by the stats command.
type Summary struct {
	Start  string                 `json:"start"`
	End    string                 `json:"end"`
	Totals models.Totals          `json:"totals"`
	Days   []DayTotal             `json:"days"`
	Items  []models.ItemAggregate `json:"items"`
	Streak models.Streak          `json:"streak"`
	Recent []models.RecentItem    `json:"recent"`
}

// Query selects the data of a Summary.
type Query struct {
	// Start is the first day of the range; empty means the first stored day
	Start            string
	End              string
	Today            string
	ThresholdSeconds float64
	RecentLimit      int
}

// BuildSummary gathers range totals, per-item aggregates, streaks and
// recently watched items.
func BuildSummary(db store.DB, q Query) (*Summary, error) {
	totals, err := RangeTotals(db, q.Start, q.End)
	if err != nil {
		return nil, err
	}

	items, err := AggregatedRange(db, q.Start, q.End)
	if err != nil {
		return nil, err
	}

	streak, err := StreaksFromStore(db, q.ThresholdSeconds, q.Today)
	if err != nil {
		return nil, err
	}

	recent, err := RecentlyWatched(db, q.RecentLimit)
	if err != nil {
		return nil, err
	}

	s := &Summary{
		Start:  q.Start,
		End:    q.End,
		Days:   make([]DayTotal, 0, len(totals)),
		Items:  items,
		Streak: streak,
		Recent: recent,
	}

	for date, t := range totals {
		s.Days = append(s.Days, DayTotal{Date: date, Totals: t})
		s.Totals.WatchTimeSeconds += t.WatchTimeSeconds
		s.Totals.NewWatchTimeSeconds += t.NewWatchTimeSeconds
		s.Totals.UnfilteredWatchTimeSeconds += t.UnfilteredWatchTimeSeconds
	}

	slices.SortFunc(s.Days, func(a, b DayTotal) int {
		return strings.Compare(a.Date, b.Date)
	})

	if s.Start == "" && len(s.Days) > 0 {
		s.Start = s.Days[0].Date
	}

	return s, nil
}
