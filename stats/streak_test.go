package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ayoisaiah/watchlog/internal/models"
)

const goal = 1800

func series(days map[string]float64) map[string]models.Totals {
	m := make(map[string]models.Totals, len(days))

	for day, newTime := range days {
		m[day] = models.Totals{
			WatchTimeSeconds:           newTime,
			NewWatchTimeSeconds:        newTime,
			UnfilteredWatchTimeSeconds: newTime,
		}
	}

	return m
}

func TestStreaks(t *testing.T) {
	cases := []struct {
		name    string
		days    map[string]float64
		today   string
		current int
		max     int
	}{
		{
			name: "four consecutive days including today",
			days: map[string]float64{
				"2024-03-07": 1800,
				"2024-03-08": 2000,
				"2024-03-09": 1800,
				"2024-03-10": 3600,
			},
			today:   "2024-03-10",
			current: 4,
			max:     4,
		},
		{
			name: "yesterday below the goal",
			days: map[string]float64{
				"2024-03-07": 1800,
				"2024-03-08": 1800,
				"2024-03-09": 600,
				"2024-03-10": 1800,
			},
			today:   "2024-03-10",
			current: 1,
			max:     2,
		},
		{
			name: "nothing watched today keeps the prior run",
			days: map[string]float64{
				"2024-03-08": 1800,
				"2024-03-09": 1800,
			},
			today:   "2024-03-10",
			current: 2,
			max:     2,
		},
		{
			name: "today below the goal keeps the prior run",
			days: map[string]float64{
				"2024-03-09": 1800,
				"2024-03-10": 100,
			},
			today:   "2024-03-10",
			current: 1,
			max:     1,
		},
		{
			name: "gap breaks the run",
			days: map[string]float64{
				"2024-03-01": 1800,
				"2024-03-02": 1800,
				"2024-03-03": 1800,
				"2024-03-05": 1800,
				"2024-03-09": 1800,
			},
			today:   "2024-03-10",
			current: 1,
			max:     3,
		},
		{
			name: "run across a month boundary",
			days: map[string]float64{
				"2024-02-28": 1800,
				"2024-02-29": 1800,
				"2024-03-01": 1800,
			},
			today:   "2024-03-01",
			current: 3,
			max:     3,
		},
		{
			name:    "no history",
			days:    map[string]float64{},
			today:   "2024-03-10",
			current: 0,
			max:     0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Streaks(series(tc.days), goal, tc.today)

			assert.Equal(t, tc.current, got.Current, "current")
			assert.Equal(t, tc.max, got.Max, "max")
			assert.InDelta(t, goal, got.ThresholdSeconds, 1e-9)
		})
	}
}

func TestStreaksFromStore(t *testing.T) {
	db := newTestDB(t, fixtures)

	got, err := StreaksFromStore(db, 20, "2024-03-10")
	assert.NoError(t, err)
	assert.Equal(t, 2, got.Current)
	assert.Equal(t, 2, got.Max)

	_, err = StreaksFromStore(db, 20, "today")
	assert.ErrorIs(t, err, errInvalidDay)
}
