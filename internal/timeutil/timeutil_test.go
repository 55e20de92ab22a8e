package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayKey(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	instant := time.Date(2024, 3, 1, 20, 30, 0, 0, time.UTC)

	assert.Equal(t, "2024-03-01", DayKey(instant, time.UTC))
	assert.Equal(t, "2024-03-02", DayKey(instant, loc))
}

func TestAddDays(t *testing.T) {
	cases := []struct {
		day  string
		n    int
		want string
	}{
		{"2024-02-28", 1, "2024-02-29"},
		{"2024-02-29", 1, "2024-03-01"},
		{"2023-12-31", 1, "2024-01-01"},
		{"2024-03-31", -31, "2024-02-29"},
	}

	for _, tc := range cases {
		got, err := AddDays(tc.day, tc.n)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}

	assert.Empty(t, NextDay("not-a-day"))
}

func TestStartOfWeekAndMonth(t *testing.T) {
	sunday := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), StartOfWeek(sunday))
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), StartOfMonth(sunday))
	assert.Equal(t, 31, DaysIn(sunday))
}

func TestPeriodRange(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)

	start, end := PeriodRange(Period7Days, now)
	assert.Equal(t, "2024-03-04", start)
	assert.Equal(t, "2024-03-10", end)

	start, end = PeriodRange(PeriodYesterday, now)
	assert.Equal(t, "2024-03-09", start)
	assert.Equal(t, "2024-03-09", end)

	start, _ = PeriodRange(PeriodAllTime, now)
	assert.Empty(t, start)
}

func TestFromStrDayKey(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)

	got, err := FromStr("2024-02-01", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "42s", FormatSeconds(42))
	assert.Equal(t, "1m05s", FormatSeconds(65))
	assert.Equal(t, "2h05m", FormatSeconds(7500))
}
