package store

import (
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"

	"github.com/ayoisaiah/watchlog/internal/apperr"
	"github.com/ayoisaiah/watchlog/internal/interval"
	"github.com/ayoisaiah/watchlog/internal/models"
)

var baseTime = time.Date(2024, time.March, 10, 20, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T) (*Client, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "watchlog.db")

	c, err := NewClient(path, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = c.Close()
	})

	return c, path
}

func record(mediaID, date string, watch float64, at time.Time) *models.DailyWatchRecord {
	return &models.DailyWatchRecord{
		LastWatchedAt:              at,
		MediaID:                    mediaID,
		Date:                       date,
		AllTimeIntervals:           []interval.Interval{{Start: 0, End: watch}},
		TodayIntervals:             []interval.Interval{{Start: 0, End: watch}},
		WatchTimeSeconds:           watch,
		NewWatchTimeSeconds:        watch,
		UnfilteredWatchTimeSeconds: watch,
		LastWatchPositionSeconds:   watch,
		DurationSeconds:            3600,
	}
}

func TestUpsertAndGetRecord(t *testing.T) {
	c, _ := newTestClient(t)

	want := record("movie-1", "2024-03-10", 120, baseTime)
	require.NoError(t, c.Upsert(want))

	got, err := c.GetRecord("movie-1", "2024-03-10")
	require.NoError(t, err)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("GetRecord() mismatch (-want +got):\n%s", diff)
	}

	updated := record("movie-1", "2024-03-10", 240, baseTime.Add(time.Hour))
	require.NoError(t, c.Upsert(updated))

	got, err = c.GetRecord("movie-1", "2024-03-10")
	require.NoError(t, err)
	assert.InDelta(t, 240, got.WatchTimeSeconds, 1e-9)

	day, err := c.ListByDate("2024-03-10")
	require.NoError(t, err)
	assert.Len(t, day, 1)
}

func TestGetRecordMissing(t *testing.T) {
	c, _ := newTestClient(t)

	got, err := c.GetRecord("movie-1", "2024-03-10")
	require.NoError(t, err)
	assert.Nil(t, got)

	latest, err := c.GetLatest("movie-1")
	require.NoError(t, err)
	assert.Nil(t, latest)

	history, err := c.GetHistory("movie-1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestUpsertRejectsInvalidKeys(t *testing.T) {
	c, _ := newTestClient(t)

	cases := []*models.DailyWatchRecord{
		record("", "2024-03-10", 10, baseTime),
		record("bad\x00id", "2024-03-10", 10, baseTime),
		record("movie-1", "10-03-2024", 10, baseTime),
	}

	for _, rec := range cases {
		assert.Error(t, c.Upsert(rec), "media %q date %q", rec.MediaID, rec.Date)
	}
}

func TestGetLatestAndHistory(t *testing.T) {
	c, _ := newTestClient(t)

	require.NoError(t, c.Upsert(record("movie-1", "2024-03-08", 30, baseTime)))
	require.NoError(t, c.Upsert(record("movie-1", "2024-03-10", 90, baseTime)))
	require.NoError(t, c.Upsert(record("movie-1", "2024-03-09", 60, baseTime)))
	// shares a prefix with movie-1
	require.NoError(t, c.Upsert(record("movie-10", "2024-03-11", 15, baseTime)))

	latest, err := c.GetLatest("movie-1")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10", latest.Date)

	history, err := c.GetHistory("movie-1")
	require.NoError(t, err)

	want := []models.HistoryPoint{
		{Date: "2024-03-08", WatchTimeSeconds: 30},
		{Date: "2024-03-09", WatchTimeSeconds: 60},
		{Date: "2024-03-10", WatchTimeSeconds: 90},
	}

	if diff := cmp.Diff(want, history); diff != "" {
		t.Fatalf("GetHistory() mismatch (-want +got):\n%s", diff)
	}
}

func TestTouchTimestamp(t *testing.T) {
	c, _ := newTestClient(t)

	rec := record("movie-1", "2024-03-10", 120, baseTime)
	require.NoError(t, c.Upsert(rec))

	later := baseTime.Add(2 * time.Hour)
	require.NoError(t, c.TouchTimestamp("movie-1", "2024-03-10", later))

	got, err := c.GetRecord("movie-1", "2024-03-10")
	require.NoError(t, err)
	assert.True(t, got.LastWatchedAt.Equal(later))
	assert.Equal(t, rec.TodayIntervals, got.TodayIntervals)
	assert.InDelta(t, rec.WatchTimeSeconds, got.WatchTimeSeconds, 1e-9)

	require.NoError(t, c.TouchTimestamp("movie-2", "2024-03-10", later))

	missing, err := c.GetRecord("movie-2", "2024-03-10")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestListRangeAndDelete(t *testing.T) {
	c, _ := newTestClient(t)

	require.NoError(t, c.Upsert(record("b", "2024-03-09", 30, baseTime)))
	require.NoError(t, c.Upsert(record("a", "2024-03-09", 40, baseTime)))
	require.NoError(t, c.Upsert(record("a", "2024-03-10", 50, baseTime)))
	require.NoError(t, c.Upsert(record("c", "2024-03-12", 60, baseTime)))

	got, err := c.ListRange("2024-03-09", "2024-03-10")
	require.NoError(t, err)

	var keys []string
	for _, r := range got {
		keys = append(keys, r.Date+"/"+r.MediaID)
	}

	assert.Equal(t, []string{"2024-03-09/a", "2024-03-09/b", "2024-03-10/a"}, keys)

	all, err := c.ListRange("", "2024-12-31")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	n, err := c.DeleteForDate("2024-03-09")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	day, err := c.ListByDate("2024-03-09")
	require.NoError(t, err)
	assert.Empty(t, day)

	rec, err := c.GetRecord("a", "2024-03-09")
	require.NoError(t, err)
	assert.Nil(t, rec)

	rec, err = c.GetRecord("a", "2024-03-10")
	require.NoError(t, err)
	assert.NotNil(t, rec)
}

func TestDailySeries(t *testing.T) {
	c, _ := newTestClient(t)

	require.NoError(t, c.Upsert(record("a", "2024-03-09", 30, baseTime)))
	require.NoError(t, c.Upsert(record("b", "2024-03-09", 45, baseTime)))
	require.NoError(t, c.Upsert(record("a", "2024-03-10", 10, baseTime)))

	series, err := c.DailySeries()
	require.NoError(t, err)

	assert.InDelta(t, 75, series["2024-03-09"].WatchTimeSeconds, 1e-9)
	assert.InDelta(t, 10, series["2024-03-10"].WatchTimeSeconds, 1e-9)
	assert.Len(t, series, 2)
}

func TestRecent(t *testing.T) {
	c, _ := newTestClient(t)

	require.NoError(t, c.Upsert(record("a", "2024-03-08", 30, baseTime)))
	require.NoError(t, c.Upsert(record("a", "2024-03-10", 40, baseTime.Add(3*time.Hour))))
	require.NoError(t, c.Upsert(record("b", "2024-03-09", 50, baseTime.Add(time.Hour))))
	require.NoError(t, c.Upsert(record("c", "2024-03-09", 50, baseTime.Add(2*time.Hour))))

	got, err := c.Recent(2)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "a", got[0].MediaID)
	assert.Equal(t, "2024-03-10", got[0].Date)
	assert.Equal(t, "c", got[1].MediaID)

	all, err := c.Recent(0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestCorruptIntervalsAreTreatedAsEmpty(t *testing.T) {
	c, _ := newTestClient(t)

	require.NoError(t, c.Upsert(record("movie-1", "2024-03-10", 120, baseTime)))

	err := c.db.Update(func(tx *bolt.Tx) error {
		payload := `{"media_id":"movie-1","date":"2024-03-10",` +
			`"today_intervals":"[[0,","all_time_intervals":"[[0,120]]",` +
			`"watch_time_seconds":120}`

		return tx.Bucket([]byte(recordBucket)).
			Put(recordKey("movie-1", "2024-03-10"), []byte(payload))
	})
	require.NoError(t, err)

	got, err := c.GetRecord("movie-1", "2024-03-10")
	require.NoError(t, err)
	assert.Empty(t, got.TodayIntervals)
	assert.Equal(t, []interval.Interval{{Start: 0, End: 120}}, got.AllTimeIntervals)
}

func putCorrupt(t *testing.T, c *Client, mediaID, date string) {
	t.Helper()

	err := c.db.Update(func(tx *bolt.Tx) error {
		err := tx.Bucket([]byte(recordBucket)).
			Put(recordKey(mediaID, date), []byte("{not json"))
		if err != nil {
			return err
		}

		return tx.Bucket([]byte(dateBucket)).
			Put(dateKey(date, mediaID), []byte{})
	})
	require.NoError(t, err)
}

func TestCorruptRecordIsReported(t *testing.T) {
	c, _ := newTestClient(t)

	putCorrupt(t, c, "movie-1", "2024-03-10")

	_, err := c.GetRecord("movie-1", "2024-03-10")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorruptRecord))
	assert.False(t, errors.Is(err, apperr.ErrTransientStore))

	// touching a corrupt record leaves it alone
	require.NoError(t, c.TouchTimestamp("movie-1", "2024-03-10", baseTime))
}

func TestScansSkipCorruptRecords(t *testing.T) {
	c, _ := newTestClient(t)

	yesterday := baseTime.Add(-24 * time.Hour)

	require.NoError(t, c.Upsert(record("movie-1", "2024-03-09", 40, yesterday)))
	require.NoError(t, c.Upsert(record("movie-2", "2024-03-10", 90, baseTime)))
	putCorrupt(t, c, "movie-1", "2024-03-10")

	series, err := c.DailySeries()
	require.NoError(t, err)
	assert.Len(t, series, 2)
	assert.InDelta(t, 40, series["2024-03-09"].WatchTimeSeconds, 1e-9)
	assert.InDelta(t, 90, series["2024-03-10"].WatchTimeSeconds, 1e-9)

	recent, err := c.Recent(0)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "movie-2", recent[0].MediaID)
	assert.Equal(t, "movie-1", recent[1].MediaID)
	assert.Equal(t, "2024-03-09", recent[1].Date)

	day, err := c.ListByDate("2024-03-10")
	require.NoError(t, err)
	require.Len(t, day, 1)
	assert.Equal(t, "movie-2", day[0].MediaID)

	latest, err := c.GetLatest("movie-1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "2024-03-09", latest.Date)

	history, err := c.GetHistory("movie-1")
	require.NoError(t, err)
	assert.Equal(
		t,
		[]models.HistoryPoint{{Date: "2024-03-09", WatchTimeSeconds: 40}},
		history,
	)
}

func TestMigrateBuildsDateIndex(t *testing.T) {
	c, path := newTestClient(t)

	rec := record("movie-1", "2024-03-10", 120, baseTime)
	value, err := encodeRecord(rec)
	require.NoError(t, err)

	// simulate a version 1 database: a record without an index entry
	err = c.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket([]byte(metaBucket)).Delete([]byte(schemaVersionKey)); err != nil {
			return err
		}

		return tx.Bucket([]byte(recordBucket)).
			Put(recordKey(rec.MediaID, rec.Date), value)
	})
	require.NoError(t, err)

	day, err := c.ListByDate("2024-03-10")
	require.NoError(t, err)
	assert.Empty(t, day)

	require.NoError(t, c.Close())

	reopened, err := NewClient(path, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = reopened.Close()
	})

	day, err = reopened.ListByDate("2024-03-10")
	require.NoError(t, err)
	assert.Len(t, day, 1)
}

func TestOpenLockedDatabase(t *testing.T) {
	_, path := newTestClient(t)

	_, err := NewClient(path, slog.New(slog.DiscardHandler))
	assert.ErrorIs(t, err, errWatchlogRunning)
}
