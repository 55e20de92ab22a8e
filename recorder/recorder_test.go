package recorder

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayoisaiah/watchlog/internal/apperr"
	"github.com/ayoisaiah/watchlog/internal/config"
	"github.com/ayoisaiah/watchlog/internal/interval"
	"github.com/ayoisaiah/watchlog/internal/models"
	"github.com/ayoisaiah/watchlog/session"
	"github.com/ayoisaiah/watchlog/store"
)

var errDiskFull = errors.New("disk full")

// faultyDB wraps a real store and can fail or block writes on demand.
type faultyDB struct {
	store.DB
	block   chan struct{}
	upserts atomic.Int32
	fail    atomic.Bool
	corrupt atomic.Bool
}

func (f *faultyDB) GetRecord(mediaID, date string) (*models.DailyWatchRecord, error) {
	if f.corrupt.Load() {
		return nil, store.ErrCorruptRecord.Wrap(errDiskFull)
	}

	return f.DB.GetRecord(mediaID, date)
}

func (f *faultyDB) Upsert(rec *models.DailyWatchRecord) error {
	if f.block != nil {
		<-f.block
	}

	if f.fail.Load() {
		return apperr.ErrTransientStore.Wrap(errDiskFull)
	}

	f.upserts.Add(1)

	return f.DB.Upsert(rec)
}

type clock struct {
	t  time.Time
	mu sync.Mutex
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.t
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.t = t
}

func newTestDB(t *testing.T) *faultyDB {
	t.Helper()

	c, err := store.NewClient(
		filepath.Join(t.TempDir(), "watchlog.db"),
		slog.New(slog.DiscardHandler),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = c.Close()
	})

	return &faultyDB{DB: c}
}

func newTestRecorder(
	t *testing.T,
	db store.DB,
	clk *clock,
	opts ...Option,
) *Recorder {
	t.Helper()

	opts = append([]Option{
		WithClock(clk.Now),
		WithLocation(time.UTC),
		WithLogger(slog.New(slog.DiscardHandler)),
	}, opts...)

	return New(db, nil, opts...)
}

// play reports positions from -> to in steps of 5 seconds.
func play(p *Player, from, to float64) {
	p.Started(from)

	for pos := from + 5; pos <= to; pos += 5 {
		p.PositionUpdate(pos, 1)
	}
}

func getRecord(t *testing.T, db store.DB, mediaID, date string) *models.DailyWatchRecord {
	t.Helper()

	rec, err := db.GetRecord(mediaID, date)
	require.NoError(t, err)
	require.NotNil(t, rec, "no record for %s on %s", mediaID, date)

	return rec
}

func TestSameDayAccumulation(t *testing.T) {
	db := newTestDB(t)
	clk := &clock{t: time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)}
	r := newTestRecorder(t, db, clk, WithSynchronousFlush())

	p := r.Open(context.Background(), "movie-1", 3600)

	p.Started(0)
	p.Paused(12)

	rec := getRecord(t, db, "movie-1", "2024-03-10")
	assert.Equal(t, []interval.Interval{{Start: 0, End: 12}}, rec.TodayIntervals)

	p.Started(12)
	p.Paused(40)

	rec = getRecord(t, db, "movie-1", "2024-03-10")
	assert.Equal(t, []interval.Interval{{Start: 0, End: 40}}, rec.TodayIntervals)
	assert.InDelta(t, 40, rec.WatchTimeSeconds, 1e-9)
	assert.InDelta(t, 40, rec.NewWatchTimeSeconds, 1e-9)
	assert.InDelta(t, 40, rec.LastWatchPositionSeconds, 1e-9)
	assert.InDelta(t, 3600, rec.DurationSeconds, 1e-9)
}

func TestShortSegmentsAreNotSaved(t *testing.T) {
	db := newTestDB(t)
	clk := &clock{t: time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)}
	r := newTestRecorder(t, db, clk, WithSynchronousFlush())

	p := r.Open(context.Background(), "movie-1", 3600)
	p.Started(0)
	p.Paused(9)

	rec, err := db.GetRecord("movie-1", "2024-03-10")
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, int32(0), db.upserts.Load())
}

func TestNewTimeAcrossDays(t *testing.T) {
	db := newTestDB(t)
	clk := &clock{t: time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)}
	r := newTestRecorder(t, db, clk, WithSynchronousFlush())

	p := r.Open(context.Background(), "movie-1", 3600)
	p.Started(0)
	p.Paused(100)
	require.NoError(t, p.Close(context.Background()))

	clk.Set(time.Date(2024, 3, 11, 20, 0, 0, 0, time.UTC))

	p = r.Open(context.Background(), "movie-1", 3600)
	assert.InDelta(t, 100, p.ResumePosition(), 1e-9)

	p.Started(0)
	p.Paused(50)
	p.Started(100)
	p.Paused(150)

	rec := getRecord(t, db, "movie-1", "2024-03-11")
	assert.Equal(
		t,
		[]interval.Interval{{Start: 0, End: 50}, {Start: 100, End: 150}},
		rec.TodayIntervals,
	)
	assert.Equal(t, []interval.Interval{{Start: 0, End: 150}}, rec.AllTimeIntervals)
	assert.InDelta(t, 100, rec.WatchTimeSeconds, 1e-9)
	assert.InDelta(t, 50, rec.NewWatchTimeSeconds, 1e-9)
}

func TestDayKeyUsesConfiguredLocation(t *testing.T) {
	db := newTestDB(t)

	tokyo := time.FixedZone("JST", 9*60*60)
	// 2024-03-10 20:00 UTC is already the 11th in Tokyo
	clk := &clock{t: time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)}
	r := newTestRecorder(t, db, clk, WithSynchronousFlush(), WithLocation(tokyo))

	p := r.Open(context.Background(), "movie-1", 0)
	p.Started(0)
	p.Paused(30)

	getRecord(t, db, "movie-1", "2024-03-11")
}

func TestFailedWriteKeepsIntervals(t *testing.T) {
	db := newTestDB(t)
	db.fail.Store(true)

	clk := &clock{t: time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)}
	r := newTestRecorder(t, db, clk, WithSynchronousFlush())

	p := r.Open(context.Background(), "movie-1", 3600)
	p.Started(0)
	p.Paused(30)

	assert.Equal(t, 1, p.Pending())

	err := r.Flush(context.Background(), "movie-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrTransientStore)
	assert.Equal(t, 1, p.Pending())

	db.fail.Store(false)

	p.Started(30)
	p.Paused(60)

	assert.Equal(t, 0, p.Pending())

	rec := getRecord(t, db, "movie-1", "2024-03-10")
	assert.Equal(t, []interval.Interval{{Start: 0, End: 60}}, rec.TodayIntervals)
	assert.InDelta(t, 60, rec.UnfilteredWatchTimeSeconds, 1e-9)
}

func TestFailedFinalFlushIsCarriedOver(t *testing.T) {
	db := newTestDB(t)
	db.fail.Store(true)

	clk := &clock{t: time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)}
	r := newTestRecorder(t, db, clk, WithSynchronousFlush())

	p := r.Open(context.Background(), "movie-1", 3600)
	p.Started(0)
	p.Paused(30)

	assert.Equal(t, 1, p.Pending())

	err := p.Close(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrTransientStore)
	assert.Equal(t, 1, r.Carried("movie-1"))

	db.fail.Store(false)

	reopened := r.Open(context.Background(), "movie-1", 3600)
	assert.NotSame(t, p, reopened)
	assert.Equal(t, 0, r.Carried("movie-1"))
	assert.Equal(t, 1, reopened.Pending())

	reopened.Started(30)
	reopened.Paused(60)

	rec := getRecord(t, db, "movie-1", "2024-03-10")
	assert.Equal(t, []interval.Interval{{Start: 0, End: 60}}, rec.TodayIntervals)
	assert.InDelta(t, 60, rec.WatchTimeSeconds, 1e-9)
	assert.InDelta(t, 60, rec.LastWatchPositionSeconds, 1e-9)
}

func TestCloseSavesCarriedIntervals(t *testing.T) {
	db := newTestDB(t)
	db.fail.Store(true)

	clk := &clock{t: time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)}
	r := newTestRecorder(t, db, clk, WithSynchronousFlush())

	first := r.Open(context.Background(), "episode-1", 1500)
	first.Started(0)
	first.Paused(30)

	// advancing the playlist closes episode-1 while writes still fail
	second := r.Open(context.Background(), "episode-2", 1500)
	assert.Equal(t, 1, r.Carried("episode-1"))

	err := r.Close(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, r.Carried("episode-1"))
	assert.Equal(t, 0, second.Pending())

	db.fail.Store(false)

	require.NoError(t, r.Close(context.Background()))
	assert.Equal(t, 0, r.Carried("episode-1"))

	rec := getRecord(t, db, "episode-1", "2024-03-10")
	assert.Equal(t, []interval.Interval{{Start: 0, End: 30}}, rec.TodayIntervals)
	assert.InDelta(t, 30, rec.LastWatchPositionSeconds, 1e-9)
}

func TestCorruptTodayRecordIsRebuilt(t *testing.T) {
	db := newTestDB(t)
	db.corrupt.Store(true)

	clk := &clock{t: time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)}
	r := newTestRecorder(t, db, clk, WithSynchronousFlush())

	p := r.Open(context.Background(), "movie-1", 3600)
	p.Started(0)
	p.Paused(30)

	assert.Equal(t, 0, p.Pending())

	db.corrupt.Store(false)

	rec := getRecord(t, db, "movie-1", "2024-03-10")
	assert.Equal(t, []interval.Interval{{Start: 0, End: 30}}, rec.TodayIntervals)
}

func TestReopenWhileClosingStartsNewPlayer(t *testing.T) {
	db := newTestDB(t)
	db.block = make(chan struct{})

	clk := &clock{t: time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)}
	r := newTestRecorder(t, db, clk)

	p := r.Open(context.Background(), "movie-1", 3600)
	play(p, 0, 20)

	closed := make(chan error, 1)

	go func() {
		closed <- p.Close(context.Background())
	}()

	require.Eventually(t, func() bool {
		return r.Player("movie-1") == nil
	}, time.Second, 5*time.Millisecond)

	opened := make(chan *Player, 1)

	go func() {
		opened <- r.Open(context.Background(), "movie-1", 3600)
	}()

	close(db.block)

	reopened := <-opened
	require.NoError(t, <-closed)

	assert.NotSame(t, p, reopened)
	assert.Same(t, reopened, r.Player("movie-1"))

	reopened.Started(20)
	assert.Equal(t, session.Playing, reopened.State())
}

func TestBackgroundFlushContinuesPlayback(t *testing.T) {
	db := newTestDB(t)
	clk := &clock{t: time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)}
	r := newTestRecorder(t, db, clk)

	p := r.Open(context.Background(), "movie-1", 3600)
	play(p, 0, 20)

	require.NoError(t, r.AppLifecycleChange(context.Background(), Background))

	rec := getRecord(t, db, "movie-1", "2024-03-10")
	assert.Equal(t, []interval.Interval{{Start: 0, End: 20}}, rec.TodayIntervals)
	assert.Equal(t, session.Playing, p.State())

	for pos := 25.0; pos <= 40; pos += 5 {
		p.PositionUpdate(pos, 1)
	}

	p.Paused(40)
	require.NoError(t, r.AppLifecycleChange(context.Background(), Inactive))

	rec = getRecord(t, db, "movie-1", "2024-03-10")
	assert.Equal(t, []interval.Interval{{Start: 0, End: 40}}, rec.TodayIntervals)
	assert.InDelta(t, 40, rec.UnfilteredWatchTimeSeconds, 1e-9)
}

func TestRacingTriggersDoNotDoubleCount(t *testing.T) {
	db := newTestDB(t)
	clk := &clock{t: time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)}
	r := newTestRecorder(t, db, clk)

	p := r.Open(context.Background(), "movie-1", 3600)
	play(p, 0, 30)
	p.Paused(30)

	var wg sync.WaitGroup

	for range 4 {
		wg.Add(1)

		go func() {
			defer wg.Done()
			_ = r.AppLifecycleChange(context.Background(), Background)
		}()
	}

	wg.Wait()
	require.NoError(t, p.Close(context.Background()))

	rec := getRecord(t, db, "movie-1", "2024-03-10")
	assert.InDelta(t, 30, rec.WatchTimeSeconds, 1e-9)
	assert.InDelta(t, 30, rec.UnfilteredWatchTimeSeconds, 1e-9)
}

func TestOpenClosesPreviousItem(t *testing.T) {
	db := newTestDB(t)
	clk := &clock{t: time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)}
	r := newTestRecorder(t, db, clk)

	first := r.Open(context.Background(), "episode-1", 1500)
	play(first, 0, 15)

	second := r.Open(context.Background(), "episode-2", 1500)
	assert.NotSame(t, first, second)
	assert.Nil(t, r.Player("episode-1"))

	rec := getRecord(t, db, "episode-1", "2024-03-10")
	assert.Equal(t, []interval.Interval{{Start: 0, End: 15}}, rec.TodayIntervals)

	// events for a closed player are ignored
	first.Started(15)
	first.Paused(60)

	rec = getRecord(t, db, "episode-1", "2024-03-10")
	assert.InDelta(t, 15, rec.WatchTimeSeconds, 1e-9)

	assert.Same(t, second, r.Open(context.Background(), "episode-2", 1500))
}

func TestFinishedItemResetsResumePosition(t *testing.T) {
	db := newTestDB(t)
	clk := &clock{t: time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)}
	r := newTestRecorder(t, db, clk, WithSynchronousFlush())

	p := r.Open(context.Background(), "clip-1", 60)
	play(p, 0, 55)
	p.Ended()

	rec := getRecord(t, db, "clip-1", "2024-03-10")
	assert.Equal(t, []interval.Interval{{Start: 0, End: 60}}, rec.TodayIntervals)
	assert.InDelta(t, 0, rec.LastWatchPositionSeconds, 1e-9)

	require.NoError(t, r.Close(context.Background()))

	p = r.Open(context.Background(), "clip-1", 0)
	assert.InDelta(t, 0, p.ResumePosition(), 1e-9)
}

func TestCloseTimesOutButFlushCompletes(t *testing.T) {
	db := newTestDB(t)
	db.block = make(chan struct{})

	clk := &clock{t: time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)}
	r := New(
		db,
		&config.Config{
			Tracking: config.TrackingConfig{
				MinSegment:      10 * time.Second,
				FinishTolerance: 5 * time.Second,
				FlushTimeout:    50 * time.Millisecond,
				SeekThreshold:   9,
				TimeScale:       1,
			},
		},
		WithClock(clk.Now),
		WithLocation(time.UTC),
		WithLogger(slog.New(slog.DiscardHandler)),
	)

	p := r.Open(context.Background(), "movie-1", 3600)
	play(p, 0, 20)

	err := p.Close(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(db.block)

	require.Eventually(t, func() bool {
		return db.upserts.Load() == 1
	}, time.Second, 10*time.Millisecond)

	rec := getRecord(t, db, "movie-1", "2024-03-10")
	assert.Equal(t, []interval.Interval{{Start: 0, End: 20}}, rec.TodayIntervals)
}

func TestStartTouchesExistingRecord(t *testing.T) {
	db := newTestDB(t)
	clk := &clock{t: time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)}
	r := newTestRecorder(t, db, clk, WithSynchronousFlush())

	p := r.Open(context.Background(), "movie-1", 3600)
	p.Started(0)
	p.Paused(30)

	later := time.Date(2024, 3, 10, 22, 0, 0, 0, time.UTC)
	clk.Set(later)

	p.Started(30)

	rec := getRecord(t, db, "movie-1", "2024-03-10")
	assert.True(t, rec.LastWatchedAt.Equal(later))
	assert.InDelta(t, 30, rec.WatchTimeSeconds, 1e-9)
}

func TestUnknownLifecycleState(t *testing.T) {
	r := newTestRecorder(t, newTestDB(t), &clock{})

	err := r.AppLifecycleChange(context.Background(), LifecycleState(42))
	assert.ErrorIs(t, err, errUnknownLifecycle)

	state, err := ParseLifecycleState("Background")
	require.NoError(t, err)
	assert.Equal(t, Background, state)

	_, err = ParseLifecycleState("sleeping")
	assert.Error(t, err)
}

func TestKeyLock(t *testing.T) {
	k := newKeyLock()

	unlock, err := k.Lock(context.Background(), "a")
	require.NoError(t, err)

	// other keys are independent
	unlockB, err := k.Lock(context.Background(), "b")
	require.NoError(t, err)
	unlockB()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = k.Lock(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// a done context never takes a free key
	done, stop := context.WithCancel(context.Background())
	stop()

	for range 20 {
		_, err = k.Lock(done, "c")
		require.ErrorIs(t, err, context.Canceled)
	}

	unlock()

	unlock, err = k.Lock(context.Background(), "a")
	require.NoError(t, err)
	unlock()

	assert.Empty(t, k.slots)
}
