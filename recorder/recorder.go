// Package recorder turns playback events into persisted watch records. It
// owns one session tracker per active player and serialises every
// read-modify-write of a media item's records.
package recorder

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ayoisaiah/watchlog/accounting"
	"github.com/ayoisaiah/watchlog/internal/config"
	"github.com/ayoisaiah/watchlog/internal/interval"
	"github.com/ayoisaiah/watchlog/internal/models"
	"github.com/ayoisaiah/watchlog/internal/timeutil"
	"github.com/ayoisaiah/watchlog/session"
	"github.com/ayoisaiah/watchlog/store"
)

const defaultFlushTimeout = 3 * time.Second

// Recorder coordinates the active players and their flushes.
type Recorder struct {
	db           store.DB
	logger       *slog.Logger
	loc          *time.Location
	now          func() time.Time
	locks        *keyLock
	players      map[string]*Player
	carried      map[string][]interval.Interval
	current      *Player
	sessOpts     session.Options
	flushTimeout time.Duration
	mu           sync.Mutex
	syncFlush    bool
}

// Option customises a Recorder.
type Option func(*Recorder)

// WithClock sets the wall clock used for day keys and timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		r.now = now
	}
}

// WithLocation sets the time zone used to bucket watch time into days.
func WithLocation(loc *time.Location) Option {
	return func(r *Recorder) {
		r.loc = loc
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// WithSynchronousFlush makes pause and end triggers flush before the event
// method returns.
func WithSynchronousFlush() Option {
	return func(r *Recorder) {
		r.syncFlush = true
	}
}

// New returns a Recorder that persists to db using the tracking settings
// in cfg.
func New(db store.DB, cfg *config.Config, opts ...Option) *Recorder {
	r := &Recorder{
		db:           db,
		logger:       slog.Default(),
		loc:          time.Local,
		now:          time.Now,
		locks:        newKeyLock(),
		players:      make(map[string]*Player),
		carried:      make(map[string][]interval.Interval),
		sessOpts:     session.DefaultOptions(),
		flushTimeout: defaultFlushTimeout,
	}

	if cfg != nil {
		r.sessOpts = cfg.SessionOptions()
		r.loc = cfg.Location()

		if cfg.Tracking.FlushTimeout > 0 {
			r.flushTimeout = cfg.Tracking.FlushTimeout
		}
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}

	return r
}

// Open starts tracking playback of mediaID. The previous record of the item
// seeds the resume position, and intervals an earlier player failed to save
// are carried over. If another item is playing, it is closed first. Opening
// the item that is already playing returns its player.
func (r *Recorder) Open(
	ctx context.Context,
	mediaID string,
	duration float64,
) *Player {
	r.mu.Lock()
	prev := r.current

	if prev != nil && prev.mediaID == mediaID && !prev.isClosed() {
		r.mu.Unlock()
		return prev
	}
	r.mu.Unlock()

	if prev != nil {
		if err := prev.Close(ctx); err != nil {
			r.logger.Warn(
				"previous item not saved before switching",
				slog.String("media_id", prev.mediaID),
				slog.Any("error", err),
			)
		}
	}

	var resumeAt float64

	latest, err := r.latest(ctx, mediaID)
	if err != nil {
		r.logger.Warn(
			"unable to load watch baseline",
			slog.String("media_id", mediaID),
			slog.Any("error", err),
		)
	}

	if latest != nil {
		resumeAt = latest.LastWatchPositionSeconds

		if duration <= 0 {
			duration = latest.DurationSeconds
		}
	}

	p := &Player{
		rec:      r,
		mediaID:  mediaID,
		resumeAt: resumeAt,
		sess: session.New(
			mediaID,
			duration,
			resumeAt,
			r.sessOpts,
			r.logger,
		),
	}

	r.mu.Lock()
	if carried := r.carried[mediaID]; len(carried) > 0 {
		p.sess.Carry(carried)
		delete(r.carried, mediaID)
	}

	r.players[mediaID] = p
	r.current = p
	r.mu.Unlock()

	r.logger.Debug(
		"player opened",
		slog.String("media_id", mediaID),
		slog.Float64("resume_at", resumeAt),
	)

	return p
}

func (r *Recorder) latest(ctx context.Context, mediaID string) (*models.DailyWatchRecord, error) {
	unlock, err := r.locks.Lock(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return r.db.GetLatest(mediaID)
}

// Player returns the active player for mediaID, if any.
func (r *Recorder) Player(mediaID string) *Player {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.players[mediaID]
}

func (r *Recorder) active() []*Player {
	r.mu.Lock()
	defer r.mu.Unlock()

	players := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, p)
	}

	slices.SortFunc(players, func(a, b *Player) int {
		return strings.Compare(a.mediaID, b.mediaID)
	})

	return players
}

func (r *Recorder) remove(p *Player) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.players[p.mediaID] == p {
		delete(r.players, p.mediaID)
	}

	if r.current == p {
		r.current = nil
	}
}

// Flush synchronously persists the pending intervals of mediaID's player.
// It is a no-op if the item is not being played.
func (r *Recorder) Flush(ctx context.Context, mediaID string) error {
	p := r.Player(mediaID)
	if p == nil {
		return nil
	}

	return r.flush(ctx, p)
}

// flush closes the open interval of p, merges the pending intervals into
// the stored record for the current day and acknowledges them once the
// write succeeds. Failed writes leave the intervals pending.
func (r *Recorder) flush(ctx context.Context, p *Player) error {
	unlock, err := r.locks.Lock(ctx, p.mediaID)
	if err != nil {
		return err
	}
	defer unlock()

	p.mu.Lock()
	pending := p.sess.Finalize(p.sess.Position())
	lastPos := p.sess.LastPosition()
	duration := p.sess.Duration
	p.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	now := r.now()
	date := timeutil.DayKey(now, r.loc)

	prior, err := r.db.GetRecord(p.mediaID, date)
	if errors.Is(err, store.ErrCorruptRecord) {
		r.logger.Warn(
			"rebuilding corrupt watch record",
			slog.String("media_id", p.mediaID),
			slog.String("date", date),
			slog.Any("error", err),
		)

		prior, err = nil, nil
	}

	if err != nil {
		return r.flushFailed(p, err)
	}

	latest, err := r.db.GetLatest(p.mediaID)
	if err != nil {
		return r.flushFailed(p, err)
	}

	history, err := r.db.GetHistory(p.mediaID)
	if err != nil {
		return r.flushFailed(p, err)
	}

	rec := accounting.Apply(&accounting.Input{
		Now:             now,
		PriorToday:      prior,
		Latest:          latest,
		MediaID:         p.mediaID,
		Date:            date,
		NewIntervals:    pending,
		History:         history,
		DurationSeconds: duration,
		LastPosition:    lastPos,
	})

	if !accounting.Check(rec) {
		r.logger.Error(
			"computed record violates invariants",
			slog.String("media_id", rec.MediaID),
			slog.String("date", rec.Date),
			slog.Float64("watch", rec.WatchTimeSeconds),
			slog.Float64("new", rec.NewWatchTimeSeconds),
			slog.Float64("unfiltered", rec.UnfilteredWatchTimeSeconds),
		)
	}

	if err := r.db.Upsert(rec); err != nil {
		return r.flushFailed(p, err)
	}

	p.mu.Lock()
	p.sess.Ack(len(pending))
	p.mu.Unlock()

	r.logger.Info(
		"watch record saved",
		slog.String("media_id", rec.MediaID),
		slog.String("date", rec.Date),
		slog.Int("intervals", len(pending)),
		slog.Float64("watch_time", rec.WatchTimeSeconds),
		slog.Float64("new_watch_time", rec.NewWatchTimeSeconds),
	)

	return nil
}

func (r *Recorder) flushFailed(p *Player, err error) error {
	r.logger.Warn(
		"flush failed; intervals kept for the next attempt",
		slog.String("media_id", p.mediaID),
		slog.Any("error", err),
	)

	if p.isClosed() {
		r.stash(p)
	}

	return err
}

// stash moves the unsaved intervals of a closed player to the live player
// of the same item, or holds them until the item is opened again.
func (r *Recorder) stash(p *Player) {
	list := p.takePending()
	if len(list) == 0 {
		return
	}

	r.mu.Lock()
	live := r.players[p.mediaID]
	r.mu.Unlock()

	if live != nil && live != p && live.carry(list) {
		return
	}

	r.mu.Lock()
	r.carried[p.mediaID] = append(r.carried[p.mediaID], list...)
	r.mu.Unlock()
}

// Carried returns the number of unsaved intervals held for mediaID while
// no player of the item is open.
func (r *Recorder) Carried(mediaID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.carried[mediaID])
}

// touch refreshes the last watched time of today's record for p.
func (r *Recorder) touch(ctx context.Context, p *Player) error {
	unlock, err := r.locks.Lock(ctx, p.mediaID)
	if err != nil {
		return err
	}
	defer unlock()

	now := r.now()

	return r.db.TouchTimestamp(p.mediaID, timeutil.DayKey(now, r.loc), now)
}

// AppLifecycleChange reacts to the host application changing state. Moving
// to the background or becoming inactive flushes every active player and
// waits, bounded by the flush timeout, for the writes to land.
func (r *Recorder) AppLifecycleChange(
	ctx context.Context,
	state LifecycleState,
) error {
	switch state {
	case Active:
		r.logger.Debug("app active")
		return nil
	case Inactive, Background:
		r.logger.Debug("app suspending", slog.String("state", state.String()))
		return r.flushAll(ctx)
	default:
		return errUnknownLifecycle.Fmt(state.String())
	}
}

func (r *Recorder) flushAll(ctx context.Context) error {
	var g errgroup.Group

	for _, p := range r.active() {
		g.Go(func() error {
			return p.wait(ctx, p.startFlush())
		})
	}

	return g.Wait()
}

// Close closes every active player, waiting for their final flushes, and
// makes a last attempt to save intervals held from failed flushes.
func (r *Recorder) Close(ctx context.Context) error {
	var g errgroup.Group

	for _, p := range r.active() {
		g.Go(func() error {
			return p.Close(ctx)
		})
	}

	err := g.Wait()
	if errors.Is(err, context.DeadlineExceeded) {
		r.logger.Warn("closing before every flush completed", slog.Any("error", err))
	}

	return errors.Join(err, r.flushCarried(ctx))
}

// flushCarried saves the intervals held for items that have no open
// player. Intervals that still cannot be saved stay held.
func (r *Recorder) flushCarried(ctx context.Context) error {
	r.mu.Lock()
	carried := r.carried
	r.carried = make(map[string][]interval.Interval)
	r.mu.Unlock()

	ids := slices.Sorted(maps.Keys(carried))

	var errs []error

	for _, mediaID := range ids {
		p := &Player{
			rec:     r,
			mediaID: mediaID,
			closed:  true,
			sess:    session.New(mediaID, 0, 0, r.sessOpts, r.logger),
		}
		p.sess.Carry(carried[mediaID])

		if err := r.flush(ctx, p); err != nil {
			r.stash(p)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
