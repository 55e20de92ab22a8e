package recorder

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/ayoisaiah/watchlog/internal/interval"
	"github.com/ayoisaiah/watchlog/session"
)

// Player receives the playback events of one media item. Its event methods
// never fail: persistence errors are logged and the affected intervals are
// kept for the next flush.
type Player struct {
	rec      *Recorder
	sess     *session.Session
	mediaID  string
	flights  []*flight
	resumeAt float64
	mu       sync.Mutex
	flightMu sync.Mutex
	closed   bool
}

// flight tracks one background operation of a player.
type flight struct {
	done chan struct{}
	err  error
}

// MediaID returns the item being played.
func (p *Player) MediaID() string {
	return p.mediaID
}

// ResumePosition returns the position playback should resume from.
func (p *Player) ResumePosition() float64 {
	return p.resumeAt
}

// State returns the tracker state.
func (p *Player) State() session.State {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.sess.State()
}

// Pending returns the intervals that have not been persisted yet.
func (p *Player) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.sess.Pending())
}

// do runs fn against the session unless the player has been closed.
func (p *Player) do(event string, fn func(s *session.Session)) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		p.rec.logger.Debug(
			"event after close ignored",
			slog.String("media_id", p.mediaID),
			slog.String("event", event),
		)

		return false
	}

	fn(p.sess)

	return true
}

// Started handles playback starting or resuming at pos.
func (p *Player) Started(pos float64) {
	ok := p.do("started", func(s *session.Session) {
		s.OnPlay(pos)
	})
	if !ok {
		return
	}

	p.launch(func(ctx context.Context) error {
		if err := p.rec.touch(ctx, p); err != nil {
			p.rec.logger.Warn(
				"unable to refresh last watched time",
				slog.String("media_id", p.mediaID),
				slog.Any("error", err),
			)
		}

		return nil
	})
}

// Paused handles playback pausing at pos and saves the watched intervals.
func (p *Player) Paused(pos float64) {
	ok := p.do("paused", func(s *session.Session) {
		s.OnPause(pos)
	})
	if ok {
		p.startFlush()
	}
}

// PositionUpdate handles a periodic position report.
func (p *Player) PositionUpdate(pos, rate float64) {
	p.do("position", func(s *session.Session) {
		s.OnPositionUpdate(pos, rate)
	})
}

// Ended handles playback reaching the end of the item.
func (p *Player) Ended() {
	ok := p.do("ended", func(s *session.Session) {
		s.OnEnded()
	})
	if ok {
		p.startFlush()
	}
}

// Close stops tracking the item and waits, bounded by the flush timeout,
// for its final flush. On timeout the flush still runs to completion in
// the background and a context.DeadlineExceeded error is returned. If the
// final flush fails, its error is returned and the unsaved intervals are
// handed to the recorder, which saves them with the next flush of the item.
func (p *Player) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}

	p.closed = true
	// an interval open at teardown ends where playback was last seen
	p.sess.OnPause(p.sess.Position())
	p.mu.Unlock()

	p.rec.remove(p)

	return p.wait(ctx, p.startFlush())
}

func (p *Player) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.closed
}

// carry adds intervals left over by an earlier player of the same item.
// It reports false if the player is already closed.
func (p *Player) carry(list []interval.Interval) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false
	}

	p.sess.Carry(list)

	return true
}

// takePending removes and returns the intervals not yet persisted.
func (p *Player) takePending() []interval.Interval {
	p.mu.Lock()
	defer p.mu.Unlock()

	list := p.sess.Pending()
	p.sess.Ack(len(list))

	return list
}

func (p *Player) startFlush() *flight {
	return p.launch(func(ctx context.Context) error {
		return p.rec.flush(ctx, p)
	})
}

// launch runs fn in the background, or inline when the recorder flushes
// synchronously, and tracks it until it returns.
func (p *Player) launch(fn func(ctx context.Context) error) *flight {
	f := &flight{done: make(chan struct{})}

	p.flightMu.Lock()
	p.flights = append(p.flights, f)
	p.flightMu.Unlock()

	run := func() {
		defer p.land(f)

		// in-flight work is never cancelled so no merge step is skipped
		f.err = fn(context.Background())
	}

	if p.rec.syncFlush {
		run()
		return f
	}

	go run()

	return f
}

func (p *Player) land(f *flight) {
	p.flightMu.Lock()
	p.flights = slices.DeleteFunc(p.flights, func(c *flight) bool {
		return c == f
	})
	p.flightMu.Unlock()

	close(f.done)
}

// wait blocks until every in-flight operation of p has finished or the
// flush timeout elapses. It then reports the outcome of target.
func (p *Player) wait(ctx context.Context, target *flight) error {
	p.flightMu.Lock()
	flights := slices.Clone(p.flights)
	p.flightMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, p.rec.flushTimeout)
	defer cancel()

	flights = append(flights, target)

	for _, f := range flights {
		select {
		case <-f.done:
		case <-ctx.Done():
			p.rec.logger.Warn(
				"flush still running after timeout",
				slog.String("media_id", p.mediaID),
			)

			return errFlushTimeout.Fmt(p.mediaID).Wrap(ctx.Err())
		}
	}

	return target.err
}
