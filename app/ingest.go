package app

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/ayoisaiah/watchlog/internal/apperr"
	"github.com/ayoisaiah/watchlog/internal/config"
	"github.com/ayoisaiah/watchlog/internal/logging"
	"github.com/ayoisaiah/watchlog/internal/models"
	"github.com/ayoisaiah/watchlog/recorder"
	"github.com/ayoisaiah/watchlog/store"
)

var (
	errInvalidEvent = &apperr.Error{
		Message: "line %d: invalid event",
	}

	errUnknownEventType = &apperr.Error{
		Message: "line %d: unknown event type %q",
	}

	errMissingMediaID = &apperr.Error{
		Message: "line %d: media_id is required",
	}
)

// replayClock reports the time of the event being replayed.
type replayClock struct {
	t  time.Time
	mu sync.Mutex
}

func (c *replayClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.t
}

func (c *replayClock) set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.t = t
}

// replay feeds a stream of JSON lines playback events through a recorder
// and returns the number of events applied. Blank lines are skipped. Every
// open player is closed once the stream ends.
func replay(
	ctx context.Context,
	db store.DB,
	cfg *config.Config,
	logger *slog.Logger,
	events io.Reader,
) (int, error) {
	clock := &replayClock{t: time.Now()}

	rec := recorder.New(
		db,
		cfg,
		recorder.WithClock(clock.Now),
		recorder.WithLogger(logger),
		recorder.WithSynchronousFlush(),
	)

	scanner := bufio.NewScanner(events)

	var line, applied int

	for scanner.Scan() {
		line++

		b := bytes.TrimSpace(scanner.Bytes())
		if len(b) == 0 {
			continue
		}

		var ev models.Event
		if err := json.Unmarshal(b, &ev); err != nil {
			_ = rec.Close(ctx)
			return applied, errInvalidEvent.Fmt(line).Wrap(err)
		}

		logging.Dump(logger, "replaying event", ev)

		if !ev.Time.IsZero() {
			clock.set(ev.Time)
		}

		if err := apply(ctx, rec, line, &ev); err != nil {
			_ = rec.Close(ctx)
			return applied, err
		}

		applied++
	}

	if err := scanner.Err(); err != nil {
		_ = rec.Close(ctx)
		return applied, err
	}

	return applied, rec.Close(ctx)
}

// player returns the active player for the event's item, opening one if
// needed.
func player(ctx context.Context, rec *recorder.Recorder, ev *models.Event) *recorder.Player {
	if p := rec.Player(ev.MediaID); p != nil {
		return p
	}

	return rec.Open(ctx, ev.MediaID, ev.Duration)
}

func apply(
	ctx context.Context,
	rec *recorder.Recorder,
	line int,
	ev *models.Event,
) error {
	if ev.Type == models.EventLifecycle {
		state, err := recorder.ParseLifecycleState(ev.State)
		if err != nil {
			return err
		}

		// a slow flush is logged by the recorder and does not abort the replay
		_ = rec.AppLifecycleChange(ctx, state)

		return nil
	}

	if ev.MediaID == "" {
		return errMissingMediaID.Fmt(line)
	}

	switch ev.Type {
	case models.EventOpen:
		rec.Open(ctx, ev.MediaID, ev.Duration)
	case models.EventPlay:
		player(ctx, rec, ev).Started(ev.Position)
	case models.EventPause:
		player(ctx, rec, ev).Paused(ev.Position)
	case models.EventPosition:
		player(ctx, rec, ev).PositionUpdate(ev.Position, ev.Rate)
	case models.EventEnded:
		player(ctx, rec, ev).Ended()
	case models.EventClose:
		if p := rec.Player(ev.MediaID); p != nil {
			_ = p.Close(ctx)
		}
	default:
		return errUnknownEventType.Fmt(line, ev.Type)
	}

	return nil
}
