// Package session tracks a single playback instance and turns play, pause and
// seek events into committed watch intervals
package session

import (
	"log/slog"
	"math"

	"github.com/ayoisaiah/watchlog/internal/interval"
)

// State is the playback state of a tracked session.
type State int

const (
	Idle State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "idle"
	}
}

const (
	// DefaultMinSegment is the shortest segment that is committed. Shorter
	// segments are usually accidental taps.
	DefaultMinSegment = 10.0
	// DefaultFinishTolerance is how close to the end of an item a pause must
	// land for the item to count as finished.
	DefaultFinishTolerance = 5.0
	// DefaultSeekThreshold is the largest jump, in seconds of media time per
	// unit of playback rate, between two position updates that is still
	// treated as continuous playback.
	DefaultSeekThreshold = 9.0
	// DefaultTimeScale is the number of position units per second.
	DefaultTimeScale = 1.0
)

// Options tunes the tracker thresholds. All values are in seconds except
// TimeScale.
type Options struct {
	MinSegment      float64
	FinishTolerance float64
	SeekThreshold   float64
	TimeScale       float64
}

// DefaultOptions returns the standard tracker thresholds.
func DefaultOptions() Options {
	return Options{
		MinSegment:      DefaultMinSegment,
		FinishTolerance: DefaultFinishTolerance,
		SeekThreshold:   DefaultSeekThreshold,
		TimeScale:       DefaultTimeScale,
	}
}

// Session is the in-memory state of one playback instance. It is not safe
// for concurrent use; the recorder serialises access.
type Session struct {
	logger       *slog.Logger
	currentStart *float64
	MediaID      string
	committed    []interval.Interval
	opts         Options
	// Duration is the item length in seconds, 0 when unknown
	Duration     float64
	lastPos      float64
	lastPosition float64
	state        State
	finished     bool
}

// New creates an idle session for mediaID. resumeAt seeds the resume
// position reported before anything is committed.
func New(
	mediaID string,
	duration, resumeAt float64,
	opts Options,
	logger *slog.Logger,
) *Session {
	if logger == nil {
		logger = slog.Default()
	}

	if opts.TimeScale <= 0 {
		opts.TimeScale = DefaultTimeScale
	}

	return &Session{
		MediaID:      mediaID,
		Duration:     duration,
		opts:         opts,
		lastPos:      resumeAt,
		lastPosition: resumeAt,
		logger:       logger.With(slog.String("media_id", mediaID)),
	}
}

// State returns the current playback state.
func (s *Session) State() State {
	return s.state
}

// Position returns the last reported playback position.
func (s *Session) Position() float64 {
	return s.lastPos
}

// LastPosition returns the resume position: the end of the most recently
// committed interval, or 0 once the item has been watched to the end.
func (s *Session) LastPosition() float64 {
	return s.lastPosition
}

// Finished reports whether the last pause landed at the end of the item.
func (s *Session) Finished() bool {
	return s.finished
}

// Open reports whether an interval is currently being recorded.
func (s *Session) Open() bool {
	return s.currentStart != nil
}

// OnPlay starts recording an interval at pos unless one is already open.
func (s *Session) OnPlay(pos float64) {
	if s.currentStart == nil {
		start := pos
		s.currentStart = &start
	}

	s.state = Playing
	s.lastPos = pos
}

// OnPause closes the open interval at pos. Intervals shorter than the
// minimum segment are discarded.
func (s *Session) OnPause(pos float64) {
	s.state = Paused
	s.lastPos = pos

	if s.currentStart == nil {
		return
	}

	start := *s.currentStart
	s.currentStart = nil

	if pos-start >= s.opts.MinSegment {
		s.committed = append(s.committed, interval.Interval{Start: start, End: pos})
		s.lastPosition = pos
		s.finished = false

		s.logger.Debug(
			"interval committed",
			slog.Float64("start", start),
			slog.Float64("end", pos),
		)
	}

	if s.Duration > 0 && s.Duration-pos <= s.opts.FinishTolerance {
		s.finished = true
		s.lastPosition = 0
	}
}

// OnPositionUpdate records a position report from the player. While playing,
// a jump larger than the seek threshold is treated as a pause at the
// previous position followed by a play at the new one.
func (s *Session) OnPositionUpdate(pos, rate float64) {
	if rate <= 0 {
		rate = 1
	}

	if s.state == Playing && s.currentStart != nil {
		jump := math.Abs(pos-s.lastPos) / (s.opts.TimeScale * rate)

		if jump > s.opts.SeekThreshold {
			s.logger.Debug(
				"seek detected",
				slog.Float64("from", s.lastPos),
				slog.Float64("to", pos),
			)

			s.OnPause(s.lastPos)
			s.OnPlay(pos)

			return
		}
	}

	s.lastPos = pos
}

// OnEnded closes the open interval at the end of the item and returns the
// session to idle.
func (s *Session) OnEnded() {
	pos := s.lastPos
	if s.Duration > 0 {
		pos = s.Duration
	}

	s.OnPause(pos)
	s.state = Idle
}

// Finalize closes the open interval at pos and, if the session was playing,
// immediately opens a new one at the same position so playback continues
// seamlessly. It returns the intervals waiting to be persisted. Calling it
// repeatedly never commits the same span twice.
func (s *Session) Finalize(pos float64) []interval.Interval {
	wasPlaying := s.state == Playing

	if s.currentStart != nil {
		s.OnPause(pos)
	}

	if wasPlaying {
		s.OnPlay(pos)
	}

	return s.Pending()
}

// Pending returns a copy of the committed intervals not yet persisted.
func (s *Session) Pending() []interval.Interval {
	if len(s.committed) == 0 {
		return nil
	}

	pending := make([]interval.Interval, len(s.committed))
	copy(pending, s.committed)

	return pending
}

// Carry adds intervals committed by an earlier session of the same item
// that were never persisted. They are saved with the next flush.
func (s *Session) Carry(list []interval.Interval) {
	if len(list) == 0 {
		return
	}

	if len(s.committed) == 0 {
		s.lastPosition = list[len(list)-1].End
	}

	s.committed = append(s.committed, list...)
}

// Ack drops the first n pending intervals after they have been persisted.
func (s *Session) Ack(n int) {
	if n >= len(s.committed) {
		s.committed = nil
		return
	}

	s.committed = append([]interval.Interval(nil), s.committed[n:]...)
}
