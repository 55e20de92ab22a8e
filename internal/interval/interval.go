// Package interval merges watched time ranges and encodes them in the compact
// array form used by the stores
package interval

import (
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/ayoisaiah/watchlog/internal/apperr"
)

// Interval is a closed [Start, End] range of media time in seconds.
type Interval struct {
	Start float64
	End   float64
}

// Duration returns the length of the interval in seconds.
func (i Interval) Duration() float64 {
	return i.End - i.Start
}

func (i Interval) valid() bool {
	if math.IsNaN(i.Start) || math.IsNaN(i.End) ||
		math.IsInf(i.Start, 0) || math.IsInf(i.End, 0) {
		return false
	}

	return i.Start <= i.End
}

func (i Interval) String() string {
	return fmt.Sprintf("[%s,%s]", formatSeconds(i.Start), formatSeconds(i.End))
}

// MarshalJSON encodes the interval as a two element array.
func (i Interval) MarshalJSON() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalJSON decodes a two element array.
func (i *Interval) UnmarshalJSON(b []byte) error {
	var pair []float64

	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}

	if len(pair) != 2 {
		return fmt.Errorf("interval must have 2 elements, got %d", len(pair))
	}

	i.Start, i.End = pair[0], pair[1]

	return nil
}

// Merge returns the minimal sorted set of disjoint intervals covering every
// input interval. Overlapping and touching intervals are joined. Intervals
// with End < Start are dropped. The input is not modified.
func Merge(list []Interval) []Interval {
	sorted := make([]Interval, 0, len(list))

	for _, v := range list {
		if v.valid() {
			sorted = append(sorted, v)
		}
	}

	if len(sorted) == 0 {
		return nil
	}

	slices.SortFunc(sorted, func(a, b Interval) int {
		switch {
		case a.Start < b.Start:
			return -1
		case a.Start > b.Start:
			return 1
		default:
			return 0
		}
	})

	merged := []Interval{sorted[0]}

	for _, next := range sorted[1:] {
		current := &merged[len(merged)-1]

		if next.Start <= current.End {
			current.End = math.Max(current.End, next.End)
			continue
		}

		merged = append(merged, next)
	}

	return merged
}

// Union merges every list into one minimal set.
func Union(lists ...[]Interval) []Interval {
	var all []Interval

	for _, l := range lists {
		all = append(all, l...)
	}

	return Merge(all)
}

// Total sums the duration of every interval in list. Pass merged input to
// get the covered duration.
func Total(list []Interval) float64 {
	var total float64

	for _, v := range list {
		total += v.Duration()
	}

	return total
}

// Encode serialises list as a compact array, e.g. [[0,30],[50,60]].
func Encode(list []Interval) string {
	if len(list) == 0 {
		return "[]"
	}

	b := make([]byte, 0, len(list)*8)
	b = append(b, '[')

	for i, v := range list {
		if i > 0 {
			b = append(b, ',')
		}

		b = append(b, v.String()...)
	}

	b = append(b, ']')

	return string(b)
}

// Decode parses a compact array produced by Encode. An empty string decodes
// to an empty list. Any malformed payload returns apperr.ErrCorruptIntervals.
func Decode(s string) ([]Interval, error) {
	if s == "" {
		return nil, nil
	}

	var list []Interval

	if err := json.Unmarshal([]byte(s), &list); err != nil {
		return nil, apperr.ErrCorruptIntervals.Fmt(s).Wrap(err)
	}

	for _, v := range list {
		if !v.valid() {
			return nil, apperr.ErrCorruptIntervals.Fmt(s)
		}
	}

	return list, nil
}

func formatSeconds(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
