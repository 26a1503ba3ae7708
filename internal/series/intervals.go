// Package series turns a start instant and a bucket size into fixed-width
// time windows, counts matching statuses per window, and shapes the counts
// into chart data.
package series

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/runnerr0/nooze/internal/query"
)

var deltaPattern = regexp.MustCompile(`^(\d+)([hdw])$`)

// MaxIntervals bounds the number of windows one request may ask for.
const MaxIntervals = 10000

// Interval is the half-open window [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// MarshalJSON encodes the interval as a [start, end] pair.
func (iv Interval) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{
		iv.Start.UTC().Format(time.RFC3339),
		iv.End.UTC().Format(time.RFC3339),
	})
}

// UnmarshalJSON decodes a [start, end] pair.
func (iv *Interval) UnmarshalJSON(data []byte) error {
	var pair [2]string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("interval: %w", err)
	}
	start, err := query.ParseDate(pair[0])
	if err != nil {
		return fmt.Errorf("interval start: %w", err)
	}
	end, err := query.ParseDate(pair[1])
	if err != nil {
		return fmt.Errorf("interval end: %w", err)
	}
	iv.Start, iv.End = start, end
	return nil
}

// ParseDelta converts a bucket size such as "24h", "1d" or "3w" to a
// duration. Days are 24 hours and weeks 7 days.
func ParseDelta(spec string) (time.Duration, error) {
	m := deltaPattern.FindStringSubmatch(spec)
	if m == nil {
		return 0, &query.IntervalSpecError{Spec: spec, Reason: "expected <integer><h|d|w>"}
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, &query.IntervalSpecError{Spec: spec, Reason: err.Error()}
	}
	if n == 0 {
		return 0, &query.IntervalSpecError{Spec: spec, Reason: "width must be positive"}
	}

	unit := time.Hour
	switch m[2] {
	case "d":
		unit = 24 * time.Hour
	case "w":
		unit = 7 * 24 * time.Hour
	}
	if n > math.MaxInt64/int64(unit) {
		return 0, &query.IntervalSpecError{Spec: spec, Reason: "width out of range"}
	}
	return time.Duration(n) * unit, nil
}

// CalcIntervals returns exactly n contiguous windows of the given width,
// the first starting at start.
func CalcIntervals(start time.Time, spec string, n int) ([]Interval, error) {
	if n < 0 {
		return nil, &query.IntervalSpecError{Spec: spec, Reason: fmt.Sprintf("negative interval count %d", n)}
	}
	if n > MaxIntervals {
		return nil, &query.IntervalSpecError{Spec: spec, Reason: fmt.Sprintf("interval count %d exceeds %d", n, MaxIntervals)}
	}
	delta, err := ParseDelta(spec)
	if err != nil {
		return nil, err
	}

	intervals := make([]Interval, n)
	s := start.UTC()
	for i := range intervals {
		e := s.Add(delta)
		if !e.After(s) {
			return nil, &query.IntervalSpecError{Spec: spec, Reason: "windows run past the representable time range"}
		}
		intervals[i] = Interval{Start: s, End: e}
		s = e
	}
	return intervals, nil
}

// CalcIntervalsFrom is CalcIntervals with a textual start, UTC assumed.
func CalcIntervalsFrom(start, spec string, n int) ([]Interval, error) {
	t, err := query.ParseDate(start)
	if err != nil {
		return nil, err
	}
	return CalcIntervals(t, spec, n)
}
