// Package interval provides the half-open time range primitive used by
// schedule aggregation and slot generation.
package interval

import (
	"fmt"
	"sort"
	"time"
)

// ValidationError reports a malformed interval or duration.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "interval: " + e.Reason
}

// Interval is a half-open time range [Start, End). End is always after Start.
type Interval struct {
	Start time.Time
	End   time.Time
}

// New constructs an interval, rejecting start >= end.
func New(start, end time.Time) (Interval, error) {
	if !start.Before(end) {
		return Interval{}, &ValidationError{
			Reason: fmt.Sprintf("start %s not before end %s", start.Format(time.RFC3339), end.Format(time.RFC3339)),
		}
	}
	return Interval{Start: start, End: end}, nil
}

// Duration returns the length of the interval.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Overlaps reports whether the two half-open ranges share any instant.
// Touching endpoints ([a,b) and [b,c)) do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Contains reports whether t falls inside [Start, End).
func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Start) && t.Before(iv.End)
}

// Covers reports whether other lies entirely within iv.
func (iv Interval) Covers(other Interval) bool {
	return !other.Start.Before(iv.Start) && !other.End.After(iv.End)
}

// Adjacent reports whether the intervals touch without overlapping.
func (iv Interval) Adjacent(other Interval) bool {
	return iv.End.Equal(other.Start) || other.End.Equal(iv.Start)
}

// Subtract removes other from iv, returning the 0, 1, or 2 remaining pieces.
// Subtracting a non-overlapping interval returns iv unchanged.
func (iv Interval) Subtract(other Interval) []Interval {
	if !iv.Overlaps(other) {
		return []Interval{iv}
	}
	var out []Interval
	if iv.Start.Before(other.Start) {
		out = append(out, Interval{Start: iv.Start, End: other.Start})
	}
	if other.End.Before(iv.End) {
		out = append(out, Interval{Start: other.End, End: iv.End})
	}
	return out
}

// Merge combines two overlapping or adjacent intervals into their union.
// It fails when the intervals are disjoint.
func (iv Interval) Merge(other Interval) (Interval, error) {
	if !iv.Overlaps(other) && !iv.Adjacent(other) {
		return Interval{}, &ValidationError{Reason: "cannot merge disjoint intervals"}
	}
	merged := iv
	if other.Start.Before(merged.Start) {
		merged.Start = other.Start
	}
	if other.End.After(merged.End) {
		merged.End = other.End
	}
	return merged, nil
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%s, %s)", iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339))
}

// MergeAll collapses an arbitrary set of intervals into a minimal sorted set
// where overlapping or touching members are unioned.
func MergeAll(ivs []Interval) []Interval {
	if len(ivs) <= 1 {
		out := make([]Interval, len(ivs))
		copy(out, ivs)
		return out
	}
	sorted := make([]Interval, len(ivs))
	copy(sorted, ivs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	out := []Interval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &out[len(out)-1]
		if iv.Start.After(last.End) {
			out = append(out, iv)
			continue
		}
		if iv.End.After(last.End) {
			last.End = iv.End
		}
	}
	return out
}

// SubtractAll removes every interval in busy from every interval in free,
// returning the sorted remainder. Zero-length remainders are dropped by
// construction since Subtract never emits them.
func SubtractAll(free, busy []Interval) []Interval {
	out := make([]Interval, len(free))
	copy(out, free)
	for _, b := range busy {
		var next []Interval
		for _, f := range out {
			next = append(next, f.Subtract(b)...)
		}
		out = next
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}
