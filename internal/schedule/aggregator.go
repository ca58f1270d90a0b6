package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/salonkit/booking-platform/internal/interval"
)

// Source provides the schedule inputs for a single staff member. Implemented
// by the staff repository in production and by in-memory fakes in tests.
type Source interface {
	// WorkingHoursForDay returns every rule for (staffID, isoWeekday),
	// unmerged and in no particular order.
	WorkingHoursForDay(ctx context.Context, staffID uuid.UUID, isoWeekday int) ([]WorkingHoursRule, error)
	// LeaveEventsOverlapping returns leave events intersecting [from, to).
	LeaveEventsOverlapping(ctx context.Context, staffID uuid.UUID, from, to time.Time) ([]LeaveEvent, error)
	// BookingsOverlapping returns non-cancelled booking windows intersecting
	// [from, to).
	BookingsOverlapping(ctx context.Context, staffID uuid.UUID, from, to time.Time) ([]BusyWindow, error)
}

// Aggregator turns working-hours rules, leave events and bookings into an
// ordered list of free intervals for one staff member on one date.
type Aggregator struct {
	src Source
}

// NewAggregator constructs an aggregator over the given source.
func NewAggregator(src Source) *Aggregator {
	if src == nil {
		panic("schedule: source required")
	}
	return &Aggregator{src: src}
}

// FreeIntervals computes the free intervals for staffID on the calendar date
// containing day, interpreted in tz. A staff member with no working-hours
// rules for that weekday yields an empty list.
func (a *Aggregator) FreeIntervals(ctx context.Context, staffID uuid.UUID, day time.Time, tz *time.Location) ([]interval.Interval, error) {
	return a.freeIntervals(ctx, staffID, day, tz, uuid.Nil)
}

// FreeIntervalsExcluding is FreeIntervals with one booking left out of the
// busy set. Used by reschedule so a booking does not conflict with itself.
func (a *Aggregator) FreeIntervalsExcluding(ctx context.Context, staffID uuid.UUID, day time.Time, tz *time.Location, excludeBookingID uuid.UUID) ([]interval.Interval, error) {
	return a.freeIntervals(ctx, staffID, day, tz, excludeBookingID)
}

func (a *Aggregator) freeIntervals(ctx context.Context, staffID uuid.UUID, day time.Time, tz *time.Location, excludeBookingID uuid.UUID) ([]interval.Interval, error) {
	if tz == nil {
		tz = time.UTC
	}
	local := day.In(tz)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, tz)
	dayEnd := dayStart.AddDate(0, 0, 1)

	rules, err := a.src.WorkingHoursForDay(ctx, staffID, ISOWeekday(dayStart))
	if err != nil {
		return nil, fmt.Errorf("schedule: load working hours: %w", err)
	}
	if len(rules) == 0 {
		return nil, nil
	}

	working := make([]interval.Interval, 0, len(rules))
	for _, r := range rules {
		// Rule minutes are wall-clock local times, not elapsed time from
		// midnight: a 09:00 rule means 09:00 local even on DST transition
		// days, where the two differ by the shifted hour.
		start := wallClock(dayStart, r.StartMinute, tz)
		end := wallClock(dayStart, r.EndMinute, tz)
		if !start.Before(end) {
			// A rule entirely inside the skipped spring-forward hour
			// collapses to nothing.
			continue
		}
		working = append(working, interval.Interval{Start: start, End: end})
	}
	// Split shifts may overlap or touch at the data layer.
	working = interval.MergeAll(working)

	leaves, err := a.src.LeaveEventsOverlapping(ctx, staffID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("schedule: load leave events: %w", err)
	}
	bookings, err := a.src.BookingsOverlapping(ctx, staffID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("schedule: load bookings: %w", err)
	}

	busy := make([]interval.Interval, 0, len(leaves)+len(bookings))
	for _, l := range leaves {
		if !l.StartsAt.Before(l.EndsAt) {
			continue
		}
		busy = append(busy, interval.Interval{Start: l.StartsAt, End: l.EndsAt})
	}
	for _, b := range bookings {
		if b.BookingID == excludeBookingID && excludeBookingID != uuid.Nil {
			continue
		}
		if !b.StartsAt.Before(b.EndsAt) {
			continue
		}
		busy = append(busy, interval.Interval{Start: b.StartsAt, End: b.EndsAt})
	}

	return interval.SubtractAll(working, busy), nil
}

// wallClock resolves minutes-from-midnight as a local wall-clock time on
// day's date. time.Date normalizes instants that do not exist on DST
// transition days.
func wallClock(day time.Time, minute int, tz *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), minute/60, minute%60, 0, 0, tz)
}
