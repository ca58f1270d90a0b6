// Package schedule computes a staff member's free time for a calendar date by
// combining recurring working-hours rules with leave events and existing
// bookings, and derives bookable slot start times from the result.
package schedule

import (
	"time"

	"github.com/google/uuid"
)

// WorkingHoursRule is a recurring weekday-scoped availability window.
// Weekday follows ISO-8601: 1 = Monday ... 7 = Sunday. Start/End are minutes
// from midnight in the location's timezone. Rules for the same weekday may
// overlap; the aggregator merges them.
type WorkingHoursRule struct {
	ID          uuid.UUID
	StaffID     uuid.UUID
	Weekday     int
	StartMinute int
	EndMinute   int
}

// LeaveEvent is an absolute-time exclusion window (vacation, sick leave,
// internal meeting). It carves busy time out of declared working hours.
type LeaveEvent struct {
	ID          uuid.UUID
	StaffID     uuid.UUID
	Type        string
	StartsAt    time.Time
	EndsAt      time.Time
	Description string
}

// BusyWindow is an existing non-cancelled booking's occupied range.
type BusyWindow struct {
	BookingID uuid.UUID
	StartsAt  time.Time
	EndsAt    time.Time
}

// ISOWeekday converts Go's Sunday-based weekday to ISO-8601 (1=Monday).
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
