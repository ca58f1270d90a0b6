// Package booking owns booking rows and the transactional create, reschedule
// and cancel paths that uphold the no-overlap invariant per staff member.
package booking

import (
	"time"

	"github.com/google/uuid"
)

// Status is the booking lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed out of s.
func (s Status) Terminal() bool {
	switch s {
	case StatusCancelled, StatusCompleted, StatusNoShow:
		return true
	}
	return false
}

// CanTransition reports whether s -> next is a legal lifecycle move.
//
//	pending   -> confirmed | cancelled
//	confirmed -> completed | cancelled | no_show
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusCompleted || next == StatusCancelled || next == StatusNoShow
	}
	return false
}

// Booking is a committed reservation of a staff member's time. Price and
// duration are snapshotted at creation and never retroactively changed.
type Booking struct {
	ID               uuid.UUID
	StaffID          uuid.UUID
	LocationID       uuid.UUID
	ServiceVariantID uuid.UUID
	CustomerID       uuid.UUID
	StartsAt         time.Time
	EndsAt           time.Time
	Status           Status
	TotalPriceCents  int64
	CustomerNote     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
