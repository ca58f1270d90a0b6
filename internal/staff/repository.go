// Package staff provides read access to staff rosters, capabilities,
// working-hours rules and leave events.
package staff

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salonkit/booking-platform/internal/schedule"
)

// Querier is the subset of pgx operations the repository needs. Satisfied by
// *pgxpool.Pool, pgx.Tx and pgxmock.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Member is a staff roster entry, optionally carrying capability overrides
// when loaded for a specific service variant.
type Member struct {
	ID                    uuid.UUID
	LocationID            uuid.UUID
	Name                  string
	Active                bool
	CustomDurationMinutes *int32
	CustomPriceCents      *int64
}

// Capability is the staff/variant join row with optional overrides.
type Capability struct {
	StaffID               uuid.UUID
	ServiceVariantID      uuid.UUID
	CustomDurationMinutes *int32
	CustomPriceCents      *int64
}

// ErrNotFound is returned when a staff member or capability row is absent.
var ErrNotFound = errors.New("staff: not found")

// Repository reads staff schedule data from Postgres.
type Repository struct {
	db Querier
}

var _ schedule.Source = (*Repository)(nil)

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("staff: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithQuerier allows injecting mocks for tests.
func NewRepositoryWithQuerier(q Querier) *Repository {
	return &Repository{db: q}
}

// ListBookable returns the active staff at a location that hold a capability
// for the given service variant, with any duration/price overrides attached.
func (r *Repository) ListBookable(ctx context.Context, locationID, serviceVariantID uuid.UUID) ([]Member, error) {
	query := `
		SELECT s.id, s.location_id, s.name, s.active,
		       c.custom_duration_minutes, c.custom_price_cents
		FROM staff s
		JOIN staff_capabilities c ON c.staff_id = s.id
		WHERE s.location_id = $1
		  AND s.active
		  AND c.service_variant_id = $2
		ORDER BY s.name, s.id
	`
	rows, err := r.db.Query(ctx, query, locationID, serviceVariantID)
	if err != nil {
		return nil, fmt.Errorf("staff: list bookable: %w", err)
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.ID, &m.LocationID, &m.Name, &m.Active, &m.CustomDurationMinutes, &m.CustomPriceCents); err != nil {
			return nil, fmt.Errorf("staff: scan bookable row: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("staff: iterate bookable rows: %w", err)
	}
	return members, nil
}

// GetCapability loads the capability row for (staffID, serviceVariantID).
func (r *Repository) GetCapability(ctx context.Context, staffID, serviceVariantID uuid.UUID) (*Capability, error) {
	query := `
		SELECT staff_id, service_variant_id, custom_duration_minutes, custom_price_cents
		FROM staff_capabilities
		WHERE staff_id = $1 AND service_variant_id = $2
	`
	var c Capability
	err := r.db.QueryRow(ctx, query, staffID, serviceVariantID).
		Scan(&c.StaffID, &c.ServiceVariantID, &c.CustomDurationMinutes, &c.CustomPriceCents)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("staff: load capability: %w", err)
	}
	return &c, nil
}

// WorkingHoursForDay implements schedule.Source.
func (r *Repository) WorkingHoursForDay(ctx context.Context, staffID uuid.UUID, isoWeekday int) ([]schedule.WorkingHoursRule, error) {
	query := `
		SELECT id, staff_id, weekday, start_minute, end_minute
		FROM working_hours
		WHERE staff_id = $1 AND weekday = $2
		ORDER BY start_minute
	`
	rows, err := r.db.Query(ctx, query, staffID, isoWeekday)
	if err != nil {
		return nil, fmt.Errorf("staff: list working hours: %w", err)
	}
	defer rows.Close()

	var rules []schedule.WorkingHoursRule
	for rows.Next() {
		var rule schedule.WorkingHoursRule
		if err := rows.Scan(&rule.ID, &rule.StaffID, &rule.Weekday, &rule.StartMinute, &rule.EndMinute); err != nil {
			return nil, fmt.Errorf("staff: scan working hours row: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("staff: iterate working hours rows: %w", err)
	}
	return rules, nil
}

// WorkingHours returns every recurring rule for a staff member, all weekdays.
func (r *Repository) WorkingHours(ctx context.Context, staffID uuid.UUID) ([]schedule.WorkingHoursRule, error) {
	query := `
		SELECT id, staff_id, weekday, start_minute, end_minute
		FROM working_hours
		WHERE staff_id = $1
		ORDER BY weekday, start_minute
	`
	rows, err := r.db.Query(ctx, query, staffID)
	if err != nil {
		return nil, fmt.Errorf("staff: list all working hours: %w", err)
	}
	defer rows.Close()

	var rules []schedule.WorkingHoursRule
	for rows.Next() {
		var rule schedule.WorkingHoursRule
		if err := rows.Scan(&rule.ID, &rule.StaffID, &rule.Weekday, &rule.StartMinute, &rule.EndMinute); err != nil {
			return nil, fmt.Errorf("staff: scan working hours row: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("staff: iterate working hours rows: %w", err)
	}
	return rules, nil
}

// LeaveEventsOverlapping implements schedule.Source.
func (r *Repository) LeaveEventsOverlapping(ctx context.Context, staffID uuid.UUID, from, to time.Time) ([]schedule.LeaveEvent, error) {
	query := `
		SELECT id, staff_id, event_type, starts_at, ends_at, COALESCE(description, '')
		FROM leave_events
		WHERE staff_id = $1 AND starts_at < $3 AND ends_at > $2
		ORDER BY starts_at
	`
	rows, err := r.db.Query(ctx, query, staffID, from, to)
	if err != nil {
		return nil, fmt.Errorf("staff: list leave events: %w", err)
	}
	defer rows.Close()

	var events []schedule.LeaveEvent
	for rows.Next() {
		var ev schedule.LeaveEvent
		if err := rows.Scan(&ev.ID, &ev.StaffID, &ev.Type, &ev.StartsAt, &ev.EndsAt, &ev.Description); err != nil {
			return nil, fmt.Errorf("staff: scan leave event row: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("staff: iterate leave event rows: %w", err)
	}
	return events, nil
}

// BookingsOverlapping implements schedule.Source. Cancelled bookings do not
// occupy time and are excluded here.
func (r *Repository) BookingsOverlapping(ctx context.Context, staffID uuid.UUID, from, to time.Time) ([]schedule.BusyWindow, error) {
	query := `
		SELECT id, starts_at, ends_at
		FROM bookings
		WHERE staff_id = $1 AND status <> 'cancelled' AND starts_at < $3 AND ends_at > $2
		ORDER BY starts_at
	`
	rows, err := r.db.Query(ctx, query, staffID, from, to)
	if err != nil {
		return nil, fmt.Errorf("staff: list booking windows: %w", err)
	}
	defer rows.Close()

	var windows []schedule.BusyWindow
	for rows.Next() {
		var w schedule.BusyWindow
		if err := rows.Scan(&w.BookingID, &w.StartsAt, &w.EndsAt); err != nil {
			return nil, fmt.Errorf("staff: scan booking window row: %w", err)
		}
		windows = append(windows, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("staff: iterate booking window rows: %w", err)
	}
	return windows, nil
}
