package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/salonkit/booking-platform/internal/catalog"
	"github.com/salonkit/booking-platform/internal/interval"
	"github.com/salonkit/booking-platform/internal/location"
	"github.com/salonkit/booking-platform/internal/observability/metrics"
	"github.com/salonkit/booking-platform/internal/staff"
	"github.com/salonkit/booking-platform/pkg/logging"
)

var bookingTracer = otel.Tracer("salonkit.internal.booking")

// Store is the persistence surface the service writes through.
type Store interface {
	Insert(ctx context.Context, b *Booking) (*Booking, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	UpdateWindow(ctx context.Context, id uuid.UUID, startsAt, endsAt time.Time) (*Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Booking, error)
}

// CapabilitySource resolves staff capability rows with overrides.
type CapabilitySource interface {
	GetCapability(ctx context.Context, staffID, serviceVariantID uuid.UUID) (*staff.Capability, error)
}

// VariantSource resolves service variants.
type VariantSource interface {
	GetVariant(ctx context.Context, id uuid.UUID) (*catalog.Variant, error)
}

// SettingsSource resolves per-location scheduling settings.
type SettingsSource interface {
	Get(ctx context.Context, locationID uuid.UUID) (*location.Settings, error)
}

// FreeIntervalSource recomputes a staff member's free intervals. Implemented
// by schedule.Aggregator.
type FreeIntervalSource interface {
	FreeIntervals(ctx context.Context, staffID uuid.UUID, day time.Time, tz *time.Location) ([]interval.Interval, error)
	FreeIntervalsExcluding(ctx context.Context, staffID uuid.UUID, day time.Time, tz *time.Location, excludeBookingID uuid.UUID) ([]interval.Interval, error)
}

// Service validates booking mutations against freshly recomputed availability
// and commits them. The database exclusion constraint is the concurrent
// backstop: when two overlapping requests race past the recompute, exactly
// one insert succeeds and the other surfaces ErrSlotUnavailable.
type Service struct {
	store         Store
	capabilities  CapabilitySource
	variants      VariantSource
	settings      SettingsSource
	free          FreeIntervalSource
	initialStatus Status
	logger        *logging.Logger
	metrics       *metrics.BookingMetrics
}

// Config wires a booking service.
type Config struct {
	Store        Store
	Capabilities CapabilitySource
	Variants     VariantSource
	Settings     SettingsSource
	Free         FreeIntervalSource
	// InitialStatus is the status assigned on create: pending or confirmed.
	InitialStatus Status
	Logger        *logging.Logger
	Metrics       *metrics.BookingMetrics
}

// NewService constructs a booking service.
func NewService(cfg Config) *Service {
	if cfg.Store == nil {
		panic("booking: store required")
	}
	if cfg.Capabilities == nil || cfg.Variants == nil || cfg.Settings == nil || cfg.Free == nil {
		panic("booking: capability, variant, settings and free-interval sources required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	initial := cfg.InitialStatus
	if initial != StatusPending && initial != StatusConfirmed {
		initial = StatusPending
	}
	return &Service{
		store:         cfg.Store,
		capabilities:  cfg.Capabilities,
		variants:      cfg.Variants,
		settings:      cfg.Settings,
		free:          cfg.Free,
		initialStatus: initial,
		logger:        cfg.Logger,
		metrics:       cfg.Metrics,
	}
}

// CreateRequest carries the inputs for a new booking.
type CreateRequest struct {
	StaffID          uuid.UUID
	LocationID       uuid.UUID
	ServiceVariantID uuid.UUID
	CustomerID       uuid.UUID
	StartsAt         time.Time
	EndsAt           time.Time
	CustomerNote     string
}

// Create validates the request against recomputed availability and commits
// the booking with price snapshotted from the effective price at commit time.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Booking, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.create")
	defer span.End()
	span.SetAttributes(
		attribute.String("salonkit.staff_id", req.StaffID.String()),
		attribute.String("salonkit.service_variant_id", req.ServiceVariantID.String()),
	)

	if !req.StartsAt.Before(req.EndsAt) {
		return nil, fmt.Errorf("%w: start must be before end", ErrValidation)
	}

	variant, err := s.variants.GetVariant(ctx, req.ServiceVariantID)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, fmt.Errorf("%w: service variant %s", ErrNotFound, req.ServiceVariantID)
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !variant.Active {
		return nil, fmt.Errorf("%w: service variant %s inactive", ErrNotFound, req.ServiceVariantID)
	}

	capability, err := s.capabilities.GetCapability(ctx, req.StaffID, req.ServiceVariantID)
	if errors.Is(err, staff.ErrNotFound) {
		return nil, fmt.Errorf("%w: staff %s cannot perform variant %s", ErrNotFound, req.StaffID, req.ServiceVariantID)
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	duration := effectiveDuration(variant, capability)
	if !req.EndsAt.Equal(req.StartsAt.Add(duration)) {
		return nil, fmt.Errorf("%w: window does not match effective duration %s", ErrValidation, duration)
	}

	if err := s.requireWindowFree(ctx, req.StaffID, req.LocationID, req.StartsAt, req.EndsAt, uuid.Nil); err != nil {
		s.observeCommit("slot_unavailable", err)
		return nil, err
	}

	b := &Booking{
		ID:               uuid.New(),
		StaffID:          req.StaffID,
		LocationID:       req.LocationID,
		ServiceVariantID: req.ServiceVariantID,
		CustomerID:       req.CustomerID,
		StartsAt:         req.StartsAt,
		EndsAt:           req.EndsAt,
		Status:           s.initialStatus,
		TotalPriceCents:  effectivePrice(variant, capability),
		CustomerNote:     req.CustomerNote,
	}
	created, err := s.store.Insert(ctx, b)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, ErrSlotUnavailable) {
			s.observeCommit("slot_unavailable", err)
		} else {
			s.observeCommit("error", err)
		}
		return nil, err
	}

	s.observeCommit("created", nil)
	s.logger.Info("booking created",
		"booking_id", created.ID,
		"staff_id", created.StaffID,
		"starts_at", created.StartsAt,
		"status", created.Status,
	)
	return created, nil
}

// Reschedule moves a booking to a new window, excluding the booking itself
// from its own conflict check.
func (s *Service) Reschedule(ctx context.Context, bookingID uuid.UUID, newStart, newEnd time.Time) (*Booking, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.reschedule")
	defer span.End()
	span.SetAttributes(attribute.String("salonkit.booking_id", bookingID.String()))

	if !newStart.Before(newEnd) {
		return nil, fmt.Errorf("%w: start must be before end", ErrValidation)
	}

	existing, err := s.store.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if existing.Status.Terminal() {
		return nil, fmt.Errorf("%w: cannot reschedule %s booking", ErrInvalidState, existing.Status)
	}

	if err := s.requireWindowFree(ctx, existing.StaffID, existing.LocationID, newStart, newEnd, bookingID); err != nil {
		s.observeCommit("slot_unavailable", err)
		return nil, err
	}

	updated, err := s.store.UpdateWindow(ctx, bookingID, newStart, newEnd)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, ErrSlotUnavailable) {
			s.observeCommit("slot_unavailable", err)
		}
		return nil, err
	}

	s.logger.Info("booking rescheduled",
		"booking_id", updated.ID,
		"staff_id", updated.StaffID,
		"starts_at", updated.StartsAt,
	)
	return updated, nil
}

// Cancel transitions a booking to cancelled, freeing its interval for future
// availability immediately. Cancelling an already-cancelled booking is a
// no-op success.
func (s *Service) Cancel(ctx context.Context, bookingID uuid.UUID) (*Booking, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.cancel")
	defer span.End()
	span.SetAttributes(attribute.String("salonkit.booking_id", bookingID.String()))

	existing, err := s.store.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if existing.Status == StatusCancelled {
		return existing, nil
	}
	if existing.Status.Terminal() {
		return nil, fmt.Errorf("%w: cannot cancel %s booking", ErrInvalidState, existing.Status)
	}

	updated, err := s.store.UpdateStatus(ctx, bookingID, StatusCancelled)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.logger.Info("booking cancelled", "booking_id", updated.ID, "staff_id", updated.StaffID)
	return updated, nil
}

// Transition moves a booking along the lifecycle state machine (confirm,
// complete, no-show).
func (s *Service) Transition(ctx context.Context, bookingID uuid.UUID, next Status) (*Booking, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, next)
	}
	if next == StatusCancelled {
		return s.Cancel(ctx, bookingID)
	}

	existing, err := s.store.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !existing.Status.CanTransition(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidState, existing.Status, next)
	}

	updated, err := s.store.UpdateStatus(ctx, bookingID, next)
	if err != nil {
		return nil, err
	}
	s.logger.Info("booking status changed",
		"booking_id", updated.ID,
		"from", existing.Status,
		"to", updated.Status,
	)
	return updated, nil
}

// Get loads a booking by id.
func (s *Service) Get(ctx context.Context, bookingID uuid.UUID) (*Booking, error) {
	return s.store.GetByID(ctx, bookingID)
}

// CheckWindow reports whether the window is currently free for the staff
// member. A true result is advisory only: the answer can be stale by the time
// a commit lands, and the commit path re-checks regardless.
func (s *Service) CheckWindow(ctx context.Context, staffID, locationID uuid.UUID, start, end time.Time) (bool, error) {
	if !start.Before(end) {
		return false, fmt.Errorf("%w: start must be before end", ErrValidation)
	}
	err := s.requireWindowFree(ctx, staffID, locationID, start, end, uuid.Nil)
	if errors.Is(err, ErrSlotUnavailable) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// requireWindowFree recomputes free intervals for every calendar date the
// window touches (in the location's timezone) and checks that one contiguous
// free interval covers the whole window. Recomputation, not a cached read:
// availability may have changed since it was displayed.
func (s *Service) requireWindowFree(ctx context.Context, staffID, locationID uuid.UUID, start, end time.Time, excludeBookingID uuid.UUID) error {
	settings, err := s.settings.Get(ctx, locationID)
	if err != nil {
		return err
	}
	tz := settings.Location()

	window := interval.Interval{Start: start, End: end}
	var free []interval.Interval
	for day := start.In(tz); ; day = day.AddDate(0, 0, 1) {
		dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, tz)
		if !dayStart.Before(end) {
			break
		}
		dayFree, err := s.free.FreeIntervalsExcluding(ctx, staffID, dayStart, tz, excludeBookingID)
		if err != nil {
			return err
		}
		free = append(free, dayFree...)
	}

	// Working windows from consecutive dates can touch at midnight.
	for _, f := range interval.MergeAll(free) {
		if f.Covers(window) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s is not within a free interval for staff %s", ErrSlotUnavailable, window, staffID)
}

func (s *Service) observeCommit(outcome string, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveCommit(outcome)
	if err != nil && !errors.Is(err, ErrSlotUnavailable) {
		s.logger.Warn("booking commit failed", "outcome", outcome, "error", err)
	}
}

func effectiveDuration(v *catalog.Variant, c *staff.Capability) time.Duration {
	minutes := v.DurationMinutes
	if c != nil && c.CustomDurationMinutes != nil && *c.CustomDurationMinutes > 0 {
		minutes = *c.CustomDurationMinutes
	}
	return time.Duration(minutes) * time.Minute
}

func effectivePrice(v *catalog.Variant, c *staff.Capability) int64 {
	if c != nil && c.CustomPriceCents != nil {
		return *c.CustomPriceCents
	}
	return v.PriceCents
}
