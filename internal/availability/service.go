// Package availability resolves bookable slots across the staff of a
// location. Reads are stateless and parallel-safe; the per-staff fan-out
// joins results in memory and carries per-staff error markers instead of
// failing the whole query.
package availability

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/salonkit/booking-platform/internal/catalog"
	"github.com/salonkit/booking-platform/internal/interval"
	"github.com/salonkit/booking-platform/internal/location"
	"github.com/salonkit/booking-platform/internal/observability/metrics"
	"github.com/salonkit/booking-platform/internal/schedule"
	"github.com/salonkit/booking-platform/internal/staff"
	"github.com/salonkit/booking-platform/pkg/logging"
)

var availabilityTracer = otel.Tracer("salonkit.internal.availability")

// ErrNotFound is returned when the variant or requested staff member is
// unknown at the location.
var ErrNotFound = errors.New("availability: not found")

// StaffDirectory lists bookable staff for a variant at a location.
type StaffDirectory interface {
	ListBookable(ctx context.Context, locationID, serviceVariantID uuid.UUID) ([]staff.Member, error)
}

// VariantSource resolves service variants.
type VariantSource interface {
	GetVariant(ctx context.Context, id uuid.UUID) (*catalog.Variant, error)
}

// SettingsSource resolves per-location scheduling settings.
type SettingsSource interface {
	Get(ctx context.Context, locationID uuid.UUID) (*location.Settings, error)
}

// FreeIntervalSource recomputes one staff member's free intervals for a date.
type FreeIntervalSource interface {
	FreeIntervals(ctx context.Context, staffID uuid.UUID, day time.Time, tz *time.Location) ([]interval.Interval, error)
}

// Slot is a candidate start instant with every staff member offering it.
// Staff merge only on bit-identical instants; duration overrides can make
// one staff member's start set differ even at the same nominal time.
type Slot struct {
	StartsAt time.Time   `json:"starts_at"`
	StaffIDs []uuid.UUID `json:"staff_ids"`
}

// StaffError marks a staff member whose sub-query failed during fan-out.
type StaffError struct {
	StaffID uuid.UUID `json:"staff_id"`
	Err     string    `json:"error"`
}

// Result is the resolved availability for one request.
type Result struct {
	Date        time.Time    `json:"date"`
	Granularity int          `json:"slot_granularity_minutes"`
	Slots       []Slot       `json:"slots"`
	StaffErrors []StaffError `json:"staff_errors,omitempty"`
}

// Service resolves availability requests.
type Service struct {
	directory StaffDirectory
	variants  VariantSource
	settings  SettingsSource
	free      FreeIntervalSource
	logger    *logging.Logger
	metrics   *metrics.AvailabilityMetrics
}

// Config wires an availability service.
type Config struct {
	Directory StaffDirectory
	Variants  VariantSource
	Settings  SettingsSource
	Free      FreeIntervalSource
	Logger    *logging.Logger
	Metrics   *metrics.AvailabilityMetrics
}

// NewService constructs an availability service.
func NewService(cfg Config) *Service {
	if cfg.Directory == nil || cfg.Variants == nil || cfg.Settings == nil || cfg.Free == nil {
		panic("availability: directory, variant, settings and free-interval sources required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Service{
		directory: cfg.Directory,
		variants:  cfg.Variants,
		settings:  cfg.Settings,
		free:      cfg.Free,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
	}
}

// Request identifies the availability being asked for. StaffID narrows the
// result to a single staff member; the zero value means "any available".
type Request struct {
	LocationID       uuid.UUID
	ServiceVariantID uuid.UUID
	Date             time.Time
	StaffID          uuid.UUID
}

type staffSlots struct {
	staffID uuid.UUID
	starts  []time.Time
	err     error
}

// Resolve computes the slot -> staff mapping for the request. Per-staff
// sub-queries run in parallel; one staff member's failure is reported as a
// marker, not an aborted query.
func (s *Service) Resolve(ctx context.Context, req Request) (*Result, error) {
	ctx, span := availabilityTracer.Start(ctx, "availability.resolve")
	defer span.End()
	span.SetAttributes(
		attribute.String("salonkit.location_id", req.LocationID.String()),
		attribute.String("salonkit.service_variant_id", req.ServiceVariantID.String()),
	)
	began := time.Now()

	variant, err := s.variants.GetVariant(ctx, req.ServiceVariantID)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, fmt.Errorf("%w: service variant %s", ErrNotFound, req.ServiceVariantID)
	}
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveQuery("error", time.Since(began).Seconds(), 0)
		return nil, err
	}
	// An inactive variant is not bookable; offering slots for it would only
	// produce commits the booking path rejects.
	if !variant.Active {
		return nil, fmt.Errorf("%w: service variant %s inactive", ErrNotFound, req.ServiceVariantID)
	}

	settings, err := s.settings.Get(ctx, req.LocationID)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveQuery("error", time.Since(began).Seconds(), 0)
		return nil, err
	}
	tz := settings.Location()

	candidates, err := s.directory.ListBookable(ctx, req.LocationID, req.ServiceVariantID)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveQuery("error", time.Since(began).Seconds(), 0)
		return nil, err
	}
	if req.StaffID != uuid.Nil {
		var narrowed []staff.Member
		for _, m := range candidates {
			if m.ID == req.StaffID {
				narrowed = append(narrowed, m)
			}
		}
		if len(narrowed) == 0 {
			return nil, fmt.Errorf("%w: staff %s cannot perform variant %s at location %s",
				ErrNotFound, req.StaffID, req.ServiceVariantID, req.LocationID)
		}
		candidates = narrowed
	}

	// Anchor the requested civil date in the location's timezone so the
	// weekday and working window line up with local wall clock.
	day := time.Date(req.Date.Year(), req.Date.Month(), req.Date.Day(), 0, 0, 0, 0, tz)

	results := make([]staffSlots, len(candidates))
	var wg sync.WaitGroup
	for i, member := range candidates {
		wg.Add(1)
		go func(i int, member staff.Member) {
			defer wg.Done()
			results[i] = s.resolveStaff(ctx, member, variant, day, tz, settings.Granularity())
		}(i, member)
	}
	wg.Wait()

	byStart := make(map[time.Time][]uuid.UUID)
	var staffErrors []StaffError
	for _, r := range results {
		if r.err != nil {
			s.metrics.ObserveStaffError()
			s.logger.Warn("staff availability sub-query failed", "staff_id", r.staffID, "error", r.err)
			staffErrors = append(staffErrors, StaffError{StaffID: r.staffID, Err: r.err.Error()})
			continue
		}
		for _, t := range r.starts {
			byStart[t] = append(byStart[t], r.staffID)
		}
	}

	slots := make([]Slot, 0, len(byStart))
	for t, ids := range byStart {
		sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
		slots = append(slots, Slot{StartsAt: t, StaffIDs: ids})
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].StartsAt.Before(slots[j].StartsAt) })

	s.metrics.ObserveQuery("ok", time.Since(began).Seconds(), len(slots))
	return &Result{
		Date:        req.Date,
		Granularity: settings.SlotGranularityMinutes,
		Slots:       slots,
		StaffErrors: staffErrors,
	}, nil
}

func (s *Service) resolveStaff(ctx context.Context, member staff.Member, variant *catalog.Variant, date time.Time, tz *time.Location, granularity time.Duration) staffSlots {
	free, err := s.free.FreeIntervals(ctx, member.ID, date, tz)
	if err != nil {
		return staffSlots{staffID: member.ID, err: err}
	}
	duration := time.Duration(variant.DurationMinutes) * time.Minute
	if member.CustomDurationMinutes != nil && *member.CustomDurationMinutes > 0 {
		duration = time.Duration(*member.CustomDurationMinutes) * time.Minute
	}
	return staffSlots{staffID: member.ID, starts: schedule.Slots(free, duration, granularity)}
}
