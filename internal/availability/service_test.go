package availability

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/salonkit/booking-platform/internal/catalog"
	"github.com/salonkit/booking-platform/internal/interval"
	"github.com/salonkit/booking-platform/internal/location"
	"github.com/salonkit/booking-platform/internal/staff"
)

type fakeDirectory struct {
	members []staff.Member
	err     error
}

func (f *fakeDirectory) ListBookable(_ context.Context, _, _ uuid.UUID) ([]staff.Member, error) {
	return f.members, f.err
}

type fakeVariants struct {
	variants map[uuid.UUID]*catalog.Variant
}

func (f *fakeVariants) GetVariant(_ context.Context, id uuid.UUID) (*catalog.Variant, error) {
	v, ok := f.variants[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return v, nil
}

type fakeSettings struct {
	settings *location.Settings
}

func (f *fakeSettings) Get(_ context.Context, locationID uuid.UUID) (*location.Settings, error) {
	if f.settings != nil {
		return f.settings, nil
	}
	return location.DefaultSettings(locationID.String()), nil
}

type fakeFree struct {
	byStaff map[uuid.UUID][]interval.Interval
	errs    map[uuid.UUID]error

	mu       sync.Mutex
	lastDays map[uuid.UUID]time.Time
}

func (f *fakeFree) FreeIntervals(_ context.Context, staffID uuid.UUID, day time.Time, _ *time.Location) ([]interval.Interval, error) {
	f.mu.Lock()
	if f.lastDays == nil {
		f.lastDays = make(map[uuid.UUID]time.Time)
	}
	f.lastDays[staffID] = day
	f.mu.Unlock()
	if err := f.errs[staffID]; err != nil {
		return nil, err
	}
	return f.byStaff[staffID], nil
}

func mustInterval(t *testing.T, start, end time.Time) interval.Interval {
	t.Helper()
	iv, err := interval.New(start, end)
	if err != nil {
		t.Fatalf("interval: %v", err)
	}
	return iv
}

func newService(t *testing.T, dir StaffDirectory, variants VariantSource, settings SettingsSource, free FreeIntervalSource) *Service {
	t.Helper()
	return NewService(Config{
		Directory: dir,
		Variants:  variants,
		Settings:  settings,
		Free:      free,
	})
}

func TestResolveMergesIdenticalStarts(t *testing.T) {
	variantID := uuid.New()
	locationID := uuid.New()
	staffA := uuid.New()
	staffB := uuid.New()
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	morning := []interval.Interval{
		mustInterval(t, day.Add(9*time.Hour), day.Add(10*time.Hour)),
	}
	svc := newService(t,
		&fakeDirectory{members: []staff.Member{{ID: staffA}, {ID: staffB}}},
		&fakeVariants{variants: map[uuid.UUID]*catalog.Variant{
			variantID: {ID: variantID, DurationMinutes: 30, PriceCents: 5000, Active: true},
		}},
		&fakeSettings{},
		&fakeFree{byStaff: map[uuid.UUID][]interval.Interval{staffA: morning, staffB: morning}},
	)

	result, err := svc.Resolve(context.Background(), Request{
		LocationID:       locationID,
		ServiceVariantID: variantID,
		Date:             day,
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	// 09:00, 09:15, 09:30 with a 30-minute service in a one-hour window.
	if len(result.Slots) != 3 {
		t.Fatalf("expected 3 slots, got %d: %+v", len(result.Slots), result.Slots)
	}
	for _, slot := range result.Slots {
		if len(slot.StaffIDs) != 2 {
			t.Fatalf("expected both staff on slot %v, got %v", slot.StartsAt, slot.StaffIDs)
		}
	}
	if !result.Slots[0].StartsAt.Equal(day.Add(9 * time.Hour)) {
		t.Fatalf("expected first slot 09:00, got %v", result.Slots[0].StartsAt)
	}
}

func TestResolveDurationOverrideShrinksStartSet(t *testing.T) {
	variantID := uuid.New()
	locationID := uuid.New()
	fast := uuid.New()
	slow := uuid.New()
	slowDuration := int32(60)
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	window := []interval.Interval{
		mustInterval(t, day.Add(9*time.Hour), day.Add(10*time.Hour)),
	}
	svc := newService(t,
		&fakeDirectory{members: []staff.Member{
			{ID: fast},
			{ID: slow, CustomDurationMinutes: &slowDuration},
		}},
		&fakeVariants{variants: map[uuid.UUID]*catalog.Variant{
			variantID: {ID: variantID, DurationMinutes: 30, Active: true},
		}},
		&fakeSettings{},
		&fakeFree{byStaff: map[uuid.UUID][]interval.Interval{fast: window, slow: window}},
	)

	result, err := svc.Resolve(context.Background(), Request{
		LocationID:       locationID,
		ServiceVariantID: variantID,
		Date:             day,
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	// The slow staff member only fits the full hour at 09:00; later starts
	// belong to the fast one alone.
	byStart := make(map[time.Time][]uuid.UUID)
	for _, slot := range result.Slots {
		byStart[slot.StartsAt] = slot.StaffIDs
	}
	if got := byStart[day.Add(9*time.Hour)]; len(got) != 2 {
		t.Fatalf("expected both staff at 09:00, got %v", got)
	}
	if got := byStart[day.Add(9*time.Hour+15*time.Minute)]; len(got) != 1 || got[0] != fast {
		t.Fatalf("expected only fast staff at 09:15, got %v", got)
	}
}

func TestResolveStaffErrorBecomesMarker(t *testing.T) {
	variantID := uuid.New()
	healthy := uuid.New()
	broken := uuid.New()
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	svc := newService(t,
		&fakeDirectory{members: []staff.Member{{ID: healthy}, {ID: broken}}},
		&fakeVariants{variants: map[uuid.UUID]*catalog.Variant{
			variantID: {ID: variantID, DurationMinutes: 30, Active: true},
		}},
		&fakeSettings{},
		&fakeFree{
			byStaff: map[uuid.UUID][]interval.Interval{
				healthy: {mustInterval(t, day.Add(9*time.Hour), day.Add(10*time.Hour))},
			},
			errs: map[uuid.UUID]error{broken: errors.New("schedule source down")},
		},
	)

	result, err := svc.Resolve(context.Background(), Request{
		LocationID:       uuid.New(),
		ServiceVariantID: variantID,
		Date:             day,
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(result.Slots) == 0 {
		t.Fatal("expected slots from the healthy staff member")
	}
	if len(result.StaffErrors) != 1 || result.StaffErrors[0].StaffID != broken {
		t.Fatalf("expected one staff error for %s, got %+v", broken, result.StaffErrors)
	}
	for _, slot := range result.Slots {
		for _, id := range slot.StaffIDs {
			if id == broken {
				t.Fatalf("broken staff member leaked into slot %v", slot.StartsAt)
			}
		}
	}
}

func TestResolveUnknownVariant(t *testing.T) {
	svc := newService(t,
		&fakeDirectory{},
		&fakeVariants{variants: map[uuid.UUID]*catalog.Variant{}},
		&fakeSettings{},
		&fakeFree{},
	)

	_, err := svc.Resolve(context.Background(), Request{
		LocationID:       uuid.New(),
		ServiceVariantID: uuid.New(),
		Date:             time.Now(),
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveInactiveVariant(t *testing.T) {
	variantID := uuid.New()
	staffID := uuid.New()
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	svc := newService(t,
		&fakeDirectory{members: []staff.Member{{ID: staffID}}},
		&fakeVariants{variants: map[uuid.UUID]*catalog.Variant{
			variantID: {ID: variantID, DurationMinutes: 30, Active: false},
		}},
		&fakeSettings{},
		&fakeFree{byStaff: map[uuid.UUID][]interval.Interval{
			staffID: {mustInterval(t, day.Add(9*time.Hour), day.Add(10*time.Hour))},
		}},
	)

	// Slots for an inactive variant could never be committed; the booking
	// path rejects the variant on create.
	_, err := svc.Resolve(context.Background(), Request{
		LocationID:       uuid.New(),
		ServiceVariantID: variantID,
		Date:             day,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for inactive variant, got %v", err)
	}
}

func TestResolveStaffCannotPerformVariant(t *testing.T) {
	variantID := uuid.New()
	svc := newService(t,
		&fakeDirectory{members: []staff.Member{{ID: uuid.New()}}},
		&fakeVariants{variants: map[uuid.UUID]*catalog.Variant{
			variantID: {ID: variantID, DurationMinutes: 30, Active: true},
		}},
		&fakeSettings{},
		&fakeFree{},
	)

	_, err := svc.Resolve(context.Background(), Request{
		LocationID:       uuid.New(),
		ServiceVariantID: variantID,
		Date:             time.Now(),
		StaffID:          uuid.New(),
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveAnchorsDateInLocationTimezone(t *testing.T) {
	variantID := uuid.New()
	staffID := uuid.New()
	free := &fakeFree{byStaff: map[uuid.UUID][]interval.Interval{}}

	svc := newService(t,
		&fakeDirectory{members: []staff.Member{{ID: staffID}}},
		&fakeVariants{variants: map[uuid.UUID]*catalog.Variant{
			variantID: {ID: variantID, DurationMinutes: 30, Active: true},
		}},
		&fakeSettings{settings: &location.Settings{
			Timezone:               "America/New_York",
			SlotGranularityMinutes: 15,
		}},
		free,
	)

	// The handler parses dates as UTC midnight; the service must re-anchor
	// the civil date in the location timezone before querying schedules.
	requested := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	if _, err := svc.Resolve(context.Background(), Request{
		LocationID:       uuid.New(),
		ServiceVariantID: variantID,
		Date:             requested,
	}); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	ny, _ := time.LoadLocation("America/New_York")
	want := time.Date(2025, 3, 10, 0, 0, 0, 0, ny)
	got := free.lastDays[staffID]
	if !got.Equal(want) {
		t.Fatalf("expected schedule query anchored at %v, got %v", want, got)
	}
}
