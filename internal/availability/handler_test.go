package availability

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/salonkit/booking-platform/internal/catalog"
	"github.com/salonkit/booking-platform/internal/interval"
	"github.com/salonkit/booking-platform/internal/staff"
)

type slowDirectory struct {
	delay time.Duration
}

func (d *slowDirectory) ListBookable(ctx context.Context, _, _ uuid.UUID) ([]staff.Member, error) {
	select {
	case <-time.After(d.delay):
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func availabilityURL(locationID, variantID uuid.UUID, date string) string {
	q := url.Values{}
	q.Set("location_id", locationID.String())
	q.Set("service_variant_id", variantID.String())
	q.Set("date", date)
	return "/availability?" + q.Encode()
}

func TestHandlerReturnsSlots(t *testing.T) {
	variantID := uuid.New()
	locationID := uuid.New()
	staffID := uuid.New()
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	svc := newService(t,
		&fakeDirectory{members: []staff.Member{{ID: staffID}}},
		&fakeVariants{variants: map[uuid.UUID]*catalog.Variant{
			variantID: {ID: variantID, DurationMinutes: 30, Active: true},
		}},
		&fakeSettings{},
		&fakeFree{byStaff: map[uuid.UUID][]interval.Interval{
			staffID: {mustInterval(t, day.Add(9*time.Hour), day.Add(10*time.Hour))},
		}},
	)
	handler := NewHandler(svc, 0, nil)

	req := httptest.NewRequest(http.MethodGet, availabilityURL(locationID, variantID, "2025-03-10"), nil)
	rec := httptest.NewRecorder()
	handler.GetAvailability(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result Result
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(result.Slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(result.Slots))
	}
	if result.Granularity != 15 {
		t.Fatalf("expected default 15-minute granularity, got %d", result.Granularity)
	}
}

func TestHandlerRejectsBadParams(t *testing.T) {
	svc := newService(t,
		&fakeDirectory{},
		&fakeVariants{variants: map[uuid.UUID]*catalog.Variant{}},
		&fakeSettings{},
		&fakeFree{},
	)
	handler := NewHandler(svc, 0, nil)

	cases := []struct {
		name string
		url  string
	}{
		{"missing location", "/availability?service_variant_id=" + uuid.New().String() + "&date=2025-03-10"},
		{"missing variant", "/availability?location_id=" + uuid.New().String() + "&date=2025-03-10"},
		{"bad date", availabilityURL(uuid.New(), uuid.New(), "03/10/2025")},
		{"bad staff id", availabilityURL(uuid.New(), uuid.New(), "2025-03-10") + "&staff_id=nope"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			rec := httptest.NewRecorder()
			handler.GetAvailability(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestHandlerUnknownVariantIs404(t *testing.T) {
	svc := newService(t,
		&fakeDirectory{},
		&fakeVariants{variants: map[uuid.UUID]*catalog.Variant{}},
		&fakeSettings{},
		&fakeFree{},
	)
	handler := NewHandler(svc, 0, nil)

	req := httptest.NewRequest(http.MethodGet, availabilityURL(uuid.New(), uuid.New(), "2025-03-10"), nil)
	rec := httptest.NewRecorder()
	handler.GetAvailability(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandlerBudgetTimeoutIs504(t *testing.T) {
	variantID := uuid.New()
	svc := newService(t,
		&slowDirectory{delay: time.Second},
		&fakeVariants{variants: map[uuid.UUID]*catalog.Variant{
			variantID: {ID: variantID, DurationMinutes: 30, Active: true},
		}},
		&fakeSettings{},
		&fakeFree{},
	)
	handler := NewHandler(svc, 10*time.Millisecond, nil)

	req := httptest.NewRequest(http.MethodGet, availabilityURL(uuid.New(), variantID, "2025-03-10"), nil)
	rec := httptest.NewRecorder()
	handler.GetAvailability(rec, req)

	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d", rec.Code)
	}
}
