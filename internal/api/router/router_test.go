package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/salonkit/booking-platform/internal/location"
	"github.com/salonkit/booking-platform/pkg/logging"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := logging.Default()
	locationHandler := location.NewHandler(location.NewStore(client), logger)

	return New(&Config{
		Logger:          logger,
		LocationHandler: locationHandler,
	})
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}

	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
}

func TestRouterLocationSettingsMounted(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/locations/"+uuid.New().String()+"/settings", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var settings location.Settings
	if err := json.NewDecoder(rr.Body).Decode(&settings); err != nil {
		t.Fatalf("failed to decode settings response: %v", err)
	}
	if settings.SlotGranularityMinutes != 15 {
		t.Errorf("expected default granularity 15, got %d", settings.SlotGranularityMinutes)
	}
}

// Optional handlers that are nil at startup must leave their routes
// unregistered rather than panic during wiring.
func TestRouterNilHandlersLeaveRoutesUnmounted(t *testing.T) {
	router := newTestRouter(t) // newTestRouter does NOT set BookingHandler or AvailabilityHandler

	for _, route := range []string{
		"/bookings/" + uuid.New().String(),
		"/availability",
		"/staff/" + uuid.New().String() + "/schedule",
	} {
		req := httptest.NewRequest(http.MethodGet, route, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusNotFound && rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s: expected 404/405 for unmounted route, got %d", route, rr.Code)
		}
	}
}
