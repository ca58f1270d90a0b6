package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/salonkit/booking-platform/internal/availability"
	"github.com/salonkit/booking-platform/internal/booking"
	httpmiddleware "github.com/salonkit/booking-platform/internal/http/middleware"
	"github.com/salonkit/booking-platform/internal/location"
	"github.com/salonkit/booking-platform/internal/reporting"
	"github.com/salonkit/booking-platform/internal/staff"
	"github.com/salonkit/booking-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	AvailabilityHandler *availability.Handler
	BookingHandler      *booking.Handler
	StaffHandler        *staff.Handler
	LocationHandler     *location.Handler
	StatsHandler        *reporting.StatsHandler
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	if cfg.AvailabilityHandler != nil {
		r.Get("/availability", cfg.AvailabilityHandler.GetAvailability)
	}
	if cfg.BookingHandler != nil {
		r.Mount("/bookings", cfg.BookingHandler.Routes())
	}
	if cfg.StaffHandler != nil {
		r.Mount("/staff", cfg.StaffHandler.Routes())
	}

	r.Route("/admin", func(admin chi.Router) {
		if cfg.LocationHandler != nil {
			admin.Mount("/locations", cfg.LocationHandler.Routes())
		}
		if cfg.StatsHandler != nil {
			admin.Mount("/reports/locations", cfg.StatsHandler.Routes())
		}
	})

	return r
}
