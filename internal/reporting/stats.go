// Package reporting aggregates booking rollups for operator dashboards. The
// queries are informational reads and go through database/sql so the admin
// surface shares nothing with the transactional booking path.
package reporting

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/salonkit/booking-platform/pkg/logging"
)

// Stats is a per-location booking rollup for a period.
type Stats struct {
	LocationID        string `json:"location_id"`
	BookingsCreated   int64  `json:"bookings_created"`
	BookingsCompleted int64  `json:"bookings_completed"`
	BookingsCancelled int64  `json:"bookings_cancelled"`
	NoShows           int64  `json:"no_shows"`
	RevenueCents      int64  `json:"revenue_cents"`
	PeriodStart       string `json:"period_start"`
	PeriodEnd         string `json:"period_end"`
}

// StatsRepository queries booking rollups from the database.
type StatsRepository struct {
	db *sql.DB
}

// NewStatsRepository creates a stats repository.
func NewStatsRepository(db *sql.DB) *StatsRepository {
	if db == nil {
		panic("reporting: sql db required")
	}
	return &StatsRepository{db: db}
}

// GetStats retrieves aggregated booking metrics for a location. Optional
// start/end bound the period; both nil means all-time.
func (r *StatsRepository) GetStats(ctx context.Context, locationID uuid.UUID, start, end *time.Time) (*Stats, error) {
	stats := &Stats{LocationID: locationID.String()}

	var timeFilter string
	args := []any{locationID}
	if start != nil && end != nil {
		timeFilter = " AND starts_at >= $2 AND starts_at < $3"
		args = append(args, *start, *end)
		stats.PeriodStart = start.Format(time.RFC3339)
		stats.PeriodEnd = end.Format(time.RFC3339)
	} else {
		stats.PeriodStart = "all-time"
		stats.PeriodEnd = "now"
	}

	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'completed'),
		       COUNT(*) FILTER (WHERE status = 'cancelled'),
		       COUNT(*) FILTER (WHERE status = 'no_show'),
		       COALESCE(SUM(total_price_cents) FILTER (WHERE status = 'completed'), 0)
		FROM bookings
		WHERE location_id = $1` + timeFilter
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&stats.BookingsCreated,
		&stats.BookingsCompleted,
		&stats.BookingsCancelled,
		&stats.NoShows,
		&stats.RevenueCents,
	)
	if err != nil {
		return nil, fmt.Errorf("reporting: booking rollup: %w", err)
	}
	return stats, nil
}

// StatsHandler provides the HTTP endpoint for location stats.
type StatsHandler struct {
	repo   *StatsRepository
	logger *logging.Logger
}

// NewStatsHandler creates a stats HTTP handler.
func NewStatsHandler(repo *StatsRepository, logger *logging.Logger) *StatsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &StatsHandler{repo: repo, logger: logger}
}

// Routes returns a chi router with reporting routes.
func (h *StatsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{locationID}/stats", h.GetStats)
	return r
}

// GetStats returns the booking rollup for a location.
// GET /admin/locations/{locationID}/stats?start=RFC3339&end=RFC3339
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	locationID, err := uuid.Parse(chi.URLParam(r, "locationID"))
	if err != nil {
		http.Error(w, `{"error": "invalid location id"}`, http.StatusBadRequest)
		return
	}

	var start, end *time.Time
	if raw := r.URL.Query().Get("start"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, `{"error": "start must be RFC3339"}`, http.StatusBadRequest)
			return
		}
		start = &parsed
	}
	if raw := r.URL.Query().Get("end"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, `{"error": "end must be RFC3339"}`, http.StatusBadRequest)
			return
		}
		end = &parsed
	}
	if (start == nil) != (end == nil) {
		http.Error(w, `{"error": "start and end must be provided together"}`, http.StatusBadRequest)
		return
	}

	stats, err := h.repo.GetStats(r.Context(), locationID, start, end)
	if err != nil {
		h.logger.Error("failed to load location stats", "location_id", locationID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		h.logger.Error("failed to encode location stats", "location_id", locationID, "error", err)
	}
}
