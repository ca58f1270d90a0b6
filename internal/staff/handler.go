package staff

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/salonkit/booking-platform/pkg/logging"
)

// Handler exposes read-only staff schedule endpoints.
type Handler struct {
	repo   *Repository
	logger *logging.Logger
}

// NewHandler creates a staff schedule HTTP handler.
func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// Routes returns a chi router with staff routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{staffID}/schedule", h.GetSchedule)
	return r
}

type workingHoursView struct {
	Weekday     int    `json:"weekday"`
	StartMinute int    `json:"start_minute"`
	EndMinute   int    `json:"end_minute"`
	Start       string `json:"start"`
	End         string `json:"end"`
}

type leaveEventView struct {
	ID          uuid.UUID `json:"id"`
	Type        string    `json:"type"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	Description string    `json:"description,omitempty"`
}

type scheduleResponse struct {
	StaffID      uuid.UUID          `json:"staff_id"`
	WorkingHours []workingHoursView `json:"working_hours"`
	LeaveEvents  []leaveEventView   `json:"leave_events"`
}

// GetSchedule returns a staff member's recurring rules plus leave events in a
// window.
// GET /staff/{staffID}/schedule?from=RFC3339&to=RFC3339
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	staffID, err := uuid.Parse(chi.URLParam(r, "staffID"))
	if err != nil {
		http.Error(w, `{"error": "invalid staff id"}`, http.StatusBadRequest)
		return
	}

	from, to, err := parseWindow(r)
	if err != nil {
		http.Error(w, `{"error": "invalid from/to window"}`, http.StatusBadRequest)
		return
	}

	rules, err := h.repo.WorkingHours(r.Context(), staffID)
	if err != nil {
		h.logger.Error("failed to load working hours", "staff_id", staffID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	leaves, err := h.repo.LeaveEventsOverlapping(r.Context(), staffID, from, to)
	if err != nil {
		h.logger.Error("failed to load leave events", "staff_id", staffID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	resp := scheduleResponse{
		StaffID:      staffID,
		WorkingHours: make([]workingHoursView, 0, len(rules)),
		LeaveEvents:  make([]leaveEventView, 0, len(leaves)),
	}
	for _, rule := range rules {
		resp.WorkingHours = append(resp.WorkingHours, workingHoursView{
			Weekday:     rule.Weekday,
			StartMinute: rule.StartMinute,
			EndMinute:   rule.EndMinute,
			Start:       minuteClock(rule.StartMinute),
			End:         minuteClock(rule.EndMinute),
		})
	}
	for _, ev := range leaves {
		resp.LeaveEvents = append(resp.LeaveEvents, leaveEventView{
			ID:          ev.ID,
			Type:        ev.Type,
			StartsAt:    ev.StartsAt,
			EndsAt:      ev.EndsAt,
			Description: ev.Description,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode schedule response", "staff_id", staffID, "error", err)
	}
}

func parseWindow(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := now
	to := now.AddDate(0, 0, 14)

	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = parsed
	}
	return from, to, nil
}

func minuteClock(minute int) string {
	t := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(minute) * time.Minute)
	return t.Format("15:04")
}
