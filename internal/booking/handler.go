package booking

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/salonkit/booking-platform/pkg/logging"
)

// Handler exposes booking mutation endpoints.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates a booking HTTP handler.
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if svc == nil {
		panic("booking: service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes returns a chi router with booking routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/check", h.CheckWindow)
	r.Get("/{bookingID}", h.Get)
	r.Post("/{bookingID}/reschedule", h.Reschedule)
	r.Post("/{bookingID}/cancel", h.Cancel)
	r.Post("/{bookingID}/confirm", h.transition(StatusConfirmed))
	r.Post("/{bookingID}/complete", h.transition(StatusCompleted))
	r.Post("/{bookingID}/no-show", h.transition(StatusNoShow))
	return r
}

type bookingView struct {
	ID               uuid.UUID `json:"id"`
	StaffID          uuid.UUID `json:"staff_id"`
	LocationID       uuid.UUID `json:"location_id"`
	ServiceVariantID uuid.UUID `json:"service_variant_id"`
	CustomerID       uuid.UUID `json:"customer_id"`
	StartsAt         time.Time `json:"starts_at"`
	EndsAt           time.Time `json:"ends_at"`
	Status           Status    `json:"status"`
	TotalPriceCents  int64     `json:"total_price_cents"`
	CustomerNote     string    `json:"customer_note,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func viewOf(b *Booking) bookingView {
	return bookingView{
		ID:               b.ID,
		StaffID:          b.StaffID,
		LocationID:       b.LocationID,
		ServiceVariantID: b.ServiceVariantID,
		CustomerID:       b.CustomerID,
		StartsAt:         b.StartsAt,
		EndsAt:           b.EndsAt,
		Status:           b.Status,
		TotalPriceCents:  b.TotalPriceCents,
		CustomerNote:     b.CustomerNote,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}

// CreateBookingRequest is the request body for creating a booking.
type CreateBookingRequest struct {
	StaffID          uuid.UUID `json:"staff_id"`
	LocationID       uuid.UUID `json:"location_id"`
	ServiceVariantID uuid.UUID `json:"service_variant_id"`
	CustomerID       uuid.UUID `json:"customer_id"`
	StartsAt         time.Time `json:"starts_at"`
	EndsAt           time.Time `json:"ends_at"`
	CustomerNote     string    `json:"customer_note,omitempty"`
}

// Create commits a new booking.
// POST /bookings
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}
	if req.StaffID == uuid.Nil || req.LocationID == uuid.Nil || req.ServiceVariantID == uuid.Nil || req.CustomerID == uuid.Nil {
		http.Error(w, `{"error": "staff_id, location_id, service_variant_id and customer_id required"}`, http.StatusBadRequest)
		return
	}

	created, err := h.svc.Create(r.Context(), CreateRequest{
		StaffID:          req.StaffID,
		LocationID:       req.LocationID,
		ServiceVariantID: req.ServiceVariantID,
		CustomerID:       req.CustomerID,
		StartsAt:         req.StartsAt,
		EndsAt:           req.EndsAt,
		CustomerNote:     req.CustomerNote,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeBooking(w, http.StatusCreated, created)
}

// Get returns a single booking.
// GET /bookings/{bookingID}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "bookingID"))
	if err != nil {
		http.Error(w, `{"error": "invalid booking id"}`, http.StatusBadRequest)
		return
	}
	b, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeBooking(w, http.StatusOK, b)
}

// CheckWindow answers whether a window is currently free for a staff member.
// Advisory: the commit path re-validates.
// GET /bookings/check?staff_id=&location_id=&starts_at=RFC3339&ends_at=RFC3339
func (h *Handler) CheckWindow(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	staffID, err := uuid.Parse(q.Get("staff_id"))
	if err != nil {
		http.Error(w, `{"error": "staff_id required"}`, http.StatusBadRequest)
		return
	}
	locationID, err := uuid.Parse(q.Get("location_id"))
	if err != nil {
		http.Error(w, `{"error": "location_id required"}`, http.StatusBadRequest)
		return
	}
	startsAt, err := time.Parse(time.RFC3339, q.Get("starts_at"))
	if err != nil {
		http.Error(w, `{"error": "starts_at must be RFC3339"}`, http.StatusBadRequest)
		return
	}
	endsAt, err := time.Parse(time.RFC3339, q.Get("ends_at"))
	if err != nil {
		http.Error(w, `{"error": "ends_at must be RFC3339"}`, http.StatusBadRequest)
		return
	}

	available, err := h.svc.CheckWindow(r.Context(), staffID, locationID, startsAt, endsAt)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]bool{"available": available}); err != nil {
		h.logger.Error("failed to encode availability check", "staff_id", staffID, "error", err)
	}
}

// RescheduleRequest is the request body for moving a booking.
type RescheduleRequest struct {
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

// Reschedule moves a booking to a new window.
// POST /bookings/{bookingID}/reschedule
func (h *Handler) Reschedule(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "bookingID"))
	if err != nil {
		http.Error(w, `{"error": "invalid booking id"}`, http.StatusBadRequest)
		return
	}
	var req RescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}

	updated, err := h.svc.Reschedule(r.Context(), id, req.StartsAt, req.EndsAt)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeBooking(w, http.StatusOK, updated)
}

// Cancel cancels a booking. Repeated cancels succeed.
// POST /bookings/{bookingID}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "bookingID"))
	if err != nil {
		http.Error(w, `{"error": "invalid booking id"}`, http.StatusBadRequest)
		return
	}
	updated, err := h.svc.Cancel(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeBooking(w, http.StatusOK, updated)
}

func (h *Handler) transition(next Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "bookingID"))
		if err != nil {
			http.Error(w, `{"error": "invalid booking id"}`, http.StatusBadRequest)
			return
		}
		updated, err := h.svc.Transition(r.Context(), id, next)
		if err != nil {
			h.writeError(w, err)
			return
		}
		h.writeBooking(w, http.StatusOK, updated)
	}
}

func (h *Handler) writeBooking(w http.ResponseWriter, status int, b *Booking) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(viewOf(b)); err != nil {
		h.logger.Error("failed to encode booking", "booking_id", b.ID, "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSlotUnavailable):
		http.Error(w, `{"error": "slot_unavailable"}`, http.StatusConflict)
	case errors.Is(err, ErrNotFound):
		http.Error(w, `{"error": "not_found"}`, http.StatusNotFound)
	case errors.Is(err, ErrInvalidState):
		http.Error(w, `{"error": "invalid_state"}`, http.StatusUnprocessableEntity)
	case errors.Is(err, ErrValidation):
		http.Error(w, `{"error": "validation_failed"}`, http.StatusUnprocessableEntity)
	case errors.Is(err, context.DeadlineExceeded):
		http.Error(w, `{"error": "timeout"}`, http.StatusGatewayTimeout)
	default:
		h.logger.Error("booking request failed", "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
	}
}
