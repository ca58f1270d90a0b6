package availability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/salonkit/booking-platform/pkg/logging"
)

// Handler exposes the availability read endpoint.
type Handler struct {
	svc    *Service
	budget time.Duration
	logger *logging.Logger
}

// NewHandler creates an availability HTTP handler. A positive budget caps how
// long one resolution may take; reads are side-effect free so a timeout is
// always safe to retry.
func NewHandler(svc *Service, budget time.Duration, logger *logging.Logger) *Handler {
	if svc == nil {
		panic("availability: service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, budget: budget, logger: logger}
}

// GetAvailability resolves bookable slots for a location/variant/date.
// GET /availability?location_id=&service_variant_id=&date=2025-03-10&staff_id=
func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	locationID, err := uuid.Parse(q.Get("location_id"))
	if err != nil {
		http.Error(w, `{"error": "location_id required"}`, http.StatusBadRequest)
		return
	}
	variantID, err := uuid.Parse(q.Get("service_variant_id"))
	if err != nil {
		http.Error(w, `{"error": "service_variant_id required"}`, http.StatusBadRequest)
		return
	}
	date, err := time.Parse("2006-01-02", q.Get("date"))
	if err != nil {
		http.Error(w, `{"error": "date must be YYYY-MM-DD"}`, http.StatusBadRequest)
		return
	}

	req := Request{
		LocationID:       locationID,
		ServiceVariantID: variantID,
		Date:             date,
	}
	if raw := q.Get("staff_id"); raw != "" {
		staffID, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, `{"error": "invalid staff_id"}`, http.StatusBadRequest)
			return
		}
		req.StaffID = staffID
	}

	ctx := r.Context()
	if h.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.budget)
		defer cancel()
	}

	result, err := h.svc.Resolve(ctx, req)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, `{"error": "not found"}`, http.StatusNotFound)
			return
		}
		if errors.Is(err, context.DeadlineExceeded) {
			http.Error(w, `{"error": "timeout"}`, http.StatusGatewayTimeout)
			return
		}
		h.logger.Error("availability resolve failed",
			"location_id", locationID,
			"service_variant_id", variantID,
			"error", err,
		)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.logger.Error("failed to encode availability result", "error", err)
	}
}
