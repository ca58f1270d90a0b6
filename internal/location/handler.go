package location

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/salonkit/booking-platform/pkg/logging"
)

// Handler provides admin endpoints for location settings.
type Handler struct {
	store  *Store
	logger *logging.Logger
}

// NewHandler creates a location settings HTTP handler.
func NewHandler(store *Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

// Routes returns a chi router with location admin routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{locationID}/settings", h.GetSettings)
	r.Put("/{locationID}/settings", h.UpdateSettings)
	return r
}

// GetSettings returns the scheduling settings for a location.
// GET /admin/locations/{locationID}/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	locationID, err := uuid.Parse(chi.URLParam(r, "locationID"))
	if err != nil {
		http.Error(w, `{"error": "invalid location id"}`, http.StatusBadRequest)
		return
	}

	settings, err := h.store.Get(r.Context(), locationID)
	if err != nil {
		h.logger.Error("failed to get location settings", "location_id", locationID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(settings); err != nil {
		h.logger.Error("failed to encode location settings", "location_id", locationID, "error", err)
	}
}

// UpdateSettingsRequest is the request body for updating location settings.
type UpdateSettingsRequest struct {
	Timezone               string `json:"timezone,omitempty"`
	SlotGranularityMinutes *int   `json:"slot_granularity_minutes,omitempty"`
}

// UpdateSettings creates or updates the settings for a location.
// PUT /admin/locations/{locationID}/settings
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	locationID, err := uuid.Parse(chi.URLParam(r, "locationID"))
	if err != nil {
		http.Error(w, `{"error": "invalid location id"}`, http.StatusBadRequest)
		return
	}

	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid JSON body"}`, http.StatusBadRequest)
		return
	}

	settings, err := h.store.Get(r.Context(), locationID)
	if err != nil {
		h.logger.Error("failed to get location settings", "location_id", locationID, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}

	// Partial update support.
	if req.Timezone != "" {
		settings.Timezone = req.Timezone
	}
	if req.SlotGranularityMinutes != nil {
		settings.SlotGranularityMinutes = *req.SlotGranularityMinutes
	}

	if err := settings.Validate(); err != nil {
		http.Error(w, `{"error": "invalid settings"}`, http.StatusUnprocessableEntity)
		return
	}

	if err := h.store.Set(r.Context(), settings); err != nil {
		h.logger.Error("failed to save location settings", "location_id", locationID, "error", err)
		http.Error(w, `{"error": "failed to save settings"}`, http.StatusInternalServerError)
		return
	}

	h.logger.Info("location settings updated",
		"location_id", locationID,
		"timezone", settings.Timezone,
		"slot_granularity_minutes", settings.SlotGranularityMinutes,
	)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(settings); err != nil {
		h.logger.Error("failed to encode location settings", "location_id", locationID, "error", err)
	}
}
