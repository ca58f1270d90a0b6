package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*fixture, http.Handler) {
	t.Helper()
	fx := newFixture(t, nil)
	return fx, NewHandler(fx.svc, nil).Routes()
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandlerCreateBooking(t *testing.T) {
	fx, router := newTestRouter(t)
	req := fx.request(10, 0, 60)

	rec := postJSON(t, router, "/", CreateBookingRequest{
		StaffID:          req.StaffID,
		LocationID:       req.LocationID,
		ServiceVariantID: req.ServiceVariantID,
		CustomerID:       req.CustomerID,
		StartsAt:         req.StartsAt,
		EndsAt:           req.EndsAt,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var view bookingView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	assert.Equal(t, StatusPending, view.Status)
	assert.Equal(t, int64(4500), view.TotalPriceCents)
	assert.True(t, view.StartsAt.Equal(req.StartsAt))
}

func TestHandlerCreateConflictIs409(t *testing.T) {
	fx, router := newTestRouter(t)
	req := fx.request(10, 0, 60)
	body := CreateBookingRequest{
		StaffID:          req.StaffID,
		LocationID:       req.LocationID,
		ServiceVariantID: req.ServiceVariantID,
		CustomerID:       req.CustomerID,
		StartsAt:         req.StartsAt,
		EndsAt:           req.EndsAt,
	}

	first := postJSON(t, router, "/", body)
	require.Equal(t, http.StatusCreated, first.Code)

	second := postJSON(t, router, "/", body)
	assert.Equal(t, http.StatusConflict, second.Code)
}

func TestHandlerCreateRejectsMissingIDs(t *testing.T) {
	_, router := newTestRouter(t)

	rec := postJSON(t, router, "/", CreateBookingRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerCreateOutsideHoursIs409(t *testing.T) {
	fx, router := newTestRouter(t)
	req := fx.request(20, 0, 60)

	rec := postJSON(t, router, "/", CreateBookingRequest{
		StaffID:          req.StaffID,
		LocationID:       req.LocationID,
		ServiceVariantID: req.ServiceVariantID,
		CustomerID:       req.CustomerID,
		StartsAt:         req.StartsAt,
		EndsAt:           req.EndsAt,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandlerGetBooking(t *testing.T) {
	fx, router := newTestRouter(t)
	created, err := fx.svc.Create(context.Background(), fx.request(10, 0, 60))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/"+created.ID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var view bookingView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	assert.Equal(t, created.ID, view.ID)
}

func TestHandlerGetMissingBookingIs404(t *testing.T) {
	_, router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/"+uuid.New().String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerReschedule(t *testing.T) {
	fx, router := newTestRouter(t)
	created, err := fx.svc.Create(context.Background(), fx.request(10, 0, 60))
	require.NoError(t, err)

	newStart := fx.monday.Add(14 * time.Hour)
	rec := postJSON(t, router, "/"+created.ID.String()+"/reschedule", RescheduleRequest{
		StartsAt: newStart,
		EndsAt:   newStart.Add(time.Hour),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var view bookingView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	assert.True(t, view.StartsAt.Equal(newStart))
}

func TestHandlerCancelThenCompleteIs422(t *testing.T) {
	fx, router := newTestRouter(t)
	created, err := fx.svc.Create(context.Background(), fx.request(10, 0, 60))
	require.NoError(t, err)

	cancel := postJSON(t, router, "/"+created.ID.String()+"/cancel", struct{}{})
	require.Equal(t, http.StatusOK, cancel.Code)

	complete := postJSON(t, router, "/"+created.ID.String()+"/complete", struct{}{})
	assert.Equal(t, http.StatusUnprocessableEntity, complete.Code)
}

func TestHandlerCheckWindow(t *testing.T) {
	fx, router := newTestRouter(t)
	created, err := fx.svc.Create(context.Background(), fx.request(10, 0, 60))
	require.NoError(t, err)

	checkURL := func(start, end time.Time) string {
		return "/check?staff_id=" + created.StaffID.String() +
			"&location_id=" + created.LocationID.String() +
			"&starts_at=" + url.QueryEscape(start.Format(time.RFC3339)) +
			"&ends_at=" + url.QueryEscape(end.Format(time.RFC3339))
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, checkURL(created.StartsAt, created.EndsAt), nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp map[string]bool
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp["available"])

	free := fx.monday.Add(14 * time.Hour)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, checkURL(free, free.Add(time.Hour)), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp["available"])
}

func TestHandlerConfirmFlow(t *testing.T) {
	fx, router := newTestRouter(t)
	created, err := fx.svc.Create(context.Background(), fx.request(10, 0, 60))
	require.NoError(t, err)

	confirm := postJSON(t, router, "/"+created.ID.String()+"/confirm", struct{}{})
	require.Equal(t, http.StatusOK, confirm.Code)

	var view bookingView
	require.NoError(t, json.NewDecoder(confirm.Body).Decode(&view))
	assert.Equal(t, StatusConfirmed, view.Status)

	noShow := postJSON(t, router, "/"+created.ID.String()+"/no-show", struct{}{})
	require.Equal(t, http.StatusOK, noShow.Code)
}
