// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/dynamic-ticketing/internal/model"
	"github.com/Shivanand-hulikatti/dynamic-ticketing/internal/service"
)

// EventService is the catalogue surface the handlers need.
type EventService interface {
	CreateEvent(ctx context.Context, req model.CreateEventRequest) (*model.Event, error)
	ListEvents(ctx context.Context) ([]model.EventWithPrice, error)
	GetEvent(ctx context.Context, id int64) (*model.EventDetail, error)
	PriceEventByID(ctx context.Context, id int64) (model.PricingBreakdown, error)
}

// BookingService is the booking surface the handlers need.
type BookingService interface {
	CreateBooking(ctx context.Context, req model.CreateBookingRequest) (*model.Booking, error)
	ListByEvent(ctx context.Context, eventID int64) ([]model.Booking, error)
	ListByEmail(ctx context.Context, email string) ([]model.Booking, error)
}

// AnalyticsService is the reporting surface the handlers need.
type AnalyticsService interface {
	EventAnalytics(ctx context.Context, id int64) (*model.EventAnalytics, error)
	Summary(ctx context.Context) (*model.SystemSummary, error)
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// writeServiceError maps the service error kinds onto status codes. Store
// details never reach the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *logrus.Logger, err error) {
	var insufficient *service.InsufficientInventoryError
	switch {
	case errors.As(err, &insufficient):
		remaining := insufficient.Remaining
		writeJSON(w, http.StatusConflict, model.ErrorResponse{Error: insufficient.Error(), Remaining: &remaining})
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrAborted):
		writeError(w, http.StatusBadRequest, "request cancelled or timed out before completion")
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "event not found")
	default:
		logger.WithContext(r.Context()).WithError(err).WithField("path", r.URL.Path).Error("request failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// ─── Events ───────────────────────────────────────────────────────────────────

// EventHandler serves the event catalogue.
type EventHandler struct {
	svc    EventService
	logger *logrus.Logger
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(svc EventService, logger *logrus.Logger) *EventHandler {
	return &EventHandler{svc: svc, logger: logger}
}

// CreateEvent handles POST /events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.svc.CreateEvent(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// ListEvents handles GET /events
// Each event carries its current advisory price.
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.ListEvents(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	// Return an empty array rather than null for better client compatibility.
	if events == nil {
		events = []model.EventWithPrice{}
	}
	writeJSON(w, http.StatusOK, events)
}

// GetEvent handles GET /events/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}

	detail, err := h.svc.GetEvent(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// GetPrice handles GET /events/{id}/price
// The breakdown is computed fresh, bypassing the quote cache.
func (h *EventHandler) GetPrice(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}

	quote, err := h.svc.PriceEventByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// ─── Bookings ─────────────────────────────────────────────────────────────────

// BookingHandler serves booking creation and lookup.
type BookingHandler struct {
	svc    BookingService
	logger *logrus.Logger
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(svc BookingService, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{svc: svc, logger: logger}
}

// CreateBooking handles POST /bookings
// Performs a concurrency-safe booking at the price current under the event lock.
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req model.CreateBookingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	booking, err := h.svc.CreateBooking(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

// ListBookings handles GET /bookings?eventId=… or GET /bookings?userEmail=…
func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		bookings []model.Booking
		err      error
	)
	switch {
	case q.Get("eventId") != "":
		id, perr := strconv.ParseInt(q.Get("eventId"), 10, 64)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "eventId must be an integer")
			return
		}
		bookings, err = h.svc.ListByEvent(r.Context(), id)
	case q.Get("userEmail") != "":
		bookings, err = h.svc.ListByEmail(r.Context(), q.Get("userEmail"))
	default:
		writeError(w, http.StatusBadRequest, "eventId or userEmail query parameter is required")
		return
	}
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	if bookings == nil {
		bookings = []model.Booking{}
	}
	writeJSON(w, http.StatusOK, bookings)
}

// ─── Analytics ────────────────────────────────────────────────────────────────

// AnalyticsHandler serves read-only sales reports.
type AnalyticsHandler struct {
	svc    AnalyticsService
	logger *logrus.Logger
}

// NewAnalyticsHandler constructs an AnalyticsHandler.
func NewAnalyticsHandler(svc AnalyticsService, logger *logrus.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc, logger: logger}
}

// EventAnalytics handles GET /analytics/events/{id}
func (h *AnalyticsHandler) EventAnalytics(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}

	report, err := h.svc.EventAnalytics(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Summary handles GET /analytics/summary
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Summary(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// Pinger checks a backing dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck handles GET /health. It reports 503 when the database is unreachable.
func HealthCheck(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
