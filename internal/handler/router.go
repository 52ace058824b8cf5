package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// RouterProperty lists what the router serves.
type RouterProperty struct {
	Logger      *logrus.Logger
	Events      EventService
	Bookings    BookingService
	Analytics   AnalyticsService
	DB          Pinger
	CORSOrigins []string
}

// NewRouter builds the chi router with the global middleware stack.
func NewRouter(p RouterProperty) http.Handler {
	events := NewEventHandler(p.Events, p.Logger)
	bookings := NewBookingHandler(p.Bookings, p.Logger)
	analytics := NewAnalyticsHandler(p.Analytics, p.Logger)

	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger(p.Logger))
	r.Use(CORS(p.CORSOrigins))

	r.Get("/health", HealthCheck(p.DB))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(NoStore)

		r.Route("/events", func(r chi.Router) {
			r.Post("/", events.CreateEvent)
			r.Get("/", events.ListEvents)
			r.Get("/{id}", events.GetEvent)
			r.Get("/{id}/price", events.GetPrice)
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Post("/", bookings.CreateBooking)
			r.Get("/", bookings.ListBookings)
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/events/{id}", analytics.EventAnalytics)
			r.Get("/summary", analytics.Summary)
		})
	})

	return r
}
