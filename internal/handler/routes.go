package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig carries the transport settings of the router.
type RouterConfig struct {
	CORSOrigins []string
	// BookingRateLimit is the number of booking requests allowed per client IP per minute.
	BookingRateLimit int
}

// NewRouter builds the application's chi router.
func NewRouter(cfg RouterConfig, users IdentityResolver, events *EventHandler, tickets *TicketHandler) http.Handler {
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger)                  // structured access log
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/api/customer-events", events.BrowseEvents)

	r.Group(func(r chi.Router) {
		r.Use(Identity(users))

		r.Route("/api/events", func(r chi.Router) {
			r.Use(RequireOrganizer)
			r.Get("/", events.ListEvents)
			r.Post("/", events.CreateEvent)
			r.Get("/{id}", events.GetEvent)
			r.Put("/{id}", events.UpdateEvent)
			r.Delete("/{id}", events.CancelEvent)
			r.Get("/{id}/report", events.Report)
			r.Post("/{id}/reminder", events.SendReminder)
		})

		r.Route("/api/registrations", func(r chi.Router) {
			r.Use(RequireOrganizer)
			r.Get("/", tickets.ListRegistrations)
			r.Put("/{id}/accept", tickets.Accept)
			r.Put("/{id}/reject", tickets.Reject)
		})

		r.Route("/api/tickets", func(r chi.Router) {
			r.With(httprate.LimitByIP(cfg.BookingRateLimit, time.Minute)).Post("/", tickets.Book)
			r.Get("/", tickets.ListMine)
			r.Get("/{id}/qr", tickets.QRCode)
		})

		r.Get("/api/notifications", tickets.Notifications)
	})

	return r
}
