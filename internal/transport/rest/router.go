package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/metrics"
	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/security"
	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/transport/rest/response"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// Pinger is checked by /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterDeps struct {
	Handler  *Handler
	Verifier security.AccessTokenVerifier

	// Limiter may be nil; then only the in-process search throttle applies.
	Limiter       RateLimiter
	RateLimit     int
	RateWindow    time.Duration
	SearchPerMin  int
	AllowedOrigin []string

	Ready map[string]Pinger
}

func NewRouter(d RouterDeps) http.Handler {
	if d.Handler == nil {
		panic("rest.NewRouter: nil handler")
	}
	if d.Verifier == nil {
		panic("rest.NewRouter: nil verifier")
	}
	if d.SearchPerMin <= 0 {
		d.SearchPerMin = 30
	}

	r := chi.NewRouter()

	// Request ID + structured access log
	r.Use(RequestID)
	r.Use(HTTPLogger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	if len(d.AllowedOrigin) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   d.AllowedOrigin,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type", requestIDHeader},
			ExposedHeaders:   []string{requestIDHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(SecurityHeaders)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		response.Data(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", readyHandler(d.Ready))
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(RateLimitMiddleware(d.Limiter, "api", d.RateLimit, d.RateWindow))
		r.Use(AuthMiddleware(d.Verifier))

		h := d.Handler

		r.Post("/events", h.CreateEvent)
		r.Route("/events/{eventID}", func(r chi.Router) {
			r.Get("/", h.GetEvent)
			r.Patch("/", h.UpdateEvent)
			r.Post("/cancel", h.CancelEvent)

			r.Post("/rsvps", h.CreateRsvp)
			r.Post("/rsvps/batch", h.CreateRsvpBatch)
			r.Get("/rsvps", h.EventRsvps)
			r.Get("/capacity", h.Capacity)

			r.Post("/comments", h.CreateComment)
			r.Get("/comments", h.ListComments)
		})

		r.Get("/rsvps/{rsvpID}", h.GetRsvp)
		r.Patch("/rsvps/{rsvpID}", h.UpdateRsvp)
		r.Delete("/rsvps/{rsvpID}", h.DeleteRsvp)
		r.Get("/me/rsvps", h.MyRsvps)

		r.Get("/notifications", h.ListNotifications)
		r.Get("/notifications/unread-count", h.UnreadCount)
		r.Post("/notifications/read", h.MarkNotificationsRead)
		r.Delete("/notifications/{notificationID}", h.DeleteNotification)

		r.With(httprate.Limit(
			d.SearchPerMin, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				fail(w, r, http.StatusTooManyRequests, "rate_limited", "too many search requests", nil)
			}),
		)).Get("/users/search", h.SearchUsers)
	})

	return r
}

func readyHandler(deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := make(map[string]string, len(deps))
		healthy := true
		for name, p := range deps {
			if err := p.Ping(ctx); err != nil {
				checks[name] = "down"
				healthy = false
				continue
			}
			checks[name] = "up"
		}
		if !healthy {
			response.JSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "checks": checks})
			return
		}
		response.Data(w, http.StatusOK, map[string]any{"status": "ready", "checks": checks})
	}
}
