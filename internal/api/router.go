package api

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Togather-Foundation/booking/internal/api/handlers"
	"github.com/Togather-Foundation/booking/internal/api/middleware"
	"github.com/Togather-Foundation/booking/internal/api/problem"
	"github.com/Togather-Foundation/booking/internal/auth"
	"github.com/Togather-Foundation/booking/internal/config"
	"github.com/Togather-Foundation/booking/internal/metrics"
)

// UserService is what both the auth handlers and the auth gate need.
type UserService interface {
	handlers.UserService
	middleware.UserLookup
}

type Dependencies struct {
	Config   config.Config
	Logger   zerolog.Logger
	Tokens   *auth.TokenManager
	Users    UserService
	Events   handlers.EventService
	Bookings handlers.BookingService
	Images   handlers.ImageService
	DB       handlers.Pinger

	Version   string
	GitCommit string
	BuildDate string
}

// Router owns the HTTP handler and the background state behind it.
type Router struct {
	Handler     http.Handler
	rateLimiter *middleware.RateLimiter
}

// Close stops the rate limiter's cleanup goroutine.
func (r *Router) Close() {
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}
}

func NewRouter(deps Dependencies) *Router {
	cfg := deps.Config
	env := cfg.Environment
	limiter := middleware.NewRateLimiter(cfg.RateLimit)

	authHandler := handlers.NewAuthHandler(deps.Users, env)
	usersHandler := handlers.NewUsersHandler(deps.Users, env)
	eventsHandler := handlers.NewEventsHandler(deps.Events, env)
	bookingsHandler := handlers.NewBookingsHandler(deps.Bookings, env)
	imagesHandler := handlers.NewImagesHandler(deps.Images, env)
	health := handlers.NewHealthChecker(deps.DB, deps.Version, deps.GitCommit)

	requireAuth := middleware.RequireAuth(deps.Tokens, deps.Users, env)
	requireAdmin := middleware.RequireAdmin(env)
	jsonBody := middleware.RequestSize(cfg.Server.MaxBodyBytes)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.CorrelationID(deps.Logger))
	r.Use(recoverer(env))
	r.Use(middleware.Tracing)
	r.Use(metrics.HTTPMiddleware)
	r.Use(middleware.RequestLogging)
	r.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	r.Use(middleware.CORS(cfg.CORS, deps.Logger))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		problem.Write(w, r, http.StatusNotFound, "Route not found", nil, env)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		problem.Write(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil, env)
	})

	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	r.Get("/version", VersionHandler(deps.Version, deps.GitCommit, deps.BuildDate))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Use(chimw.Timeout(30 * time.Second))

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(limiter.Limit(middleware.TierAuth), jsonBody)
				r.Post("/register", authHandler.Register)
				r.Post("/login", authHandler.Login)
			})
			r.With(limiter.Limit(middleware.TierPublic), requireAuth, requireAdmin).
				Patch("/promote/{id}", authHandler.Promote)
		})

		r.Group(func(r chi.Router) {
			r.Use(limiter.Limit(middleware.TierPublic))

			r.Get("/events", eventsHandler.List)
			r.Get("/events/{id}", eventsHandler.Get)
			r.Get("/upload/image/{id}", imagesHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)

				r.With(jsonBody).Post("/bookings", bookingsHandler.Book)
				r.Get("/bookings/my", bookingsHandler.Mine)
				r.Delete("/bookings/{id}", bookingsHandler.Delete)

				r.Group(func(r chi.Router) {
					r.Use(requireAdmin)

					r.With(jsonBody).Post("/events", eventsHandler.Create)
					r.With(jsonBody).Put("/events/{id}", eventsHandler.Update)
					r.Delete("/events/{id}", eventsHandler.Delete)

					r.Get("/users", usersHandler.List)
					r.Get("/users/admins", usersHandler.Admins)

					r.Post("/upload/image", imagesHandler.Upload)
				})
			})
		})
	})

	return &Router{Handler: r, rateLimiter: limiter}
}

// recoverer turns a handler panic into a logged 500 with the usual body.
func recoverer(env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					zerolog.Ctx(r.Context()).Error().
						Interface("panic", rec).
						Bytes("stack", debug.Stack()).
						Msg("handler panic")
					problem.Write(w, r, http.StatusInternalServerError, "Server error", nil, env)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
