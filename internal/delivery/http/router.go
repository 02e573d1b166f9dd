package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"eventhub/internal/delivery/http/controllers"
	"eventhub/internal/delivery/http/middleware"
)

// RouterDeps groups the controllers and middleware the router mounts.
type RouterDeps struct {
	Logger         *slog.Logger
	Events         *controllers.EventController
	Auth           *controllers.AuthController
	Health         *controllers.HealthController
	RequireAuth    func(http.HandlerFunc) http.HandlerFunc
	AllowedOrigins []string
}

// NewRouter initializes the HTTP router with all application routes,
// wrapped in CORS and request logging.
func NewRouter(d RouterDeps) http.Handler {
	mux := http.NewServeMux()
	protect := d.RequireAuth

	// Events
	mux.HandleFunc("GET /events", d.Events.ListEvents)
	mux.HandleFunc("POST /events", protect(d.Events.CreateEvent))
	mux.HandleFunc("GET /events.ics", d.Events.CalendarFeed)
	mux.HandleFunc("GET /events/{id}", d.Events.GetEvent)
	mux.HandleFunc("PUT /events/{id}", protect(d.Events.UpdateEvent))
	mux.HandleFunc("DELETE /events/{id}", protect(d.Events.DeleteEvent))

	// Auth
	mux.HandleFunc("POST /auth/register", d.Auth.Register)
	mux.HandleFunc("POST /auth/login", d.Auth.Login)
	mux.HandleFunc("GET /auth/me", protect(d.Auth.Me))

	mux.HandleFunc("GET /healthz", d.Health.Health)

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return middleware.CORS(d.AllowedOrigins, middleware.LoggingMiddleware(d.Logger, mux))
}
