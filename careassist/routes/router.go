package routes

import (
	"net/http"
	"time"

	"careassist/careassist/controllers"
	"careassist/careassist/middlewares"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Controllers struct {
	Health     *controllers.HealthController
	Completion *controllers.CompletionController
	Chat       *controllers.ChatController
	Sessions   *controllers.SessionController
}

// NewRouter wires every endpoint. The websocket sits outside the request
// timeout since a connection carries many sends. Browsers may only open it
// from the server's own host or one of wsOrigins.
func NewRouter(c Controllers, timeout time.Duration, wsOrigins ...string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewares.RequestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/ws", ChatSocket(c.Chat, wsOrigins))

	r.Group(func(gr chi.Router) {
		gr.Use(middleware.Timeout(timeout))
		gr.Mount("/health", HealthRoutes(c.Health))
		gr.Mount("/api", CompletionRoutes(c.Completion))
		gr.Mount("/sessions", SessionRoutes(c.Sessions, c.Chat))
		gr.Mount("/messages", MessageRoutes(c.Chat))
		gr.Mount("/settings", SettingsRoutes(c.Sessions))
	})
	return r
}
