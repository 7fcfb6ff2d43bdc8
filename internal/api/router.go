package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/ast-secret-be/internal/api/handlers"
	"github.com/isdelr/ast-secret-be/internal/middleware"
	"github.com/isdelr/ast-secret-be/internal/services"
	"github.com/isdelr/ast-secret-be/internal/websocket"
)

// welcomeText is served at the root path.
const welcomeText = "Welcome to the AST Secret API"

// Deps bundles what the router needs to build its handlers.
type Deps struct {
	Users         services.UserServiceProvider
	Messages      services.MessageServiceProvider
	Hub           *websocket.Hub
	Limiter       *middleware.LimiterStore // nil disables rate limiting
	AllowedOrigin string
}

// NewRouter creates and configures a new Chi router.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{d.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		AllowCredentials: d.AllowedOrigin != "*",
		MaxAge:           300,
	}))

	userHandler := handlers.NewUserHandler(d.Users)
	messageHandler := handlers.NewMessageHandler(d.Messages)
	wsHandler := handlers.NewWebSocketHandler(d.Hub, d.AllowedOrigin)
	limit := middleware.RateLimit(d.Limiter)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(welcomeText))
	})

	// WebSocket connection endpoint
	r.Get("/ws", wsHandler.Serve)

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.With(limit).Post("/", userHandler.Create)
			r.Get("/by-username/{username}", userHandler.GetByUsername)
			r.Get("/{id}", userHandler.Get)
		})

		// {id} is the owner for listing and deletion and the message
		// otherwise.
		r.Route("/messages", func(r chi.Router) {
			r.With(limit).Post("/", messageHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", messageHandler.List)
				r.Post("/reactions", messageHandler.AddReaction)
				r.Post("/read", messageHandler.MarkAsRead)
				r.Post("/reply", messageHandler.AddReply)
				r.Delete("/{messageId}", messageHandler.Delete)
			})
		})
	})

	return r
}
