// Package server exposes the HTTP surface: the /plan turn endpoint,
// conversation reads and deletes, the stateless /chat_once endpoint, and the
// Google OAuth flow.
package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter wires middleware and routes around the handler set.
func NewRouter(h *Handlers, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: normalizeOrigins(allowedOrigins),
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", ConversationIDHeader},
		ExposedHeaders: []string{ConversationIDHeader},
		MaxAge:         300,
	}))

	r.Get("/", h.root)
	r.Get("/health", h.health)

	r.Post("/plan", h.plan)
	r.Post("/chat_once", h.chatOnce)

	r.Route("/conversations", func(r chi.Router) {
		r.Get("/", h.listConversations)
		r.Get("/{id}", h.getConversation)
		r.Delete("/{id}", h.deleteConversation)
	})

	r.Route("/auth/google", func(r chi.Router) {
		r.Get("/start", h.googleAuthStart)
		r.Get("/callback", h.googleAuthCallback)
	})

	return r
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		out = []string{"*"}
	}
	return out
}
