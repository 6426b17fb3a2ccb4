package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/linkvault/internal/httpserver/deps"
	"github.com/MrSnakeDoc/linkvault/internal/httpserver/handlers"
)

func init() { Register(registerRedirect) }

func registerRedirect(r chi.Router, d deps.Deps) {
	r.Get("/{shortCode}", handlers.Redirect(d))
}
