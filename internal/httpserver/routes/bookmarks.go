package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/linkvault/internal/httpserver/deps"
	"github.com/MrSnakeDoc/linkvault/internal/httpserver/handlers"
)

func init() { Register(registerBookmarks) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	r.Route("/api", func(api chi.Router) {
		api.Route("/bookmarks", func(b chi.Router) {
			b.Post("/", handlers.CreateBookmark(d))
			b.Get("/", handlers.ListBookmarks(d))
			b.Get("/{id}", handlers.GetBookmark(d))
			b.Put("/{id}", handlers.UpdateBookmark(d))
			b.Delete("/{id}", handlers.DeleteBookmark(d))
			b.Patch("/{id}/archive", handlers.ToggleArchive(d))
		})
		api.Get("/tags", handlers.ListTags(d))
		api.Post("/import", handlers.Import(d))
		api.Get("/export", handlers.Export(d))
	})
}
