package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/nbshell/internal/navigation"
	"github.com/starford/nbshell/internal/workspace"
)

// NewRouter creates a chi router with the session API under /api and the
// guarded view routes at the root.
// sseHandler, if non-nil, is mounted at GET /api/events behind the session check.
func NewRouter(svc *workspace.Service, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		// Session.
		r.Get("/session", h.Session)
		r.Post("/session/check", h.CheckSession)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)

		// Type formatting.
		r.Get("/types", h.Types)
		r.Post("/format", h.Format)

		r.Group(func(r chi.Router) {
			r.Use(RequireSession(svc.Authenticated))

			// Sidebar.
			r.Get("/sidebar", h.Sidebar)
			r.Post("/sidebar/refresh", h.RefreshSidebar)
			r.Post("/sidebar/categories/{name}/toggle", h.ToggleCategory)

			if sseHandler != nil {
				r.Get("/events", sseHandler.ServeHTTP)
			}
		})
	})

	// Views, gated on the cached session flag.
	r.Group(func(r chi.Router) {
		r.Use(navigation.Guard(svc.Authenticated))

		r.Get("/login", h.View(navigation.ViewLogin))
		r.Get("/default", h.DefaultView)
		r.Get("/notebook/{noteId}", h.NotebookView)
		r.Get("/notebook/{noteId}/paragraph/{paragraphId}", h.NotebookView)
		r.Get("/interpreter", h.View(navigation.ViewInterpreter))
		r.Get("/configuration", h.View(navigation.ViewConfiguration))
		r.Get("/search/{searchTerm}", h.SearchView)
		r.Get("/*", h.Otherwise)
	})

	return r
}
