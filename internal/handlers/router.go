package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/ludolog/ludolog/internal/middleware"
	"github.com/ludolog/ludolog/internal/utils"
)

// Router mounts the whole HTTP surface. Returned as chi.Router so tests can
// drive it through httptest.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.StripSlashes)
	r.Use(middleware.RequestLogger(h.Log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Identify(h.Tokens, h.DB, h.Log))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		utils.JSONMsg(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		utils.JSONMsg(w, http.StatusMethodNotAllowed,
			fmt.Sprintf("%s is not allowed on %s", req.Method, req.URL.Path))
	})

	r.Get("/", h.root)

	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.Users.List)
		r.Post("/", h.Users.Create)
		r.Options("/", allow(http.MethodGet, http.MethodPost))

		r.With(middleware.RateLimit(rate.Every(time.Second), 5, 3*time.Minute)).
			Post("/login", h.Users.Login)
		r.Options("/login", allow(http.MethodPost))

		r.Route("/{userId}", func(r chi.Router) {
			r.Get("/", h.Users.Get)
			r.With(middleware.RequireAuth).Put("/", h.Users.Update)
			r.With(middleware.RequireAuth).Delete("/", h.Users.Delete)
			r.Options("/", allow(http.MethodGet, http.MethodPut, http.MethodDelete))

			r.Route("/plays", func(r chi.Router) {
				r.Use(h.Plays.ResolveOwner)
				r.Get("/", h.Plays.List)
				r.With(middleware.RequireAuth).Post("/", h.Plays.Create)
				r.Options("/", allow(http.MethodGet, http.MethodPost))

				r.Get("/{id}", h.Plays.Get)
				r.Options("/{id}", allow(http.MethodGet))
			})
		})
	})

	r.Route("/games", func(r chi.Router) {
		r.Get("/", h.Games.List)
		r.With(middleware.RequireAuth).Post("/", h.Games.Create)
		r.Options("/", allow(http.MethodGet, http.MethodPost))

		r.Get("/{id}", h.Games.Get)
		r.Options("/{id}", allow(http.MethodGet))
	})

	return r
}

func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]any{
		"service":   "ludolog",
		"endpoints": []string{"/users", "/users/login", "/games", "/users/{userId}/plays"},
	})
}

// allow answers OPTIONS with the methods the path supports.
func allow(methods ...string) http.HandlerFunc {
	methods = append(methods, http.MethodOptions)
	header := strings.Join(methods, ", ")
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", header)
		w.WriteHeader(http.StatusNoContent)
	}
}
