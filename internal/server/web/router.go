package web

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Router assembles the chi mux: CORS, session resolution, method override,
// static assets, the public pages, and the guarded profile routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	var origins []string
	for _, o := range strings.Split(s.corsOrigin, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowCredentials: true,
	}))

	r.Use(s.requestLogger)
	r.Use(methodOverride)
	r.Use(s.withSession)

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir("web/static"))))

	r.Get("/", s.handleRoot)
	r.Get("/main", s.handleMain)
	r.Get("/new", s.handleNewForm)
	r.Post("/new", s.handleRegister)
	r.Post("/info", s.handleSubmitProfile)
	r.Get("/reg", s.handleLoginForm)
	r.Post("/reg", s.handleLogin)
	r.Get("/logout", s.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.requireConfirmed)
		r.Get("/show", s.handleShow)
		r.Get("/edit", s.handleEditForm)
		r.Put("/edit", s.handleEdit)
		r.Delete("/delete", s.handleDelete)
	})

	r.NotFound(s.handleNotFound)

	return r
}
