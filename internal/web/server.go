// Package web serves the prediction form over HTTP, one controller per browser session.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/ChurnPredictor/internal/model"
	"github.com/Alias1177/ChurnPredictor/internal/render"
)

const sessionCookie = "session_id"

//go:embed templates/form.html
var templateFS embed.FS

var formTemplate = template.Must(template.ParseFS(templateFS, "templates/form.html"))

type page struct {
	View   render.View
	Alerts []string
}

// Server renders the form and accepts submissions
type Server struct {
	store  *SessionStore
	opts   render.Options
	logger zerolog.Logger
}

// NewServer creates a form server on top of a session store
func NewServer(store *SessionStore, opts render.Options) *Server {
	return &Server{
		store:  store,
		opts:   opts,
		logger: log.With().Str("component", "web").Logger(),
	}
}

// Routes returns the HTTP handler for the form
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/", s.showForm)
	r.Post("/", s.submitForm)
	r.Get("/healthz", s.health)
	return r
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) *Session {
	var id string
	if c, err := r.Cookie(sessionCookie); err == nil {
		id = c.Value
	}
	sess, created := s.store.Get(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}

func (s *Server) showForm(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	p := page{
		View:   render.Render(sess.Ctrl.State(), s.opts),
		Alerts: sess.TakeAlerts(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := formTemplate.Execute(w, p); err != nil {
		s.logger.Error().Err(err).Msg("Error rendering form")
	}
}

func (s *Server) submitForm(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}
	for _, f := range model.Fields {
		if vals, ok := r.PostForm[string(f)]; ok && len(vals) > 0 {
			if err := sess.Ctrl.SetValue(f, vals[0]); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}
	}

	// the scoring call outlives this request
	if _, started := sess.Ctrl.Start(context.WithoutCancel(r.Context())); !started {
		s.logger.Debug().Str("session_id", sess.ID).Msg("Submission ignored, prediction already pending")
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
