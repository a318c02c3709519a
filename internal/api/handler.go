package api

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"medshop/m/internal/config"
	"medshop/m/internal/dashboard"
	"medshop/m/internal/database"
	"medshop/m/internal/registration"
	"medshop/m/internal/repository"
)

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	cfg       *config.Config
	store     *repository.Store
	workflow  *registration.Workflow
	dashboard *dashboard.Service
	logger    *zap.Logger
	views     map[string]*template.Template
}

// New constructs a Handler and parses the page templates.
func New(cfg *config.Config, store *repository.Store, workflow *registration.Workflow, dash *dashboard.Service, logger *zap.Logger) (*Handler, error) {
	views, err := parseViews()
	if err != nil {
		return nil, err
	}
	return &Handler{
		cfg:       cfg,
		store:     store,
		workflow:  workflow,
		dashboard: dash,
		logger:    logger,
		views:     views,
	}, nil
}

// Router wires up the pages, the exports and the JSON feed.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)
	r.Get("/login", h.loginPage)
	r.Post("/login", h.login)
	r.Get("/logout", h.logout)
	r.Post("/logout", h.logout)

	r.Group(func(pr chi.Router) {
		pr.Use(h.requireStaff)

		pr.Get("/", h.dashboardPage)
		pr.Route("/patients", func(r chi.Router) {
			r.Get("/new", h.newPatientPage)
			r.Post("/new", h.createPatient)
			r.Get("/search", h.searchPage)
			r.Get("/search.xlsx", h.exportSearch)
		})
		pr.Get("/reminders/today.xlsx", h.exportReminders)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: h.cfg.AllowedOrigins(),
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
			MaxAge:         300,
		}))
		r.Post("/token", h.issueToken)
		r.Group(func(pr chi.Router) {
			pr.Use(h.authMiddleware)
			pr.Get("/reminders", h.apiReminders)
			pr.Get("/patients", h.apiPatients)
			pr.Get("/medicines", h.apiMedicines)
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			h.logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

// serverError logs err and shows the error page. A dead store gets 503.
func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	status := http.StatusInternalServerError
	var connErr *database.ConnectivityError
	if errors.As(err, &connErr) {
		status = http.StatusServiceUnavailable
	}
	h.render(w, status, "error", page{Title: "Something went wrong", Error: err.Error()})
}

// Helpers
func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
