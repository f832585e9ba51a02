package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/alfaphoenix/notio/internal/auth"
	"github.com/alfaphoenix/notio/internal/errs"
	"github.com/alfaphoenix/notio/internal/notes"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services the API is built on.
type Deps struct {
	Notes    *notes.Service
	Users    *auth.Directory
	Sessions *auth.Sessions
	Tokens   *auth.Tokens
	// Health is pinged by GET /health. Nil skips the check.
	Health  Pinger
	Metrics *Metrics
	Logger  zerolog.Logger
}

// API serves the notes HTTP API.
type API struct {
	notes    *notes.Service
	users    *auth.Directory
	sessions *auth.Sessions
	tokens   *auth.Tokens
	health   Pinger
	metrics  *Metrics
	log      zerolog.Logger
}

// NewAPI creates the API from deps.
func NewAPI(deps Deps) *API {
	metrics := deps.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &API{
		notes:    deps.Notes,
		users:    deps.Users,
		sessions: deps.Sessions,
		tokens:   deps.Tokens,
		health:   deps.Health,
		metrics:  metrics,
		log:      deps.Logger,
	}
}

// Handler returns an http.Handler with every route of the API.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/register", a.handleRegister)
	mux.HandleFunc("POST /auth/login", a.handleLogin)
	mux.HandleFunc("POST /auth/token", a.handleToken)
	mux.HandleFunc("POST /auth/logout", a.handleLogout)
	mux.Handle("GET /auth/session", a.authenticated(a.handleSession))

	mux.Handle("GET /notes", a.authenticated(a.handleListNotes))
	mux.Handle("POST /notes", a.authenticated(a.handleCreateNote))
	mux.Handle("PATCH /notes/{id}", a.authenticated(a.handleEditNote))
	mux.Handle("DELETE /notes/{id}", a.authenticated(a.handleDeleteNote))
	mux.Handle("POST /notes/share", a.authenticated(a.handleShare))
	mux.Handle("DELETE /notes/share", a.authenticated(a.handleUnshare))
	mux.Handle("GET /notes/shared", a.authenticated(a.handleListShared))
	mux.Handle("PATCH /notes/shared/{id}", a.authenticated(a.handleEditShared))

	mux.Handle("GET /metrics", a.metrics.Handler())
	mux.HandleFunc("GET /health", a.handleHealth)

	return RequestID(a.log, AccessLog(a.metrics.Wrap(mux)))
}

// handleHealth reports whether the database answers.
func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if a.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.health.Ping(ctx); err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// pathID extracts a positive note id from the {id} path segment.
func pathID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errs.Invalid("invalid id")
	}
	return uint(id), nil
}
