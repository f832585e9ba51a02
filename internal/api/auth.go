package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/alfaphoenix/notio/internal/auth"
	"github.com/alfaphoenix/notio/internal/errs"
	"github.com/alfaphoenix/notio/internal/models"
)

// actorHandler is a handler that runs for an authenticated user.
type actorHandler func(w http.ResponseWriter, r *http.Request, actor models.Identity)

// authenticated resolves the acting user from a bearer token or, failing
// that, from the session cookie. Unauthenticated requests get 401.
func (a *API) authenticated(next actorHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := a.currentUser(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		next(w, r, models.IdentityOf(user))
	})
}

// currentUser returns the user behind the request's credentials.
func (a *API) currentUser(r *http.Request) (models.User, error) {
	if raw, ok := bearerToken(r); ok {
		claims, err := a.tokens.Validate(r.Context(), raw)
		if err != nil {
			return models.User{}, err
		}
		return a.users.User(r.Context(), claims.UserID)
	}
	return a.sessions.Resolve(r.Context(), r)
}

// bearerToken returns the token of an "Authorization: Bearer" header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// handleRegister creates an account.
func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload registerRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := a.users.Register(r.Context(), auth.RegisterParams(payload)); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, "User registered successfully")
}

// handleLogin checks credentials and starts a cookie session.
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	user, ok := a.checkCredentials(w, r)
	if !ok {
		return
	}
	if _, err := a.sessions.Start(r.Context(), w, user); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Login successful")
}

// handleToken checks credentials and issues a bearer token.
func (a *API) handleToken(w http.ResponseWriter, r *http.Request) {
	user, ok := a.checkCredentials(w, r)
	if !ok {
		return
	}
	token, expires, err := a.tokens.Issue(user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "Bearer", ExpiresAt: expires})
}

// checkCredentials decodes a username and password and authenticates them.
// It writes the error response itself and reports false on failure.
func (a *API) checkCredentials(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	var payload credentialsRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return models.User{}, false
	}
	if payload.Username == "" || payload.Password == "" {
		writeError(w, r, errs.Invalid("username and password are required"))
		return models.User{}, false
	}
	user, err := a.users.Authenticate(r.Context(), payload.Username, payload.Password)
	if err != nil {
		writeError(w, r, err)
		return models.User{}, false
	}
	return user, true
}

// handleLogout revokes the bearer token or ends the cookie session.
func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if raw, ok := bearerToken(r); ok {
		claims, err := a.tokens.Validate(r.Context(), raw)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := a.tokens.Revoke(r.Context(), claims); err != nil {
			writeError(w, r, err)
			return
		}
		writeMessage(w, http.StatusOK, "Logged out successfully")
		return
	}

	if _, err := a.sessions.Resolve(r.Context(), r); err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.sessions.End(r.Context(), w, r); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Logged out successfully")
}

// handleSession reports who is logged in.
func (a *API) handleSession(w http.ResponseWriter, r *http.Request, actor models.Identity) {
	writeJSON(w, http.StatusOK, map[string]any{"authenticated": true, "username": actor.Username})
}
