package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"

	"github.com/alfaphoenix/notio/internal/errs"
	"github.com/alfaphoenix/notio/internal/models"
	"github.com/alfaphoenix/notio/internal/store"
)

// SessionCookie is the name of the login cookie.
const SessionCookie = "notio_session"

// SessionConfig configures cookie sessions.
type SessionConfig struct {
	HashKey  []byte
	BlockKey []byte
	TTL      time.Duration
	Secure   bool
}

// Sessions keeps cookie logins. The cookie carries a signed random token that
// names a Session row.
type Sessions struct {
	store  *store.Store
	codec  *securecookie.SecureCookie
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewSessions creates cookie sessions backed by st. Empty keys are replaced
// by random ones, which invalidates cookies on restart.
func NewSessions(st *store.Store, cfg SessionConfig) *Sessions {
	hashKey := cfg.HashKey
	if len(hashKey) == 0 {
		hashKey = securecookie.GenerateRandomKey(64)
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	codec := securecookie.New(hashKey, cfg.BlockKey)
	codec.MaxAge(int(ttl / time.Second))
	return &Sessions{store: st, codec: codec, ttl: ttl, secure: cfg.Secure, now: time.Now}
}

// Start opens a session for user and sets its cookie on w.
func (s *Sessions) Start(ctx context.Context, w http.ResponseWriter, user models.User) (models.Session, error) {
	now := s.now()
	session := models.Session{
		UserID:    user.ID,
		Token:     base64.RawURLEncoding.EncodeToString(securecookie.GenerateRandomKey(32)),
		StartedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.CreateSession(ctx, &session); err != nil {
		return models.Session{}, err
	}

	encoded, err := s.codec.Encode(SessionCookie, session.Token)
	if err != nil {
		return models.Session{}, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    encoded,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return session, nil
}

// Resolve returns the user of the session cookie on r.
func (s *Sessions) Resolve(ctx context.Context, r *http.Request) (models.User, error) {
	token, err := s.token(r)
	if err != nil {
		return models.User{}, err
	}
	session, err := s.store.SessionByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.User{}, errs.Unauthenticated("session not found")
		}
		return models.User{}, err
	}
	if !session.Active(s.now()) {
		return models.User{}, errs.Unauthenticated("session expired")
	}
	return session.User, nil
}

// End closes the session of the cookie on r, if any, and clears the cookie.
func (s *Sessions) End(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
	})

	token, err := s.token(r)
	if err != nil {
		return nil
	}
	_, err = s.store.EndSession(ctx, token, s.now())
	return err
}

// token decodes the session token from the cookie on r.
func (s *Sessions) token(r *http.Request) (string, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return "", errs.Unauthenticated("authentication required")
	}
	var token string
	if err := s.codec.Decode(SessionCookie, cookie.Value, &token); err != nil {
		return "", errs.Unauthenticated("invalid session cookie")
	}
	return token, nil
}
