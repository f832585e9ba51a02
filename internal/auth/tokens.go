package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/alfaphoenix/notio/internal/errs"
	"github.com/alfaphoenix/notio/internal/models"
)

// Claims is the payload of an access token.
type Claims struct {
	UserID   uint   `json:"uid"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Tokens issues and validates HS256 access tokens.
type Tokens struct {
	secret   []byte
	ttl      time.Duration
	denylist Denylist
	now      func() time.Time
}

// NewTokens creates a token issuer signing with secret. Revoked token ids are
// kept in denylist.
func NewTokens(secret []byte, ttl time.Duration, denylist Denylist) (*Tokens, error) {
	if len(secret) == 0 {
		return nil, errors.New("JWT_SECRET is not set")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	if denylist == nil {
		denylist = NewMemoryDenylist()
	}
	return &Tokens{secret: secret, ttl: ttl, denylist: denylist, now: time.Now}, nil
}

// Issue signs a token for user and returns it with its expiry.
func (t *Tokens) Issue(user models.User) (string, time.Time, error) {
	now := t.now()
	expires := now.Add(t.ttl)
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprint(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// Validate parses tokenString and rejects bad signatures, expired tokens and
// revoked ones.
func (t *Tokens) Validate(ctx context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, errs.Unauthenticated("invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errs.Unauthenticated("invalid token")
	}

	revoked, err := t.denylist.Contains(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check token denylist: %w", err)
	}
	if revoked {
		return nil, errs.Unauthenticated("token revoked")
	}
	return claims, nil
}

// Revoke denies claims' token until it expires.
func (t *Tokens) Revoke(ctx context.Context, claims *Claims) error {
	until := t.now().Add(t.ttl)
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	return t.denylist.Add(ctx, claims.ID, until)
}
