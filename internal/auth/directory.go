package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/asaskevich/govalidator"

	"github.com/alfaphoenix/notio/internal/errs"
	"github.com/alfaphoenix/notio/internal/models"
	"github.com/alfaphoenix/notio/internal/store"
)

// ErrInvalidCredentials is returned when a username and password do not match.
var ErrInvalidCredentials = errs.Unauthenticated("invalid credentials")

// Directory registers and authenticates users.
type Directory struct {
	store *store.Store
}

// NewDirectory creates a user directory backed by st.
func NewDirectory(st *store.Store) *Directory {
	return &Directory{store: st}
}

// RegisterParams holds the fields of a new account.
type RegisterParams struct {
	Username string
	Email    string
	Password string
}

// Register creates an account. Usernames and emails are unique.
func (d *Directory) Register(ctx context.Context, params RegisterParams) (models.User, error) {
	username := strings.TrimSpace(params.Username)
	email := strings.TrimSpace(params.Email)
	if username == "" || email == "" || params.Password == "" {
		return models.User{}, errs.Invalid("username, password, and email are required")
	}
	if !govalidator.IsEmail(email) {
		return models.User{}, errs.Invalid("email %q is not a valid address", email)
	}

	hash, err := HashPassword(params.Password)
	if err != nil {
		return models.User{}, err
	}
	user := models.User{Username: username, Email: email, PasswordHash: hash}
	if err := d.store.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return models.User{}, errs.Conflict("username or email already taken")
		}
		return models.User{}, err
	}
	return user, nil
}

// Authenticate returns the user with username if password matches.
func (d *Directory) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	user, err := d.store.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// User returns the user with id.
func (d *Directory) User(ctx context.Context, id uint) (models.User, error) {
	user, err := d.store.UserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, errs.Unauthenticated("user not found")
	}
	return user, err
}

// FindByEmail returns the user registered with email.
func (d *Directory) FindByEmail(ctx context.Context, email string) (models.User, error) {
	user, err := d.store.UserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, errs.NotFound("user with email %s does not exist", email)
	}
	return user, err
}
