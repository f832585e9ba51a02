package store

import (
	"context"

	"github.com/alfaphoenix/notio/internal/models"
)

// CreateUser saves a new user. Duplicate usernames or emails yield ErrConflict.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

// UserByID returns the user with id.
func (s *Store) UserByID(ctx context.Context, id uint) (models.User, error) {
	return s.userWhere(ctx, "id = ?", id)
}

// UserByEmail returns the user registered with email.
func (s *Store) UserByEmail(ctx context.Context, email string) (models.User, error) {
	return s.userWhere(ctx, "email = ?", email)
}

// UserByUsername returns the user with username.
func (s *Store) UserByUsername(ctx context.Context, username string) (models.User, error) {
	return s.userWhere(ctx, "username = ?", username)
}

// userWhere returns the first user matching query.
func (s *Store) userWhere(ctx context.Context, query string, arg any) (models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		return models.User{}, translate(err)
	}
	return user, nil
}
