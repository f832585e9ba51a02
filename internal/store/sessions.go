package store

import (
	"context"
	"time"

	"github.com/alfaphoenix/notio/internal/models"
)

// CreateSession saves a new login session.
func (s *Store) CreateSession(ctx context.Context, session *models.Session) error {
	return translate(s.db.WithContext(ctx).Omit("User").Create(session).Error)
}

// SessionByToken returns the session with token and its user.
func (s *Store) SessionByToken(ctx context.Context, token string) (models.Session, error) {
	var session models.Session
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("token = ?", token).
		First(&session).Error
	if err != nil {
		return models.Session{}, translate(err)
	}
	return session, nil
}

// EndSession marks the session with token as ended at at. It reports false
// when there is no open session with that token.
func (s *Store) EndSession(ctx context.Context, token string, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("token = ? AND ended_at IS NULL", token).
		Update("ended_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
