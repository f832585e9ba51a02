package store

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/alfaphoenix/notio/internal/models"
)

// LinkTelegram binds telegramID to userID, replacing any previous binding.
func (s *Store) LinkTelegram(ctx context.Context, telegramID int64, userID uint) error {
	link := models.TelegramLink{TelegramID: telegramID, UserID: userID}
	return s.db.WithContext(ctx).
		Omit("User").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "telegram_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id"}),
		}).
		Create(&link).Error
}

// TelegramUser returns the user bound to telegramID.
func (s *Store) TelegramUser(ctx context.Context, telegramID int64) (models.User, error) {
	var link models.TelegramLink
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("telegram_id = ?", telegramID).
		First(&link).Error
	if err != nil {
		return models.User{}, translate(err)
	}
	return link.User, nil
}
