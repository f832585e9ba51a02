package store

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/alfaphoenix/notio/internal/models"
)

// UpsertShare creates the grant for (note, shared user) or, when one exists,
// overwrites its permission and sharing time. grant is reloaded from the
// stored row.
func (s *Store) UpsertShare(ctx context.Context, grant *models.ShareGrant) error {
	err := s.db.WithContext(ctx).
		Omit("Note", "SharedUser").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "note_id"}, {Name: "shared_user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"permission", "shared_at"}),
		}).
		Create(grant).Error
	if err != nil {
		return translate(err)
	}

	stored, err := s.Share(ctx, grant.NoteID, grant.SharedUserID)
	if err != nil {
		return err
	}
	*grant = stored
	return nil
}

// Share returns the grant of noteID to userID.
func (s *Store) Share(ctx context.Context, noteID, userID uint) (models.ShareGrant, error) {
	var grant models.ShareGrant
	err := s.db.WithContext(ctx).
		Where("note_id = ? AND shared_user_id = ?", noteID, userID).
		First(&grant).Error
	if err != nil {
		return models.ShareGrant{}, translate(err)
	}
	return grant, nil
}

// SharesForUser returns every grant targeting userID with the shared note,
// its tags and its owner loaded.
func (s *Store) SharesForUser(ctx context.Context, userID uint) ([]models.ShareGrant, error) {
	var grants []models.ShareGrant
	err := s.db.WithContext(ctx).
		Preload("Note.Tags", orderTags).
		Preload("Note.Owner").
		Where("shared_user_id = ?", userID).
		Order("shared_at desc, id desc").
		Find(&grants).Error
	if err != nil {
		return nil, err
	}
	return grants, nil
}

// DeleteShare removes the grant of noteID to userID. It reports false when
// there was none.
func (s *Store) DeleteShare(ctx context.Context, noteID, userID uint) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("note_id = ? AND shared_user_id = ?", noteID, userID).
		Delete(&models.ShareGrant{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
