package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/alfaphoenix/notio/internal/models"
)

// EnsureTags runs ensureTags in its own transaction.
func (s *Store) EnsureTags(ctx context.Context, names []string) ([]models.Tag, error) {
	var tags []models.Tag
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		tags, err = ensureTags(tx, names)
		return err
	})
	return tags, err
}

// Tags lists every tag by name.
func (s *Store) Tags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	err := s.db.WithContext(ctx).Order("name asc").Find(&tags).Error
	return tags, err
}

// SharesForNote returns every grant of noteID.
func (s *Store) SharesForNote(ctx context.Context, noteID uint) ([]models.ShareGrant, error) {
	var grants []models.ShareGrant
	err := s.db.WithContext(ctx).Where("note_id = ?", noteID).Order("id asc").Find(&grants).Error
	return grants, err
}

// NoteTagCount returns how many tag associations the note has.
func (s *Store) NoteTagCount(ctx context.Context, noteID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Table("note_tags").Where("note_id = ?", noteID).Count(&count).Error
	return count, err
}
