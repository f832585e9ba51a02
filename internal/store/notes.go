package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/alfaphoenix/notio/internal/models"
)

// NotePatch describes a partial note update. Nil fields keep their value.
type NotePatch struct {
	Title   *string
	Content *string
	// Tags replaces the note's tags when ReplaceTags is set.
	Tags        []string
	ReplaceTags bool
	ModifiedAt  time.Time

	// OwnerID, when set, requires the note to belong to that user.
	OwnerID uint
	// EditorID, when set, requires an edit grant for that user. The grant is
	// read and locked in the same transaction as the write.
	EditorID uint
}

// CreateNote saves note and attaches the tags named by tagNames.
func (s *Store) CreateNote(ctx context.Context, note *models.Note, tagNames []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := ensureTags(tx, tagNames)
		if err != nil {
			return err
		}
		note.Tags = tags
		if err := tx.Omit("Owner").Create(note).Error; err != nil {
			return translate(err)
		}
		return nil
	})
}

// NotesByOwner returns the owner's notes, newest first.
func (s *Store) NotesByOwner(ctx context.Context, ownerID uint) ([]models.Note, error) {
	var notes []models.Note
	err := s.db.WithContext(ctx).
		Preload("Tags", orderTags).
		Where("owner_id = ?", ownerID).
		Order("created_at desc, id desc").
		Find(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}

// NoteByOwner returns the note with id if ownerID owns it.
func (s *Store) NoteByOwner(ctx context.Context, ownerID, id uint) (models.Note, error) {
	var note models.Note
	err := s.db.WithContext(ctx).
		Preload("Tags", orderTags).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&note).Error
	if err != nil {
		return models.Note{}, translate(err)
	}
	return note, nil
}

// Note returns the note with id together with its owner and tags.
func (s *Store) Note(ctx context.Context, id uint) (models.Note, error) {
	var note models.Note
	err := s.db.WithContext(ctx).
		Preload("Tags", orderTags).
		Preload("Owner").
		First(&note, id).Error
	if err != nil {
		return models.Note{}, translate(err)
	}
	return note, nil
}

// UpdateNote applies patch to the note with id in a single transaction.
// The owner is never touched. It returns ErrNotFound when the note, or the
// grant required by patch.EditorID, does not exist and ErrNotEditable when
// that grant only allows viewing.
func (s *Store) UpdateNote(ctx context.Context, id uint, patch NotePatch) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkEditable(tx, id, patch); err != nil {
			return err
		}

		if patch.ReplaceTags {
			tags, err := ensureTags(tx, patch.Tags)
			if err != nil {
				return err
			}
			assoc := tx.Model(&models.Note{ID: id}).Association("Tags")
			if len(tags) == 0 {
				err = assoc.Clear()
			} else {
				err = assoc.Replace(tags)
			}
			if err != nil {
				return translate(err)
			}
		}

		// Columns go last so the association write cannot overwrite updated_at.
		updates := map[string]any{"updated_at": patch.ModifiedAt}
		if patch.Title != nil {
			updates["title"] = *patch.Title
		}
		if patch.Content != nil {
			updates["content"] = *patch.Content
		}
		res := tx.Model(&models.Note{ID: id}).Updates(updates)
		if res.Error != nil {
			return translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// checkEditable verifies inside tx that the note exists and that the
// ownership or grant named by patch holds.
func checkEditable(tx *gorm.DB, id uint, patch NotePatch) error {
	query := tx.Model(&models.Note{}).Where("id = ?", id)
	if patch.OwnerID != 0 {
		query = query.Where("owner_id = ?", patch.OwnerID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}

	if patch.EditorID == 0 {
		return nil
	}
	var grant models.ShareGrant
	err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
		Where("note_id = ? AND shared_user_id = ?", id, patch.EditorID).
		First(&grant).Error
	if err != nil {
		return translate(err)
	}
	if !grant.Permission.CanEdit() {
		return ErrNotEditable
	}
	return nil
}

// DeleteNote removes the owner's note along with its tag associations and
// share grants. It reports false when no such note exists.
func (s *Store) DeleteNote(ctx context.Context, ownerID, id uint) (bool, error) {
	deleted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var note models.Note
		err := tx.Where("id = ? AND owner_id = ?", id, ownerID).First(&note).Error
		if err != nil {
			if errors.Is(translate(err), ErrNotFound) {
				return nil
			}
			return err
		}

		if err := tx.Model(&note).Association("Tags").Clear(); err != nil {
			return err
		}
		if err := tx.Where("note_id = ?", note.ID).Delete(&models.ShareGrant{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&note).Error; err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// orderTags sorts preloaded tags by creation.
func orderTags(db *gorm.DB) *gorm.DB {
	return db.Order("tags.id asc")
}
