package store

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/alfaphoenix/notio/internal/models"
)

// ensureTags inserts names that do not exist yet and reads all of them back.
// A concurrent insert of the same name is absorbed by ON CONFLICT DO NOTHING,
// so both callers end up with the one stored row.
func ensureTags(tx *gorm.DB, names []string) ([]models.Tag, error) {
	if len(names) == 0 {
		return nil, nil
	}

	fresh := make([]models.Tag, 0, len(names))
	for _, name := range names {
		fresh = append(fresh, models.Tag{Name: name})
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&fresh).Error
	if err != nil {
		return nil, translate(err)
	}

	var tags []models.Tag
	if err := tx.Where("name IN ?", names).Order("id asc").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}
