package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"confd/internal/models"
)

type ExtensionStore struct{ db *gorm.DB }

func NewExtensionStore(db *gorm.DB) *ExtensionStore { return &ExtensionStore{db: db} }

// FindFeature looks up the feature code extension with the given typeval.
func (s *ExtensionStore) FindFeature(ctx context.Context, typeval string) (*models.Extension, error) {
	return s.FindByType(ctx, models.ExtensionTypeFeatures, typeval)
}

// FindByType returns the active extension of the given type and typeval.
// Commented extensions are skipped.
func (s *ExtensionStore) FindByType(ctx context.Context, typ, typeval string) (*models.Extension, error) {
	var e models.Extension
	err := s.db.WithContext(ctx).
		Where("type = ? AND typeval = ? AND commented = ?", typ, typeval, 0).
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// MainExtensionForUser follows the main line of the user to its main extension.
func (s *ExtensionStore) MainExtensionForUser(ctx context.Context, userID uint) (*models.Extension, error) {
	var e models.Extension
	err := s.db.WithContext(ctx).
		Joins("JOIN line_extension ON line_extension.extension_id = extensions.id AND line_extension.main_extension = ?", true).
		Joins("JOIN user_line ON user_line.line_id = line_extension.line_id AND user_line.main_line = ?", true).
		Where("user_line.user_id = ?", userID).
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}
