package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"confd/internal/funckey"
	"confd/internal/models"
)

// TemplateStore loads function key templates with their mappings.
type TemplateStore struct{ db *gorm.DB }

func NewTemplateStore(db *gorm.DB) *TemplateStore { return &TemplateStore{db: db} }

func (s *TemplateStore) GetTemplate(ctx context.Context, id uint) (*funckey.Template, error) {
	var m models.FuncKeyTemplate
	err := s.db.WithContext(ctx).
		Preload("Mappings", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Where("id = ?", id).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	tpl, err := funckey.FromModel(m)
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}
