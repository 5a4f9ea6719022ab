package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"confd/internal/models"
)

type UserStore struct{ db *gorm.DB }

func NewUserStore(db *gorm.DB) *UserStore { return &UserStore{db: db} }

func (s *UserStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

type RegistrarStore struct{ db *gorm.DB }

func NewRegistrarStore(db *gorm.DB) *RegistrarStore { return &RegistrarStore{db: db} }

func (s *RegistrarStore) GetRegistrar(ctx context.Context, id string) (*models.Registrar, error) {
	var r models.Registrar
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}
