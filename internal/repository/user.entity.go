package repository

import (
	"github.com/nimasrn/review-runner/internal/model"
	"github.com/nimasrn/review-runner/pkg/pg"
)

type UserEntity struct {
	pg.Model
	ProviderUserID string  `gorm:"column:provider_user_id;not null;uniqueIndex"`
	Email          string  `gorm:"column:email;not null"`
	Name           string  `gorm:"column:name"`
	BusinessID     *string `gorm:"column:business_id;index"`
}

func (UserEntity) TableName() string {
	return "users"
}

func toUserEntity(u *model.User) *UserEntity {
	if u == nil {
		return nil
	}
	return &UserEntity{
		Model:          pg.Model{ID: u.ID, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt},
		ProviderUserID: u.ProviderUserID,
		Email:          u.Email,
		Name:           u.Name,
		BusinessID:     u.BusinessID,
	}
}

func toUserModel(e *UserEntity) *model.User {
	if e == nil {
		return nil
	}
	return &model.User{
		ID:             e.ID,
		ProviderUserID: e.ProviderUserID,
		Email:          e.Email,
		Name:           e.Name,
		BusinessID:     e.BusinessID,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}
