package repository

import (
	"context"
	"errors"

	"github.com/nimasrn/review-runner/internal/model"
	"github.com/nimasrn/review-runner/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	*pg.DB
}

func NewUserRepository(db *pg.DB) *UserRepository {
	return &UserRepository{
		db,
	}
}

func (r *UserRepository) GetByProviderID(ctx context.Context, providerUserID string) (*model.User, error) {
	var entity UserEntity
	err := r.Read(ctx).Where("provider_user_id = ?", providerUserID).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toUserModel(&entity), nil
}

func (r *UserRepository) Create(ctx context.Context, u *model.User) (*model.User, error) {
	entity := toUserEntity(u)
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return toUserModel(entity), nil
}

// Upsert inserts the user or refreshes email and name of an existing one.
func (r *UserRepository) Upsert(ctx context.Context, u *model.User) (*model.User, error) {
	entity := toUserEntity(u)
	err := r.Write(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider_user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "name", "updated_at"}),
	}).Create(entity).Error
	if err != nil {
		return nil, err
	}
	return r.GetByProviderID(ctx, u.ProviderUserID)
}

func (r *UserRepository) UpdateName(ctx context.Context, id, name string) error {
	res := r.Write(ctx).Model(&UserEntity{}).Where("id = ?", id).Update("name", name)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// LinkBusiness assigns a business to a user that has none yet.
func (r *UserRepository) LinkBusiness(ctx context.Context, id, businessID string) error {
	res := r.Write(ctx).Model(&UserEntity{}).
		Where("id = ? AND business_id IS NULL", id).
		Update("business_id", businessID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConcurrentUpdate
	}
	return nil
}
