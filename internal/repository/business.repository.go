package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nimasrn/review-runner/internal/model"
	"github.com/nimasrn/review-runner/pkg/pg"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BusinessRepository struct {
	*pg.DB
}

func NewBusinessRepository(db *pg.DB) *BusinessRepository {
	return &BusinessRepository{
		db,
	}
}

func (r *BusinessRepository) Create(ctx context.Context, b *model.Business) (*model.Business, error) {
	entity := toBusinessEntity(b)
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toBusinessModel(entity), nil
}

func (r *BusinessRepository) GetByID(ctx context.Context, id string) (*model.Business, error) {
	var entity BusinessEntity
	err := r.Read(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toBusinessModel(&entity), nil
}

func (r *BusinessRepository) UpdateSettings(ctx context.Context, id string, settings map[string]any) (*model.Business, error) {
	res := r.Write(ctx).Model(&BusinessEntity{}).
		Where("id = ?", id).
		Update("settings", datatypes.JSONMap(settings))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *BusinessRepository) List(ctx context.Context, page model.Page) ([]*model.Business, int64, error) {
	page = page.Normalize()
	q := r.Read(ctx).Model(&BusinessEntity{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entities []*BusinessEntity
	if err := q.Order("created_at DESC").Limit(page.Limit).Offset(page.Offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}
	return toBusinessModels(entities), total, nil
}

// ConsumeCredit increments the usage counter of ch, failing with
// ErrLimitReached when the business has no credit left.
func (r *BusinessRepository) ConsumeCredit(ctx context.Context, id string, ch model.Channel) error {
	const maxRetries = 3
	const baseDelay = 2 * time.Millisecond

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := r.consumeCreditAttempt(ctx, id, ch)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrConcurrentUpdate) {
			return err
		}
		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(baseDelay * time.Duration(1<<attempt)):
			}
		}
	}
	return fmt.Errorf("consume credit for %s: %w", id, ErrConcurrentUpdate)
}

func (r *BusinessRepository) consumeCreditAttempt(ctx context.Context, id string, ch model.Channel) error {
	used, limit := "email_used", "email_limit"
	if ch == model.ChannelSMS {
		used, limit = "sms_used", "sms_limit"
	}

	var entity BusinessEntity
	err := r.Write(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !toBusinessModel(&entity).HasCredit(ch) {
		return ErrLimitReached
	}

	res := r.Write(ctx).Model(&BusinessEntity{}).
		Where("id = ?", id).
		Where(limit+" = 0 OR "+used+" < "+limit).
		Update(used, gorm.Expr(used+" + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConcurrentUpdate
	}
	return nil
}
