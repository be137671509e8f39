package repository

import (
	"context"

	"github.com/nimasrn/review-runner/internal/model"
	"github.com/nimasrn/review-runner/pkg/pg"
	"gorm.io/gorm/clause"
)

type SuppressionRepository struct {
	*pg.DB
}

func NewSuppressionRepository(db *pg.DB) *SuppressionRepository {
	return &SuppressionRepository{
		db,
	}
}

// Add is idempotent per business, channel and contact.
func (r *SuppressionRepository) Add(ctx context.Context, s *model.Suppression) error {
	entity := &SuppressionEntity{
		BusinessID: s.BusinessID,
		Channel:    string(s.Channel),
		Contact:    s.Contact,
		Reason:     s.Reason,
	}
	return r.Write(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(entity).Error
}

func (r *SuppressionRepository) IsSuppressed(ctx context.Context, businessID string, ch model.Channel, contact string) (bool, error) {
	var n int64
	err := r.Read(ctx).Model(&SuppressionEntity{}).
		Where("business_id = ? AND channel = ? AND contact = ?", businessID, string(ch), contact).
		Count(&n).Error
	return n > 0, err
}

func (r *SuppressionRepository) List(ctx context.Context, businessID string) ([]*model.Suppression, error) {
	var entities []*SuppressionEntity
	if err := r.Read(ctx).Where("business_id = ?", businessID).Order("created_at DESC").Find(&entities).Error; err != nil {
		return nil, err
	}
	out := make([]*model.Suppression, len(entities))
	for i, e := range entities {
		out[i] = toSuppressionModel(e)
	}
	return out, nil
}
