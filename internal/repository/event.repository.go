package repository

import (
	"context"

	"github.com/nimasrn/review-runner/internal/model"
	"github.com/nimasrn/review-runner/pkg/id"
	"github.com/nimasrn/review-runner/pkg/pg"
)

type EventRepository struct {
	*pg.DB
}

func NewEventRepository(db *pg.DB) *EventRepository {
	return &EventRepository{
		db,
	}
}

func (r *EventRepository) Append(ctx context.Context, e *model.Event) error {
	entity := &EventEntity{
		ID:              id.New(),
		BusinessID:      e.BusinessID,
		ReviewRequestID: e.ReviewRequestID,
		Type:            string(e.Type),
		Detail:          e.Detail,
	}
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return err
	}
	e.ID = entity.ID
	e.CreatedAt = entity.CreatedAt
	return nil
}

func (r *EventRepository) ListForRequest(ctx context.Context, businessID, reviewRequestID string) ([]*model.Event, error) {
	var entities []*EventEntity
	err := r.Read(ctx).
		Where("business_id = ? AND review_request_id = ?", businessID, reviewRequestID).
		Order("id ASC").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	events := make([]*model.Event, len(entities))
	for i, e := range entities {
		events[i] = toEventModel(e)
	}
	return events, nil
}
