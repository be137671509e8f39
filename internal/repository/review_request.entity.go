package repository

import (
	"time"

	"github.com/nimasrn/review-runner/internal/model"
	"github.com/nimasrn/review-runner/pkg/pg"
)

type ReviewRequestEntity struct {
	pg.Model
	BusinessID        string     `gorm:"column:business_id;not null;index"`
	CustomerID        string     `gorm:"column:customer_id;not null;index"`
	Channel           string     `gorm:"column:channel;not null"`
	Status            string     `gorm:"column:status;not null;index"`
	ProviderMessageID string     `gorm:"column:provider_message_id;index"`
	FailureReason     string     `gorm:"column:failure_reason"`
	SentAt            *time.Time `gorm:"column:sent_at"`
	DeliveredAt       *time.Time `gorm:"column:delivered_at"`
	ClickedAt         *time.Time `gorm:"column:clicked_at"`
}

func (ReviewRequestEntity) TableName() string {
	return "review_requests"
}

func toReviewRequestEntity(r *model.ReviewRequest) *ReviewRequestEntity {
	if r == nil {
		return nil
	}
	return &ReviewRequestEntity{
		Model:             pg.Model{ID: r.ID, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt},
		BusinessID:        r.BusinessID,
		CustomerID:        r.CustomerID,
		Channel:           string(r.Channel),
		Status:            string(r.Status),
		ProviderMessageID: r.ProviderMessageID,
		FailureReason:     r.FailureReason,
		SentAt:            r.SentAt,
		DeliveredAt:       r.DeliveredAt,
		ClickedAt:         r.ClickedAt,
	}
}

func toReviewRequestModel(e *ReviewRequestEntity) *model.ReviewRequest {
	if e == nil {
		return nil
	}
	return &model.ReviewRequest{
		ID:                e.ID,
		BusinessID:        e.BusinessID,
		CustomerID:        e.CustomerID,
		Channel:           model.Channel(e.Channel),
		Status:            model.ReviewRequestStatus(e.Status),
		ProviderMessageID: e.ProviderMessageID,
		FailureReason:     e.FailureReason,
		SentAt:            e.SentAt,
		DeliveredAt:       e.DeliveredAt,
		ClickedAt:         e.ClickedAt,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
	}
}

func toReviewRequestModels(entities []*ReviewRequestEntity) []*model.ReviewRequest {
	models := make([]*model.ReviewRequest, len(entities))
	for i, e := range entities {
		models[i] = toReviewRequestModel(e)
	}
	return models
}
