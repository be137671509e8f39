package repository

import (
	"time"

	"github.com/nimasrn/review-runner/internal/model"
	"github.com/nimasrn/review-runner/pkg/pg"
)

// EventEntity rows are never updated.
type EventEntity struct {
	ID              int64     `gorm:"primaryKey;autoIncrement:false;column:id"`
	BusinessID      string    `gorm:"column:business_id;not null;index"`
	ReviewRequestID string    `gorm:"column:review_request_id;not null;index"`
	Type            string    `gorm:"column:type;not null"`
	Detail          string    `gorm:"column:detail"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (EventEntity) TableName() string {
	return "events"
}

func toEventModel(e *EventEntity) *model.Event {
	return &model.Event{
		ID:              e.ID,
		BusinessID:      e.BusinessID,
		ReviewRequestID: e.ReviewRequestID,
		Type:            model.EventType(e.Type),
		Detail:          e.Detail,
		CreatedAt:       e.CreatedAt,
	}
}

type SuppressionEntity struct {
	pg.Model
	BusinessID string `gorm:"column:business_id;not null;uniqueIndex:idx_suppression_contact"`
	Channel    string `gorm:"column:channel;not null;uniqueIndex:idx_suppression_contact"`
	Contact    string `gorm:"column:contact;not null;uniqueIndex:idx_suppression_contact"`
	Reason     string `gorm:"column:reason"`
}

func (SuppressionEntity) TableName() string {
	return "suppressions"
}

func toSuppressionModel(e *SuppressionEntity) *model.Suppression {
	return &model.Suppression{
		ID:         e.ID,
		BusinessID: e.BusinessID,
		Channel:    model.Channel(e.Channel),
		Contact:    e.Contact,
		Reason:     e.Reason,
		CreatedAt:  e.CreatedAt,
	}
}
