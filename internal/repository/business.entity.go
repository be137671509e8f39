package repository

import (
	"github.com/nimasrn/review-runner/internal/model"
	"github.com/nimasrn/review-runner/pkg/pg"
	"gorm.io/datatypes"
)

type BusinessEntity struct {
	pg.Model
	Name       string            `gorm:"column:name;not null"`
	PlaceID    string            `gorm:"column:place_id;not null;index"`
	Address    string            `gorm:"column:address"`
	Phone      string            `gorm:"column:phone"`
	Website    string            `gorm:"column:website"`
	IsActive   bool              `gorm:"column:is_active;not null;default:true"`
	Settings   datatypes.JSONMap `gorm:"column:settings"`
	SmsUsed    int               `gorm:"column:sms_used;not null;default:0"`
	SmsLimit   int               `gorm:"column:sms_limit;not null;default:0"`
	EmailUsed  int               `gorm:"column:email_used;not null;default:0"`
	EmailLimit int               `gorm:"column:email_limit;not null;default:0"`
}

func (BusinessEntity) TableName() string {
	return "businesses"
}

func toBusinessEntity(b *model.Business) *BusinessEntity {
	if b == nil {
		return nil
	}
	return &BusinessEntity{
		Model:      pg.Model{ID: b.ID, CreatedAt: b.CreatedAt, UpdatedAt: b.UpdatedAt},
		Name:       b.Name,
		PlaceID:    b.PlaceID,
		Address:    b.Address,
		Phone:      b.Phone,
		Website:    b.Website,
		IsActive:   b.IsActive,
		Settings:   datatypes.JSONMap(b.Settings),
		SmsUsed:    b.SmsUsed,
		SmsLimit:   b.SmsLimit,
		EmailUsed:  b.EmailUsed,
		EmailLimit: b.EmailLimit,
	}
}

func toBusinessModel(e *BusinessEntity) *model.Business {
	if e == nil {
		return nil
	}
	settings := map[string]any(e.Settings)
	if settings == nil {
		settings = map[string]any{}
	}
	return &model.Business{
		ID:         e.ID,
		Name:       e.Name,
		PlaceID:    e.PlaceID,
		Address:    e.Address,
		Phone:      e.Phone,
		Website:    e.Website,
		IsActive:   e.IsActive,
		Settings:   settings,
		SmsUsed:    e.SmsUsed,
		SmsLimit:   e.SmsLimit,
		EmailUsed:  e.EmailUsed,
		EmailLimit: e.EmailLimit,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

func toBusinessModels(entities []*BusinessEntity) []*model.Business {
	models := make([]*model.Business, len(entities))
	for i, e := range entities {
		models[i] = toBusinessModel(e)
	}
	return models
}
