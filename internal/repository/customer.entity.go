package repository

import (
	"github.com/nimasrn/review-runner/internal/model"
	"github.com/nimasrn/review-runner/pkg/pg"
)

type CustomerEntity struct {
	pg.Model
	BusinessID string `gorm:"column:business_id;not null;index"`
	Name       string `gorm:"column:name;not null"`
	Email      string `gorm:"column:email;index"`
	Phone      string `gorm:"column:phone;index"`
}

func (CustomerEntity) TableName() string {
	return "customers"
}

func toCustomerEntity(c *model.Customer) *CustomerEntity {
	if c == nil {
		return nil
	}
	return &CustomerEntity{
		Model:      pg.Model{ID: c.ID, CreatedAt: c.CreatedAt},
		BusinessID: c.BusinessID,
		Name:       c.Name,
		Email:      c.Email,
		Phone:      c.Phone,
	}
}

func toCustomerModel(e *CustomerEntity) *model.Customer {
	if e == nil {
		return nil
	}
	return &model.Customer{
		ID:         e.ID,
		BusinessID: e.BusinessID,
		Name:       e.Name,
		Email:      e.Email,
		Phone:      e.Phone,
		CreatedAt:  e.CreatedAt,
	}
}

func toCustomerModels(entities []*CustomerEntity) []*model.Customer {
	models := make([]*model.Customer, len(entities))
	for i, e := range entities {
		models[i] = toCustomerModel(e)
	}
	return models
}
