package repository

import (
	"context"

	"github.com/nimasrn/review-runner/internal/model"
	"github.com/nimasrn/review-runner/pkg/pg"
)

type CustomerRepository struct {
	*pg.DB
}

func NewCustomerRepository(db *pg.DB) *CustomerRepository {
	return &CustomerRepository{
		db,
	}
}

func (r *CustomerRepository) Create(ctx context.Context, c *model.Customer) (*model.Customer, error) {
	entity := toCustomerEntity(c)
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toCustomerModel(entity), nil
}

func (r *CustomerRepository) List(ctx context.Context, businessID string, f model.CustomerFilter) ([]*model.Customer, int64, error) {
	page := f.Page.Normalize()
	q := r.Read(ctx).Model(&CustomerEntity{}).Where("business_id = ?", businessID)
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("name LIKE ? OR email LIKE ? OR phone LIKE ?", like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entities []*CustomerEntity
	if err := q.Order("created_at DESC").Limit(page.Limit).Offset(page.Offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}
	return toCustomerModels(entities), total, nil
}

// GetByIDs returns the customers among ids that belong to businessID.
func (r *CustomerRepository) GetByIDs(ctx context.Context, businessID string, ids []string) ([]*model.Customer, error) {
	var entities []*CustomerEntity
	err := r.Read(ctx).
		Where("business_id = ? AND id IN ?", businessID, ids).
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toCustomerModels(entities), nil
}

func (r *CustomerRepository) GetByID(ctx context.Context, businessID, id string) (*model.Customer, error) {
	found, err := r.GetByIDs(ctx, businessID, []string{id})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, ErrNotFound
	}
	return found[0], nil
}

func (r *CustomerRepository) Count(ctx context.Context, businessID string) (int64, error) {
	var total int64
	err := r.Read(ctx).Model(&CustomerEntity{}).Where("business_id = ?", businessID).Count(&total).Error
	return total, err
}

// ExistsByContact reports whether a customer with the same email or phone is
// already stored for the business.
func (r *CustomerRepository) ExistsByContact(ctx context.Context, businessID, email, phone string) (bool, error) {
	if email == "" && phone == "" {
		return false, nil
	}
	q := r.Read(ctx).Model(&CustomerEntity{}).Where("business_id = ?", businessID)
	switch {
	case email != "" && phone != "":
		q = q.Where("email = ? OR phone = ?", email, phone)
	case email != "":
		q = q.Where("email = ?", email)
	default:
		q = q.Where("phone = ?", phone)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
