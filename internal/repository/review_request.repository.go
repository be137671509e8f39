package repository

import (
	"context"
	"errors"
	"time"

	"github.com/nimasrn/review-runner/internal/model"
	"github.com/nimasrn/review-runner/pkg/pg"
	"gorm.io/gorm"
)

// ReviewRequestRepository never clears a timestamp once set: every
// transition uses COALESCE so concurrent or repeated events stay monotonic.
type ReviewRequestRepository struct {
	*pg.DB
}

func NewReviewRequestRepository(db *pg.DB) *ReviewRequestRepository {
	return &ReviewRequestRepository{
		db,
	}
}

func (r *ReviewRequestRepository) CreateBatch(ctx context.Context, requests []*model.ReviewRequest) ([]*model.ReviewRequest, error) {
	if len(requests) == 0 {
		return nil, nil
	}
	entities := make([]*ReviewRequestEntity, len(requests))
	for i, rr := range requests {
		entities[i] = toReviewRequestEntity(rr)
	}
	if err := r.Write(ctx).Create(&entities).Error; err != nil {
		return nil, err
	}
	return toReviewRequestModels(entities), nil
}

// GetForBusiness loads a review request only if it belongs to businessID.
func (r *ReviewRequestRepository) GetForBusiness(ctx context.Context, businessID, id string) (*model.ReviewRequest, error) {
	return r.first(r.Read(ctx).Where("id = ? AND business_id = ?", id, businessID))
}

// GetByID is used by the public tracking surface where the id itself is the
// capability.
func (r *ReviewRequestRepository) GetByID(ctx context.Context, id string) (*model.ReviewRequest, error) {
	return r.first(r.Read(ctx).Where("id = ?", id))
}

func (r *ReviewRequestRepository) GetByProviderMessageID(ctx context.Context, providerMessageID string) (*model.ReviewRequest, error) {
	return r.first(r.Read(ctx).Where("provider_message_id = ?", providerMessageID))
}

func (r *ReviewRequestRepository) first(q *gorm.DB) (*model.ReviewRequest, error) {
	var entity ReviewRequestEntity
	if err := q.First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toReviewRequestModel(&entity), nil
}

// OwnedIDs returns the subset of ids that belong to businessID.
func (r *ReviewRequestRepository) OwnedIDs(ctx context.Context, businessID string, ids []string) (map[string]bool, error) {
	var found []string
	err := r.Read(ctx).Model(&ReviewRequestEntity{}).
		Where("business_id = ? AND id IN ?", businessID, ids).
		Pluck("id", &found).Error
	if err != nil {
		return nil, err
	}
	owned := make(map[string]bool, len(found))
	for _, id := range found {
		owned[id] = true
	}
	return owned, nil
}

func (r *ReviewRequestRepository) List(ctx context.Context, businessID string, f model.ReviewRequestFilter) ([]*model.ReviewRequest, int64, error) {
	page := f.Page.Normalize()
	q := r.Read(ctx).Model(&ReviewRequestEntity{}).Where("business_id = ?", businessID)
	if f.Status != nil {
		q = q.Where("status = ?", string(*f.Status))
	}
	if f.Channel != nil {
		q = q.Where("channel = ?", string(*f.Channel))
	}
	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entities []*ReviewRequestEntity
	if err := q.Order("created_at DESC").Limit(page.Limit).Offset(page.Offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}
	return toReviewRequestModels(entities), total, nil
}

// MarkSent records a successful provider hand-off. Later lifecycle states are
// kept when a request is re-sent.
func (r *ReviewRequestRepository) MarkSent(ctx context.Context, businessID, id, providerMessageID string, at time.Time) error {
	return r.update(ctx, r.Write(ctx).Where("id = ? AND business_id = ?", id, businessID), map[string]any{
		"status": gorm.Expr("CASE WHEN status IN (?, ?, ?) THEN status ELSE ? END",
			string(model.StatusDelivered), string(model.StatusClicked), string(model.StatusCompleted), string(model.StatusSent)),
		"provider_message_id": providerMessageID,
		"failure_reason":      "",
		"sent_at":             gorm.Expr("COALESCE(sent_at, ?)", at),
	})
}

// MarkFailed stores the failure reason. Requests that were already sent keep
// their status.
func (r *ReviewRequestRepository) MarkFailed(ctx context.Context, businessID, id, reason string) error {
	return r.update(ctx, r.Write(ctx).Where("id = ? AND business_id = ?", id, businessID), map[string]any{
		"status":         gorm.Expr("CASE WHEN sent_at IS NULL THEN ? ELSE status END", string(model.StatusFailed)),
		"failure_reason": reason,
	})
}

// MarkClicked sets clicked_at once and backfills sent_at. COMPLETED is never
// regressed.
func (r *ReviewRequestRepository) MarkClicked(ctx context.Context, id string, at time.Time) error {
	return r.update(ctx, r.Write(ctx).Where("id = ?", id), map[string]any{
		"status":     gorm.Expr("CASE WHEN status = ? THEN status ELSE ? END", string(model.StatusCompleted), string(model.StatusClicked)),
		"sent_at":    gorm.Expr("COALESCE(sent_at, ?)", at),
		"clicked_at": gorm.Expr("COALESCE(clicked_at, ?)", at),
	})
}

// MarkDelivered only applies to requests that were sent. It returns
// ErrNotFound when nothing matched.
func (r *ReviewRequestRepository) MarkDelivered(ctx context.Context, providerMessageID string, at time.Time) (*model.ReviewRequest, error) {
	err := r.update(ctx, r.Write(ctx).Where("provider_message_id = ? AND sent_at IS NOT NULL", providerMessageID), map[string]any{
		"status":       gorm.Expr("CASE WHEN status = ? THEN ? ELSE status END", string(model.StatusSent), string(model.StatusDelivered)),
		"delivered_at": gorm.Expr("COALESCE(delivered_at, ?)", at),
	})
	if err != nil {
		return nil, err
	}
	return r.GetByProviderMessageID(ctx, providerMessageID)
}

func (r *ReviewRequestRepository) MarkOptedOut(ctx context.Context, id string) error {
	return r.update(ctx, r.Write(ctx).Where("id = ?", id), map[string]any{
		"status": gorm.Expr("CASE WHEN status IN (?, ?) THEN status ELSE ? END",
			string(model.StatusClicked), string(model.StatusCompleted), string(model.StatusOptedOut)),
	})
}

func (r *ReviewRequestRepository) update(_ context.Context, q *gorm.DB, values map[string]any) error {
	res := q.Model(&ReviewRequestEntity{}).Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
