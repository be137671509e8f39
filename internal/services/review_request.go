package services

import (
	"context"

	"github.com/nimasrn/review-runner/internal/apperr"
	"github.com/nimasrn/review-runner/internal/model"
	"github.com/nimasrn/review-runner/internal/validate"
	"github.com/nimasrn/review-runner/pkg/logger"
)

type ReviewRequestService struct {
	requests  ReviewRequestRepository
	customers CustomerRepository
}

func NewReviewRequestService(requests ReviewRequestRepository, customers CustomerRepository) *ReviewRequestService {
	return &ReviewRequestService{requests: requests, customers: customers}
}

// Create makes one QUEUED review request per customer. Customers outside the
// business are reported as not found.
func (s *ReviewRequestService) Create(ctx context.Context, businessID string, req model.CreateReviewRequestsRequest) ([]*model.ReviewRequest, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	ids := dedupe(req.CustomerIDs)
	customers, err := s.customers.GetByIDs(ctx, businessID, ids)
	if err != nil {
		logger.Error("failed to load customers", "business_id", businessID, "error", err)
		return nil, apperr.Internal(err, "failed to load customers")
	}
	if len(customers) != len(ids) {
		return nil, apperr.NotFound("customer not found")
	}

	requests := make([]*model.ReviewRequest, 0, len(ids))
	for _, id := range ids {
		requests = append(requests, &model.ReviewRequest{
			BusinessID: businessID,
			CustomerID: id,
			Channel:    req.Channel,
			Status:     model.StatusQueued,
		})
	}

	created, err := s.requests.CreateBatch(ctx, requests)
	if err != nil {
		logger.Error("failed to create review requests", "business_id", businessID, "channel", req.Channel, "error", err)
		return nil, apperr.Internal(err, "failed to create review requests")
	}
	return created, nil
}

func (s *ReviewRequestService) List(ctx context.Context, businessID string, f model.ReviewRequestFilter) ([]*model.ReviewRequest, int64, error) {
	f.Page = f.Page.Normalize()
	items, total, err := s.requests.List(ctx, businessID, f)
	if err != nil {
		logger.Error("failed to list review requests", "business_id", businessID, "error", err)
		return nil, 0, apperr.Internal(err, "failed to list review requests")
	}
	return items, total, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
