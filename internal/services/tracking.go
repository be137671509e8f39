package services

import (
	"context"
	"errors"
	"time"

	"github.com/nimasrn/review-runner/internal/apperr"
	"github.com/nimasrn/review-runner/internal/links"
	"github.com/nimasrn/review-runner/internal/model"
	"github.com/nimasrn/review-runner/internal/repository"
	"github.com/nimasrn/review-runner/pkg/logger"
	"github.com/nimasrn/review-runner/pkg/prom"
)

// TrackingService handles the customer facing links and provider callbacks.
// None of its operations are tenant scoped by a caller; the review request id
// or provider message id identifies the tenant.
type TrackingService struct {
	requests     ReviewRequestRepository
	customers    CustomerRepository
	businesses   BusinessRepository
	suppressions SuppressionRepository
	events       EventRepository
	now          func() time.Time
}

func NewTrackingService(
	requests ReviewRequestRepository,
	customers CustomerRepository,
	businesses BusinessRepository,
	suppressions SuppressionRepository,
	events EventRepository,
) *TrackingService {
	return &TrackingService{
		requests:     requests,
		customers:    customers,
		businesses:   businesses,
		suppressions: suppressions,
		events:       events,
		now:          time.Now,
	}
}

// Click records the first click on a tracking link and returns the review
// page to redirect to.
func (s *TrackingService) Click(ctx context.Context, id string) (string, error) {
	rr, err := s.load(ctx, id)
	if err != nil {
		return "", err
	}

	business, err := s.businesses.GetByID(ctx, rr.BusinessID)
	if err != nil {
		logger.Error("failed to load business", "business_id", rr.BusinessID, "review_request_id", id, "error", err)
		return "", apperr.Internal(err, "failed to load business")
	}

	if err := s.requests.MarkClicked(ctx, id, s.now()); err != nil {
		logger.Error("failed to mark review request clicked", "business_id", rr.BusinessID, "review_request_id", id, "error", err)
		return "", apperr.Internal(err, "failed to record click")
	}

	if rr.ClickedAt == nil {
		s.appendEvent(ctx, rr, model.EventClicked, "")
		prom.RecordClick(string(rr.Channel))
	}
	return reviewURL(business), nil
}

func reviewURL(b *model.Business) string {
	if b.PlaceID == "" && b.Website != "" {
		return b.Website
	}
	return links.GoogleReviewURL(b.PlaceID)
}

// Unsubscribe suppresses the contact the request was sent to.
func (s *TrackingService) Unsubscribe(ctx context.Context, id string) error {
	rr, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	return s.optOut(ctx, rr, "unsubscribed via link")
}

func (s *TrackingService) optOut(ctx context.Context, rr *model.ReviewRequest, reason string) error {
	customer, err := s.customers.GetByID(ctx, rr.BusinessID, rr.CustomerID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		logger.Error("failed to load customer", "business_id", rr.BusinessID, "review_request_id", rr.ID, "error", err)
		return apperr.Internal(err, "failed to load customer")
	}

	if customer != nil {
		if contact := customer.ContactFor(rr.Channel); contact != "" {
			err := s.suppressions.Add(ctx, &model.Suppression{
				BusinessID: rr.BusinessID,
				Channel:    rr.Channel,
				Contact:    contact,
				Reason:     reason,
			})
			if err != nil {
				logger.Error("failed to add suppression", "business_id", rr.BusinessID, "review_request_id", rr.ID, "channel", rr.Channel, "error", err)
				return apperr.Internal(err, "failed to unsubscribe")
			}
		}
	}

	if err := s.requests.MarkOptedOut(ctx, rr.ID); err != nil {
		logger.Error("failed to mark review request opted out", "business_id", rr.BusinessID, "review_request_id", rr.ID, "error", err)
		return apperr.Internal(err, "failed to unsubscribe")
	}
	s.appendEvent(ctx, rr, model.EventUnsubscribed, reason)
	prom.RecordUnsubscribe(string(rr.Channel))
	return nil
}

// MarkDelivered applies a provider delivery receipt. Unknown ids and
// requests that were never sent are ignored.
func (s *TrackingService) MarkDelivered(ctx context.Context, providerMessageID string) error {
	before, err := s.requests.GetByProviderMessageID(ctx, providerMessageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Debug("delivery receipt for unknown message", "message_id", providerMessageID)
			return nil
		}
		return apperr.Internal(err, "failed to load review request")
	}
	if before.DeliveredAt != nil {
		return nil
	}

	rr, err := s.requests.MarkDelivered(ctx, providerMessageID, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		logger.Error("failed to mark review request delivered", "message_id", providerMessageID, "error", err)
		return apperr.Internal(err, "failed to record delivery")
	}
	s.appendEvent(ctx, rr, model.EventDelivered, providerMessageID)
	return nil
}

// OptOutByMessageID handles provider side unsubscribes and spam reports.
func (s *TrackingService) OptOutByMessageID(ctx context.Context, providerMessageID, reason string) error {
	rr, err := s.requests.GetByProviderMessageID(ctx, providerMessageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return apperr.Internal(err, "failed to load review request")
	}
	return s.optOut(ctx, rr, reason)
}

func (s *TrackingService) load(ctx context.Context, id string) (*model.ReviewRequest, error) {
	rr, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("link not found")
		}
		logger.Error("failed to load review request", "review_request_id", id, "error", err)
		return nil, apperr.Internal(err, "failed to load review request")
	}
	return rr, nil
}

func (s *TrackingService) appendEvent(ctx context.Context, rr *model.ReviewRequest, t model.EventType, detail string) {
	err := s.events.Append(ctx, &model.Event{
		BusinessID:      rr.BusinessID,
		ReviewRequestID: rr.ID,
		Type:            t,
		Detail:          detail,
	})
	if err != nil {
		logger.Error("failed to append event", "business_id", rr.BusinessID, "review_request_id", rr.ID, "type", t, "error", err)
	}
}
