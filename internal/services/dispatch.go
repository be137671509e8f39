package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nimasrn/review-runner/internal/apperr"
	gateway "github.com/nimasrn/review-runner/internal/gateways"
	"github.com/nimasrn/review-runner/internal/links"
	"github.com/nimasrn/review-runner/internal/model"
	"github.com/nimasrn/review-runner/internal/repository"
	"github.com/nimasrn/review-runner/pkg/logger"
	"github.com/nimasrn/review-runner/pkg/prom"
	"golang.org/x/sync/errgroup"
)

const defaultBulkLimit = 8

// SendError is a failed send with the reason reported to the caller.
type SendError struct {
	Reason string
	cause  error
}

func (e *SendError) Error() string {
	return "send failed: " + e.Reason
}

func (e *SendError) Unwrap() []error {
	if e.cause == nil {
		return []error{ErrSendFailed}
	}
	return []error{ErrSendFailed, e.cause}
}

func sendFailed(reason string, cause error) error {
	return apperr.Wrap(apperr.KindDependency, &SendError{Reason: reason, cause: cause}, "SEND_FAILED").
		WithDetails(map[string]string{"reason": reason}).
		Public()
}

// IsRetryable reports whether a failed send may succeed when tried again.
// Ownership failures and provider rejections are final.
func IsRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, gateway.ErrUnavailable), errors.Is(err, gateway.ErrNoAvailableProviders):
		return true
	case errors.Is(err, ErrSendFailed):
		return false
	case apperr.IsKind(err, apperr.KindInternal):
		return true
	}
	return false
}

type DispatchConfig struct {
	BaseURL   string
	BulkLimit int
}

// Dispatcher sends review requests after re-checking tenant ownership.
// Sends are at-least-once: resubmitting an id sends it again.
type Dispatcher struct {
	requests     ReviewRequestRepository
	customers    CustomerRepository
	businesses   BusinessRepository
	suppressions SuppressionRepository
	events       EventRepository
	messenger    Messenger
	publisher    Publisher
	cfg          DispatchConfig
	now          func() time.Time
}

func NewDispatcher(
	requests ReviewRequestRepository,
	customers CustomerRepository,
	businesses BusinessRepository,
	suppressions SuppressionRepository,
	events EventRepository,
	messenger Messenger,
	publisher Publisher,
	cfg DispatchConfig,
) *Dispatcher {
	if cfg.BulkLimit <= 0 {
		cfg.BulkLimit = defaultBulkLimit
	}
	return &Dispatcher{
		requests:     requests,
		customers:    customers,
		businesses:   businesses,
		suppressions: suppressions,
		events:       events,
		messenger:    messenger,
		publisher:    publisher,
		cfg:          cfg,
		now:          time.Now,
	}
}

// Send dispatches either the single id or the id set of req.
func (d *Dispatcher) Send(ctx context.Context, businessID string, req model.SendRequest) (any, error) {
	if req.IsBulk() {
		return d.SendBulk(ctx, businessID, req.IDs)
	}
	return d.SendOne(ctx, businessID, req.ID)
}

func (d *Dispatcher) SendOne(ctx context.Context, businessID, id string) (*model.SendResult, error) {
	rr, err := d.requests.GetForBusiness(ctx, businessID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("review request not found")
		}
		logger.Error("failed to load review request", "business_id", businessID, "review_request_id", id, "error", err)
		return nil, apperr.Internal(err, "failed to load review request")
	}

	start := d.now()
	msgID, err := d.deliver(ctx, rr)
	if err != nil {
		d.recordFailure(ctx, rr, err, start)
		return nil, err
	}

	sentAt := d.now()
	if err := d.requests.MarkSent(ctx, businessID, rr.ID, msgID, sentAt); err != nil {
		// the message is out; a retry would send it twice
		logger.Error("failed to mark review request sent", "business_id", businessID, "review_request_id", rr.ID, "message_id", msgID, "error", err)
	}
	if err := d.businesses.ConsumeCredit(ctx, businessID, rr.Channel); err != nil {
		logger.Warn("failed to consume credit", "business_id", businessID, "channel", rr.Channel, "error", err)
	}
	d.appendEvent(ctx, rr, model.EventSent, msgID)
	prom.RecordDispatch(string(rr.Channel), "sent", sentAt.Sub(start).Seconds())

	logger.Info("review request sent", "business_id", businessID, "review_request_id", rr.ID, "channel", rr.Channel, "message_id", msgID)
	return &model.SendResult{MessageID: msgID}, nil
}

func (d *Dispatcher) deliver(ctx context.Context, rr *model.ReviewRequest) (string, error) {
	customer, err := d.customers.GetByID(ctx, rr.BusinessID, rr.CustomerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", sendFailed("customer not found", err)
		}
		return "", apperr.Internal(err, "failed to load customer")
	}

	contact := customer.ContactFor(rr.Channel)
	if contact == "" {
		return "", sendFailed(fmt.Sprintf("customer has no contact for %s", rr.Channel), ErrNoContact)
	}

	suppressed, err := d.suppressions.IsSuppressed(ctx, rr.BusinessID, rr.Channel, contact)
	if err != nil {
		return "", apperr.Internal(err, "failed to check suppression list")
	}
	if suppressed {
		return "", sendFailed("contact has unsubscribed", ErrSuppressed)
	}

	business, err := d.businesses.GetByID(ctx, rr.BusinessID)
	if err != nil {
		return "", apperr.Internal(err, "failed to load business")
	}
	if !business.HasCredit(rr.Channel) {
		return "", sendFailed(fmt.Sprintf("%s usage limit reached", rr.Channel), repository.ErrLimitReached)
	}

	msg, err := renderMessage(rr.Channel, contact, business, messageData{
		CustomerName:   customer.Name,
		BusinessName:   business.Name,
		TrackingURL:    links.GenerateTrackingURL(d.cfg.BaseURL, rr.ID),
		UnsubscribeURL: links.GenerateUnsubscribeURL(d.cfg.BaseURL, rr.ID),
	})
	if err != nil {
		return "", sendFailed("message template is invalid", err)
	}

	if d.messenger == nil {
		return "", sendFailed("messaging is not configured", gateway.ErrNotConfigured)
	}
	msgID, err := d.messenger.Send(ctx, msg)
	if err != nil {
		return "", sendFailed(gateway.Reason(err), err)
	}
	return msgID, nil
}

func (d *Dispatcher) recordFailure(ctx context.Context, rr *model.ReviewRequest, err error, start time.Time) {
	var se *SendError
	if !errors.As(err, &se) {
		prom.RecordDispatch(string(rr.Channel), "error", d.now().Sub(start).Seconds())
		return
	}

	logger.Warn("review request send failed", "business_id", rr.BusinessID, "review_request_id", rr.ID, "channel", rr.Channel, "reason", se.Reason)
	if mErr := d.requests.MarkFailed(ctx, rr.BusinessID, rr.ID, se.Reason); mErr != nil && !errors.Is(mErr, repository.ErrNotFound) {
		logger.Error("failed to mark review request failed", "business_id", rr.BusinessID, "review_request_id", rr.ID, "error", mErr)
	}
	d.appendEvent(ctx, rr, model.EventFailed, se.Reason)
	prom.RecordDispatch(string(rr.Channel), "failed", d.now().Sub(start).Seconds())
}

// SendBulk sends every id independently. Results keep the input order and
// sent+failed always equals len(ids).
func (d *Dispatcher) SendBulk(ctx context.Context, businessID string, ids []string) (*model.BulkSendResult, error) {
	results := make([]model.BulkItemResult, len(ids))

	var g errgroup.Group
	g.SetLimit(d.cfg.BulkLimit)
	for i, id := range ids {
		g.Go(func() error {
			res, err := d.SendOne(ctx, businessID, id)
			if err != nil {
				results[i] = model.BulkItemResult{ID: id, Error: itemError(err)}
				return nil
			}
			results[i] = model.BulkItemResult{ID: id, Success: true, MessageID: res.MessageID}
			return nil
		})
	}
	_ = g.Wait()

	out := &model.BulkSendResult{Results: results}
	for _, r := range results {
		if r.Success {
			out.Sent++
		} else {
			out.Failed++
		}
	}
	return out, nil
}

func itemError(err error) string {
	ae := apperr.As(err)
	if ae.Opaque() {
		return "internal error"
	}
	return ae.Message
}

// Enqueue hands the ids to the worker. Every id must belong to the business.
func (d *Dispatcher) Enqueue(ctx context.Context, businessID string, ids []string) (*model.EnqueueResult, error) {
	if d.publisher == nil {
		return nil, apperr.Dependency(ErrNotConfigured, "send queue is not configured")
	}

	owned, err := d.requests.OwnedIDs(ctx, businessID, ids)
	if err != nil {
		logger.Error("failed to check review request ownership", "business_id", businessID, "error", err)
		return nil, apperr.Internal(err, "failed to load review requests")
	}
	for _, id := range ids {
		if !owned[id] {
			return nil, apperr.NotFound("review request not found")
		}
	}

	res := &model.EnqueueResult{}
	for _, id := range ids {
		job := model.SendJob{BusinessID: businessID, ReviewRequestID: id}
		if _, err := d.publisher.PublishJSON(ctx, job, map[string]string{"business_id": businessID}); err != nil {
			logger.Error("failed to enqueue review request", "business_id", businessID, "review_request_id", id, "error", err)
			return res, apperr.Dependency(err, "failed to enqueue review requests")
		}
		res.Queued++
		d.appendEvent(ctx, &model.ReviewRequest{ID: id, BusinessID: businessID}, model.EventQueued, "")
	}
	return res, nil
}

func (d *Dispatcher) appendEvent(ctx context.Context, rr *model.ReviewRequest, t model.EventType, detail string) {
	err := d.events.Append(ctx, &model.Event{
		BusinessID:      rr.BusinessID,
		ReviewRequestID: rr.ID,
		Type:            t,
		Detail:          detail,
	})
	if err != nil {
		logger.Error("failed to append event", "business_id", rr.BusinessID, "review_request_id", rr.ID, "type", t, "error", err)
	}
}
