package services

import (
	"context"
	"errors"
	"time"

	"github.com/nimasrn/review-runner/internal/model"
)

var (
	ErrUnauthenticated    = errors.New("authentication required")
	ErrUserNotProvisioned = errors.New("user is not provisioned")
	ErrNoBusinessAssigned = errors.New("user has no business assigned")
	ErrBusinessInactive   = errors.New("business is inactive")
	ErrAlreadyOnboarded   = errors.New("user already belongs to a business")
	ErrSendFailed         = errors.New("send failed")
	ErrNoContact          = errors.New("customer has no contact for channel")
	ErrSuppressed         = errors.New("contact is suppressed")
	ErrNotConfigured      = errors.New("service is not configured")
)

type BusinessRepository interface {
	Create(ctx context.Context, b *model.Business) (*model.Business, error)
	GetByID(ctx context.Context, id string) (*model.Business, error)
	UpdateSettings(ctx context.Context, id string, settings map[string]any) (*model.Business, error)
	List(ctx context.Context, page model.Page) ([]*model.Business, int64, error)
	ConsumeCredit(ctx context.Context, id string, ch model.Channel) error
}

type UserRepository interface {
	GetByProviderID(ctx context.Context, providerUserID string) (*model.User, error)
	Create(ctx context.Context, u *model.User) (*model.User, error)
	Upsert(ctx context.Context, u *model.User) (*model.User, error)
	UpdateName(ctx context.Context, id, name string) error
	LinkBusiness(ctx context.Context, id, businessID string) error
}

type CustomerRepository interface {
	Create(ctx context.Context, c *model.Customer) (*model.Customer, error)
	List(ctx context.Context, businessID string, f model.CustomerFilter) ([]*model.Customer, int64, error)
	GetByIDs(ctx context.Context, businessID string, ids []string) ([]*model.Customer, error)
	GetByID(ctx context.Context, businessID, id string) (*model.Customer, error)
	Count(ctx context.Context, businessID string) (int64, error)
	ExistsByContact(ctx context.Context, businessID, email, phone string) (bool, error)
}

type ReviewRequestRepository interface {
	CreateBatch(ctx context.Context, requests []*model.ReviewRequest) ([]*model.ReviewRequest, error)
	GetForBusiness(ctx context.Context, businessID, id string) (*model.ReviewRequest, error)
	GetByID(ctx context.Context, id string) (*model.ReviewRequest, error)
	GetByProviderMessageID(ctx context.Context, providerMessageID string) (*model.ReviewRequest, error)
	OwnedIDs(ctx context.Context, businessID string, ids []string) (map[string]bool, error)
	List(ctx context.Context, businessID string, f model.ReviewRequestFilter) ([]*model.ReviewRequest, int64, error)
	MarkSent(ctx context.Context, businessID, id, providerMessageID string, at time.Time) error
	MarkFailed(ctx context.Context, businessID, id, reason string) error
	MarkClicked(ctx context.Context, id string, at time.Time) error
	MarkDelivered(ctx context.Context, providerMessageID string, at time.Time) (*model.ReviewRequest, error)
	MarkOptedOut(ctx context.Context, id string) error
}

type EventRepository interface {
	Append(ctx context.Context, e *model.Event) error
}

type SuppressionRepository interface {
	Add(ctx context.Context, s *model.Suppression) error
	IsSuppressed(ctx context.Context, businessID string, ch model.Channel, contact string) (bool, error)
}

type AnalyticsRepository interface {
	Summary(ctx context.Context, businessID string, f model.AnalyticsFilter) (*model.AnalyticsSummary, error)
}

type Messenger interface {
	Send(ctx context.Context, msg model.OutboundMessage) (string, error)
}

type PlacesSearcher interface {
	Search(ctx context.Context, query string) ([]model.Place, error)
}

// Publisher puts send jobs on the worker queue.
type Publisher interface {
	PublishJSON(ctx context.Context, data interface{}, metadata map[string]string) (string, error)
}

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
