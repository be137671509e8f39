package services

import (
	"context"
	"time"

	"github.com/nimasrn/review-runner/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockBusinessRepository struct {
	mock.Mock
}

func (m *MockBusinessRepository) Create(ctx context.Context, b *model.Business) (*model.Business, error) {
	args := m.Called(ctx, b)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Business), args.Error(1)
}

func (m *MockBusinessRepository) GetByID(ctx context.Context, id string) (*model.Business, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Business), args.Error(1)
}

func (m *MockBusinessRepository) UpdateSettings(ctx context.Context, id string, settings map[string]any) (*model.Business, error) {
	args := m.Called(ctx, id, settings)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Business), args.Error(1)
}

func (m *MockBusinessRepository) List(ctx context.Context, page model.Page) ([]*model.Business, int64, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Business), args.Get(1).(int64), args.Error(2)
}

func (m *MockBusinessRepository) ConsumeCredit(ctx context.Context, id string, ch model.Channel) error {
	return m.Called(ctx, id, ch).Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByProviderID(ctx context.Context, providerUserID string) (*model.User, error) {
	args := m.Called(ctx, providerUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, u *model.User) (*model.User, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) Upsert(ctx context.Context, u *model.User) (*model.User, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) UpdateName(ctx context.Context, id, name string) error {
	return m.Called(ctx, id, name).Error(0)
}

func (m *MockUserRepository) LinkBusiness(ctx context.Context, id, businessID string) error {
	return m.Called(ctx, id, businessID).Error(0)
}

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) Create(ctx context.Context, c *model.Customer) (*model.Customer, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Customer), args.Error(1)
}

func (m *MockCustomerRepository) List(ctx context.Context, businessID string, f model.CustomerFilter) ([]*model.Customer, int64, error) {
	args := m.Called(ctx, businessID, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Customer), args.Get(1).(int64), args.Error(2)
}

func (m *MockCustomerRepository) GetByIDs(ctx context.Context, businessID string, ids []string) ([]*model.Customer, error) {
	args := m.Called(ctx, businessID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Customer), args.Error(1)
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, businessID, id string) (*model.Customer, error) {
	args := m.Called(ctx, businessID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Count(ctx context.Context, businessID string) (int64, error) {
	args := m.Called(ctx, businessID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCustomerRepository) ExistsByContact(ctx context.Context, businessID, email, phone string) (bool, error) {
	args := m.Called(ctx, businessID, email, phone)
	return args.Bool(0), args.Error(1)
}

type MockReviewRequestRepository struct {
	mock.Mock
}

func (m *MockReviewRequestRepository) CreateBatch(ctx context.Context, requests []*model.ReviewRequest) ([]*model.ReviewRequest, error) {
	args := m.Called(ctx, requests)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ReviewRequest), args.Error(1)
}

func (m *MockReviewRequestRepository) GetForBusiness(ctx context.Context, businessID, id string) (*model.ReviewRequest, error) {
	args := m.Called(ctx, businessID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReviewRequest), args.Error(1)
}

func (m *MockReviewRequestRepository) GetByID(ctx context.Context, id string) (*model.ReviewRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReviewRequest), args.Error(1)
}

func (m *MockReviewRequestRepository) GetByProviderMessageID(ctx context.Context, providerMessageID string) (*model.ReviewRequest, error) {
	args := m.Called(ctx, providerMessageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReviewRequest), args.Error(1)
}

func (m *MockReviewRequestRepository) OwnedIDs(ctx context.Context, businessID string, ids []string) (map[string]bool, error) {
	args := m.Called(ctx, businessID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bool), args.Error(1)
}

func (m *MockReviewRequestRepository) List(ctx context.Context, businessID string, f model.ReviewRequestFilter) ([]*model.ReviewRequest, int64, error) {
	args := m.Called(ctx, businessID, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.ReviewRequest), args.Get(1).(int64), args.Error(2)
}

func (m *MockReviewRequestRepository) MarkSent(ctx context.Context, businessID, id, providerMessageID string, at time.Time) error {
	return m.Called(ctx, businessID, id, providerMessageID, at).Error(0)
}

func (m *MockReviewRequestRepository) MarkFailed(ctx context.Context, businessID, id, reason string) error {
	return m.Called(ctx, businessID, id, reason).Error(0)
}

func (m *MockReviewRequestRepository) MarkClicked(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *MockReviewRequestRepository) MarkDelivered(ctx context.Context, providerMessageID string, at time.Time) (*model.ReviewRequest, error) {
	args := m.Called(ctx, providerMessageID, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReviewRequest), args.Error(1)
}

func (m *MockReviewRequestRepository) MarkOptedOut(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) Append(ctx context.Context, e *model.Event) error {
	return m.Called(ctx, e).Error(0)
}

type MockSuppressionRepository struct {
	mock.Mock
}

func (m *MockSuppressionRepository) Add(ctx context.Context, s *model.Suppression) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockSuppressionRepository) IsSuppressed(ctx context.Context, businessID string, ch model.Channel, contact string) (bool, error) {
	args := m.Called(ctx, businessID, ch, contact)
	return args.Bool(0), args.Error(1)
}

type MockMessenger struct {
	mock.Mock
}

func (m *MockMessenger) Send(ctx context.Context, msg model.OutboundMessage) (string, error) {
	args := m.Called(ctx, msg)
	if fn, ok := args.Get(0).(func(context.Context, model.OutboundMessage) string); ok {
		return fn(ctx, msg), args.Error(1)
	}
	return args.String(0), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishJSON(ctx context.Context, data interface{}, metadata map[string]string) (string, error) {
	args := m.Called(ctx, data, metadata)
	return args.String(0), args.Error(1)
}

type MockTransactor struct {
	mock.Mock
}

func (m *MockTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := m.Called(ctx).Error(0); err != nil {
		return err
	}
	return fn(ctx)
}

type MockStatusInvalidator struct {
	mock.Mock
}

func (m *MockStatusInvalidator) Invalidate(ctx context.Context, businessID string) {
	m.Called(ctx, businessID)
}

func strPtr(s string) *string { return &s }
