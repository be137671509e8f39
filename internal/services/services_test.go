package services

import (
	"context"
	"errors"
	"testing"

	"github.com/nimasrn/review-runner/internal/apperr"
	"github.com/nimasrn/review-runner/internal/auth"
	"github.com/nimasrn/review-runner/internal/model"
	"github.com/nimasrn/review-runner/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAnalyticsRepository struct {
	mock.Mock
}

func (m *MockAnalyticsRepository) Summary(ctx context.Context, businessID string, f model.AnalyticsFilter) (*model.AnalyticsSummary, error) {
	args := m.Called(ctx, businessID, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AnalyticsSummary), args.Error(1)
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func TestAnalyticsService_Summary(t *testing.T) {
	ctx := context.Background()
	repo := new(MockAnalyticsRepository)
	svc := NewAnalyticsService(repo)

	repo.On("Summary", ctx, "b1", mock.MatchedBy(func(f model.AnalyticsFilter) bool {
		return f.Channel != nil && *f.Channel == model.ChannelSMS && f.From != nil && f.To == nil
	})).Return(&model.AnalyticsSummary{Total: 4}, nil)

	summary, err := svc.Summary(ctx, "b1", AnalyticsQuery{Channel: "sms", From: "2026-01-01"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), summary.Total)

	_, err = svc.Summary(ctx, "b1", AnalyticsQuery{Channel: "SMS' OR 1=1 --"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = svc.Summary(ctx, "b1", AnalyticsQuery{From: "yesterday"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = svc.Summary(ctx, "b1", AnalyticsQuery{From: "2026-02-01", To: "2026-01-01"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	repo.AssertNumberOfCalls(t, "Summary", 1)
}

func TestUserService_Profile_CreatesMissingUser(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	svc := NewUserService(users, new(MockBusinessRepository))
	identity := &auth.Identity{ProviderUserID: "user_1", Email: "a@b.co", Name: "Ann"}

	users.On("GetByProviderID", ctx, "user_1").Return(nil, repository.ErrNotFound)
	users.On("Create", ctx, mock.MatchedBy(func(u *model.User) bool {
		return u.ProviderUserID == "user_1" && u.Email == "a@b.co"
	})).Return(&model.User{ID: "u1", ProviderUserID: "user_1"}, nil)

	p, err := svc.Profile(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, "u1", p.User.ID)
	assert.Nil(t, p.Business)
}

func TestUserService_Profile_CreateRace(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	svc := NewUserService(users, new(MockBusinessRepository))

	users.On("GetByProviderID", ctx, "user_1").Return(nil, repository.ErrNotFound).Once()
	users.On("Create", ctx, mock.Anything).Return(nil, repository.ErrDuplicate)
	users.On("GetByProviderID", ctx, "user_1").Return(&model.User{ID: "u1"}, nil).Once()

	p, err := svc.Profile(ctx, &auth.Identity{ProviderUserID: "user_1"})
	require.NoError(t, err)
	assert.Equal(t, "u1", p.User.ID)
}

func TestUserService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	businesses := new(MockBusinessRepository)
	svc := NewUserService(users, businesses)

	users.On("GetByProviderID", ctx, "user_1").Return(&model.User{ID: "u1", BusinessID: strPtr("b1")}, nil)
	users.On("UpdateName", ctx, "u1", "New Name").Return(nil)
	businesses.On("GetByID", ctx, "b1").Return(&model.Business{ID: "b1"}, nil)

	p, err := svc.UpdateProfile(ctx, &auth.Identity{ProviderUserID: "user_1"}, model.UpdateProfileRequest{Name: " New Name "})
	require.NoError(t, err)
	assert.Equal(t, "New Name", p.User.Name)
	assert.Equal(t, "b1", p.Business.ID)

	_, err = svc.UpdateProfile(ctx, &auth.Identity{ProviderUserID: "user_1"}, model.UpdateProfileRequest{})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestOnboardingService_Onboard(t *testing.T) {
	ctx := context.Background()
	identity := &auth.Identity{ProviderUserID: "user_1", Email: "a@b.co"}
	req := model.OnboardRequest{PlaceID: "pl1", Name: "Cafe", Phone: "07123456789"}

	t.Run("creates and links business", func(t *testing.T) {
		tx := new(MockTransactor)
		users := new(MockUserRepository)
		businesses := new(MockBusinessRepository)
		svc := NewOnboardingService(tx, users, businesses, OnboardingConfig{MonthlyQuota: 500})

		tx.On("WithinTransaction", ctx).Return(nil)
		users.On("GetByProviderID", ctx, "user_1").Return(&model.User{ID: "u1"}, nil)
		businesses.On("Create", ctx, mock.MatchedBy(func(b *model.Business) bool {
			return b.IsActive && b.SmsLimit == 500 && b.Phone == "+447123456789"
		})).Return(&model.Business{ID: "b1", IsActive: true}, nil)
		users.On("LinkBusiness", ctx, "u1", "b1").Return(nil)

		b, err := svc.Onboard(ctx, identity, req)
		require.NoError(t, err)
		assert.Equal(t, "b1", b.ID)
	})

	t.Run("already onboarded", func(t *testing.T) {
		users := new(MockUserRepository)
		svc := NewOnboardingService(new(MockTransactor), users, new(MockBusinessRepository), OnboardingConfig{})
		users.On("GetByProviderID", ctx, "user_1").Return(&model.User{ID: "u1", BusinessID: strPtr("b0")}, nil)

		_, err := svc.Onboard(ctx, identity, req)
		assert.ErrorIs(t, err, ErrAlreadyOnboarded)
		assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	})

	t.Run("concurrent link", func(t *testing.T) {
		tx := new(MockTransactor)
		users := new(MockUserRepository)
		businesses := new(MockBusinessRepository)
		svc := NewOnboardingService(tx, users, businesses, OnboardingConfig{})

		tx.On("WithinTransaction", ctx).Return(nil)
		users.On("GetByProviderID", ctx, "user_1").Return(&model.User{ID: "u1"}, nil)
		businesses.On("Create", ctx, mock.Anything).Return(&model.Business{ID: "b1"}, nil)
		users.On("LinkBusiness", ctx, "u1", "b1").Return(repository.ErrConcurrentUpdate)

		_, err := svc.Onboard(ctx, identity, req)
		assert.ErrorIs(t, err, ErrAlreadyOnboarded)
	})
}

func TestPlacesService_Search(t *testing.T) {
	_, err := NewPlacesService(nil).Search(context.Background(), "joe's cafe")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindDependency))
	assert.Equal(t, 500, apperr.As(err).Status())

	_, err = NewPlacesService(nil).Search(context.Background(), "a")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestBusinessService(t *testing.T) {
	ctx := context.Background()
	businesses := new(MockBusinessRepository)
	status := new(MockStatusInvalidator)
	svc := NewBusinessService(businesses, status)

	settings := map[string]any{SettingSmsTemplate: "Hi {{.CustomerName}} {{.TrackingURL}}"}
	businesses.On("UpdateSettings", ctx, "b1", settings).Return(&model.Business{ID: "b1", Settings: settings}, nil)
	status.On("Invalidate", ctx, "b1").Return()

	b, err := svc.UpdateSettings(ctx, "b1", model.UpdateSettingsRequest{Settings: settings})
	require.NoError(t, err)
	assert.True(t, b.HasSettings())
	status.AssertExpectations(t)

	_, err = svc.UpdateSettings(ctx, "b1", model.UpdateSettingsRequest{Settings: map[string]any{SettingSmsTemplate: "{{.Broken"}})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, _, err = svc.ListAll(ctx, &auth.Identity{ProviderUserID: "u"}, model.Page{})
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	businesses.On("List", ctx, model.Page{Limit: 50}).Return([]*model.Business{{ID: "b1"}}, int64(1), nil)
	items, total, err := svc.ListAll(ctx, &auth.Identity{ProviderUserID: "u", Roles: []string{auth.RoleAdmin}}, model.Page{})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, int64(1), total)
}

func TestHealthService_Check(t *testing.T) {
	ok := NewHealthService(map[string]Pinger{"postgres": fakePinger{}, "redis": fakePinger{}})
	report, err := ok.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", report.Status)

	degraded := NewHealthService(map[string]Pinger{"postgres": fakePinger{}, "redis": fakePinger{err: errors.New("down")}})
	report, err = degraded.Check(context.Background())
	require.Error(t, err)
	assert.Equal(t, 503, apperr.As(err).Status())
	assert.Equal(t, "down", report.Dependencies["redis"])
}

func TestRenderMessage_Email(t *testing.T) {
	msg, err := renderMessage(model.ChannelEmail, "ann@example.com", &model.Business{Name: "Cafe <Bar>"}, messageData{
		CustomerName: "Ann", BusinessName: "Cafe <Bar>", TrackingURL: "https://rr.test/r/1", UnsubscribeURL: "https://rr.test/r/unsubscribe/1",
	})
	require.NoError(t, err)
	assert.Equal(t, "How was your experience with Cafe <Bar>?", msg.Subject)
	assert.Contains(t, msg.Body, "https://rr.test/r/1")
	assert.Contains(t, msg.HTML, "Cafe &lt;Bar&gt;")
	assert.Contains(t, msg.HTML, `href="https://rr.test/r/unsubscribe/1"`)
}
