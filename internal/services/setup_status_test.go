package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nimasrn/review-runner/internal/model"
	"github.com/nimasrn/review-runner/internal/repository"
	"github.com/nimasrn/review-runner/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStatusCache(t *testing.T) *SetupStatusCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSetupStatusCache(redis.FromClient(client, "rr:"), time.Minute)
}

func TestSetupStatusChecker_Check(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		business  *model.Business
		customers int64
		want      bool
	}{
		{"no customers and empty settings", &model.Business{ID: "b1", IsActive: true}, 0, false},
		{"customers exist", &model.Business{ID: "b1", IsActive: true}, 3, true},
		{"settings present", &model.Business{ID: "b1", IsActive: true, Settings: map[string]any{"smsTemplate": "hi"}}, 0, true},
		{"inactive business", &model.Business{ID: "b1", IsActive: false}, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			businesses := new(MockBusinessRepository)
			customers := new(MockCustomerRepository)
			businesses.On("GetByID", ctx, "b1").Return(tt.business, nil)
			customers.On("Count", ctx, "b1").Return(tt.customers, nil)

			status := NewSetupStatusChecker(businesses, customers, nil, time.Minute).Check(ctx, "b1")
			assert.Equal(t, tt.want, status.IsComplete)
			assert.Equal(t, tt.customers > 0, status.HasCustomers)
		})
	}
}

func TestSetupStatusChecker_MissingBusiness(t *testing.T) {
	ctx := context.Background()
	businesses := new(MockBusinessRepository)
	businesses.On("GetByID", ctx, "gone").Return(nil, repository.ErrNotFound)

	status := NewSetupStatusChecker(businesses, new(MockCustomerRepository), nil, time.Minute).Check(ctx, "gone")
	assert.False(t, status.IsComplete)
}

func TestSetupStatusChecker_FailsOpen(t *testing.T) {
	ctx := context.Background()
	businesses := new(MockBusinessRepository)
	businesses.On("GetByID", ctx, "b1").Return(nil, errors.New("connection refused"))

	status := NewSetupStatusChecker(businesses, new(MockCustomerRepository), nil, time.Minute).Check(ctx, "b1")
	assert.True(t, status.IsComplete)
}

func TestSetupStatusChecker_UsesCache(t *testing.T) {
	ctx := context.Background()
	cache := newStatusCache(t)
	businesses := new(MockBusinessRepository)
	customers := new(MockCustomerRepository)
	businesses.On("GetByID", ctx, "b1").Return(&model.Business{ID: "b1", IsActive: true}, nil).Once()
	customers.On("Count", ctx, "b1").Return(int64(0), nil).Once()

	checker := NewSetupStatusChecker(businesses, customers, cache, time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	checker.now = func() time.Time { return now }

	first := checker.Check(ctx, "b1")
	second := checker.Check(ctx, "b1")
	assert.False(t, first.IsComplete)
	assert.Equal(t, first, second)
	businesses.AssertExpectations(t)

	// expired entries are recomputed
	now = now.Add(2 * time.Minute)
	businesses.On("GetByID", ctx, "b1").Return(&model.Business{ID: "b1", IsActive: true}, nil).Once()
	customers.On("Count", ctx, "b1").Return(int64(5), nil).Once()
	assert.True(t, checker.Check(ctx, "b1").IsComplete)

	// invalidation drops the entry
	checker.Invalidate(ctx, "b1")
	entry, err := cache.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Nil(t, entry)
	customers.AssertNumberOfCalls(t, "Count", 2)
}

func TestIsExpired(t *testing.T) {
	fetched := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	entry := SetupStatusEntry{FetchedAt: fetched}

	assert.False(t, IsExpired(entry, fetched, time.Minute))
	assert.False(t, IsExpired(entry, fetched.Add(59*time.Second), time.Minute))
	assert.True(t, IsExpired(entry, fetched.Add(time.Minute), time.Minute))
	assert.True(t, IsExpired(entry, fetched, 0))
}
