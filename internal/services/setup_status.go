package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nimasrn/review-runner/internal/model"
	"github.com/nimasrn/review-runner/internal/repository"
	"github.com/nimasrn/review-runner/pkg/logger"
	"github.com/nimasrn/review-runner/pkg/redis"
)

const setupStatusKeyPrefix = "setup-status:"

// SetupStatusEntry is a cached status together with the time it was computed.
type SetupStatusEntry struct {
	Status    model.SetupStatus `json:"status"`
	FetchedAt time.Time         `json:"fetchedAt"`
}

// IsExpired reports whether entry is older than ttl at now.
func IsExpired(entry SetupStatusEntry, now time.Time, ttl time.Duration) bool {
	return !now.Before(entry.FetchedAt.Add(ttl))
}

type SetupStatusStore interface {
	Get(ctx context.Context, businessID string) (*SetupStatusEntry, error)
	Put(ctx context.Context, businessID string, entry SetupStatusEntry) error
	Invalidate(ctx context.Context, businessID string) error
}

// SetupStatusCache keeps setup status entries in redis keyed by business id.
type SetupStatusCache struct {
	rdb redis.RedisAdapter
	ttl time.Duration
}

func NewSetupStatusCache(rdb redis.RedisAdapter, ttl time.Duration) *SetupStatusCache {
	return &SetupStatusCache{rdb: rdb, ttl: ttl}
}

// Get returns nil, nil when nothing is cached.
func (c *SetupStatusCache) Get(ctx context.Context, businessID string) (*SetupStatusEntry, error) {
	payload, err := c.rdb.Get(ctx, setupStatusKeyPrefix+businessID)
	if err != nil {
		if redis.IsNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("load setup status: %w", err)
	}
	var entry SetupStatusEntry
	if err := json.Unmarshal(payload, &entry); err != nil {
		return nil, fmt.Errorf("decode setup status: %w", err)
	}
	return &entry, nil
}

func (c *SetupStatusCache) Put(ctx context.Context, businessID string, entry SetupStatusEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode setup status: %w", err)
	}
	// redis only evicts; freshness is decided by IsExpired
	return c.rdb.Set(ctx, setupStatusKeyPrefix+businessID, payload, 2*c.ttl)
}

func (c *SetupStatusCache) Invalidate(ctx context.Context, businessID string) error {
	return c.rdb.Del(ctx, setupStatusKeyPrefix+businessID)
}

// SetupStatusChecker computes the advisory onboarding status of a business.
// It is never used for authorization and fails open.
type SetupStatusChecker struct {
	businesses BusinessRepository
	customers  CustomerRepository
	cache      SetupStatusStore
	ttl        time.Duration
	now        func() time.Time
}

func NewSetupStatusChecker(businesses BusinessRepository, customers CustomerRepository, cache SetupStatusStore, ttl time.Duration) *SetupStatusChecker {
	return &SetupStatusChecker{
		businesses: businesses,
		customers:  customers,
		cache:      cache,
		ttl:        ttl,
		now:        time.Now,
	}
}

func (c *SetupStatusChecker) Check(ctx context.Context, businessID string) model.SetupStatus {
	now := c.now()

	if c.cache != nil {
		entry, err := c.cache.Get(ctx, businessID)
		if err != nil {
			logger.Warn("setup status cache read failed", "business_id", businessID, "error", err)
		} else if entry != nil && !IsExpired(*entry, now, c.ttl) {
			return entry.Status
		}
	}

	status, err := c.compute(ctx, businessID, now)
	if err != nil {
		logger.Warn("setup status check failed, assuming complete", "business_id", businessID, "error", err)
		return model.SetupStatus{IsComplete: true, CheckedAt: now}
	}

	if c.cache != nil {
		if err := c.cache.Put(ctx, businessID, SetupStatusEntry{Status: status, FetchedAt: now}); err != nil {
			logger.Warn("setup status cache write failed", "business_id", businessID, "error", err)
		}
	}
	return status
}

// Invalidate drops the cached status, used after writes that change it.
func (c *SetupStatusChecker) Invalidate(ctx context.Context, businessID string) {
	if c == nil || c.cache == nil {
		return
	}
	if err := c.cache.Invalidate(ctx, businessID); err != nil {
		logger.Warn("setup status cache invalidation failed", "business_id", businessID, "error", err)
	}
}

func (c *SetupStatusChecker) compute(ctx context.Context, businessID string, now time.Time) (model.SetupStatus, error) {
	business, err := c.businesses.GetByID(ctx, businessID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.SetupStatus{CheckedAt: now}, nil
		}
		return model.SetupStatus{}, err
	}

	count, err := c.customers.Count(ctx, businessID)
	if err != nil {
		return model.SetupStatus{}, err
	}

	status := model.SetupStatus{
		HasCustomers: count > 0,
		HasSettings:  business.HasSettings(),
		IsActive:     business.IsActive,
		CheckedAt:    now,
	}
	status.IsComplete = (status.HasCustomers || status.HasSettings) && status.IsActive
	return status, nil
}
