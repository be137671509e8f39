package services

import (
	"context"
	"errors"

	"github.com/nimasrn/review-runner/internal/apperr"
	"github.com/nimasrn/review-runner/internal/auth"
	"github.com/nimasrn/review-runner/internal/model"
	"github.com/nimasrn/review-runner/internal/repository"
	"github.com/nimasrn/review-runner/pkg/logger"
)

// BusinessContextLoader resolves the tenant of an authenticated caller.
// It is read-only and runs on every tenant scoped request; nothing is cached.
type BusinessContextLoader struct {
	users      UserRepository
	businesses BusinessRepository
}

func NewBusinessContextLoader(users UserRepository, businesses BusinessRepository) *BusinessContextLoader {
	return &BusinessContextLoader{users: users, businesses: businesses}
}

func (l *BusinessContextLoader) Load(ctx context.Context, identity *auth.Identity) (*model.BusinessContext, error) {
	if identity == nil || identity.ProviderUserID == "" {
		return nil, apperr.Wrap(apperr.KindUnauthenticated, ErrUnauthenticated, "")
	}

	user, err := l.users.GetByProviderID(ctx, identity.ProviderUserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Wrap(apperr.KindForbidden, ErrUserNotProvisioned, "USER_NOT_PROVISIONED")
		}
		logger.Error("failed to load user", "provider_user_id", identity.ProviderUserID, "error", err)
		return nil, apperr.Internal(err, "failed to load user")
	}

	if user.BusinessID == nil || *user.BusinessID == "" {
		return nil, apperr.Wrap(apperr.KindForbidden, ErrNoBusinessAssigned, "NO_BUSINESS_ASSIGNED")
	}

	business, err := l.businesses.GetByID(ctx, *user.BusinessID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Wrap(apperr.KindForbidden, ErrNoBusinessAssigned, "NO_BUSINESS_ASSIGNED")
		}
		logger.Error("failed to load business", "business_id", *user.BusinessID, "error", err)
		return nil, apperr.Internal(err, "failed to load business")
	}

	if !business.IsActive {
		return nil, apperr.Wrap(apperr.KindForbidden, ErrBusinessInactive, "BUSINESS_INACTIVE")
	}

	return &model.BusinessContext{User: user, Business: business}, nil
}
