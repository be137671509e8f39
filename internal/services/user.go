package services

import (
	"context"
	"errors"
	"strings"

	"github.com/nimasrn/review-runner/internal/apperr"
	"github.com/nimasrn/review-runner/internal/auth"
	"github.com/nimasrn/review-runner/internal/model"
	"github.com/nimasrn/review-runner/internal/repository"
	"github.com/nimasrn/review-runner/internal/validate"
	"github.com/nimasrn/review-runner/pkg/logger"
)

type UserService struct {
	users      UserRepository
	businesses BusinessRepository
}

func NewUserService(users UserRepository, businesses BusinessRepository) *UserService {
	return &UserService{users: users, businesses: businesses}
}

// Profile returns the caller's user record, creating it on first access.
func (s *UserService) Profile(ctx context.Context, identity *auth.Identity) (*model.UserProfile, error) {
	if identity == nil {
		return nil, apperr.Wrap(apperr.KindUnauthenticated, ErrUnauthenticated, "")
	}
	user, err := ensureUser(ctx, s.users, identity)
	if err != nil {
		return nil, err
	}
	return s.profile(ctx, user)
}

func (s *UserService) UpdateProfile(ctx context.Context, identity *auth.Identity, req model.UpdateProfileRequest) (*model.UserProfile, error) {
	if identity == nil {
		return nil, apperr.Wrap(apperr.KindUnauthenticated, ErrUnauthenticated, "")
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	user, err := ensureUser(ctx, s.users, identity)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateName(ctx, user.ID, req.Name); err != nil {
		logger.Error("failed to update user", "user_id", user.ID, "error", err)
		return nil, apperr.Internal(err, "failed to update profile")
	}
	user.Name = req.Name
	return s.profile(ctx, user)
}

// Provision creates or refreshes a user from an identity provider event.
func (s *UserService) Provision(ctx context.Context, req model.ProvisionRequest) (*model.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	user, err := s.users.Upsert(ctx, &model.User{
		ProviderUserID: req.ProviderUserID,
		Email:          req.Email,
		Name:           strings.TrimSpace(req.Name),
	})
	if err != nil {
		logger.Error("failed to provision user", "provider_user_id", req.ProviderUserID, "error", err)
		return nil, apperr.Internal(err, "failed to provision user")
	}
	return user, nil
}

func (s *UserService) profile(ctx context.Context, user *model.User) (*model.UserProfile, error) {
	p := &model.UserProfile{User: user}
	if user.BusinessID == nil {
		return p, nil
	}
	business, err := s.businesses.GetByID(ctx, *user.BusinessID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return p, nil
		}
		logger.Error("failed to load business", "business_id", *user.BusinessID, "error", err)
		return nil, apperr.Internal(err, "failed to load business")
	}
	p.Business = business
	return p, nil
}
