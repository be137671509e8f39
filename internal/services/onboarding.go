package services

import (
	"context"
	"errors"
	"strings"

	"github.com/nimasrn/review-runner/internal/apperr"
	"github.com/nimasrn/review-runner/internal/auth"
	gateway "github.com/nimasrn/review-runner/internal/gateways"
	"github.com/nimasrn/review-runner/internal/model"
	"github.com/nimasrn/review-runner/internal/repository"
	"github.com/nimasrn/review-runner/internal/validate"
	"github.com/nimasrn/review-runner/pkg/logger"
)

type PlacesService struct {
	searcher PlacesSearcher
}

func NewPlacesService(searcher PlacesSearcher) *PlacesService {
	return &PlacesService{searcher: searcher}
}

func (s *PlacesService) Search(ctx context.Context, query string) ([]model.Place, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 || len(query) > 200 {
		return nil, apperr.Validation("invalid search query", []validate.FieldError{{Field: "q", Rule: "len", Param: "2-200"}})
	}
	if s.searcher == nil {
		return nil, apperr.Dependency(ErrNotConfigured, "places search is not configured")
	}

	places, err := s.searcher.Search(ctx, query)
	if err != nil {
		if errors.Is(err, gateway.ErrNotConfigured) {
			return nil, apperr.Dependency(err, "places search is not configured")
		}
		logger.Error("places search failed", "query", query, "error", err)
		return nil, apperr.Dependency(err, "places search failed")
	}
	return places, nil
}

type OnboardingConfig struct {
	MonthlyQuota int
}

// OnboardingService creates a business for a user that has none yet.
type OnboardingService struct {
	tx         Transactor
	users      UserRepository
	businesses BusinessRepository
	cfg        OnboardingConfig
}

func NewOnboardingService(tx Transactor, users UserRepository, businesses BusinessRepository, cfg OnboardingConfig) *OnboardingService {
	return &OnboardingService{tx: tx, users: users, businesses: businesses, cfg: cfg}
}

func (s *OnboardingService) Onboard(ctx context.Context, identity *auth.Identity, req model.OnboardRequest) (*model.Business, error) {
	if identity == nil {
		return nil, apperr.Wrap(apperr.KindUnauthenticated, ErrUnauthenticated, "")
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if req.Phone != "" {
		req.Phone, _ = validate.NormalizeUKPhone(req.Phone)
	}

	user, err := ensureUser(ctx, s.users, identity)
	if err != nil {
		return nil, err
	}
	if user.BusinessID != nil {
		return nil, apperr.Wrap(apperr.KindValidation, ErrAlreadyOnboarded, "ALREADY_ONBOARDED")
	}

	var business *model.Business
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		created, err := s.businesses.Create(ctx, &model.Business{
			Name:       req.Name,
			PlaceID:    req.PlaceID,
			Address:    req.Address,
			Phone:      req.Phone,
			Website:    req.Website,
			IsActive:   true,
			Settings:   map[string]any{},
			SmsLimit:   s.cfg.MonthlyQuota,
			EmailLimit: s.cfg.MonthlyQuota,
		})
		if err != nil {
			return err
		}
		if err := s.users.LinkBusiness(ctx, user.ID, created.ID); err != nil {
			return err
		}
		business = created
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrConcurrentUpdate) {
			return nil, apperr.Wrap(apperr.KindValidation, ErrAlreadyOnboarded, "ALREADY_ONBOARDED")
		}
		logger.Error("failed to onboard business", "user_id", user.ID, "place_id", req.PlaceID, "error", err)
		return nil, apperr.Internal(err, "failed to create business")
	}

	logger.Info("business onboarded", "business_id", business.ID, "user_id", user.ID)
	return business, nil
}

// ensureUser loads the user of identity, creating it when provisioning was missed.
func ensureUser(ctx context.Context, users UserRepository, identity *auth.Identity) (*model.User, error) {
	user, err := users.GetByProviderID(ctx, identity.ProviderUserID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		logger.Error("failed to load user", "provider_user_id", identity.ProviderUserID, "error", err)
		return nil, apperr.Internal(err, "failed to load user")
	}

	user, err = users.Create(ctx, &model.User{
		ProviderUserID: identity.ProviderUserID,
		Email:          identity.Email,
		Name:           identity.Name,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		user, err = users.GetByProviderID(ctx, identity.ProviderUserID)
	}
	if err != nil {
		logger.Error("failed to create user", "provider_user_id", identity.ProviderUserID, "error", err)
		return nil, apperr.Internal(err, "failed to create user")
	}
	logger.Info("user created lazily", "provider_user_id", identity.ProviderUserID, "user_id", user.ID)
	return user, nil
}
