package services

import (
	"context"
	"errors"

	"github.com/nimasrn/review-runner/internal/apperr"
	"github.com/nimasrn/review-runner/internal/auth"
	"github.com/nimasrn/review-runner/internal/model"
	"github.com/nimasrn/review-runner/internal/repository"
	"github.com/nimasrn/review-runner/internal/validate"
	"github.com/nimasrn/review-runner/pkg/logger"
)

type BusinessService struct {
	businesses BusinessRepository
	status     StatusInvalidator
}

func NewBusinessService(businesses BusinessRepository, status StatusInvalidator) *BusinessService {
	return &BusinessService{businesses: businesses, status: status}
}

func (s *BusinessService) Get(ctx context.Context, businessID string) (*model.Business, error) {
	b, err := s.businesses.GetByID(ctx, businessID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("business not found")
		}
		logger.Error("failed to load business", "business_id", businessID, "error", err)
		return nil, apperr.Internal(err, "failed to load business")
	}
	return b, nil
}

func (s *BusinessService) UpdateSettings(ctx context.Context, businessID string, req model.UpdateSettingsRequest) (*model.Business, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if err := validateTemplates(req.Settings); err != nil {
		return nil, err
	}

	b, err := s.businesses.UpdateSettings(ctx, businessID, req.Settings)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("business not found")
		}
		logger.Error("failed to update settings", "business_id", businessID, "error", err)
		return nil, apperr.Internal(err, "failed to update settings")
	}
	if s.status != nil {
		s.status.Invalidate(ctx, businessID)
	}
	return b, nil
}

// ListAll lists every business. Only admins may call it.
func (s *BusinessService) ListAll(ctx context.Context, identity *auth.Identity, page model.Page) ([]*model.Business, int64, error) {
	if !identity.HasRole(auth.RoleAdmin) {
		return nil, 0, apperr.Forbidden("admin role required")
	}
	items, total, err := s.businesses.List(ctx, page.Normalize())
	if err != nil {
		logger.Error("failed to list businesses", "error", err)
		return nil, 0, apperr.Internal(err, "failed to list businesses")
	}
	return items, total, nil
}

// validateTemplates rejects message templates that do not parse.
func validateTemplates(settings map[string]any) error {
	var details []validate.FieldError
	for _, key := range []string{SettingSmsTemplate, SettingEmailSubject, SettingEmailTemplate} {
		v, ok := settings[key]
		if !ok {
			continue
		}
		text, isString := v.(string)
		if !isString {
			details = append(details, validate.FieldError{Field: key, Rule: "string"})
			continue
		}
		if _, err := execute(key, text, messageData{}); err != nil {
			details = append(details, validate.FieldError{Field: key, Rule: "template"})
		}
	}
	if len(details) > 0 {
		return apperr.Validation("invalid settings", details)
	}
	return nil
}
