package services

import (
	"context"
	"time"

	"github.com/nimasrn/review-runner/internal/apperr"
	"github.com/nimasrn/review-runner/internal/model"
	"github.com/nimasrn/review-runner/internal/validate"
	"github.com/nimasrn/review-runner/pkg/logger"
)

// AnalyticsQuery is the raw filter as received from the caller.
type AnalyticsQuery struct {
	Channel string
	From    string
	To      string
}

type AnalyticsService struct {
	repo AnalyticsRepository
}

func NewAnalyticsService(repo AnalyticsRepository) *AnalyticsService {
	return &AnalyticsService{repo: repo}
}

func (s *AnalyticsService) Summary(ctx context.Context, businessID string, q AnalyticsQuery) (*model.AnalyticsSummary, error) {
	f, err := parseAnalyticsQuery(q)
	if err != nil {
		return nil, err
	}

	summary, err := s.repo.Summary(ctx, businessID, f)
	if err != nil {
		logger.Error("failed to compute analytics", "business_id", businessID, "error", err)
		return nil, apperr.Internal(err, "failed to compute analytics")
	}
	return summary, nil
}

func parseAnalyticsQuery(q AnalyticsQuery) (model.AnalyticsFilter, error) {
	var f model.AnalyticsFilter
	if q.Channel != "" {
		ch, err := validate.Channel(q.Channel)
		if err != nil {
			return f, err
		}
		f.Channel = &ch
	}

	var err error
	if f.From, err = parseTime("from", q.From); err != nil {
		return f, err
	}
	if f.To, err = parseTime("to", q.To); err != nil {
		return f, err
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return f, apperr.Validation("invalid date range", []validate.FieldError{{Field: "to", Rule: "gtefield", Param: "from"}})
	}
	return f, nil
}

// parseTime accepts RFC3339 timestamps or plain dates.
func parseTime(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, apperr.Validation("invalid date", []validate.FieldError{{Field: field, Rule: "datetime"}})
}
