package repository

import (
	"context"

	"github.com/nimasrn/review-runner/internal/model"
	"github.com/nimasrn/review-runner/pkg/pg"
)

type AnalyticsRepository struct {
	*pg.DB
}

func NewAnalyticsRepository(db *pg.DB) *AnalyticsRepository {
	return &AnalyticsRepository{
		db,
	}
}

type analyticsRow struct {
	Channel   string `gorm:"column:channel"`
	Status    string `gorm:"column:status"`
	Total     int64  `gorm:"column:total"`
	Sent      int64  `gorm:"column:sent"`
	Delivered int64  `gorm:"column:delivered"`
	Clicked   int64  `gorm:"column:clicked"`
}

// Summary aggregates review requests of a business. Every filter value is
// bound as a query argument.
func (r *AnalyticsRepository) Summary(ctx context.Context, businessID string, f model.AnalyticsFilter) (*model.AnalyticsSummary, error) {
	q := r.Read(ctx).Model(&ReviewRequestEntity{}).
		Select(`channel, status,
			COUNT(*) AS total,
			COUNT(sent_at) AS sent,
			COUNT(delivered_at) AS delivered,
			COUNT(clicked_at) AS clicked`).
		Where("business_id = ?", businessID)
	if f.Channel != nil {
		q = q.Where("channel = ?", string(*f.Channel))
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}

	var rows []analyticsRow
	if err := q.Group("channel, status").Scan(&rows).Error; err != nil {
		return nil, err
	}

	summary := &model.AnalyticsSummary{
		ByStatus:  map[model.ReviewRequestStatus]int64{},
		ByChannel: map[model.Channel]model.ChannelStats{},
	}
	var sent, clicked int64
	for _, row := range rows {
		ch := model.Channel(row.Channel)
		stats := summary.ByChannel[ch]
		stats.Total += row.Total
		stats.Sent += row.Sent
		stats.Delivered += row.Delivered
		stats.Clicked += row.Clicked
		summary.ByChannel[ch] = stats

		summary.ByStatus[model.ReviewRequestStatus(row.Status)] += row.Total
		summary.Total += row.Total
		sent += row.Sent
		clicked += row.Clicked
	}
	if sent > 0 {
		summary.ClickThroughRate = float64(clicked) / float64(sent)
	}
	return summary, nil
}
