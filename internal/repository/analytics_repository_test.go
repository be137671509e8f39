package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/nimasrn/review-runner/internal/model"
	"github.com/nimasrn/review-runner/pkg/pg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestAnalyticsRepository_Summary(t *testing.T) {
	db := setupTestDB(t).DB
	rrRepo := NewReviewRequestRepository(db)
	repo := NewAnalyticsRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	a := seedRequest(t, rrRepo, "biz-a", model.ChannelEmail)
	b := seedRequest(t, rrRepo, "biz-a", model.ChannelEmail)
	c := seedRequest(t, rrRepo, "biz-a", model.ChannelSMS)
	seedRequest(t, rrRepo, "biz-a", model.ChannelSMS)
	seedRequest(t, rrRepo, "biz-b", model.ChannelSMS)

	require.NoError(t, rrRepo.MarkSent(ctx, "biz-a", a.ID, "m-a", now))
	require.NoError(t, rrRepo.MarkSent(ctx, "biz-a", b.ID, "m-b", now))
	require.NoError(t, rrRepo.MarkSent(ctx, "biz-a", c.ID, "m-c", now))
	require.NoError(t, rrRepo.MarkClicked(ctx, a.ID, now))
	require.NoError(t, rrRepo.MarkClicked(ctx, a.ID, now.Add(time.Minute)))

	summary, err := repo.Summary(ctx, "biz-a", model.AnalyticsFilter{})
	require.NoError(t, err)

	assert.Equal(t, int64(4), summary.Total)
	assert.Equal(t, int64(1), summary.ByStatus[model.StatusQueued])
	assert.Equal(t, int64(2), summary.ByStatus[model.StatusSent])
	assert.Equal(t, int64(1), summary.ByStatus[model.StatusClicked])
	assert.Equal(t, model.ChannelStats{Total: 2, Sent: 2, Clicked: 1}, summary.ByChannel[model.ChannelEmail])
	assert.Equal(t, model.ChannelStats{Total: 2, Sent: 1}, summary.ByChannel[model.ChannelSMS])
	assert.InDelta(t, 1.0/3.0, summary.ClickThroughRate, 0.0001)

	sms := model.ChannelSMS
	summary, err = repo.Summary(ctx, "biz-a", model.AnalyticsFilter{Channel: &sms})
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.Total)
	assert.NotContains(t, summary.ByChannel, model.ChannelEmail)
}

func TestAnalyticsRepository_BindsChannelAsArgument(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	repo := NewAnalyticsRepository(pg.New(gdb, gdb))

	hostile := model.Channel("SMS' OR '1'='1")
	rows := sqlmock.NewRows([]string{"channel", "status", "total", "sent", "delivered", "clicked"})
	mock.ExpectQuery(`(?s)SELECT channel, status,.*COUNT\(clicked_at\) AS clicked.*FROM "review_requests" WHERE business_id = \$1 AND channel = \$2 GROUP BY channel, status`).
		WithArgs("biz-a", string(hostile)).
		WillReturnRows(rows)

	summary, err := repo.Summary(context.Background(), "biz-a", model.AnalyticsFilter{Channel: &hostile})
	require.NoError(t, err)
	assert.Zero(t, summary.Total)
	assert.Zero(t, summary.ClickThroughRate)
	require.NoError(t, mock.ExpectationsWereMet())
}
