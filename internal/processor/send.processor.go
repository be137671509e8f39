package processor

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nimasrn/review-runner/internal/model"
	"github.com/nimasrn/review-runner/internal/queue"
	"github.com/nimasrn/review-runner/internal/services"
	"github.com/nimasrn/review-runner/pkg/logger"
)

var errInvalidJob = errors.New("invalid send job")

type JobSender interface {
	SendOne(ctx context.Context, businessID, id string) (*model.SendResult, error)
}

// SendProcessor dispatches queued review requests. Only transient failures
// are returned so the message stays pending; everything else is acked.
type SendProcessor struct {
	sender  JobSender
	metrics *ServiceMetrics
}

func NewSendProcessor(sender JobSender, metrics *ServiceMetrics) *SendProcessor {
	if metrics == nil {
		metrics = NewServiceMetrics()
	}
	return &SendProcessor{sender: sender, metrics: metrics}
}

func (p *SendProcessor) GetType() string {
	return "review-request.send"
}

func (p *SendProcessor) Process(ctx context.Context, msg *queue.Message) error {
	job, err := decodeJob(msg.Data)
	if err != nil {
		logger.Error("dropping malformed send job", "stream_id", msg.ID, "error", err)
		p.metrics.RecordDrop()
		return nil
	}

	start := time.Now()
	res, err := p.sender.SendOne(ctx, job.BusinessID, job.ReviewRequestID)
	if err == nil {
		p.metrics.RecordSuccess(time.Since(start))
		logger.Debug("send job done", "stream_id", msg.ID, "review_request_id", job.ReviewRequestID, "message_id", res.MessageID, "attempts", msg.Attempts)
		return nil
	}

	if services.IsRetryable(err) {
		p.metrics.RecordRetry()
		logger.Warn("send job will be retried", "stream_id", msg.ID, "business_id", job.BusinessID, "review_request_id", job.ReviewRequestID, "attempts", msg.Attempts, "error", err)
		return err
	}

	p.metrics.RecordDrop()
	logger.Warn("send job failed permanently", "stream_id", msg.ID, "business_id", job.BusinessID, "review_request_id", job.ReviewRequestID, "error", err)
	return nil
}

func decodeJob(data []byte) (*model.SendJob, error) {
	var job model.SendJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, errors.Join(errInvalidJob, err)
	}
	if job.BusinessID == "" || job.ReviewRequestID == "" {
		return nil, errInvalidJob
	}
	return &job, nil
}
