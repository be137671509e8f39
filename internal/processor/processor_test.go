package processor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nimasrn/review-runner/internal/apperr"
	gateway "github.com/nimasrn/review-runner/internal/gateways"
	"github.com/nimasrn/review-runner/internal/model"
	"github.com/nimasrn/review-runner/internal/queue"
	"github.com/nimasrn/review-runner/internal/services"
	"github.com/nimasrn/review-runner/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) SendOne(ctx context.Context, businessID, id string) (*model.SendResult, error) {
	args := m.Called(ctx, businessID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SendResult), args.Error(1)
}

func jobMessage(t *testing.T, job model.SendJob) *queue.Message {
	t.Helper()
	data, err := json.Marshal(job)
	require.NoError(t, err)
	return &queue.Message{ID: "1-0", Data: data}
}

func TestSendProcessor_Process(t *testing.T) {
	job := model.SendJob{BusinessID: "b1", ReviewRequestID: "rr1"}

	t.Run("success acks", func(t *testing.T) {
		sender := new(MockSender)
		sender.On("SendOne", mock.Anything, "b1", "rr1").Return(&model.SendResult{MessageID: "m1"}, nil)
		metrics := NewServiceMetrics()
		p := NewSendProcessor(sender, metrics)

		assert.NoError(t, p.Process(context.Background(), jobMessage(t, job)))
		assert.EqualValues(t, 1, metrics.GetStats().Sent)
		sender.AssertExpectations(t)
	})

	t.Run("provider outage is retried", func(t *testing.T) {
		sender := new(MockSender)
		sender.On("SendOne", mock.Anything, "b1", "rr1").Return(nil, gateway.ErrUnavailable)
		metrics := NewServiceMetrics()
		p := NewSendProcessor(sender, metrics)

		err := p.Process(context.Background(), jobMessage(t, job))
		assert.ErrorIs(t, err, gateway.ErrUnavailable)
		assert.EqualValues(t, 1, metrics.GetStats().Retried)
	})

	t.Run("rejection is acked", func(t *testing.T) {
		sender := new(MockSender)
		sendErr := apperr.Wrap(apperr.KindDependency, services.ErrSendFailed, "SEND_FAILED").Public()
		sender.On("SendOne", mock.Anything, "b1", "rr1").Return(nil, sendErr)
		metrics := NewServiceMetrics()
		p := NewSendProcessor(sender, metrics)

		assert.NoError(t, p.Process(context.Background(), jobMessage(t, job)))
		assert.EqualValues(t, 1, metrics.GetStats().Dropped)
	})

	t.Run("foreign request is acked", func(t *testing.T) {
		sender := new(MockSender)
		sender.On("SendOne", mock.Anything, "b1", "rr1").Return(nil, apperr.NotFound("review request not found"))
		p := NewSendProcessor(sender, nil)

		assert.NoError(t, p.Process(context.Background(), jobMessage(t, job)))
	})

	t.Run("malformed payload is dropped", func(t *testing.T) {
		sender := new(MockSender)
		metrics := NewServiceMetrics()
		p := NewSendProcessor(sender, metrics)

		assert.NoError(t, p.Process(context.Background(), &queue.Message{ID: "1-0", Data: []byte("{")}))
		assert.NoError(t, p.Process(context.Background(), jobMessage(t, model.SendJob{BusinessID: "b1"})))
		assert.EqualValues(t, 2, metrics.GetStats().Dropped)
		sender.AssertNotCalled(t, "SendOne", mock.Anything, mock.Anything, mock.Anything)
	})
}

type recordingProcessor struct {
	seen chan *queue.Message
	err  error
}

func (p *recordingProcessor) Process(_ context.Context, msg *queue.Message) error {
	p.seen <- msg
	return p.err
}

func (p *recordingProcessor) GetType() string { return "test" }

func setupTestRedis(t *testing.T) redis.RedisAdapter {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redis.FromClient(client, "")
}

func testConfig() Config {
	return Config{
		Queue: queue.QueueConfig{
			Name:              "sends",
			ConsumerGroup:     "dispatchers",
			ConsumerName:      "worker",
			MaxRetries:        3,
			VisibilityTimeout: 5 * time.Second,
			PollInterval:      20 * time.Millisecond,
			BatchSize:         5,
		},
		Consumers:         2,
		Workers:           2,
		ProcessingTimeout: time.Second,
	}
}

func TestProcessorService_ConsumesPublishedJobs(t *testing.T) {
	adapter := setupTestRedis(t)
	proc := &recordingProcessor{seen: make(chan *queue.Message, 10)}

	svc, err := NewProcessorService(adapter, testConfig(), proc, nil)
	require.NoError(t, err)
	require.NoError(t, svc.Start())
	defer svc.Stop()

	publisher, err := queue.NewQueue(adapter, testConfig().Queue)
	require.NoError(t, err)
	_, err = publisher.PublishJSON(context.Background(), model.SendJob{BusinessID: "b1", ReviewRequestID: "rr1"}, nil)
	require.NoError(t, err)

	select {
	case msg := <-proc.seen:
		var job model.SendJob
		require.NoError(t, json.Unmarshal(msg.Data, &job))
		assert.Equal(t, "rr1", job.ReviewRequestID)
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}

	assert.Eventually(t, func() bool {
		stats, err := publisher.GetStats(context.Background())
		return err == nil && stats.PendingMessages == 0
	}, 2*time.Second, 20*time.Millisecond)
}

func TestProcessorService_FailedJobStaysPending(t *testing.T) {
	adapter := setupTestRedis(t)
	proc := &recordingProcessor{seen: make(chan *queue.Message, 10), err: errors.New("provider down")}

	cfg := testConfig()
	cfg.Consumers = 1
	svc, err := NewProcessorService(adapter, cfg, proc, nil)
	require.NoError(t, err)
	require.NoError(t, svc.Start())
	defer svc.Stop()

	publisher, err := queue.NewQueue(adapter, cfg.Queue)
	require.NoError(t, err)
	_, err = publisher.PublishJSON(context.Background(), model.SendJob{BusinessID: "b1", ReviewRequestID: "rr1"}, nil)
	require.NoError(t, err)

	select {
	case <-proc.seen:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}

	stats, err := publisher.GetStats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.PendingMessages)
}

func TestNewProcessorService_RequiresProcessor(t *testing.T) {
	_, err := NewProcessorService(nil, Config{}, nil, nil)
	assert.Error(t, err)
}

func TestServiceMetrics(t *testing.T) {
	m := NewServiceMetrics()
	m.RecordSuccess(10 * time.Millisecond)
	m.RecordSuccess(30 * time.Millisecond)
	m.RecordRetry()
	m.RecordDrop()

	st := m.GetStats()
	assert.EqualValues(t, 2, st.Sent)
	assert.EqualValues(t, 1, st.Retried)
	assert.EqualValues(t, 1, st.Dropped)
	assert.Equal(t, 20*time.Millisecond, st.AvgDuration)
}
