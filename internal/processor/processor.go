package processor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nimasrn/review-runner/internal/queue"
	"github.com/nimasrn/review-runner/pkg/logger"
	"github.com/nimasrn/review-runner/pkg/redis"
	"github.com/nimasrn/review-runner/pkg/worker"
)

const (
	HealthInterval  = time.Second * 30
	ReportInterval  = time.Second * 30
	ShutdownTimeout = time.Minute

	// pending entries above this are reported as lag
	lagThreshold = 10_000
)

// Processor handles one decoded queue message. A returned error leaves the
// message pending for redelivery.
type Processor interface {
	Process(ctx context.Context, message *queue.Message) error
	GetType() string
}

type Config struct {
	Queue             queue.QueueConfig
	Consumers         int
	Workers           int
	ProcessingTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Consumers <= 0 {
		c.Consumers = 1
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.ProcessingTimeout <= 0 {
		c.ProcessingTimeout = 20 * time.Second
	}
	return c
}

// ProcessorService reads the send stream with a set of consumers and hands
// every message to a bounded worker pool.
type ProcessorService struct {
	adapter   redis.RedisAdapter
	cfg       Config
	queues    []*queue.Queue
	processor Processor
	metrics   *ServiceMetrics
	worker    *worker.WorkerManager
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewProcessorService(adapter redis.RedisAdapter, cfg Config, processor Processor, metrics *ServiceMetrics) (*ProcessorService, error) {
	if processor == nil {
		return nil, errors.New("processor is required")
	}
	if metrics == nil {
		metrics = NewServiceMetrics()
	}
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &ProcessorService{
		adapter:   adapter,
		cfg:       cfg,
		processor: processor,
		metrics:   metrics,
		worker:    worker.NewWorkerManager(cfg.Workers*int(max(cfg.Queue.BatchSize, 1)), cfg.Workers),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

func (s *ProcessorService) Start() error {
	logger.Info("starting processor service", "processor", s.processor.GetType(), "consumers", s.cfg.Consumers, "workers", s.cfg.Workers)

	s.worker.SetWorker(s.workerHandler)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.worker.Start(); err != nil && !errors.Is(err, worker.ErrStopped) {
			logger.Error("worker manager stopped", "error", err)
		}
	}()

	for i := 0; i < s.cfg.Consumers; i++ {
		qc := s.cfg.Queue
		qc.ConsumerName = fmt.Sprintf("%s-%d", qc.ConsumerName, i)

		q, err := queue.NewQueue(s.adapter, qc)
		if err != nil {
			return fmt.Errorf("failed to create consumer %d: %w", i, err)
		}
		if err := q.Consume(s.messageHandler); err != nil {
			return fmt.Errorf("failed to start consumer %d: %w", i, err)
		}
		s.queues = append(s.queues, q)
	}

	s.wg.Add(2)
	go s.every(ReportInterval, s.reportMetrics)
	go s.every(HealthInterval, s.performHealthCheck)

	logger.Info("processor service started", "consumers", len(s.queues))
	return nil
}

func (s *ProcessorService) every(interval time.Duration, fn func()) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fn()
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *ProcessorService) reportMetrics() {
	st := s.metrics.GetStats()
	logger.Info("processor metrics",
		"sent", st.Sent,
		"retried", st.Retried,
		"dropped", st.Dropped,
		"rate_per_second", st.RatePerSecond,
		"avg_duration_ms", st.AvgDuration.Milliseconds(),
		"uptime_seconds", int64(st.Uptime.Seconds()),
		"buffered", s.worker.GetUnreadCount())
}

func (s *ProcessorService) performHealthCheck() {
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()

	if err := s.adapter.Ping(ctx); err != nil {
		logger.Error("health check failed: redis unreachable", "error", err)
		return
	}
	if len(s.queues) == 0 {
		return
	}
	stats, err := s.queues[0].GetStats(ctx)
	if err != nil {
		logger.Warn("health check: queue stats unavailable", "error", err)
		return
	}
	if stats.PendingMessages > lagThreshold {
		logger.Warn("health check: queue lag is high", "pending", stats.PendingMessages, "length", stats.TotalMessages)
	}
}

// Stop drains the consumers, then the worker pool.
func (s *ProcessorService) Stop() {
	logger.Info("shutting down processor service")
	s.cancel()

	var wg sync.WaitGroup
	for i, q := range s.queues {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := q.Stop(ShutdownTimeout); err != nil {
				logger.Error("error stopping consumer", "consumer", i, "error", err)
			}
		}()
	}
	wg.Wait()

	s.worker.Exit()
	s.wg.Wait()
	s.reportMetrics()
	logger.Info("processor service stopped")
}

type job struct {
	ctx    context.Context
	msg    *queue.Message
	result chan error
}

// messageHandler blocks the consumer until a worker has processed msg so
// the ack decision follows the processing outcome.
func (s *ProcessorService) messageHandler(ctx context.Context, msg *queue.Message) error {
	jobCtx, cancel := context.WithTimeout(ctx, s.cfg.ProcessingTimeout)
	defer cancel()

	j := &job{ctx: jobCtx, msg: msg, result: make(chan error, 1)}
	if err := s.worker.Enqueue(j); err != nil {
		return err
	}

	select {
	case err := <-j.result:
		return err
	case <-jobCtx.Done():
		return fmt.Errorf("timed out waiting for worker: %w", jobCtx.Err())
	}
}

func (s *ProcessorService) workerHandler(workerIndex int, v interface{}) {
	j, ok := v.(*job)
	if !ok {
		logger.Error("invalid job type in worker", "worker", workerIndex)
		return
	}
	if j.ctx.Err() != nil {
		logger.Warn("job expired before processing", "worker", workerIndex, "stream_id", j.msg.ID)
		return
	}
	// result is buffered; the handler may already have given up
	j.result <- s.processor.Process(j.ctx, j.msg)
}
