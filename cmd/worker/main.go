package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nimasrn/review-runner/internal/config"
	gateway "github.com/nimasrn/review-runner/internal/gateways"
	"github.com/nimasrn/review-runner/internal/processor"
	"github.com/nimasrn/review-runner/internal/repository"
	"github.com/nimasrn/review-runner/internal/services"
	"github.com/nimasrn/review-runner/pkg/id"
	"github.com/nimasrn/review-runner/pkg/logger"
	"github.com/nimasrn/review-runner/pkg/pg"
	"github.com/nimasrn/review-runner/pkg/prom"
	"github.com/nimasrn/review-runner/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	cfg := config.Get()
	logger.Info("starting worker", "version", version, "commit", commit, "date", date, "env", cfg.AppEnv)

	if err := id.Init(cfg.SnowflakeNodeID); err != nil {
		logger.Error("failed to init id generator", "error", err)
		return
	}

	db, err := pg.CreateReadWrite(cfg.PostgresRead(), cfg.PostgresWrite(), cfg.PostgresDebugEnabled())
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", cfg.RedisUniversalKeyPrefix, cfg.Redis("worker"))
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	if cfg.AppMetricsAddr != "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		if err := prom.Create(hostname, cfg.AppEnv, cfg.PromNamespace); err != nil {
			logger.Error("failed to create prometheus metrics", "error", err)
			return
		}
		go prom.ListenAndServer(cfg.AppMetricsAddr, cfg.AppMetricsURI)
	}

	messenger, closeMessenger := newMessenger(cfg)
	defer closeMessenger()

	reviewRequestRepo := repository.NewReviewRequestRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	businessRepo := repository.NewBusinessRepository(db)
	suppressionRepo := repository.NewSuppressionRepository(db)
	eventRepo := repository.NewEventRepository(db)

	// the worker never enqueues, so it gets no publisher
	dispatcher := services.NewDispatcher(reviewRequestRepo, customerRepo, businessRepo, suppressionRepo, eventRepo,
		messenger, nil, services.DispatchConfig{BaseURL: cfg.AppBaseUrl})

	metrics := processor.NewServiceMetrics()
	service, err := processor.NewProcessorService(redisAdap, processor.Config{
		Queue:     cfg.SendQueue(),
		Consumers: 1,
		Workers:   cfg.WorkerCount,
		// leave room to ack before the entry becomes claimable again
		ProcessingTimeout: cfg.QueueVisibilityTimeout * 2 / 3,
	}, processor.NewSendProcessor(dispatcher, metrics), metrics)
	if err != nil {
		logger.Error("failed to create processor", "error", err)
		return
	}

	if err := service.Start(); err != nil {
		logger.Error("failed to start processor", "error", err)
		return
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	service.Stop()
}

func newMessenger(cfg *config.Config) (*gateway.Messenger, func()) {
	var email, sms gateway.Sender
	closer := func() {}

	if cfg.SendgridAPIKey != "" {
		email = gateway.NewEmailClient(gateway.EmailConfig{
			BaseURL:   cfg.SendgridBaseUrl,
			APIKey:    cfg.SendgridAPIKey,
			FromEmail: cfg.SendgridFrom,
			FromName:  cfg.SendgridFromName,
		})
	}

	if operators := gateway.OperatorsFromURLs(cfg.SmsPrimaryUrl, cfg.SmsSecondaryUrl, cfg.SmsBackupUrl); len(operators) > 0 {
		client, err := gateway.NewSmsClient(gateway.SmsConfig{
			Operators:               operators,
			Sender:                  cfg.SmsSender,
			Timeout:                 5 * time.Second,
			MaxRetries:              3,
			RetryDelay:              100 * time.Millisecond,
			MaxConns:                512,
			HealthCheckInterval:     30 * time.Second,
			CircuitBreakerThreshold: 5,
			CircuitBreakerTimeout:   60 * time.Second,
		})
		if err != nil {
			logger.Error("failed to create sms client", "error", err)
		} else {
			sms = client
			closer = func() { _ = client.Close() }
		}
	}

	return gateway.NewMessenger(email, sms), closer
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
