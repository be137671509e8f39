package main

import (
	"os"
	"strings"
	"time"

	"github.com/nimasrn/review-runner/internal/auth"
	"github.com/nimasrn/review-runner/internal/config"
	gateway "github.com/nimasrn/review-runner/internal/gateways"
	"github.com/nimasrn/review-runner/internal/handlers"
	"github.com/nimasrn/review-runner/internal/queue"
	"github.com/nimasrn/review-runner/internal/repository"
	"github.com/nimasrn/review-runner/internal/services"
	xhttp "github.com/nimasrn/review-runner/pkg/http"
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
	logger.Info("starting api", "version", version, "commit", commit, "date", date, "env", cfg.AppEnv)

	if err := id.Init(cfg.SnowflakeNodeID); err != nil {
		logger.Error("failed to init id generator", "error", err)
		return
	}

	db, err := pg.CreateReadWrite(cfg.PostgresRead(), cfg.PostgresWrite(), cfg.PostgresDebugEnabled())
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", cfg.RedisUniversalKeyPrefix, cfg.Redis("api"))
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	if cfg.AppMetricsAddr != "" {
		hostname, _ := os.Hostname()
		if err := prom.Create(hostname, cfg.AppEnv, cfg.PromNamespace); err != nil {
			logger.Error("failed to create prometheus metrics", "error", err)
			return
		}
		go prom.ListenAndServer(cfg.AppMetricsAddr, cfg.AppMetricsURI)
	}

	// enqueue is optional; without a stream the api still sends synchronously
	var publisher services.Publisher
	sendQueue, err := queue.NewQueue(redisAdap, cfg.SendQueue())
	if err != nil {
		logger.Error("failed creating send queue, enqueue disabled", "error", err)
	} else {
		publisher = sendQueue
	}

	messenger, closeMessenger := newMessenger(cfg)
	defer closeMessenger()

	// repositories
	userRepo := repository.NewUserRepository(db)
	businessRepo := repository.NewBusinessRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	reviewRequestRepo := repository.NewReviewRequestRepository(db)
	eventRepo := repository.NewEventRepository(db)
	suppressionRepo := repository.NewSuppressionRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	// auth
	sessions := auth.NewSessionStore(redisAdap, cfg.SessionTTL)
	resolver := auth.NewResolver(sessions, cfg.AdminIDs())
	authenticator := auth.NewAuthenticator(auth.WorkOSConfig{
		APIKey:      cfg.WorkosAPIKey,
		ClientID:    cfg.WorkosClientID,
		RedirectURI: cfg.WorkosRedirectURI,
	}, sessions)

	// services
	setupStatus := services.NewSetupStatusChecker(businessRepo, customerRepo,
		services.NewSetupStatusCache(redisAdap, cfg.SetupStatusCacheTTL), cfg.SetupStatusCacheTTL)
	contextLoader := services.NewBusinessContextLoader(userRepo, businessRepo)
	userService := services.NewUserService(userRepo, businessRepo)
	onboardingService := services.NewOnboardingService(db, userRepo, businessRepo, services.OnboardingConfig{
		MonthlyQuota: cfg.DefaultMonthlyQuota,
	})
	placesService := services.NewPlacesService(gateway.NewPlacesClient(gateway.PlacesConfig{
		BaseURL: cfg.GooglePlacesBaseUrl,
		APIKey:  cfg.GooglePlacesAPIKey,
	}))
	businessService := services.NewBusinessService(businessRepo, setupStatus)
	customerService := services.NewCustomerService(customerRepo, setupStatus)
	reviewRequestService := services.NewReviewRequestService(reviewRequestRepo, customerRepo)
	dispatcher := services.NewDispatcher(reviewRequestRepo, customerRepo, businessRepo, suppressionRepo, eventRepo,
		messenger, publisher, services.DispatchConfig{
			BaseURL:   cfg.AppBaseUrl,
			BulkLimit: cfg.BulkDispatchLimit,
		})
	trackingService := services.NewTrackingService(reviewRequestRepo, customerRepo, businessRepo, suppressionRepo, eventRepo)
	analyticsService := services.NewAnalyticsService(analyticsRepo)
	healthService := services.NewHealthService(map[string]services.Pinger{
		"postgres": db,
		"redis":    redisAdap,
	})

	// transport
	resp := handlers.NewResponder(cfg.AppDebugErrors)
	guard := handlers.NewGuard(resolver, contextLoader, resp)

	s := xhttp.NewServer(xhttp.DefaultServerOption.WithTimeouts(cfg.HttpServerReadTimeout, cfg.HttpServerWriteTimeout))
	s.Use(xhttp.RequestIDMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(time.Duration(cfg.HttpRequestTimeout) * time.Second))
	s.Use(guard.Authenticate)

	handlers.RegisterHealthRoutes(s.Router, handlers.NewHealthHandler(healthService, resp, cfg.AppName))
	handlers.RegisterAuthRoutes(s.Router, handlers.NewAuthHandler(authenticator, resp, cfg.SessionTTL, cfg.AppEnv != "dev"))
	handlers.RegisterTrackingRoutes(s.Router, handlers.NewTrackingHandler(trackingService, resp))
	handlers.RegisterWebhookRoutes(s.Router, handlers.NewWebhookHandler(trackingService, userService, cfg.WebhookSecret, resp))

	g := s.Router.Group("/api/v1")
	handlers.RegisterUserRoutes(g, handlers.NewUserHandler(userService, onboardingService, placesService, setupStatus, contextLoader, resp))
	handlers.RegisterBusinessRoutes(g, handlers.NewBusinessHandler(businessService, resp), guard)
	handlers.RegisterCustomerRoutes(g, handlers.NewCustomerHandler(customerService, resp), guard)
	handlers.RegisterReviewRequestRoutes(g, handlers.NewReviewRequestHandler(reviewRequestService, dispatcher, analyticsService, resp), guard)

	done := s.CloseOnSignal()
	go func() {
		var err = s.ListenAndServe(cfg.HttpListenAddr)
		if err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	<-done
}

// newMessenger wires the providers that have credentials. A channel left
// unset fails its sends with a not configured reason.
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
	} else {
		logger.Warn("sendgrid is not configured, email sends will fail")
	}

	operators := gateway.OperatorsFromURLs(cfg.SmsPrimaryUrl, cfg.SmsSecondaryUrl, cfg.SmsBackupUrl)
	if len(operators) > 0 {
		client, err := gateway.NewSmsClient(gateway.SmsConfig{
			Operators:           operators,
			Sender:              cfg.SmsSender,
			Timeout:             5 * time.Second,
			MaxRetries:          2,
			RetryDelay:          100 * time.Millisecond,
			MaxConns:            256,
			HealthCheckInterval: 30 * time.Second,
		})
		if err != nil {
			logger.Error("failed to create sms client", "error", err)
		} else {
			sms = client
			closer = func() { _ = client.Close() }
		}
	} else {
		logger.Warn("no sms operators configured, sms sends will fail")
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
