package main

import (
	"context"
	"net/http"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/dig"
	"go.uber.org/zap"

	httphandler "github.com/ruudy-sib/deferq/internal/adapter/primary/http"
	"github.com/ruudy-sib/deferq/internal/adapter/primary/worker"
	"github.com/ruudy-sib/deferq/internal/adapter/secondary/httpproducer"
	"github.com/ruudy-sib/deferq/internal/adapter/secondary/kafkaproducer"
	"github.com/ruudy-sib/deferq/internal/adapter/secondary/mailer"
	"github.com/ruudy-sib/deferq/internal/adapter/secondary/objectstore"
	"github.com/ruudy-sib/deferq/internal/adapter/secondary/producerfactory"
	"github.com/ruudy-sib/deferq/internal/adapter/secondary/redisstore"
	"github.com/ruudy-sib/deferq/internal/config"
	"github.com/ruudy-sib/deferq/internal/domain/service"
	"github.com/ruudy-sib/deferq/internal/port/primary"
	"github.com/ruudy-sib/deferq/internal/port/secondary"
)

func buildContainer(ctx context.Context) (*dig.Container, error) {
	c := dig.New()

	// --- Configuration ---
	if err := c.Provide(config.New); err != nil {
		return nil, err
	}

	// --- Logger ---
	if err := c.Provide(newLogger); err != nil {
		return nil, err
	}

	// --- Secondary Adapters (infrastructure) ---

	// Redis client (standalone, sentinel or cluster)
	if err := c.Provide(func(cfg *config.Config, logger *zap.Logger) (goredis.UniversalClient, error) {
		return redisstore.NewClient(ctx, cfg, logger)
	}); err != nil {
		return nil, err
	}

	// Dead-letter store (implements secondary.DeadLetterStore)
	if err := c.Provide(redisstore.NewDeadLetterStore); err != nil {
		return nil, err
	}

	// Campaign publishers (implements secondary.PublisherDirectory)
	if err := c.Provide(redisstore.NewPublisherDirectory); err != nil {
		return nil, err
	}

	// Collect all health checks
	if err := c.Provide(func(client goredis.UniversalClient) []secondary.HealthChecker {
		return []secondary.HealthChecker{redisstore.NewHealthCheck(client)}
	}); err != nil {
		return nil, err
	}

	// Kafka producer
	if err := c.Provide(kafkaproducer.NewProducer, dig.Name("kafka")); err != nil {
		return nil, err
	}

	// HTTP webhook producer
	if err := c.Provide(httpproducer.NewProducer, dig.Name("http")); err != nil {
		return nil, err
	}

	// Producer factory (implements secondary.MessageProducer)
	// Routes each notification to a publisher webhook or the Kafka topic
	type producerParams struct {
		dig.In
		KafkaProd secondary.MessageProducer `name:"kafka"`
		HTTPProd  secondary.MessageProducer `name:"http"`
		Logger    *zap.Logger
	}

	if err := c.Provide(func(params producerParams) secondary.MessageProducer {
		return producerfactory.NewFactory(params.KafkaProd, params.HTTPProd, params.Logger)
	}); err != nil {
		return nil, err
	}

	// Mail API (implements secondary.EmailSender)
	if err := c.Provide(mailer.NewClient); err != nil {
		return nil, err
	}

	// Object storage (implements secondary.ObjectUploader)
	if err := c.Provide(objectstore.NewUploader); err != nil {
		return nil, err
	}

	// --- Domain Services ---

	if err := c.Provide(func(cfg *config.Config, store secondary.DeadLetterStore, logger *zap.Logger) *service.JobQueue {
		return service.NewJobQueue(store, service.QueueOptions{
			MaxAttempts:    cfg.QueueMaxAttempts,
			RetryBaseDelay: cfg.QueueRetryBaseDelay,
			RetryMaxDelay:  cfg.QueueRetryMaxDelay,
			DispatchPause:  cfg.QueueDispatchPause,
		}, logger)
	}); err != nil {
		return nil, err
	}

	if err := c.Provide(func(
		cfg *config.Config,
		directory secondary.PublisherDirectory,
		producer secondary.MessageProducer,
		logger *zap.Logger,
	) *service.PublisherNotifier {
		return service.NewPublisherNotifier(directory, producer, cfg.NotificationTopic, logger)
	}); err != nil {
		return nil, err
	}

	if err := c.Provide(service.NewBulkEmailer); err != nil {
		return nil, err
	}

	// Bind the queue, with its handlers registered, to the primary port interface
	if err := c.Provide(func(q *service.JobQueue, n *service.PublisherNotifier, e *service.BulkEmailer) primary.JobService {
		service.RegisterHandlers(q, n, e)
		return q
	}); err != nil {
		return nil, err
	}

	if err := c.Provide(func(cfg *config.Config, logger *zap.Logger) *service.UploadCoordinator {
		return service.NewUploadCoordinator(cfg.UploadMaxConcurrent, cfg.UploadTimeout, logger)
	}); err != nil {
		return nil, err
	}

	if err := c.Provide(func(
		coordinator *service.UploadCoordinator,
		uploader secondary.ObjectUploader,
		logger *zap.Logger,
	) primary.UploadService {
		return service.NewUploadService(coordinator, uploader, logger)
	}); err != nil {
		return nil, err
	}

	// --- Primary Adapters ---

	// HTTP router
	if err := c.Provide(func(
		jobs primary.JobService,
		uploads primary.UploadService,
		checks []secondary.HealthChecker,
		cfg *config.Config,
		logger *zap.Logger,
	) http.Handler {
		limiter := httphandler.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
		return httphandler.NewRouter(jobs, uploads, checks, limiter, logger)
	}); err != nil {
		return nil, err
	}

	// Worker
	if err := c.Provide(func(jobs primary.JobService, uploads primary.UploadService, cfg *config.Config, logger *zap.Logger) *worker.Worker {
		return worker.NewWorker(jobs, uploads, cfg.StatsInterval, logger)
	}); err != nil {
		return nil, err
	}

	return c, nil
}
