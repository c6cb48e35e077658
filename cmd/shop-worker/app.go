package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/lighthub/lighthub/config"
	"github.com/lighthub/lighthub/internal/broker/kafka"
	"github.com/lighthub/lighthub/internal/services/progress"
	"github.com/lighthub/lighthub/internal/storage/memshop"
	"github.com/lighthub/lighthub/internal/storage/pgshop"
)

type workerFactories struct {
	newStorage  func(cfg *config.Config) (repo progress.Repository, closeFn func(), err error)
	newProducer func(cfg *config.Config) progress.Producer
}

func defaultWorkerFactories() workerFactories {
	return workerFactories{
		newStorage: func(cfg *config.Config) (progress.Repository, func(), error) {
			if cfg.Database.Host == "" {
				return memshop.New(), func() {}, nil
			}
			sslMode := cfg.Database.SSLMode
			if sslMode == "" {
				sslMode = "disable"
			}
			connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
				cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, sslMode)
			st, err := pgshop.New(connString)
			if err != nil {
				return nil, nil, err
			}
			return st, st.Close, nil
		},
		newProducer: func(cfg *config.Config) progress.Producer {
			brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
			return kafka.NewProducer(brokers)
		},
	}
}

func buildRunner(cfg *config.Config, repo progress.Repository, producer progress.Producer) *progress.Runner {
	topic := cfg.Kafka.OrderStatusChangedTopicName
	if topic == "" {
		topic = "order.status_changed"
	}

	pollInterval := time.Duration(cfg.LightHub.WorkerPollIntervalSeconds) * time.Second
	if pollInterval <= 0 {
		pollInterval = 1 * time.Second
	}
	batchSize := cfg.LightHub.WorkerBatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	concurrency := cfg.LightHub.WorkerConcurrency
	if concurrency <= 0 {
		concurrency = 10
	}
	lease := time.Duration(cfg.LightHub.WorkerLeaseSeconds) * time.Second
	if lease <= 0 {
		lease = 30 * time.Second
	}

	return progress.New(repo, producer, topic).
		WithSettings(pollInterval, batchSize, concurrency, lease).
		WithPlanner(progress.PlannerConfig{
			StepMinDelay: time.Duration(cfg.LightHub.ProgressStepMinSeconds) * time.Second,
			StepMaxDelay: time.Duration(cfg.LightHub.ProgressStepMaxSeconds) * time.Second,
		})
}

func RunShopWorker(ctx context.Context, cfg *config.Config, f workerFactories) error {
	repo, closeFn, err := f.newStorage(cfg)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}

	producer := f.newProducer(cfg)
	runner := buildRunner(cfg, repo, producer)

	// Ops HTTP server is optional; the runner works without it.
	if cfg.LightHub.WorkerHTTPAddr != "" {
		go func() {
			_ = runWorkerHTTPServer(ctx, workerHTTPOpts{
				httpAddr:    cfg.LightHub.WorkerHTTPAddr,
				swaggerPath: os.Getenv("swaggerPath"),
				runner:      runner,
				cfg:         cfg,
			})
		}()
	}

	return runner.Run(ctx)
}
