package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lighthub/lighthub/config"
	"github.com/lighthub/lighthub/internal/api/shophttp"
	"github.com/lighthub/lighthub/internal/broker/kafka"
	"github.com/lighthub/lighthub/internal/cache/rediscache"
	"github.com/lighthub/lighthub/internal/integrations/payment"
	paymentfake "github.com/lighthub/lighthub/internal/integrations/payment/fake"
	"github.com/lighthub/lighthub/internal/integrations/payment/opayhttp"
	"github.com/lighthub/lighthub/internal/services/catalog"
	"github.com/lighthub/lighthub/internal/services/notifications"
	"github.com/lighthub/lighthub/internal/services/orders"
	"github.com/lighthub/lighthub/internal/services/progress"
	"github.com/lighthub/lighthub/internal/services/promo"
	"github.com/lighthub/lighthub/internal/storage/memshop"
	"github.com/lighthub/lighthub/internal/storage/pgshop"
)

// shopStorage is everything the API process needs from a storage backend.
// Both pgshop and memshop satisfy it.
type shopStorage interface {
	orders.Repository
	promo.Repository
	catalog.Repository
	notifications.Repository
}

type shopAPIApp struct {
	ctx      context.Context
	cancel   context.CancelFunc
	opts     shopAPIOpts
	api      *shophttp.API
	orders   *orders.Service
	notifs   *notifications.Service
	consumer *kafka.Consumer
	closeDB  func()
}

func mustBootstrapShopAPI() *shopAPIApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}
	swaggerPath := os.Getenv("swaggerPath")
	if swaggerPath == "" {
		panic("swaggerPath env var is required")
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	httpAddr := cfg.LightHub.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	consumerGroup := cfg.LightHub.KafkaConsumerGroup
	if consumerGroup == "" {
		consumerGroup = "shop-api"
	}
	topic := cfg.Kafka.OrderStatusChangedTopicName
	if topic == "" {
		topic = "order.status_changed"
	}
	cacheTTL := time.Duration(cfg.LightHub.CurrentOrderTTLSeconds) * time.Second
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}

	st, closeDB := mustOpenStorage(cfg)

	redisAddr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	rc := rediscache.New(redisAddr)
	rl := rediscache.NewRateLimiter(redisAddr)

	promoSvc := promo.New(st)
	if err := promo.Seed(context.Background(), st); err != nil {
		panic(fmt.Sprintf("failed to seed promo codes: %v", err))
	}

	planner := progress.NewPlanner(progress.PlannerConfig{
		StepMinDelay: time.Duration(cfg.LightHub.ProgressStepMinSeconds) * time.Second,
		StepMaxDelay: time.Duration(cfg.LightHub.ProgressStepMaxSeconds) * time.Second,
	}, nil)

	orderSvc := orders.New(st, promoSvc, newPaymentClient(cfg), rc, cacheTTL).
		WithStepDelay(planner.StepDelay)
	notifSvc := notifications.New(st)

	api := shophttp.New(orderSvc, promoSvc, catalog.New(st), notifSvc,
		rl, int64(cfg.LightHub.PromoRateLimitPerMinute), cfg.LightHub.AdminAuthSecret)

	brokers := []string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)}
	consumer := kafka.NewConsumer(brokers, topic, consumerGroup)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	return &shopAPIApp{
		ctx:    ctx,
		cancel: cancel,
		opts: shopAPIOpts{
			httpAddr:      httpAddr,
			swaggerPath:   swaggerPath,
			topic:         topic,
			consumerGroup: consumerGroup,
		},
		api:      api,
		orders:   orderSvc,
		notifs:   notifSvc,
		consumer: consumer,
		closeDB:  closeDB,
	}
}

// mustOpenStorage picks postgres when configured, otherwise the in-memory
// store for DSN-less demo runs.
func mustOpenStorage(cfg *config.Config) (shopStorage, func()) {
	if cfg.Database.Host == "" {
		slog.Warn("database host not configured, using in-memory storage")
		return memshop.New(), func() {}
	}

	sslMode := cfg.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName, sslMode)
	st := mustOpenPostgresWithRetry(connString, 60*time.Second)
	return st, st.Close
}

func mustOpenPostgresWithRetry(connString string, wait time.Duration) *pgshop.Storage {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		st, err := pgshop.New(connString)
		if err == nil {
			return st
		}
		lastErr = err
		time.Sleep(1 * time.Second)
	}
	panic(fmt.Sprintf("postgres is not ready after %s: %v", wait, lastErr))
}

func newPaymentClient(cfg *config.Config) payment.Client {
	if cfg.LightHub.PaymentGatewayBaseURL != "" && cfg.LightHub.PaymentGatewayMode == "opay" {
		return opayhttp.New(cfg.LightHub.PaymentGatewayBaseURL, cfg.LightHub.PaymentGatewayAPIKey)
	}
	return &paymentfake.FakeClient{DeclineOver: cfg.LightHub.PaymentDeclineOver}
}

func (a *shopAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.consumer != nil {
		_ = a.consumer.Close()
	}
	if a.closeDB != nil {
		a.closeDB()
	}
}

func (a *shopAPIApp) Run() error {
	return runShopAPI(a.ctx, a.opts, a.api, a.orders, a.notifs, a.consumer)
}
