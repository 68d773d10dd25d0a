package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/pos/internal/health"
	"github.com/vladislavdragonenkov/pos/internal/httpapi"
	"github.com/vladislavdragonenkov/pos/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/pos/internal/service/auth"
	"github.com/vladislavdragonenkov/pos/internal/service/checkout"
	"github.com/vladislavdragonenkov/pos/internal/service/idempotency"
	"github.com/vladislavdragonenkov/pos/internal/service/outbox"
	"github.com/vladislavdragonenkov/pos/internal/service/pricing"
	"github.com/vladislavdragonenkov/pos/internal/service/report"
	"github.com/vladislavdragonenkov/pos/internal/version"
)

// Run собирает зависимости и запускает HTTP API вместе с фоновыми
// воркерами. Блокируется до отмены контекста или фатальной ошибки сервера.
func Run(ctx context.Context, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := log.WithField("component", "app")

	deps, err := NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := deps.Close(); closeErr != nil {
			logger.WithError(closeErr).Warn("failed to close storage")
		}
	}()

	pricer, err := buildPricer(cfg)
	if err != nil {
		return err
	}

	// Kafka опционален: без брокеров события остаются в outbox.
	var kafkaProducer *kafka.Producer
	if brokers := strings.TrimSpace(cfg.KafkaBrokers); brokers != "" {
		producer, err := kafka.NewProducer(strings.Split(brokers, ","))
		if err != nil {
			logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		} else {
			kafkaProducer = producer
			logger.WithField("brokers", brokers).Info("kafka producer initialized")
		}
	}

	var coordinator checkout.Coordinator
	if kafkaProducer != nil {
		coordinator = checkout.NewServiceWithKafka(
			deps.Catalog, deps.Stock, deps.Transactions, pricer, deps.Outbox,
			kafkaProducer, logger.WithField("layer", "checkout"),
		)
	} else {
		coordinator = checkout.NewService(
			deps.Catalog, deps.Stock, deps.Transactions, pricer, deps.Outbox,
			logger.WithField("layer", "checkout"),
		)
	}

	authSvc := auth.NewService(deps.Employees, logger.WithField("layer", "auth"))
	reportSvc := report.NewService(deps.Transactions, logger.WithField("layer", "report"))

	handler := httpapi.NewHandler(
		coordinator, deps.Catalog, deps.Stock, deps.Members, deps.Idempotency,
		deps.Outbox, authSvc, reportSvc, pricer, logger.WithField("layer", "httpapi"),
	)

	apiSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	if deps.Store != nil {
		healthHandler.RegisterChecker("postgres", healthcheck.NewSimpleChecker("postgres", func() error {
			return deps.Store.Ping(context.Background())
		}))
	}
	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	// Фоновые воркеры: публикация outbox (только при живом Kafka) и
	// очистка протухших idempotency-ключей.
	if kafkaProducer != nil {
		publisher := kafka.NewOutboxPublisher(kafkaProducer, logger.WithField("layer", "outbox"))
		worker := outbox.NewWorker(deps.Outbox, publisher, outbox.WithLogger(logger.WithField("layer", "outbox")))
		go worker.Run(ctx)
	}
	cleanup := idempotency.NewCleanupWorker(deps.Idempotency, idempotency.WithLogger(logger.WithField("layer", "idempotency")))
	go cleanup.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API слушает %s", cfg.HTTPAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP сервер")
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		closeProducer(kafkaProducer, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		closeProducer(kafkaProducer, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// buildPricer создаёт движок ценообразования по ставке из конфигурации.
func buildPricer(cfg Config) (*pricing.Engine, error) {
	raw := strings.TrimSpace(cfg.DiscountRate)
	if raw == "" {
		return pricing.NewDefaultEngine(), nil
	}

	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("parse discount rate %q: %w", raw, err)
	}
	return pricing.NewEngine(rate)
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler http.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez", addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}

func closeProducer(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}
	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}
