package app

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/pos/internal/domain"
	"github.com/vladislavdragonenkov/pos/internal/storage/memory"
	"github.com/vladislavdragonenkov/pos/internal/storage/postgres"
)

// Dependencies содержит репозитории приложения и, при postgres-драйвере,
// открытое подключение к базе.
type Dependencies struct {
	Catalog      domain.CatalogRepository
	Stock        domain.StockRepository
	Transactions domain.TransactionRepository
	Members      domain.MemberRepository
	Employees    domain.EmployeeRepository
	Outbox       domain.OutboxRepository
	Idempotency  domain.IdempotencyRepository

	Store  *postgres.Store
	Logger *log.Entry
}

// NewDependencies создаёт зависимости для выбранного драйвера хранилища.
// Драйвер задаётся конфигурацией явно, без автоматических проб подключения.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	// Драйвер обязан быть выбран явно; согласовано с Config.Validate.
	driver := strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	switch driver {
	case StorageDriverMemory:
		logger.Info("storage driver: memory")
		return &Dependencies{
			Catalog:      memory.NewCatalogRepository(),
			Stock:        memory.NewStockRepository(),
			Transactions: memory.NewTransactionRepository(),
			Members:      memory.NewMemberRepository(),
			Employees:    memory.NewEmployeeRepository(),
			Outbox:       memory.NewOutboxRepository(),
			Idempotency:  memory.NewIdempotencyRepository(),
			Logger:       logger,
		}, nil

	case StorageDriverPostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		logger.Info("storage driver: postgres")
		return &Dependencies{
			Catalog:      postgres.NewCatalogRepository(store),
			Stock:        postgres.NewStockRepository(store),
			Transactions: postgres.NewTransactionRepository(store),
			Members:      postgres.NewMemberRepository(store),
			Employees:    postgres.NewEmployeeRepository(store),
			Outbox:       postgres.NewOutboxRepository(store),
			Idempotency:  postgres.NewIdempotencyRepository(store),
			Store:        store,
			Logger:       logger,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver: %q", cfg.StorageDriver)
	}
}

// Close освобождает ресурсы зависимостей.
func (d *Dependencies) Close() error {
	if d == nil || d.Store == nil {
		return nil
	}
	return d.Store.Close()
}
