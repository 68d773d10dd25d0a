package app

import (
	"fmt"
	"strings"
)

// Поддерживаемые драйверы хранилища.
const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
)

// Config описывает настройки запуска приложения.
type Config struct {
	HTTPAddr      string
	MetricsAddr   string
	StorageDriver string
	PostgresDSN   string
	KafkaBrokers  string
	DiscountRate  string
}

// DefaultConfig возвращает базовые настройки: HTTP API, метрики и
// in-memory хранилище без Kafka.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:      ":8080",
		MetricsAddr:   ":9090",
		StorageDriver: StorageDriverMemory,
	}
}

// Validate проверяет согласованность конфигурации. Драйвер хранилища
// выбирается явно; postgres без DSN отклоняется на старте, а не при
// первом запросе.
func (c Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.StorageDriver)) {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return fmt.Errorf("postgres storage driver requires a DSN")
		}
	default:
		return fmt.Errorf("unsupported storage driver: %q", c.StorageDriver)
	}
	return nil
}
