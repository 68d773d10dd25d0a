package domain

import "time"

// CatalogRepository — каталог товаров. Движок продаж только читает его;
// поиск по артикулу регистронезависимый (NormalizeProductID).
type CatalogRepository interface {
	// Create сохраняет новый товар. Возвращает ошибку, если артикул уже занят.
	Create(product Product) error
	// FindByID возвращает товар или ErrProductNotFound, если его нет.
	FindByID(id string) (Product, error)
	// List возвращает все товары в стабильном порядке по артикулу.
	List() ([]Product, error)
	// Save перезаписывает существующий товар.
	Save(product Product) error
}

// StockRepository — авторитетное хранилище остатков по (товар, размер).
// Все операции сохраняют инвариант Qty >= 0.
type StockRepository interface {
	// Quantity возвращает остаток по ключу; для отсутствующего ключа — 0 без ошибки.
	Quantity(productID, size string) (int32, error)
	// TotalQuantity возвращает суммарный остаток товара по всем размерам.
	TotalQuantity(productID string) (int32, error)
	// SetQuantity выставляет абсолютный остаток (идемпотентно); qty < 0 отклоняется.
	SetQuantity(productID, size string, qty int32) error
	// Increase добавляет к остатку; qty <= 0 отклоняется.
	Increase(productID, size string, qty int32) error
	// Decrease списывает с остатка целиком или никак: при нехватке —
	// ErrInsufficientStock без частичного списания.
	Decrease(productID, size string, qty int32) error
	// Reserve атомарно проверяет и списывает весь набор строк: либо все
	// строки списаны, либо ни одна (ErrInsufficientStock при нехватке
	// суммарного требования по любому ключу).
	Reserve(lines []StockLine) error
	// Release возвращает ранее списанный набор строк (компенсация).
	Release(lines []StockLine) error
}

// TransactionRepository — журнал продаж: append-only шапки и строки чеков.
type TransactionRepository interface {
	// NextID атомарно выдаёт следующий последовательный идентификатор продажи.
	NextID() (string, error)
	// Save сохраняет шапку и все строки как одно целое; повторный Save
	// с тем же ID заменяет запись (upsert).
	Save(header TransactionHeader, lines []TransactionLine) error
	// AllHeaders возвращает шапки в порядке создания.
	AllHeaders() ([]TransactionHeader, error)
	// LinesFor возвращает строки чека в порядке номеров строк.
	LinesFor(transactionID string) ([]TransactionLine, error)
}

// MemberRepository — реестр участников программы лояльности.
type MemberRepository interface {
	Create(member Member) error
	Get(id string) (Member, error)
	List() ([]Member, error)
}

// EmployeeRepository — реестр сотрудников для аутентификации персонала.
type EmployeeRepository interface {
	Create(employee Employee) error
	GetByLogin(login string) (Employee, error)
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// IdempotencyRepository хранит состояние обработки запросов по idempotency-key.
type IdempotencyRepository interface {
	CreateProcessing(key, requestHash string, ttlAt time.Time) (IdempotencyRecord, error)
	Get(key string) (IdempotencyRecord, error)
	MarkDone(key string, responseBody []byte, httpStatus int) error
	MarkFailed(key string, responseBody []byte, httpStatus int) error
	DeleteExpired(before time.Time, limit int) (int, error)
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
