package checkout

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/pos/internal/domain"
	"github.com/vladislavdragonenkov/pos/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/pos/internal/metrics"
	"github.com/vladislavdragonenkov/pos/internal/service/pricing"
)

// Причины отклонения заказа для метрик.
const (
	rejectReasonValidation        = "validation"
	rejectReasonNotFound          = "not_found"
	rejectReasonInsufficientStock = "insufficient_stock"
	rejectReasonPersistence       = "persistence"
)

// Coordinator описывает публичный контракт движка оформления продаж.
type Coordinator interface {
	PlaceOrder(request *domain.OrderRequest) (domain.OrderResult, error)
}

// service превращает корзину в оформленную продажу: валидация → снапшот цен
// из каталога → ценообразование → атомарный резерв остатков → запись чека.
//
// Порядок резерв-затем-запись выбран сознательно: списание остатков
// атомарно и обратимо (Release), запись чека — нет. Провал записи
// компенсируется возвратом резерва; сверка «чек есть, остатки не
// списаны» при таком порядке невозможна.
type service struct {
	catalog      domain.CatalogRepository
	stock        domain.StockRepository
	transactions domain.TransactionRepository
	pricer       *pricing.Engine
	outbox       domain.OutboxRepository // опциональный transactional outbox
	logger       *log.Entry
	metrics      *metrics.CheckoutMetrics
	producer     *kafka.Producer // опциональный Kafka producer для прямой публикации
}

// NewService создаёт рабочий экземпляр движка оформления.
func NewService(
	catalog domain.CatalogRepository,
	stock domain.StockRepository,
	transactions domain.TransactionRepository,
	pricer *pricing.Engine,
	outbox domain.OutboxRepository,
	logger *log.Entry,
) Coordinator {
	if logger == nil {
		logger = log.New().WithField("component", "checkout")
	}
	if pricer == nil {
		pricer = pricing.NewDefaultEngine()
	}
	return &service{
		catalog:      catalog,
		stock:        stock,
		transactions: transactions,
		pricer:       pricer,
		outbox:       outbox,
		logger:       logger,
		metrics:      metrics.NewCheckoutMetrics(),
	}
}

// NewServiceWithKafka создаёт движок с Kafka producer для event-driven интеграций.
func NewServiceWithKafka(
	catalog domain.CatalogRepository,
	stock domain.StockRepository,
	transactions domain.TransactionRepository,
	pricer *pricing.Engine,
	outbox domain.OutboxRepository,
	producer *kafka.Producer,
	logger *log.Entry,
) Coordinator {
	svc := NewService(catalog, stock, transactions, pricer, outbox, logger).(*service)
	svc.producer = producer
	return svc
}

// NewServiceWithoutMetrics создаёт движок без метрик (для тестов).
func NewServiceWithoutMetrics(
	catalog domain.CatalogRepository,
	stock domain.StockRepository,
	transactions domain.TransactionRepository,
	pricer *pricing.Engine,
	outbox domain.OutboxRepository,
	logger *log.Entry,
) Coordinator {
	svc := NewService(catalog, stock, transactions, pricer, outbox, logger).(*service)
	svc.metrics = nil
	return svc
}

// PlaceOrder оформляет продажу. До шага резервирования ни одно хранилище
// не мутируется: любой отказ валидации или каталога безопасен для повторa.
func (s *service) PlaceOrder(request *domain.OrderRequest) (domain.OrderResult, error) {
	start := time.Now()
	if s.metrics != nil {
		s.metrics.RecordCheckoutStarted()
	}
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordCheckoutFinished()
			s.metrics.RecordCheckoutDuration(time.Since(start))
		}
	}()

	if request == nil {
		s.reject(rejectReasonValidation)
		return domain.OrderResult{}, domain.ErrOrderRequired
	}
	if errs := request.ValidateInvariants(); len(errs) > 0 {
		s.reject(rejectReasonValidation)
		return domain.OrderResult{}, errs[0]
	}

	isMember := request.IsMember()

	lines, err := s.snapshotLines(request)
	if err != nil {
		return domain.OrderResult{}, err
	}

	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.Subtotal())
	}

	total, err := s.pricer.ApplyMembershipDiscount(subtotal, isMember)
	if err != nil {
		s.reject(rejectReasonValidation)
		return domain.OrderResult{}, err
	}
	discount := subtotal.Sub(total)

	stockLines := make([]domain.StockLine, 0, len(lines))
	for _, line := range lines {
		stockLines = append(stockLines, domain.StockLine{
			ProductID: line.ProductID,
			Size:      line.Size,
			Qty:       line.Qty,
		})
	}

	// Атомарный резерв: либо списаны все строки, либо ни одна.
	if err := s.stock.Reserve(stockLines); err != nil {
		if domain.IsInsufficientStock(err) {
			s.reject(rejectReasonInsufficientStock)
			s.logger.WithError(err).Warn("order rejected: insufficient stock")
			return domain.OrderResult{}, err
		}
		s.reject(rejectReasonPersistence)
		s.logger.WithError(err).Error("stock reservation failed")
		return domain.OrderResult{}, err
	}

	result, err := s.persist(request, lines, subtotal, discount, total, isMember)
	if err != nil {
		// Запись чека не удалась: возвращаем резерв. Если и компенсация
		// провалилась, остатки списаны без зафиксированной продажи —
		// это отдельное, явно различимое состояние для ручной сверки.
		if releaseErr := s.stock.Release(stockLines); releaseErr != nil {
			s.logger.WithError(releaseErr).Error("failed to restore reserved stock after persistence failure")
			return domain.OrderResult{}, fmt.Errorf("%w: %v (restore failed: %v)",
				domain.ErrStockNotRestored, err, releaseErr)
		}
		s.reject(rejectReasonPersistence)
		s.logger.WithError(err).Error("failed to persist transaction")
		return domain.OrderResult{}, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	if s.metrics != nil {
		s.metrics.RecordOrderPlaced()
		amount, _ := result.Total.Float64()
		s.metrics.RecordSaleAmount(amount)
	}

	s.emitSaleCompleted(request, result)
	s.emitStockReserved(result.TransactionID, stockLines)

	s.logger.WithFields(log.Fields{
		"transaction_id": result.TransactionID,
		"total":          result.Total.String(),
		"lines":          len(lines),
		"member":         isMember,
	}).Info("order placed")

	return result, nil
}

// snapshotLines резолвит каждую позицию через каталог и фиксирует текущую
// цену в строку чека. Read-only: неизвестный товар или нехватка остатка
// отклоняют заказ целиком без какого-либо частичного исполнения.
func (s *service) snapshotLines(request *domain.OrderRequest) ([]domain.TransactionLine, error) {
	lines := make([]domain.TransactionLine, 0, len(request.Lines))

	for i, lineReq := range request.Lines {
		product, err := s.catalog.FindByID(lineReq.ProductID)
		if err != nil {
			s.reject(rejectReasonNotFound)
			s.logger.WithError(err).WithField("product_id", lineReq.ProductID).Warn("unknown product in order")
			return nil, err
		}
		if !product.Active {
			s.reject(rejectReasonValidation)
			return nil, fmt.Errorf("%w: %s", domain.ErrProductInactive, product.ID)
		}
		if lineReq.Qty <= 0 {
			s.reject(rejectReasonValidation)
			return nil, fmt.Errorf("%w: line %d", domain.ErrLineQtyInvalid, i+1)
		}

		// Предварительная проверка остатка даёт точную ошибку с именем
		// товара до резервирования; авторитетная проверка — в Reserve.
		available, err := s.stock.Quantity(product.ID, lineReq.Size)
		if err != nil {
			s.reject(rejectReasonPersistence)
			s.logger.WithError(err).WithField("product_id", product.ID).Error("stock lookup failed")
			return nil, err
		}
		if available < lineReq.Qty {
			s.reject(rejectReasonInsufficientStock)
			return nil, fmt.Errorf("%w: %s size %s has %d, requested %d",
				domain.ErrInsufficientStock, product.ID, lineReq.Size, available, lineReq.Qty)
		}

		lines = append(lines, domain.TransactionLine{
			LineNo:    int32(i + 1),
			ProductID: product.ID,
			Size:      lineReq.Size,
			Qty:       lineReq.Qty,
			UnitPrice: product.UnitPrice,
		})
	}

	return lines, nil
}

// persist выделяет идентификатор, собирает шапку и пишет чек одним вызовом.
func (s *service) persist(
	request *domain.OrderRequest,
	lines []domain.TransactionLine,
	subtotal, discount, total decimal.Decimal,
	isMember bool,
) (domain.OrderResult, error) {
	id, err := s.transactions.NextID()
	if err != nil {
		return domain.OrderResult{}, fmt.Errorf("allocate transaction id: %w", err)
	}

	header := domain.TransactionHeader{
		ID:            id,
		CreatedAt:     time.Now().UTC(),
		MemberID:      request.MemberID,
		CustomerRef:   request.CustomerRef,
		Total:         total,
		PaymentMethod: request.PaymentMethod,
	}
	for i := range lines {
		lines[i].TransactionID = id
	}

	if err := s.transactions.Save(header, lines); err != nil {
		return domain.OrderResult{}, fmt.Errorf("save transaction: %w", err)
	}

	return domain.OrderResult{
		TransactionID:         id,
		Subtotal:              subtotal,
		Discount:              discount,
		Total:                 total,
		MemberDiscountApplied: isMember,
	}, nil
}

// emitSaleCompleted кладёт событие продажи в outbox и, если настроен
// producer, публикует его в Kafka. Сбои здесь продажу не отменяют.
func (s *service) emitSaleCompleted(request *domain.OrderRequest, result domain.OrderResult) {
	payload, err := json.Marshal(map[string]interface{}{
		"transaction_id": result.TransactionID,
		"member_id":      request.MemberID,
		"subtotal":       result.Subtotal.String(),
		"discount":       result.Discount.String(),
		"total":          result.Total.String(),
		"payment_method": request.PaymentMethod,
		"ts":             time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		s.logger.WithError(err).Error("marshal sale event failed")
		return
	}

	if s.outbox != nil {
		msg := domain.OutboxMessage{
			AggregateType: "sale",
			AggregateID:   result.TransactionID,
			EventType:     string(kafka.EventTypeSaleCompleted),
			Payload:       payload,
		}
		if _, err := s.outbox.Enqueue(msg); err != nil {
			s.logger.WithError(err).WithField("transaction_id", result.TransactionID).Error("enqueue sale event failed")
		} else if s.metrics != nil {
			s.metrics.RecordOutboxEvent()
		}
	}

	if s.producer != nil {
		event := kafka.NewSaleEvent(kafka.EventTypeSaleCompleted,
			result.TransactionID, request.MemberID, result.Total.String(), nil)
		if err := s.producer.PublishEvent(kafka.TopicSaleEvents, result.TransactionID, event); err != nil {
			s.logger.WithError(err).WithField("transaction_id", result.TransactionID).Warn("failed to publish sale event to kafka")
		}
	}
}

// emitStockReserved кладёт в outbox по событию на каждый агрегированный
// ключ (товар, размер), списанный продажей. Сбои продажу не отменяют.
func (s *service) emitStockReserved(transactionID string, stockLines []domain.StockLine) {
	if s.outbox == nil {
		return
	}

	for _, line := range domain.AggregateStockLines(stockLines) {
		payload, err := json.Marshal(kafka.NewStockEvent(
			kafka.EventTypeStockReserved, line.ProductID, line.Size, line.Qty))
		if err != nil {
			s.logger.WithError(err).Error("marshal stock event failed")
			continue
		}

		msg := domain.OutboxMessage{
			AggregateType: "stock",
			AggregateID:   line.ProductID,
			EventType:     string(kafka.EventTypeStockReserved),
			Payload:       payload,
		}
		if _, err := s.outbox.Enqueue(msg); err != nil {
			s.logger.WithError(err).WithFields(log.Fields{
				"transaction_id": transactionID,
				"product_id":     line.ProductID,
			}).Error("enqueue stock event failed")
		} else if s.metrics != nil {
			s.metrics.RecordOutboxEvent()
		}
	}
}

func (s *service) reject(reason string) {
	if s.metrics != nil {
		s.metrics.RecordOrderRejected(reason)
	}
}

var _ Coordinator = (*service)(nil)
