package kafka

import "time"

// EventType определяет тип события.
type EventType string

const (
	// События продаж
	EventTypeSaleCompleted EventType = "sale.completed"

	// События склада
	EventTypeStockReserved  EventType = "stock.reserved"
	EventTypeStockAdjusted  EventType = "stock.adjusted"
	EventTypeStockRestocked EventType = "stock.restocked"
)

// Topics для Kafka.
const (
	TopicSaleEvents  = "pos.sale.events"
	TopicStockEvents = "pos.stock.events"
)

// SaleEvent представляет событие оформленной продажи.
type SaleEvent struct {
	EventType     EventType              `json:"event_type"`
	TransactionID string                 `json:"transaction_id"`
	MemberID      string                 `json:"member_id,omitempty"`
	Total         string                 `json:"total"`
	Timestamp     time.Time              `json:"timestamp"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// StockEvent представляет событие изменения остатков.
type StockEvent struct {
	EventType EventType `json:"event_type"`
	ProductID string    `json:"product_id"`
	Size      string    `json:"size"`
	Qty       int32     `json:"qty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSaleEvent создаёт событие продажи.
func NewSaleEvent(eventType EventType, transactionID, memberID, total string, metadata map[string]interface{}) *SaleEvent {
	return &SaleEvent{
		EventType:     eventType,
		TransactionID: transactionID,
		MemberID:      memberID,
		Total:         total,
		Timestamp:     time.Now().UTC(),
		Metadata:      metadata,
	}
}

// NewStockEvent создаёт событие изменения остатка.
func NewStockEvent(eventType EventType, productID, size string, qty int32) *StockEvent {
	return &StockEvent{
		EventType: eventType,
		ProductID: productID,
		Size:      size,
		Qty:       qty,
		Timestamp: time.Now().UTC(),
	}
}
