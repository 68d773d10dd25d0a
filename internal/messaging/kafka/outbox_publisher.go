package kafka

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

// OutboxPublisher адаптирует Producer к domain.OutboxPublisher:
// воркер outbox публикует накопленные события через него.
type OutboxPublisher struct {
	producer *Producer
	logger   *log.Entry
}

// NewOutboxPublisher создаёт publisher поверх Kafka producer.
func NewOutboxPublisher(producer *Producer, logger *log.Entry) *OutboxPublisher {
	if logger == nil {
		logger = log.WithField("component", "kafka-outbox-publisher")
	}
	return &OutboxPublisher{producer: producer, logger: logger}
}

// Publish отправляет сообщение outbox в топик по типу агрегата.
// Ключ — идентификатор агрегата: события одной продажи попадают в одну партицию.
func (p *OutboxPublisher) Publish(event domain.OutboxMessage) error {
	if p.producer == nil {
		return fmt.Errorf("%w: kafka producer is not configured", domain.ErrOutboxPublish)
	}

	topic := topicForAggregate(event.AggregateType)
	msg := map[string]interface{}{
		"id":             event.ID,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID,
		"event_type":     event.EventType,
		"payload":        string(event.Payload),
	}

	if err := p.producer.PublishEvent(topic, event.AggregateID, msg); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrOutboxPublish, err)
	}
	return nil
}

func topicForAggregate(aggregateType string) string {
	switch aggregateType {
	case "stock":
		return TopicStockEvents
	default:
		return TopicSaleEvents
	}
}

var _ domain.OutboxPublisher = (*OutboxPublisher)(nil)
