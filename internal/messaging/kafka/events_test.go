package kafka

import "testing"

func TestTopicForAggregate(t *testing.T) {
	cases := []struct {
		name          string
		aggregateType string
		want          string
	}{
		{"stock aggregate routes to stock topic", "stock", TopicStockEvents},
		{"sale aggregate routes to sale topic", "sale", TopicSaleEvents},
		{"unknown aggregate falls back to sale topic", "loyalty", TopicSaleEvents},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := topicForAggregate(tc.aggregateType); got != tc.want {
				t.Errorf("expected topic %s, got %s", tc.want, got)
			}
		})
	}
}

func TestNewSaleEvent(t *testing.T) {
	event := NewSaleEvent(EventTypeSaleCompleted, "S00000001", "M001", "37.81", nil)

	if event.EventType != EventTypeSaleCompleted {
		t.Errorf("expected event type %s, got %s", EventTypeSaleCompleted, event.EventType)
	}
	if event.TransactionID != "S00000001" {
		t.Errorf("expected transaction id S00000001, got %s", event.TransactionID)
	}
	if event.Timestamp.IsZero() {
		t.Error("timestamp should be set")
	}
}

func TestNewStockEvent(t *testing.T) {
	event := NewStockEvent(EventTypeStockReserved, "TS001", "M", 2)

	if event.EventType != EventTypeStockReserved {
		t.Errorf("expected event type %s, got %s", EventTypeStockReserved, event.EventType)
	}
	if event.ProductID != "TS001" {
		t.Errorf("expected product id TS001, got %s", event.ProductID)
	}
	if event.Qty != 2 {
		t.Errorf("expected qty 2, got %d", event.Qty)
	}
	if event.Timestamp.IsZero() {
		t.Error("timestamp should be set")
	}
}
