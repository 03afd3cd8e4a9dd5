package registry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/centrelabs/backoffice/pkg/config"
	"github.com/centrelabs/backoffice/pkg/db/models"
	"github.com/centrelabs/backoffice/pkg/enums"
	"github.com/centrelabs/backoffice/pkg/outbox"
	"github.com/centrelabs/backoffice/pkg/outbox/payloads"
)

func testConfig() config.PubSubConfig {
	return config.PubSubConfig{
		OrdersTopic:        "orders",
		NotificationsTopic: "notifications",
		ErpSyncTopic:       "erp-sync",
	}
}

func envelopeJSON(t *testing.T, data interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal data: %v", err)
	}
	env := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now(),
		Data:       raw,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return payload
}

func TestNewEventRegistryRequiresTopics(t *testing.T) {
	cfg := testConfig()
	cfg.OrdersTopic = ""
	if _, err := NewEventRegistry(cfg); err == nil {
		t.Fatal("expected error for missing orders topic")
	}
}

func TestResolveOrderCreated(t *testing.T) {
	reg, err := NewEventRegistry(testConfig())
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	orderID := uuid.New()
	event := models.OutboxEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Payload: envelopeJSON(t, payloads.OrderCreatedEvent{
			OrderID:     orderID,
			OrderNumber: "CL-20260301-0001",
			CustomerID:  uuid.New(),
			Total:       "102.60",
			ItemCount:   2,
		}),
	}

	resolved, err := reg.Resolve(event)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Descriptor.Topic != "orders" {
		t.Fatalf("expected orders topic, got %s", resolved.Descriptor.Topic)
	}
	typed, ok := resolved.Payload.(*payloads.OrderCreatedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", resolved.Payload)
	}
	if typed.OrderID != orderID || typed.Total != "102.60" {
		t.Fatalf("payload round trip mismatch: %+v", typed)
	}
}

func TestResolveTopicRouting(t *testing.T) {
	reg, err := NewEventRegistry(testConfig())
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	cases := []struct {
		eventType enums.OutboxEventType
		aggregate enums.OutboxAggregateType
		data      interface{}
		topic     string
	}{
		{enums.EventStockLow, enums.AggregateInventory, payloads.StockLowEvent{VariantID: uuid.New(), WarehouseID: uuid.New()}, "notifications"},
		{enums.EventErpProductSync, enums.AggregateProduct, payloads.ProductSyncEvent{ProductID: uuid.New()}, "erp-sync"},
		{enums.EventOrderDelivered, enums.AggregateOrder, payloads.OrderDeliveredEvent{OrderID: uuid.New()}, "orders"},
	}
	for _, tc := range cases {
		event := models.OutboxEvent{
			EventType:     tc.eventType,
			AggregateType: tc.aggregate,
			AggregateID:   uuid.New(),
			Payload:       envelopeJSON(t, tc.data),
		}
		resolved, err := reg.Resolve(event)
		if err != nil {
			t.Fatalf("resolve %s: %v", tc.eventType, err)
		}
		if resolved.Descriptor.Topic != tc.topic {
			t.Fatalf("%s routed to %s, want %s", tc.eventType, resolved.Descriptor.Topic, tc.topic)
		}
	}
}

func TestResolveRejectsBadRows(t *testing.T) {
	reg, err := NewEventRegistry(testConfig())
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	var nonRetry NonRetryableError

	_, err = reg.Resolve(models.OutboxEvent{
		EventType:     "order.unknown",
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
	})
	if !errors.As(err, &nonRetry) {
		t.Fatalf("expected non-retryable for unknown type, got %v", err)
	}

	_, err = reg.Resolve(models.OutboxEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateInventory,
		AggregateID:   uuid.New(),
	})
	if !errors.As(err, &nonRetry) {
		t.Fatalf("expected non-retryable for aggregate mismatch, got %v", err)
	}

	_, err = reg.Resolve(models.OutboxEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.Nil,
	})
	if !errors.As(err, &nonRetry) {
		t.Fatalf("expected non-retryable for nil aggregate id, got %v", err)
	}

	_, err = reg.Resolve(models.OutboxEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{"version":1,"eventId":"x","occurredAt":"2026-03-01T00:00:00Z","data":null}`),
	})
	if !errors.As(err, &nonRetry) {
		t.Fatalf("expected non-retryable for null data, got %v", err)
	}
}
